package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Process is one workload entry: a trace file together with its
// decoded reader and the optional single-character type tag recorded
// after a '*' in its file path (carried into the process's report
// summary as metadata; the simulator itself doesn't interpret it).
type Process struct {
	Path   string
	Type   byte // 0 if the path carried no "*<c>" suffix
	Reader *Reader
	file   *os.File
}

// Close releases the process's underlying trace file.
func (p *Process) Close() error {
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// Workload is the set of processes making up one simulation run, read
// from a list of file paths (one per line, in PID order starting at 0).
type Workload struct {
	Processes []*Process
}

// LoadWorkload reads one file path per line from r. A path may carry a
// "*<c>" suffix naming a single-character type tag, which is stripped
// before the file is opened. A line whose file can't be opened is
// skipped with a reported error rather than aborting the whole
// workload, matching the original loader's "at least one bad file
// path, carrying on" tolerance; the workload as a whole only fails if
// not a single path could be opened.
func LoadWorkload(r io.Reader) (*Workload, error) {
	scanner := bufio.NewScanner(r)
	var procs []*Process
	var openErrs []error

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		path, typeTag := splitTypeTag(line)
		f, err := os.Open(path)
		if err != nil {
			openErr := fmt.Errorf("workload: can't open %q: %w", path, err)
			fmt.Fprintln(os.Stderr, openErr)
			openErrs = append(openErrs, openErr)
			continue
		}
		procs = append(procs, &Process{
			Path:   path,
			Type:   typeTag,
			Reader: NewReader(f),
			file:   f,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("workload: %w", err)
	}
	if len(procs) == 0 {
		if len(openErrs) > 0 {
			return nil, fmt.Errorf("workload: no usable file paths, giving up: %w", openErrs[0])
		}
		return nil, fmt.Errorf("workload: no usable file paths, giving up")
	}
	return &Workload{Processes: procs}, nil
}

// splitTypeTag strips a "*<c>" suffix from path, returning the bare
// path and the tag character (0 if none was present).
func splitTypeTag(path string) (string, byte) {
	if i := strings.IndexByte(path, '*'); i >= 0 {
		var tag byte
		if i+1 < len(path) {
			tag = path[i+1]
		}
		return path[:i], tag
	}
	return path, 0
}

// Close releases every process's trace file, returning the first error
// encountered, if any.
func (w *Workload) Close() error {
	var first error
	for _, p := range w.Processes {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
