// Package trace reads per-process reference traces: one "kind address"
// record per line, terminated by EOF or a '#'-prefixed comment line.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mlcachesim/mlcachesim/pkg/cache"
)

// Reference is a single decoded trace record. For Exception, Wait holds
// the number of instructions the process stalls for and Address is
// unused; for every other Kind, Address is the byte address referenced.
type Reference struct {
	Kind    cache.Kind
	Address uint64
	Wait    uint64
}

// Reader decodes one process's trace file, one line at a time. It
// supports a single level of backtrack, mirroring the original reader's
// one-instruction lookahead: an interrupted instruction fetch can be
// replayed once the handler is done with it, but no deeper history is
// kept.
type Reader struct {
	scanner   *bufio.Scanner
	last      Reference
	lastOK    bool // true once a record has been read
	unused    bool // true if last should be replayed instead of advancing
	exhausted bool
}

// NewReader wraps r as a trace source.
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Reader{scanner: s}
}

// Backtrack marks the most recently returned reference as not yet
// consumed: the next call to Next replays it instead of reading ahead.
// Calling it before any reference has been read is a no-op.
func (r *Reader) Backtrack() {
	if r.lastOK {
		r.unused = true
	}
}

// Next returns the next reference in the trace and true, or a zero
// Reference and false once the trace is exhausted (EOF, a comment
// line, or a malformed line). Exhaustion is sticky: further calls keep
// returning false.
func (r *Reader) Next() (Reference, bool) {
	if r.exhausted {
		return Reference{}, false
	}
	if r.unused {
		r.unused = false
		return r.last, true
	}

	for r.scanner.Scan() {
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			r.exhausted = true
			return Reference{}, false
		}
		ref, err := parseLine(line)
		if err != nil {
			r.exhausted = true
			return Reference{}, false
		}
		r.last, r.lastOK = ref, true
		return ref, true
	}
	r.exhausted = true
	return Reference{}, false
}

func parseLine(line string) (Reference, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return Reference{}, fmt.Errorf("trace: expected 2 fields, got %d in %q", len(fields), line)
	}
	kind, err := kindOf(fields[0])
	if err != nil {
		return Reference{}, err
	}
	hex := strings.TrimPrefix(strings.TrimPrefix(fields[1], "0x"), "0X")
	value, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return Reference{}, fmt.Errorf("trace: malformed address/wait field %q: %w", fields[1], err)
	}
	if kind == cache.Exception {
		return Reference{Kind: kind, Wait: value}, nil
	}
	return Reference{Kind: kind, Address: value}, nil
}

func kindOf(tag string) (cache.Kind, error) {
	if len(tag) != 1 {
		return 0, fmt.Errorf("trace: reference type tag must be a single character, got %q", tag)
	}
	switch tag[0] {
	case 'I':
		return cache.Fetch, nil
	case 'R':
		return cache.Read, nil
	case 'W':
		return cache.Write, nil
	case 'X':
		return cache.Exception, nil
	default:
		return 0, fmt.Errorf("trace: unknown reference type %q", tag)
	}
}
