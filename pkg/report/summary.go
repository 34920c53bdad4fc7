package report

import (
	"sort"
	"sync"
)

// ProcessSummary is one process's final report, kept around after its
// hierarchy has been torn down so the whole workload can be tabulated
// at the end of a run.
type ProcessSummary struct {
	PID        int
	Path       string
	ProcessTag byte // the optional "*<c>" suffix from the workload file, 0 if none
	LevelCount int  // number of real cache levels this process ran against (split L1 counts once)
	Rows       []Row
	Totals     Totals
}

// Table accumulates ProcessSummary entries from every process in a
// workload, safe for concurrent Add from multiple goroutines even
// though the simulator itself drives processes serially (§5).
type Table struct {
	mu        sync.Mutex
	summaries []ProcessSummary
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{}
}

// Add records one process's summary.
func (t *Table) Add(s ProcessSummary) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.summaries = append(t.summaries, s)
}

// Summaries returns a copy of every recorded summary, sorted by
// elapsed time descending (the costliest process first).
func (t *Table) Summaries() []ProcessSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ProcessSummary, len(t.summaries))
	copy(out, t.summaries)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Totals.ElapsedTime > out[j].Totals.ElapsedTime
	})
	return out
}

// Len returns the number of recorded summaries.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.summaries)
}
