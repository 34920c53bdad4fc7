package runner

import (
	"fmt"
	"sync/atomic"
	"time"
)

// progress reports run-wide throughput on a background ticker, never
// touching cache state — it only reads atomic counters the run loop
// updates as it goes, matching the teacher's worker-pool reporter.
type progress struct {
	totalProcesses int
	references     atomic.Int64
	completed      atomic.Int64
	startTime      time.Time
	done           chan struct{}
}

func newProgress(totalProcesses int) *progress {
	p := &progress{
		totalProcesses: totalProcesses,
		startTime:      time.Now(),
		done:           make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *progress) tick() {
	p.references.Add(1)
}

func (p *progress) completeProcess() {
	p.completed.Add(1)
}

func (p *progress) stop() {
	close(p.done)
}

func (p *progress) run() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			elapsed := time.Since(p.startTime).Round(time.Second)
			comp := p.completed.Load()
			refs := p.references.Load()
			fmt.Printf("  [%s] %d/%d processes | %d references\n", elapsed, comp, p.totalProcesses, refs)
		}
	}
}
