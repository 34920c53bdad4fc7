// Package runner drives a workload through the cache hierarchy core,
// one simulated process at a time, and assembles the run-wide report.
package runner

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/mlcachesim/mlcachesim/pkg/cache"
	"github.com/mlcachesim/mlcachesim/pkg/checkpoint"
	"github.com/mlcachesim/mlcachesim/pkg/report"
	"github.com/mlcachesim/mlcachesim/pkg/simerr"
	"github.com/mlcachesim/mlcachesim/pkg/trace"
)

// Options configures one run of the workload.
type Options struct {
	Seed            uint64
	ContinueOnError bool
	Progress        bool
	CheckpointPath  string
	ResumeFrom      int // first PID to simulate; nonzero when resuming
	Log             *zerolog.Logger
	Stdout          io.Writer
}

// Run simulates every process in wl against specs, in PID order,
// reporting each one as it completes. A single RNG is constructed once
// (§5: "no globals persist across processes except the RNG's state")
// and threaded through every process's hierarchy so victim sequences
// don't repeat identically from one process to the next.
func Run(specs []cache.LevelSpec, wl *trace.Workload, opts Options) (*report.Table, error) {
	log := opts.Log
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}

	table := report.NewTable()
	rng := cache.NewRNG(opts.Seed)

	var prog *progress
	if opts.Progress {
		prog = newProgress(len(wl.Processes))
		defer prog.stop()
	}

	for pid, proc := range wl.Processes {
		if pid < opts.ResumeFrom {
			continue
		}

		// "workoad" reproduces simulateMultilevelAssoc.c's header verbatim,
		// typo included — this is the exact wire format, not a mistake.
		fmt.Fprintf(out, "workoad [%d], %d levels\n", pid, len(specs)-1)

		h, err := cache.NewHierarchy(specs, rng)
		if err != nil {
			if handleErr := simerr.Handle(log, err, opts.ContinueOnError); handleErr != nil {
				return table, handleErr
			}
			continue
		}

		for {
			ref, ok := proc.Reader.Next()
			if !ok {
				break
			}
			if err := h.HandleReference(ref.Kind, ref.Address); err != nil {
				if handleErr := simerr.Handle(log, err, opts.ContinueOnError); handleErr != nil {
					return table, handleErr
				}
				continue
			}
			if prog != nil {
				prog.tick()
			}
		}

		rows, totals := report.Build(h)
		if err := report.Write(out, rows, totals); err != nil {
			return table, err
		}

		summary := report.ProcessSummary{
			PID:        pid,
			Path:       proc.Path,
			ProcessTag: proc.Type,
			LevelCount: h.LevelCount(),
			Rows:       rows,
			Totals:     totals,
		}
		table.Add(summary)

		if prog != nil {
			prog.completeProcess()
		}

		if opts.CheckpointPath != "" {
			ckpt := &checkpoint.Checkpoint{CompletedPID: pid, Summaries: table.Summaries()}
			if err := checkpoint.SaveCheckpoint(opts.CheckpointPath, ckpt); err != nil {
				log.Warn().Err(err).Msg("failed to write checkpoint")
			}
		}
	}

	return table, nil
}
