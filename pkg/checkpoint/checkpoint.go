// Package checkpoint saves and resumes simulator progress across a
// long-running workload, so a run interrupted partway through a large
// trace set doesn't have to start over from process 0.
package checkpoint

import (
	"encoding/gob"
	"os"

	"github.com/mlcachesim/mlcachesim/pkg/report"
)

// Checkpoint holds enough state to resume a workload run: every
// process fully reported so far, and the PID of the last one
// completed.
type Checkpoint struct {
	Summaries    []report.ProcessSummary
	CompletedPID int
}

// SaveCheckpoint writes ckpt to path, overwriting any existing file.
func SaveCheckpoint(path string, ckpt *Checkpoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(ckpt)
}

// LoadCheckpoint reads a checkpoint previously written by
// SaveCheckpoint.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var ckpt Checkpoint
	if err := gob.NewDecoder(f).Decode(&ckpt); err != nil {
		return nil, err
	}
	return &ckpt, nil
}
