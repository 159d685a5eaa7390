// Package state records the history of check runs in SQLite: one row per
// run and one per checked file, with content hashes so unchanged files can
// be skipped.
package state

import "time"

// RunStatus represents the status of a check run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusPassed    RunStatus = "passed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run is one invocation of the checker over a source tree.
type Run struct {
	ID          string     `json:"id" yaml:"id"`
	Root        string     `json:"root" yaml:"root"`
	Status      RunStatus  `json:"status" yaml:"status"`
	StartedAt   time.Time  `json:"started_at" yaml:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Files       int        `json:"files" yaml:"files"`
	Tokens      int        `json:"tokens" yaml:"tokens"`
	Errors      int        `json:"errors" yaml:"errors"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// Duration returns how long the run took, or zero while it is running.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// RunTotals are the counters stored when a run completes.
type RunTotals struct {
	Files  int `json:"files" yaml:"files"`
	Tokens int `json:"tokens" yaml:"tokens"`
	Errors int `json:"errors" yaml:"errors"`
}

// FileResult is the outcome of checking one file within a run.
type FileResult struct {
	RunID       string `json:"run_id" yaml:"run_id"`
	Path        string `json:"path" yaml:"path"`
	ContentHash string `json:"content_hash" yaml:"content_hash"`
	Tokens      int    `json:"tokens" yaml:"tokens"`
	Errors      int    `json:"errors" yaml:"errors"`
	Names       int    `json:"names" yaml:"names"`
	FirstError  string `json:"first_error,omitempty" yaml:"first_error,omitempty"`
}

// Store persists check history.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	CreateRun(root string) (*Run, error)
	CompleteRun(id string, status RunStatus, totals RunTotals, errMsg string) error
	GetRun(id string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)

	RecordFile(f *FileResult) error
	RecordFiles(files []*FileResult) error
	GetFileResults(runID string) ([]*FileResult, error)
	CleanHashes() (map[string]string, error)
}
