package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/leapstack-labs/leapc/internal/driver"
	"github.com/leapstack-labs/leapc/internal/state"
)

// CheckOptions selects what a check covers.
type CheckOptions struct {
	// Paths limits the check to these files; empty checks every source.
	Paths []string
	// ChangedOnly skips files whose content matches their last clean
	// result in the history.
	ChangedOnly bool
}

// FileReport is the outcome for one file. The compilation unit has already
// been released; only counts and diagnostics remain.
type FileReport struct {
	Path        string              `json:"path" yaml:"path"`
	Hash        string              `json:"hash,omitempty" yaml:"hash,omitempty"`
	Tokens      int                 `json:"tokens" yaml:"tokens"`
	Names       int                 `json:"names" yaml:"names"`
	Diagnostics []driver.Diagnostic `json:"-" yaml:"-"`
	ReadError   string              `json:"read_error,omitempty" yaml:"read_error,omitempty"`
}

// Errors returns the number of faults in the file, counting a read failure
// as one.
func (f FileReport) Errors() int {
	if f.ReadError != "" {
		return 1
	}
	return len(f.Diagnostics)
}

// Report is the outcome of one check.
type Report struct {
	// Run is the recorded history entry, nil when history is disabled.
	Run      *state.Run
	Status   state.RunStatus
	Files    []FileReport
	Skipped  []string
	Totals   state.RunTotals
	Duration time.Duration
}

// Failed reports whether any checked file has a fault.
func (r *Report) Failed() bool {
	return r.Totals.Errors > 0
}

// Check lexes the selected files and records the run in the history. A
// cancelled context marks the run cancelled and returns the context error
// with a partial report.
func (e *Engine) Check(ctx context.Context, opts CheckOptions) (*Report, error) {
	start := time.Now()

	paths := opts.Paths
	if len(paths) == 0 {
		var err error
		paths, err = e.Discover()
		if err != nil {
			return nil, err
		}
	}

	report := &Report{Status: state.RunStatusRunning}
	if opts.ChangedOnly {
		var err error
		paths, report.Skipped, err = e.filterUnchanged(paths)
		if err != nil {
			return nil, err
		}
	}

	e.logger.Info("starting check", "files", len(paths), "skipped", len(report.Skipped))

	var runID string
	if e.store != nil {
		run, err := e.store.CreateRun(e.sourceDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create run: %w", err)
		}
		runID = run.ID
		e.logger.Debug("created run", "run_id", runID)
	}

	results, err := driver.CheckFiles(ctx, paths, e.opts)
	if err != nil {
		report.Status = state.RunStatusCancelled
		report.Duration = time.Since(start)
		if runID != "" {
			_ = e.store.CompleteRun(runID, state.RunStatusCancelled, state.RunTotals{}, err.Error())
			report.Run, _ = e.store.GetRun(runID)
		}
		return report, err
	}

	report.Files = make([]FileReport, len(results))
	for i, res := range results {
		report.Files[i] = e.fileReport(res)
		report.Totals.Files++
		report.Totals.Tokens += report.Files[i].Tokens
		report.Totals.Errors += report.Files[i].Errors()
	}
	driver.ReleaseAll(results)

	report.Status = state.RunStatusPassed
	errMsg := ""
	if failed := countFailed(report.Files); failed > 0 {
		report.Status = state.RunStatusFailed
		errMsg = fmt.Sprintf("%d file(s) with errors", failed)
	}
	report.Duration = time.Since(start)

	if runID != "" {
		if err := e.record(runID, report, errMsg); err != nil {
			return report, err
		}
	}

	e.logger.Info("check finished",
		"status", report.Status,
		"files", report.Totals.Files,
		"errors", report.Totals.Errors,
		"duration", report.Duration,
	)
	return report, nil
}

func (e *Engine) fileReport(res driver.FileResult) FileReport {
	fr := FileReport{Path: e.RelPath(res.Path)}
	if res.Err != nil {
		fr.ReadError = res.Err.Error()
		return fr
	}
	u := res.Unit
	fr.Hash = u.Hash
	fr.Tokens = len(u.Tokens)
	fr.Names = u.NameCount()
	fr.Diagnostics = u.Diagnostics()
	for i := range fr.Diagnostics {
		fr.Diagnostics[i].Path = fr.Path
	}
	return fr
}

func countFailed(files []FileReport) int {
	n := 0
	for _, f := range files {
		if f.Errors() > 0 {
			n++
		}
	}
	return n
}

// record stores the per-file results and closes the run.
func (e *Engine) record(runID string, report *Report, errMsg string) error {
	rows := make([]*state.FileResult, len(report.Files))
	for i, f := range report.Files {
		row := &state.FileResult{
			RunID:       runID,
			Path:        f.Path,
			ContentHash: f.Hash,
			Tokens:      f.Tokens,
			Errors:      f.Errors(),
			Names:       f.Names,
			FirstError:  f.ReadError,
		}
		if len(f.Diagnostics) > 0 {
			row.FirstError = f.Diagnostics[0].String()
		}
		rows[i] = row
	}

	if err := e.store.RecordFiles(rows); err != nil {
		_ = e.store.CompleteRun(runID, state.RunStatusFailed, report.Totals, err.Error())
		return fmt.Errorf("failed to record file results: %w", err)
	}
	if err := e.store.CompleteRun(runID, report.Status, report.Totals, errMsg); err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	run, err := e.store.GetRun(runID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	report.Run = run
	return nil
}

// filterUnchanged splits paths into those to check and those whose content
// hash matches their last clean result. Without history every path is
// checked.
func (e *Engine) filterUnchanged(paths []string) (check, skipped []string, err error) {
	if e.store == nil {
		return paths, nil, nil
	}
	clean, err := e.store.CleanHashes()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load clean hashes: %w", err)
	}

	for _, path := range paths {
		rel := e.RelPath(path)
		hash, ok := clean[rel]
		if !ok {
			check = append(check, path)
			continue
		}
		content, err := os.ReadFile(path) //nolint:gosec // G304: paths come from Discover or the command line
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				e.logger.Warn("failed to hash source", "path", path, "error", err)
			}
			check = append(check, path)
			continue
		}
		if driver.ContentHash(string(content)) == hash {
			skipped = append(skipped, rel)
			continue
		}
		check = append(check, path)
	}
	return check, skipped, nil
}
