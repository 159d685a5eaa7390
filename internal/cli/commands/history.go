package commands

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/leapstack-labs/leapc/internal/cli/output"
	"github.com/leapstack-labs/leapc/internal/state"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded check runs",
		Long: `List recent check runs, newest first, or show the per-file results of one run.

Output adapts to environment:
  - Terminal: Styled table
  - Piped/Scripted: Markdown format
  - JSON/YAML: Machine-readable format`,
		Example: `  # List the last 20 runs
  leapc history

  # Show one run
  leapc history 3f1c2a9e-...

  # Last 5 runs as JSON
  leapc history --limit 5 -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to list")

	return cmd
}

// RunDetailOutput is the structured output of history for one run.
type RunDetailOutput struct {
	Run   *state.Run          `json:"run" yaml:"run"`
	Files []*state.FileResult `json:"files" yaml:"files"`
}

func runHistory(cmd *cobra.Command, args []string, opts *HistoryOptions) error {
	if opts.Limit < 1 {
		return fmt.Errorf("--limit must be positive, got %d", opts.Limit)
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd, true)
	if err != nil {
		return err
	}
	defer cleanup()

	store := cmdCtx.Engine.Store()
	r := cmdCtx.Renderer

	if len(args) == 1 {
		return showRun(r, store, args[0])
	}

	runs, err := store.ListRuns(opts.Limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if runs == nil {
		runs = []*state.Run{}
	}
	if handled, err := r.Structured(runs); handled {
		return err
	}

	r.Header(1, fmt.Sprintf("Runs (%d)", len(runs)))
	if len(runs) == 0 {
		r.Muted("No runs recorded yet. Run `leapc check` first.")
		return nil
	}
	rows := make([][]string, len(runs))
	for i, run := range runs {
		rows[i] = []string{
			run.ID,
			string(run.Status),
			run.StartedAt.Local().Format(time.DateTime),
			formatRunDuration(run),
			strconv.Itoa(run.Files),
			strconv.Itoa(run.Errors),
		}
	}
	r.Table([]string{"ID", "Status", "Started", "Duration", "Files", "Errors"}, rows)
	return nil
}

func showRun(r *output.Renderer, store state.Store, id string) error {
	run, err := store.GetRun(id)
	if errors.Is(err, state.ErrRunNotFound) {
		return fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	files, err := store.GetFileResults(id)
	if err != nil {
		return fmt.Errorf("failed to load file results: %w", err)
	}
	if files == nil {
		files = []*state.FileResult{}
	}

	if handled, err := r.Structured(RunDetailOutput{Run: run, Files: files}); handled {
		return err
	}

	r.Header(1, "Run "+run.ID)
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println()
	}
	r.KeyValue("Status", string(run.Status))
	r.KeyValue("Root", run.Root)
	r.KeyValue("Started", run.StartedAt.Local().Format(time.DateTime))
	r.KeyValue("Duration", formatRunDuration(run))
	if run.Error != "" {
		r.KeyValue("Error", run.Error)
	}

	if len(files) > 0 {
		r.Println()
		rows := make([][]string, len(files))
		for i, f := range files {
			rows[i] = []string{f.Path, strconv.Itoa(f.Tokens), strconv.Itoa(f.Names), strconv.Itoa(f.Errors), f.FirstError}
		}
		r.Table([]string{"Path", "Tokens", "Names", "Errors", "First error"}, rows)
	}
	return nil
}

func formatRunDuration(run *state.Run) string {
	if run.CompletedAt == nil {
		return "-"
	}
	return run.Duration().Round(timeRounding).String()
}
