package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/leapstack-labs/leapc/internal/cli/output"
	"github.com/leapstack-labs/leapc/internal/driver"
	"github.com/leapstack-labs/leapc/internal/engine"
	"github.com/leapstack-labs/leapc/internal/state"
	"github.com/spf13/cobra"
)

// timeRounding is the precision durations are printed with.
const timeRounding = time.Millisecond

// CheckOptions holds options for the check command.
type CheckOptions struct {
	Changed   bool
	NoHistory bool
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Check sources for lexing faults",
		Long: `Tokenize every source under the source directory and report lexing faults.

Files and directories given as arguments limit the check to them. Each check
is recorded in the run history unless --no-history is set.

With lexer.fatal_errors enabled (the default) the command exits non-zero when
any file has a fault.`,
		Example: `  # Check the whole project
  leapc check

  # Check only files changed since their last clean check
  leapc check --changed

  # Check one directory, report as JSON
  leapc check src/pkg -o json

  # Report faults without failing
  leapc check --fatal=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Changed, "changed", false, "Skip files unchanged since their last clean check")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "Do not record the run")

	return cmd
}

// CheckOutput is the structured output of the check command.
type CheckOutput struct {
	RunID    string             `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Status   state.RunStatus    `json:"status" yaml:"status"`
	Duration string             `json:"duration" yaml:"duration"`
	Totals   state.RunTotals    `json:"totals" yaml:"totals"`
	Files    []CheckFileOutput  `json:"files" yaml:"files"`
	Skipped  []string           `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Errors   []DiagnosticOutput `json:"errors" yaml:"errors"`
}

// CheckFileOutput summarizes one checked file.
type CheckFileOutput struct {
	Path      string `json:"path" yaml:"path"`
	Tokens    int    `json:"tokens" yaml:"tokens"`
	Names     int    `json:"names" yaml:"names"`
	Errors    int    `json:"errors" yaml:"errors"`
	ReadError string `json:"read_error,omitempty" yaml:"read_error,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string, opts *CheckOptions) error {
	if opts.Changed && opts.NoHistory {
		return errors.New("--changed needs the run history; drop --no-history")
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd, !opts.NoHistory)
	if err != nil {
		return err
	}
	defer cleanup()

	paths, err := resolveCheckPaths(cmdCtx.Engine, args)
	if err != nil {
		return err
	}

	report, err := cmdCtx.Engine.Check(cmd.Context(), engine.CheckOptions{
		Paths:       paths,
		ChangedOnly: opts.Changed,
	})
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	out := newCheckOutput(report)
	r := cmdCtx.Renderer
	if handled, err := r.Structured(out); handled {
		if err != nil {
			return err
		}
	} else if r.EffectiveMode() == output.ModeMarkdown {
		renderCheckMarkdown(r, out)
	} else {
		renderCheckText(r, out)
	}

	if report.Failed() && cmdCtx.Cfg.Lexer.FatalErrors {
		return errLexFaults
	}
	return nil
}

// resolveCheckPaths expands arguments into source files. Directories are
// searched for sources; files are taken as given.
func resolveCheckPaths(eng *engine.Engine, args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot check %s: %w", arg, err)
		}
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, abs)
			continue
		}
		found, err := driver.CollectSources(abs, eng.Extensions())
		if err != nil {
			return nil, fmt.Errorf("failed to collect sources in %s: %w", arg, err)
		}
		paths = append(paths, found...)
	}
	if len(args) > 0 && len(paths) == 0 {
		return nil, fmt.Errorf("no source files found in %v", args)
	}
	return paths, nil
}

func newCheckOutput(report *engine.Report) *CheckOutput {
	out := &CheckOutput{
		Status:   report.Status,
		Duration: report.Duration.Round(timeRounding).String(),
		Totals:   report.Totals,
		Files:    make([]CheckFileOutput, len(report.Files)),
		Skipped:  report.Skipped,
		Errors:   []DiagnosticOutput{},
	}
	if report.Run != nil {
		out.RunID = report.Run.ID
	}
	for i, f := range report.Files {
		out.Files[i] = CheckFileOutput{
			Path:      f.Path,
			Tokens:    f.Tokens,
			Names:     f.Names,
			Errors:    f.Errors(),
			ReadError: f.ReadError,
		}
		for _, d := range f.Diagnostics {
			out.Errors = append(out.Errors, newDiagnosticOutput(d))
		}
	}
	return out
}

func renderCheckText(r *output.Renderer, out *CheckOutput) {
	for _, f := range out.Files {
		switch {
		case f.ReadError != "":
			r.StatusLine(f.Path, "failed", f.ReadError)
		case f.Errors > 0:
			r.StatusLine(f.Path, "failed", plural(f.Errors, "error"))
		default:
			r.StatusLine(f.Path, "success", plural(f.Tokens, "token"))
		}
	}
	renderDiagnostics(r, out.Errors)

	r.Println()
	summary := fmt.Sprintf("%s, %s, %s in %s",
		plural(out.Totals.Files, "file"), plural(out.Totals.Tokens, "token"),
		plural(out.Totals.Errors, "error"), out.Duration)
	if len(out.Skipped) > 0 {
		summary += fmt.Sprintf(" (%d unchanged skipped)", len(out.Skipped))
	}
	if out.Status == state.RunStatusPassed {
		r.Success("Check passed: " + summary)
	} else {
		r.Error("Check failed: " + summary)
	}
	if out.RunID != "" {
		r.Muted("run " + out.RunID)
	}
}

func renderCheckMarkdown(r *output.Renderer, out *CheckOutput) {
	r.Header(1, "Check "+string(out.Status))
	r.Println()
	if out.RunID != "" {
		r.KeyValue("Run", "`"+out.RunID+"`")
	}
	r.KeyValue("Files", strconv.Itoa(out.Totals.Files))
	r.KeyValue("Tokens", strconv.Itoa(out.Totals.Tokens))
	r.KeyValue("Errors", strconv.Itoa(out.Totals.Errors))
	r.KeyValue("Duration", out.Duration)
	if len(out.Skipped) > 0 {
		r.KeyValue("Skipped", strconv.Itoa(len(out.Skipped)))
	}

	if len(out.Files) > 0 {
		r.Println()
		rows := make([][]string, len(out.Files))
		for i, f := range out.Files {
			rows[i] = []string{f.Path, strconv.Itoa(f.Tokens), strconv.Itoa(f.Names), strconv.Itoa(f.Errors)}
		}
		r.Table([]string{"Path", "Tokens", "Names", "Errors"}, rows)
	}
	renderDiagnostics(r, out.Errors)
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
