package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/leapstack-labs/leapc/internal/driver"
	"github.com/leapstack-labs/leapc/internal/engine"
	"github.com/spf13/cobra"
)

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	Debounce  time.Duration
	NoHistory bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-check sources as they change",
		Long: `Check every source once, then re-check files as they are written.

Changes are batched: files touched within the debounce window are checked
together. Each batch is recorded in the run history unless --no-history is set.
Stop with Ctrl+C.`,
		Example: `  # Watch the project
  leapc watch

  # Wait longer before re-checking
  leapc watch --debounce 500ms`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.Debounce, "debounce", 100*time.Millisecond, "Quiet period before re-checking changed files")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "Do not record runs")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd, !opts.NoHistory)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	eng := cmdCtx.Engine
	r := cmdCtx.Renderer

	// Batches can overlap when a check outlasts the debounce window.
	var mu sync.Mutex
	recheck := func(paths []string) {
		mu.Lock()
		defer mu.Unlock()

		report, err := eng.Check(ctx, engine.CheckOptions{Paths: paths})
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				r.Error(fmt.Sprintf("check failed: %v", err))
			}
			return
		}
		renderCheckText(r, newCheckOutput(report))
		r.Println()
	}

	recheck(nil)
	r.Muted(fmt.Sprintf("Watching %s for changes. Press Ctrl+C to stop.", eng.SourceDir()))

	err = driver.Watch(ctx, eng.SourceDir(), driver.WatchOptions{
		Extensions: eng.Extensions(),
		Debounce:   opts.Debounce,
		Logger:     cmdCtx.Logger,
	}, func(paths []string) {
		existing := existingFiles(paths)
		if len(existing) == 0 {
			return
		}
		recheck(existing)
	})
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}

// existingFiles drops paths that were removed before they could be checked.
func existingFiles(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}
