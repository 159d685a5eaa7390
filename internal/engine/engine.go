// Package engine checks a source tree and keeps its run history. It ties the
// driver, which lexes files, to the state store, which records each check
// run and the per-file outcome.
package engine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leapc/internal/config"
	"github.com/leapstack-labs/leapc/internal/driver"
	"github.com/leapstack-labs/leapc/internal/state"
)

// Engine runs checks over one source directory.
type Engine struct {
	logger     *slog.Logger
	store      state.Store
	ownsStore  bool
	sourceDir  string
	extensions []string
	opts       driver.Options
}

// Config holds engine configuration.
type Config struct {
	// SourceDir is the root of the source tree.
	SourceDir string
	// Extensions selects source files; empty means the default extension.
	Extensions []string
	// StatePath is the SQLite history database. Empty disables history.
	StatePath string
	// Store overrides StatePath with an already opened store. The engine
	// does not close it.
	Store state.Store
	// Options configures lexing.
	Options driver.Options
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine, opening and migrating the history database when
// one is configured.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.SourceDir == "" {
		return nil, fmt.Errorf("source directory is required")
	}

	exts := config.NormalizeExtensions(cfg.Extensions)
	if len(exts) == 0 {
		exts = []string{config.DefaultExtension}
	}

	opts := cfg.Options
	if opts.Logger == nil {
		opts.Logger = logger
	}

	e := &Engine{
		logger:     logger,
		store:      cfg.Store,
		sourceDir:  cfg.SourceDir,
		extensions: exts,
		opts:       opts,
	}

	if e.store == nil && cfg.StatePath != "" {
		store, err := openStore(cfg.StatePath, logger)
		if err != nil {
			return nil, err
		}
		e.store = store
		e.ownsStore = true
	}

	logger.Debug("initialized engine",
		"source_dir", e.sourceDir,
		"extensions", e.extensions,
		"history", e.store != nil,
	)
	return e, nil
}

func openStore(path string, logger *slog.Logger) (state.Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(path); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize state schema: %w", err)
	}
	return store, nil
}

// Close releases the history database if the engine opened it.
func (e *Engine) Close() error {
	if e.ownsStore && e.store != nil {
		return e.store.Close()
	}
	return nil
}

// SourceDir returns the root of the source tree.
func (e *Engine) SourceDir() string { return e.sourceDir }

// Extensions returns the normalized source extensions.
func (e *Engine) Extensions() []string { return e.extensions }

// Store returns the history store, or nil when history is disabled.
func (e *Engine) Store() state.Store { return e.store }

// Options returns the lexing options.
func (e *Engine) Options() driver.Options { return e.opts }

// Discover lists the source files under the source directory.
func (e *Engine) Discover() ([]string, error) {
	return driver.CollectSources(e.sourceDir, e.extensions)
}

// RelPath returns path relative to the source directory using forward
// slashes. Paths outside the tree are returned cleaned and absolute.
func (e *Engine) RelPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(filepath.Clean(path))
	}
	root, err := filepath.Abs(e.sourceDir)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}
