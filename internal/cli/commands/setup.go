package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapc/internal/cli/config"
	"github.com/leapstack-labs/leapc/internal/cli/output"
	"github.com/leapstack-labs/leapc/internal/driver"
	"github.com/leapstack-labs/leapc/internal/engine"
	"github.com/spf13/cobra"
)

// errLexFaults is returned when sources have faults and lexer.fatal_errors
// is set. The faults have already been printed.
var errLexFaults = errors.New("lexing faults found")

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command, withHistory bool) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutEngine(cmd)

	if err := cmdCtx.Cfg.ValidateDirectories(); err != nil {
		return nil, nil, err
	}

	eng, err := createEngine(cmdCtx.Cfg, cmdCtx.Logger, withHistory)
	if err != nil {
		return nil, nil, err
	}
	cmdCtx.Engine = eng

	cleanup := func() {
		_ = eng.Close()
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that only tokenize text.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

// DriverOptions returns the compilation options for the loaded configuration.
func (c *CommandContext) DriverOptions() driver.Options {
	return driverOptions(c.Cfg, c.Logger)
}

// getConfig returns the configuration loaded by the root command, or the
// defaults when a command runs on its own.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

func driverOptions(cfg *config.Config, logger *slog.Logger) driver.Options {
	return driver.Options{
		NormalizeIdentifiers: cfg.Lexer.NormalizeIdentifiers,
		Jobs:                 cfg.Jobs,
		Logger:               logger,
	}
}

func createEngine(cfg *config.Config, logger *slog.Logger, withHistory bool) (*engine.Engine, error) {
	engineCfg := engine.Config{
		SourceDir:  cfg.SourceDir,
		Extensions: cfg.Extensions,
		Options:    driverOptions(cfg, logger),
		Logger:     logger,
	}
	if withHistory {
		engineCfg.StatePath = cfg.StatePath
	}

	eng, err := engine.New(engineCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	return eng, nil
}
