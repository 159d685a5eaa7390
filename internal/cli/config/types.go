// Package config provides configuration management for the leapc CLI.
//
// It layers CLI-only settings (output, parallelism, state database, serve and
// REPL options) over the project settings shared with the language server in
// internal/config.
package config

import (
	intconfig "github.com/leapstack-labs/leapc/internal/config"
)

// LexerConfig is an alias for the shared lexer configuration.
type LexerConfig = intconfig.LexerConfig

// ServeConfig holds configuration for the HTTP tokenizer service.
type ServeConfig struct {
	Port int `koanf:"port"`
}

// REPLConfig holds configuration for the interactive tokenizer.
type REPLConfig struct {
	HistoryFile string `koanf:"history_file"`
}

// Config holds all CLI configuration options.
type Config struct {
	SourceDir    string      `koanf:"source_dir"`
	Extensions   []string    `koanf:"extensions"`
	StatePath    string      `koanf:"state_path"`
	Verbose      bool        `koanf:"verbose"`
	OutputFormat string      `koanf:"output"`
	Jobs         int         `koanf:"jobs"`
	Lexer        LexerConfig `koanf:"lexer"`
	Serve        ServeConfig `koanf:"serve"`
	REPL         REPLConfig  `koanf:"repl"`

	// ProjectRoot is the directory relative paths were resolved against.
	ProjectRoot string `koanf:"-"`
}

// Project returns the shared project view of the configuration.
func (c *Config) Project() *intconfig.ProjectConfig {
	p := &intconfig.ProjectConfig{
		SourceDir:  c.SourceDir,
		Extensions: c.Extensions,
		Lexer:      c.Lexer,
	}
	p.ApplyDefaults()
	return p
}

// Default configuration values.
const (
	DefaultSourceDir = intconfig.DefaultSourceDir
	DefaultStateFile = intconfig.DefaultStateFile
	DefaultOutput    = "auto" // TTY=text, non-TTY=markdown
	DefaultPort      = 8787
	DefaultHistory   = ".leapc/repl_history"
)

// Default returns the configuration used when nothing has been loaded.
func Default() *Config {
	return &Config{
		SourceDir:    DefaultSourceDir,
		Extensions:   []string{intconfig.DefaultExtension},
		StatePath:    DefaultStateFile,
		OutputFormat: DefaultOutput,
		Lexer:        LexerConfig{FatalErrors: true},
		Serve:        ServeConfig{Port: DefaultPort},
		REPL:         REPLConfig{HistoryFile: DefaultHistory},
		ProjectRoot:  ".",
	}
}
