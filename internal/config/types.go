// Package config provides the project configuration shared by the CLI and the
// language server. It is decoupled from CLI concerns so tools that only know
// a workspace directory can load it.
package config

import (
	"path/filepath"
	"slices"
	"strings"
)

// LexerConfig tunes how sources are tokenized and how faults are judged.
type LexerConfig struct {
	// NormalizeIdentifiers applies Unicode NFKC to identifier names before
	// interning.
	NormalizeIdentifiers bool `koanf:"normalize_identifiers"`
	// FatalErrors makes any lexing fault fail the check.
	FatalErrors bool `koanf:"fatal_errors"`
}

// ProjectConfig holds the project settings every tool needs.
type ProjectConfig struct {
	SourceDir  string      `koanf:"source_dir"`
	Extensions []string    `koanf:"extensions"`
	Lexer      LexerConfig `koanf:"lexer"`
}

// ApplyDefaults fills unset fields.
func (c *ProjectConfig) ApplyDefaults() {
	if c.SourceDir == "" {
		c.SourceDir = DefaultSourceDir
	}
	if len(c.Extensions) == 0 {
		c.Extensions = []string{DefaultExtension}
	}
	c.Extensions = NormalizeExtensions(c.Extensions)
}

// IsSource reports whether path has one of the configured extensions.
func (c *ProjectConfig) IsSource(path string) bool {
	exts := c.Extensions
	if len(exts) == 0 {
		exts = []string{DefaultExtension}
	}
	return slices.Contains(exts, strings.ToLower(filepath.Ext(path)))
}

// NormalizeExtensions lower-cases extensions, adds the leading dot and drops
// blanks and duplicates.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if !slices.Contains(out, e) {
			out = append(out, e)
		}
	}
	return out
}
