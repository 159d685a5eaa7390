package api

import (
	"github.com/leapstack-labs/leapc/internal/driver"
	"github.com/leapstack-labs/leapc/internal/state"
)

// TokenizeRequest is the body of POST /api/tokenize.
type TokenizeRequest struct {
	Source string `json:"source"`
	// Path names the source in diagnostics; it is never read.
	Path string `json:"path,omitempty"`
	// Normalize overrides the server's identifier normalization setting.
	Normalize *bool `json:"normalize,omitempty"`
	// Layout includes Newline, Indent, Dedent and Eof tokens.
	Layout bool `json:"layout,omitempty"`
}

// LexError is one lexing fault in a tokenize response.
type LexError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Start   uint32 `json:"start"`
	End     uint32 `json:"end"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
}

// TokenizeResponse is the result of POST /api/tokenize.
type TokenizeResponse struct {
	Tokens []driver.TokenInfo `json:"tokens"`
	Errors []LexError         `json:"errors"`
	Names  []string           `json:"names"`
	Hash   string             `json:"hash"`
}

// HealthResponse is the result of GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	History bool   `json:"history"`
}

// RunDetail is the result of GET /api/runs/{id}.
type RunDetail struct {
	Run   *state.Run          `json:"run"`
	Files []*state.FileResult `json:"files"`
}

// CheckResponse is the result of POST /api/check.
type CheckResponse struct {
	Status  state.RunStatus `json:"status"`
	RunID   string          `json:"run_id,omitempty"`
	Totals  state.RunTotals `json:"totals"`
	Skipped []string        `json:"skipped"`
	Errors  []FileError     `json:"errors"`
}

// FileError is one fault found by a check.
type FileError struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// Event is pushed to /api/events subscribers after a check.
type Event struct {
	Type   string          `json:"type"`
	RunID  string          `json:"run_id,omitempty"`
	Status state.RunStatus `json:"status"`
	Paths  []string        `json:"paths"`
	Files  int             `json:"files"`
	Errors int             `json:"errors"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
