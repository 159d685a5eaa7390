package lsp

import (
	"github.com/leapstack-labs/leapc/internal/driver"
)

const diagnosticSource = "leapc"

// publishDiagnostics lexes the document and publishes its faults. Files
// outside the configured source extensions get an empty list.
func (s *Server) publishDiagnostics(doc *Document) {
	if doc == nil {
		return
	}

	diagnostics := []Diagnostic{}
	if s.project.IsSource(URIToPath(doc.URI)) {
		diagnostics = s.computeDiagnostics(doc)
	}

	version := doc.Version
	s.sendNotification("textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         doc.URI,
		Version:     &version,
		Diagnostics: diagnostics,
	})
}

// computeDiagnostics converts the lexer errors of doc into LSP diagnostics.
func (s *Server) computeDiagnostics(doc *Document) []Diagnostic {
	unit := driver.Compile(URIToPath(doc.URI), doc.Content, s.compileOptions())
	defer unit.Release()

	diagnostics := make([]Diagnostic, 0, len(unit.Errors))
	for _, e := range unit.Errors {
		diagnostics = append(diagnostics, Diagnostic{
			Range:    doc.SpanRange(e.Span.Start, e.Span.End),
			Severity: DiagnosticSeverityError,
			Code:     e.Kind.String(),
			Source:   diagnosticSource,
			Message:  e.Error(),
		})
	}
	return diagnostics
}
