package driver

import (
	"fmt"

	"github.com/leapstack-labs/leapc/pkg/lexer"
	"github.com/leapstack-labs/leapc/pkg/token"
)

// Diagnostic is a lexing fault located in a file.
type Diagnostic struct {
	Path    string
	Span    token.Span
	Start   token.Position
	End     token.Position
	Code    string
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%s: %s: %s", d.Path, d.Start, d.Code, d.Message)
}

// NewDiagnostic locates err in f.
func NewDiagnostic(f *token.File, err lexer.LexError) Diagnostic {
	start, end := f.Range(err.Span)
	return Diagnostic{
		Path:    f.Name,
		Span:    err.Span,
		Start:   start,
		End:     end,
		Code:    err.Kind.String(),
		Message: err.Error(),
	}
}

// Diagnostics returns the unit's faults in the order they were recorded.
func (u *Unit) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(u.Errors))
	for i, e := range u.Errors {
		out[i] = NewDiagnostic(u.File, e)
	}
	return out
}
