package lsp

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapc/internal/driver"
	"github.com/leapstack-labs/leapc/pkg/token"
)

// getHover describes the token under the cursor. It returns nil when the
// position is on whitespace, a comment or a layout token.
func (s *Server) getHover(params HoverParams) *Hover {
	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return nil
	}

	offset := uint32(doc.PositionToOffset(params.Position))
	unit := driver.Compile(URIToPath(doc.URI), doc.Content, s.compileOptions())
	defer unit.Release()

	for i, tok := range unit.Tokens {
		if tok.Kind.IsLayout() || !tokenAt(tok, offset) {
			continue
		}

		var b strings.Builder
		fmt.Fprintf(&b, "**%s**", tok.Kind)
		if tok.Kind == token.Ident {
			fmt.Fprintf(&b, " `%s`", unit.Names[i])
		}
		for _, e := range unit.Errors {
			if e.Span.Start < tok.Span.End && tok.Span.Start < e.Span.End {
				fmt.Fprintf(&b, "\n\n%s: %s", e.Kind, e.Error())
			}
		}

		r := doc.SpanRange(tok.Span.Start, tok.Span.End)
		return &Hover{
			Contents: MarkupContent{Kind: MarkupKindMarkdown, Value: b.String()},
			Range:    &r,
		}
	}
	return nil
}

// tokenAt reports whether offset falls on tok. A cursor just past the last
// character still counts.
func tokenAt(tok token.Token, offset uint32) bool {
	return tok.Span.Start <= offset && offset <= tok.Span.End && !tok.Span.IsEmpty()
}
