package driver

import (
	"github.com/leapstack-labs/leapc/pkg/intern"
	"github.com/leapstack-labs/leapc/pkg/token"
)

// TokenInfo is a token resolved against its source for display.
type TokenInfo struct {
	Kind   string `json:"kind" yaml:"kind"`
	Start  uint32 `json:"start" yaml:"start"`
	End    uint32 `json:"end" yaml:"end"`
	Text   string `json:"text" yaml:"text"`
	Line   int    `json:"line" yaml:"line"`
	Column int    `json:"column" yaml:"column"`
}

// TokenInfos resolves every token of the unit. Layout tokens are included
// when withLayout is set.
func (u *Unit) TokenInfos(withLayout bool) []TokenInfo {
	out := make([]TokenInfo, 0, len(u.Tokens))
	for _, tok := range u.Tokens {
		if !withLayout && tok.Kind.IsLayout() {
			continue
		}
		pos := u.File.Position(tok.Span.Start)
		out = append(out, TokenInfo{
			Kind:   tok.Kind.String(),
			Start:  tok.Span.Start,
			End:    tok.Span.End,
			Text:   tok.Text(u.Source),
			Line:   pos.Line,
			Column: pos.Column,
		})
	}
	return out
}

// DistinctNames returns the interned identifier spellings in order of first
// use.
func (u *Unit) DistinctNames() []string {
	seen := make(map[intern.Name]struct{})
	var out []string
	for i, tok := range u.Tokens {
		if tok.Kind != token.Ident {
			continue
		}
		n := u.Names[i]
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n.String())
	}
	return out
}
