package lexer

import (
	"errors"
	"math/big"
	"strings"
)

// ErrIntRange is returned by ParseInt for a value outside the signed 128-bit
// range.
var ErrIntRange = errors.New("integer literal out of range")

// ErrSyntax is returned for text that is not a well-formed literal.
var ErrSyntax = errors.New("invalid literal syntax")

var maxInt128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))

// ParseInt parses the text of an IntLit token.
func ParseInt(text string) (*big.Int, error) {
	if text == "" {
		return nil, ErrSyntax
	}
	for i := 0; i < len(text); i++ {
		if !isDigit(text[i]) {
			return nil, ErrSyntax
		}
	}
	v, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return nil, ErrSyntax
	}
	if v.Cmp(maxInt128) > 0 {
		return nil, ErrIntRange
	}
	return v, nil
}

var escapes = map[byte]byte{
	'\\': '\\',
	'"':  '"',
	'\'': '\'',
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
	'0':  0,
}

// Unquote decodes the text of a StrLit token, quotes included. It fails with
// ErrSyntax on a literal the lexer would have flagged.
func Unquote(lit string) (string, error) {
	if len(lit) < 2 {
		return "", ErrSyntax
	}
	quote := lit[0]
	if (quote != '"' && quote != '\'') || lit[len(lit)-1] != quote {
		return "", ErrSyntax
	}
	body := lit[1 : len(lit)-1]
	if !strings.ContainsRune(body, '\\') {
		if strings.IndexByte(body, quote) >= 0 || strings.ContainsAny(body, "\r\n") {
			return "", ErrSyntax
		}
		return body, nil
	}

	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '\\':
			if i+1 >= len(body) {
				return "", ErrSyntax
			}
			dec, ok := escapes[body[i+1]]
			if !ok {
				return "", ErrSyntax
			}
			b.WriteByte(dec)
			i++
		case c == quote, c == '\n', c == '\r':
			return "", ErrSyntax
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
