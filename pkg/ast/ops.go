package ast

import "github.com/leapstack-labs/leapc/pkg/token"

// BinOpKind is the operator of a BinOp.
type BinOpKind uint8

// BinOpKind constants, grouped by family.
const (
	Add BinOpKind = iota
	Sub
	Mul
	Div
	Rem

	Eq
	Ne
	Lt
	Le
	Gt
	Ge

	And
	Or

	BitAnd
	BitOr
	BitXor
	Shl
	Shr
)

var binOpSymbols = [...]string{
	Add:    "+",
	Sub:    "-",
	Mul:    "*",
	Div:    "/",
	Rem:    "%",
	Eq:     "==",
	Ne:     "!=",
	Lt:     "<",
	Le:     "<=",
	Gt:     ">",
	Ge:     ">=",
	And:    "&&",
	Or:     "||",
	BitAnd: "&",
	BitOr:  "|",
	BitXor: "^",
	Shl:    "<<",
	Shr:    ">>",
}

func (k BinOpKind) String() string {
	if int(k) < len(binOpSymbols) {
		return binOpSymbols[k]
	}
	return "?"
}

var binOpTokens = map[token.Kind]BinOpKind{
	token.Plus:     Add,
	token.Minus:    Sub,
	token.Star:     Mul,
	token.Slash:    Div,
	token.Percent:  Rem,
	token.EqEq:     Eq,
	token.BangEq:   Ne,
	token.Lt:       Lt,
	token.Le:       Le,
	token.Gt:       Gt,
	token.Ge:       Ge,
	token.AmpAmp:   And,
	token.KwAnd:    And,
	token.PipePipe: Or,
	token.KwOr:     Or,
	token.Amp:      BitAnd,
	token.Pipe:     BitOr,
	token.Caret:    BitXor,
	token.Shl:      Shl,
	token.Shr:      Shr,
}

// BinOpFromToken maps an operator token onto its binary operation.
func BinOpFromToken(k token.Kind) (BinOpKind, bool) {
	op, ok := binOpTokens[k]
	return op, ok
}

// Precedence returns the binding strength of the operator; higher binds
// tighter. All binary operators are left-associative.
func (k BinOpKind) Precedence() int {
	switch k {
	case Or:
		return 1
	case And:
		return 2
	case Eq, Ne, Lt, Le, Gt, Ge:
		return 3
	case BitOr:
		return 4
	case BitXor:
		return 5
	case BitAnd:
		return 6
	case Shl, Shr:
		return 7
	case Add, Sub:
		return 8
	case Mul, Div, Rem:
		return 9
	}
	return 0
}
