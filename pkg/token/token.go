// Package token defines the lexical vocabulary shared by the lexer, the parser
// and every later stage: token kinds, source spans and line positions.
//
// The Kind enumeration is the stable boundary the grammar depends on. Adding a
// keyword or operator means extending the constants, the name table and, for
// keywords, the keyword table in the same change.
package token

import "fmt"

// Kind represents the type of a lexical token.
type Kind uint8

const (
	// Special tokens
	Illegal Kind = iota

	// Literals
	Ident  // identifier
	IntLit // 0, 42
	StrLit // "hello", 'hello'

	// Arithmetic operators
	Plus    // +
	Minus   // -
	Star    // *
	Slash   // /
	Percent // %

	// Assignment operators
	Assign    // =
	PlusEq    // +=
	MinusEq   // -=
	StarEq    // *=
	SlashEq   // /=
	PercentEq // %=
	AmpEq     // &=
	PipeEq    // |=
	CaretEq   // ^=
	ColonEq   // :=

	// Comparison operators
	EqEq   // ==
	BangEq // !=
	Lt     // <
	Le     // <=
	Gt     // >
	Ge     // >=

	// Logical operators
	AmpAmp   // &&
	PipePipe // ||
	Bang     // !

	// Bitwise operators
	Amp   // &
	Pipe  // |
	Caret // ^
	Tilde // ~
	Shl   // <<
	Shr   // >>

	// Punctuation
	Arrow     // ->
	Colon     // :
	Dot       // .
	Comma     // ,
	Semicolon // ;

	// Brackets
	LParen   // (
	RParen   // )
	LBracket // [
	RBracket // ]
	LBrace   // {
	RBrace   // }

	// Block structure
	Newline
	Indent
	Dedent
	Eof

	// Keywords (alphabetical)
	KwAnd
	KwBreak
	KwClass
	KwConst
	KwContinue
	KwElif
	KwElse
	KwExtends
	KwFalse
	KwFor
	KwFunc
	KwIf
	KwIn
	KwNot
	KwNull
	KwOr
	KwPass
	KwReturn
	KwSelf
	KwTrue
	KwVar
	KwWhile

	numKinds
)

// String returns a human-readable representation of the token kind.
func (k Kind) String() string {
	if k < numKinds {
		if name := kindNames[k]; name != "" {
			return name
		}
	}
	return fmt.Sprintf("Kind(%d)", k)
}

var kindNames = [numKinds]string{
	Illegal: "Illegal",

	Ident:  "Ident",
	IntLit: "IntLit",
	StrLit: "StrLit",

	Plus:    "+",
	Minus:   "-",
	Star:    "*",
	Slash:   "/",
	Percent: "%",

	Assign:    "=",
	PlusEq:    "+=",
	MinusEq:   "-=",
	StarEq:    "*=",
	SlashEq:   "/=",
	PercentEq: "%=",
	AmpEq:     "&=",
	PipeEq:    "|=",
	CaretEq:   "^=",
	ColonEq:   ":=",

	EqEq:   "==",
	BangEq: "!=",
	Lt:     "<",
	Le:     "<=",
	Gt:     ">",
	Ge:     ">=",

	AmpAmp:   "&&",
	PipePipe: "||",
	Bang:     "!",

	Amp:   "&",
	Pipe:  "|",
	Caret: "^",
	Tilde: "~",
	Shl:   "<<",
	Shr:   ">>",

	Arrow:     "->",
	Colon:     ":",
	Dot:       ".",
	Comma:     ",",
	Semicolon: ";",

	LParen:   "(",
	RParen:   ")",
	LBracket: "[",
	RBracket: "]",
	LBrace:   "{",
	RBrace:   "}",

	Newline: "Newline",
	Indent:  "Indent",
	Dedent:  "Dedent",
	Eof:     "Eof",

	KwAnd:      "and",
	KwBreak:    "break",
	KwClass:    "class",
	KwConst:    "const",
	KwContinue: "continue",
	KwElif:     "elif",
	KwElse:     "else",
	KwExtends:  "extends",
	KwFalse:    "false",
	KwFor:      "for",
	KwFunc:     "func",
	KwIf:       "if",
	KwIn:       "in",
	KwNot:      "not",
	KwNull:     "null",
	KwOr:       "or",
	KwPass:     "pass",
	KwReturn:   "return",
	KwSelf:     "self",
	KwTrue:     "true",
	KwVar:      "var",
	KwWhile:    "while",
}

// keywords maps reserved words to their token kinds. Matching is exact and
// case-sensitive.
var keywords = map[string]Kind{
	"and":      KwAnd,
	"break":    KwBreak,
	"class":    KwClass,
	"const":    KwConst,
	"continue": KwContinue,
	"elif":     KwElif,
	"else":     KwElse,
	"extends":  KwExtends,
	"false":    KwFalse,
	"for":      KwFor,
	"func":     KwFunc,
	"if":       KwIf,
	"in":       KwIn,
	"not":      KwNot,
	"null":     KwNull,
	"or":       KwOr,
	"pass":     KwPass,
	"return":   KwReturn,
	"self":     KwSelf,
	"true":     KwTrue,
	"var":      KwVar,
	"while":    KwWhile,
}

// LookupIdent returns the keyword kind for ident, or Ident if ident is not a
// reserved word.
func LookupIdent(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return Ident
}

// Keywords returns the reserved words in no particular order.
func Keywords() []string {
	words := make([]string, 0, len(keywords))
	for w := range keywords {
		words = append(words, w)
	}
	return words
}

// IsKeyword reports whether k is a reserved-word kind.
func (k Kind) IsKeyword() bool {
	return k >= KwAnd && k <= KwWhile
}

// IsOperator reports whether k is an operator or punctuation kind.
func (k Kind) IsOperator() bool {
	return k >= Plus && k <= Semicolon
}

// IsBracket reports whether k is an opening or closing bracket.
func (k Kind) IsBracket() bool {
	return k >= LParen && k <= RBrace
}

// IsLayout reports whether k is one of the synthesized block-structure kinds.
func (k Kind) IsLayout() bool {
	return k >= Newline && k <= Eof
}

// Token is one lexical unit: a kind stamped with the source span it covers.
// Tokens are immutable values; the text is recovered from the source with
// Span.Text.
type Token struct {
	Kind Kind
	Span Span
}

// New creates a token of kind k covering [start, end).
func New(k Kind, start, end uint32) Token {
	return Token{Kind: k, Span: NewSpan(start, end)}
}

// Triple returns the token in the (start, kind, end) shape the parser consumes.
func (t Token) Triple() (uint32, Kind, uint32) {
	return t.Span.Start, t.Kind, t.Span.End
}

// Text returns the source text the token covers.
func (t Token) Text(src string) string {
	return t.Span.Text(src)
}

func (t Token) String() string {
	return fmt.Sprintf("%s@(%d,%d)", t.Kind, t.Span.Start, t.Span.End)
}
