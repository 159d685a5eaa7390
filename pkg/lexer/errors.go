package lexer

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/leapstack-labs/leapc/pkg/token"
)

// ErrorKind classifies a lexing fault.
type ErrorKind uint8

const (
	noError ErrorKind = iota

	// UnexpectedChar is a character that cannot start any token. Adjacent
	// unexpected characters are reported as one error.
	UnexpectedChar
	// UnexpectedEof is input ending in the middle of a construct.
	UnexpectedEof
	// OddIndentation is a line whose indentation stops partway through an
	// open block level.
	OddIndentation
	// InconsistentIndentation is a line whose tabs and spaces disagree with
	// an open block level.
	InconsistentIndentation
	// IntegerOverflow is a decimal literal outside the signed 128-bit range.
	IntegerOverflow
	// UnterminatedString is a string literal cut off by a line break.
	UnterminatedString
	// InvalidEscape is a backslash sequence not in the escape table.
	InvalidEscape
)

var errorKindNames = [...]string{
	noError:                 "NoError",
	UnexpectedChar:          "UnexpectedChar",
	UnexpectedEof:           "UnexpectedEof",
	OddIndentation:          "OddIndentation",
	InconsistentIndentation: "InconsistentIndentation",
	IntegerOverflow:         "IntegerOverflow",
	UnterminatedString:      "UnterminatedString",
	InvalidEscape:           "InvalidEscape",
}

func (k ErrorKind) String() string {
	if int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// LexError is one lexing fault and the source span it covers.
type LexError struct {
	Kind ErrorKind
	Span token.Span
	// Char is the first offending character for UnexpectedChar.
	Char rune
}

func (e LexError) Error() string {
	switch e.Kind {
	case UnexpectedChar:
		if int(e.Span.Len()) > utf8.RuneLen(e.Char) {
			return fmt.Sprintf("unexpected characters starting with %q at %s", e.Char, e.Span)
		}
		return fmt.Sprintf("unexpected character %q at %s", e.Char, e.Span)
	case UnexpectedEof:
		return fmt.Sprintf("unexpected end of input at %s", e.Span)
	case OddIndentation:
		return fmt.Sprintf("indentation does not match any enclosing block at %s", e.Span)
	case InconsistentIndentation:
		return fmt.Sprintf("inconsistent use of tabs and spaces in indentation at %s", e.Span)
	case IntegerOverflow:
		return fmt.Sprintf("integer literal out of range at %s", e.Span)
	case UnterminatedString:
		return fmt.Sprintf("unterminated string literal at %s", e.Span)
	case InvalidEscape:
		return fmt.Sprintf("invalid escape sequence at %s", e.Span)
	default:
		return fmt.Sprintf("lexer error %s at %s", e.Kind, e.Span)
	}
}

// Result is the outcome of one lexing pass. Tokens always ends with exactly
// one Eof, whatever Errors holds.
type Result struct {
	Tokens []token.Token
	Errors []LexError
}

// HasErrors reports whether any fault was recorded.
func (r Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Err joins every recorded fault into one error, or returns nil.
func (r Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}
