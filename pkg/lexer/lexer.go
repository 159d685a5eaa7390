// Package lexer turns source text into the token stream the parser consumes.
//
// The lexer makes one forward pass with one character of lookahead. Block
// structure is expressed through indentation: every logical line ends with a
// Newline token, and changes in leading whitespace produce zero-width Indent
// and Dedent tokens. Inside brackets line breaks are ignored, so expressions
// may span several lines.
//
// Lexing never stops at a fault. Faults are collected next to the tokens and
// the caller decides whether they are fatal.
package lexer

import (
	"unicode"
	"unicode/utf8"

	"github.com/leapstack-labs/leapc/pkg/token"
)

// Lexer tokenizes one source text. A Lexer is single use.
type Lexer struct {
	src     string
	pos     int // offset of the next unread byte
	nesting int // open bracket depth
	indents IndentStack

	tokens []token.Token
	errors []LexError
}

// New creates a Lexer over src.
func New(src string) *Lexer {
	return &Lexer{
		src:    src,
		tokens: make([]token.Token, 0, len(src)/4+1),
	}
}

// Tokenize lexes src in one call.
func Tokenize(src string) Result {
	return New(src).Run()
}

// Run scans the whole source.
func (l *Lexer) Run() Result {
	l.lexFirstIndent()
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t':
			l.pos++
		case c == '#':
			l.skipComment()
		case l.atLineBreak():
			if l.nesting > 0 {
				l.skipLineBreak()
				continue
			}
			l.lexNewlines()
		case c == '\r':
			l.lexLoneCR()
		case isDigit(c):
			l.lexNumber()
		case c == '"' || c == '\'':
			l.lexString(c)
		case c < utf8.RuneSelf:
			if isIdentStart(rune(c)) {
				l.lexIdent()
			} else if !l.lexOperator(c) {
				l.unexpected(rune(c), l.pos, l.pos+1)
				l.pos++
			}
		default:
			r, w := utf8.DecodeRuneInString(l.src[l.pos:])
			if r != utf8.RuneError && isIdentStart(r) {
				l.lexIdent()
			} else {
				l.unexpected(r, l.pos, l.pos+w)
				l.pos += w
			}
		}
	}
	l.finish()
	return Result{Tokens: l.tokens, Errors: l.errors}
}

// endOffset is where end-of-input tokens sit. An empty source reports its end
// at offset 1, one past the cursor's starting position.
func (l *Lexer) endOffset() int {
	if len(l.src) == 0 {
		return 1
	}
	return len(l.src)
}

func (l *Lexer) emit(k token.Kind, start, end int) {
	l.tokens = append(l.tokens, token.New(k, uint32(start), uint32(end)))
}

func (l *Lexer) fault(k ErrorKind, start, end int) {
	l.errors = append(l.errors, LexError{Kind: k, Span: token.NewSpan(uint32(start), uint32(end))})
}

// unexpected records an UnexpectedChar, extending the previous one when the two
// are adjacent.
func (l *Lexer) unexpected(r rune, start, end int) {
	if n := len(l.errors); n > 0 {
		last := &l.errors[n-1]
		if last.Kind == UnexpectedChar && int(last.Span.End) == start {
			last.Span.End = uint32(end)
			return
		}
	}
	l.errors = append(l.errors, LexError{
		Kind: UnexpectedChar,
		Span: token.NewSpan(uint32(start), uint32(end)),
		Char: r,
	})
}

// atLineBreak reports whether the cursor is on "\n" or "\r\n".
func (l *Lexer) atLineBreak() bool {
	if l.pos >= len(l.src) {
		return false
	}
	switch l.src[l.pos] {
	case '\n':
		return true
	case '\r':
		return l.pos+1 < len(l.src) && l.src[l.pos+1] == '\n'
	}
	return false
}

func (l *Lexer) skipLineBreak() {
	if l.src[l.pos] == '\r' {
		l.pos++
	}
	l.pos++
}

func (l *Lexer) skipComment() {
	for l.pos < len(l.src) && l.src[l.pos] != '\n' && l.src[l.pos] != '\r' {
		l.pos++
	}
}

// lexLoneCR handles a carriage return that does not start "\r\n".
func (l *Lexer) lexLoneCR() {
	start := l.pos
	l.pos++
	if l.pos >= len(l.src) {
		l.fault(UnexpectedEof, start, l.pos)
		return
	}
	l.unexpected('\r', start, l.pos)
}

// lexNewlines collapses a run of line breaks into one Newline token, then
// applies the indentation of the first line that holds code. Blank lines and
// comment-only lines belong to the run.
func (l *Lexer) lexNewlines() {
	start := l.pos
	var (
		end int
		run Indentation
	)
	for {
		l.skipLineBreak()
		end = l.pos
		run = l.measureIndent()
		if l.pos < len(l.src) && l.src[l.pos] == '#' {
			l.skipComment()
		}
		if l.pos >= len(l.src) {
			// The end-of-input rule closes whatever is still open.
			l.emit(token.Newline, start, end)
			return
		}
		if !l.atLineBreak() {
			break
		}
	}
	l.emit(token.Newline, start, end)
	l.applyIndent(run)
}

// lexFirstIndent treats the leading run of the first line like one that
// follows a Newline, so an indented first line opens its level at once. A
// blank or comment-only first line leaves it to the newline run.
func (l *Lexer) lexFirstIndent() {
	run := l.measureIndent()
	if len(run) == 0 || l.pos >= len(l.src) || l.src[l.pos] == '#' || l.src[l.pos] == '\r' || l.atLineBreak() {
		return
	}
	l.applyIndent(run)
}

func (l *Lexer) measureIndent() Indentation {
	start := l.pos
	for l.pos < len(l.src) && (l.src[l.pos] == ' ' || l.src[l.pos] == '\t') {
		l.pos++
	}
	return ParseIndentation(l.src[start:l.pos])
}

// applyIndent emits the layout tokens for a line whose leading run has just
// been consumed. They are zero width and sit on the last consumed character.
func (l *Lexer) applyIndent(run Indentation) {
	change, fault := l.indents.Update(run)
	if fault != noError {
		l.fault(fault, l.pos-len(run), l.pos)
		return
	}
	at := l.pos - 1
	for range change.Dedents {
		l.emit(token.Dedent, at, at)
	}
	if change.Indent {
		l.emit(token.Indent, at, at)
	}
}

// finish terminates the stream: a Newline for an unterminated last line, a
// Dedent for every open level and one Eof.
func (l *Lexer) finish() {
	end := l.endOffset()
	if n := len(l.tokens); n > 0 {
		if last := l.tokens[n-1].Kind; last != token.Newline && last != token.Dedent {
			l.emit(token.Newline, end, end)
		}
	}
	for l.indents.Depth() > 0 {
		l.indents.pop()
		l.emit(token.Dedent, end, end)
	}
	l.emit(token.Eof, end, end)
}

func (l *Lexer) lexIdent() {
	start := l.pos
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c < utf8.RuneSelf {
			if !isIdentContinue(rune(c)) {
				break
			}
			l.pos++
			continue
		}
		r, w := utf8.DecodeRuneInString(l.src[l.pos:])
		if r == utf8.RuneError || !isIdentContinue(r) {
			break
		}
		l.pos += w
	}
	l.emit(token.LookupIdent(l.src[start:l.pos]), start, l.pos)
}

// lexNumber scans a decimal literal. A leading zero is a literal on its own.
func (l *Lexer) lexNumber() {
	start := l.pos
	l.pos++
	if l.src[start] != '0' {
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
		if _, err := ParseInt(l.src[start:l.pos]); err != nil {
			l.fault(IntegerOverflow, start, l.pos)
		}
	}
	l.emit(token.IntLit, start, l.pos)
}

// lexString scans a quoted literal. A malformed literal still yields a StrLit
// over the text consumed.
func (l *Lexer) lexString(quote byte) {
	start := l.pos
	l.pos++
	for {
		if l.pos >= len(l.src) {
			l.fault(UnexpectedEof, start, l.pos)
			break
		}
		c := l.src[l.pos]
		if c == quote {
			l.pos++
			break
		}
		if c == '\n' || c == '\r' {
			l.fault(UnterminatedString, start, l.pos)
			break
		}
		if c != '\\' {
			l.pos++
			continue
		}
		esc := l.pos
		l.pos++
		if l.pos >= len(l.src) {
			continue
		}
		if e := l.src[l.pos]; e == '\n' || e == '\r' {
			l.fault(InvalidEscape, esc, l.pos)
			continue
		}
		if _, ok := escapes[l.src[l.pos]]; ok {
			l.pos++
			continue
		}
		_, w := utf8.DecodeRuneInString(l.src[l.pos:])
		l.pos += w
		l.fault(InvalidEscape, esc, l.pos)
	}
	l.emit(token.StrLit, start, l.pos)
}

type munch struct {
	next byte
	kind token.Kind
}

// operators maps each operator character to its one-character kind and the
// two-character forms it can start.
var operators = [utf8.RuneSelf]struct {
	kind  token.Kind
	pairs []munch
}{
	'+': {token.Plus, []munch{{'=', token.PlusEq}}},
	'-': {token.Minus, []munch{{'=', token.MinusEq}, {'>', token.Arrow}}},
	'*': {token.Star, []munch{{'=', token.StarEq}}},
	'/': {token.Slash, []munch{{'=', token.SlashEq}}},
	'%': {token.Percent, []munch{{'=', token.PercentEq}}},
	'=': {token.Assign, []munch{{'=', token.EqEq}}},
	'!': {token.Bang, []munch{{'=', token.BangEq}}},
	'<': {token.Lt, []munch{{'=', token.Le}, {'<', token.Shl}}},
	'>': {token.Gt, []munch{{'=', token.Ge}, {'>', token.Shr}}},
	'&': {token.Amp, []munch{{'&', token.AmpAmp}, {'=', token.AmpEq}}},
	'|': {token.Pipe, []munch{{'|', token.PipePipe}, {'=', token.PipeEq}}},
	'^': {token.Caret, []munch{{'=', token.CaretEq}}},
	':': {token.Colon, []munch{{'=', token.ColonEq}}},
	'~': {token.Tilde, nil},
	'.': {token.Dot, nil},
	',': {token.Comma, nil},
	';': {token.Semicolon, nil},
	'(': {token.LParen, nil},
	')': {token.RParen, nil},
	'[': {token.LBracket, nil},
	']': {token.RBracket, nil},
	'{': {token.LBrace, nil},
	'}': {token.RBrace, nil},
}

// lexOperator scans an operator or bracket starting with c, preferring the
// two-character form when the next character completes one.
func (l *Lexer) lexOperator(c byte) bool {
	op := operators[c]
	if op.kind == token.Illegal {
		return false
	}
	start := l.pos
	l.pos++
	kind := op.kind
	if l.pos < len(l.src) {
		for _, m := range op.pairs {
			if l.src[l.pos] == m.next {
				kind = m.kind
				l.pos++
				break
			}
		}
	}
	switch kind {
	case token.LParen, token.LBracket, token.LBrace:
		l.nesting++
	case token.RParen, token.RBracket, token.RBrace:
		if l.nesting > 0 {
			l.nesting--
		}
	}
	l.emit(kind, start, l.pos)
	return true
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isIdentStart(r rune) bool {
	if r < utf8.RuneSelf {
		return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
	}
	return unicode.IsLetter(r) || unicode.Is(unicode.Nl, r) || unicode.Is(unicode.Other_ID_Start, r)
}

func isIdentContinue(r rune) bool {
	if r < utf8.RuneSelf {
		return isIdentStart(r) || ('0' <= r && r <= '9')
	}
	return isIdentStart(r) ||
		unicode.In(r, unicode.Mn, unicode.Mc, unicode.Nd, unicode.Pc, unicode.Other_ID_Continue)
}
