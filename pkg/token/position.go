package token

import (
	"fmt"
	"sort"
	"unicode/utf8"
)

// Span is a half-open byte range [Start, End) over the source text. Zero-width
// spans are legal and are used for synthesized tokens.
type Span struct {
	Start uint32
	End   uint32
}

// NewSpan creates a span. It panics if start > end.
func NewSpan(start, end uint32) Span {
	if start > end {
		panic(fmt.Sprintf("token: invalid span [%d, %d)", start, end))
	}
	return Span{Start: start, End: end}
}

// Len returns the number of bytes the span covers.
func (s Span) Len() uint32 {
	return s.End - s.Start
}

// IsEmpty reports whether the span is zero-width.
func (s Span) IsEmpty() bool {
	return s.Start == s.End
}

// Contains returns true if the span contains the given offset.
func (s Span) Contains(offset uint32) bool {
	return offset >= s.Start && offset < s.End
}

// Covers reports whether other lies entirely within s. A zero-width span
// sitting on either boundary is covered.
func (s Span) Covers(other Span) bool {
	return other.Start >= s.Start && other.End <= s.End
}

// Union returns the smallest span covering both s and other.
func (s Span) Union(other Span) Span {
	u := s
	if other.Start < u.Start {
		u.Start = other.Start
	}
	if other.End > u.End {
		u.End = other.End
	}
	return u
}

// Text returns the slice of src the span covers, clamped to src.
func (s Span) Text(src string) string {
	start, end := int(s.Start), int(s.End)
	if start > len(src) {
		start = len(src)
	}
	if end > len(src) {
		end = len(src)
	}
	return src[start:end]
}

func (s Span) String() string {
	return fmt.Sprintf("(%d,%d)", s.Start, s.End)
}

// Position represents a location in the source code.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number, counted in characters
	Offset int // 0-based byte offset
}

// IsValid returns true if the position is valid (line > 0).
func (p Position) IsValid() bool {
	return p.Line > 0
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// File maps byte offsets of one source text to line/column positions.
type File struct {
	Name  string
	src   string
	lines []int // byte offsets of line starts
}

// NewFile indexes the line starts of src. "\n", "\r\n" and a lone "\r" each
// end a line.
func NewFile(name, src string) *File {
	lines := []int{0}
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '\n':
			lines = append(lines, i+1)
		case '\r':
			if i+1 < len(src) && src[i+1] == '\n' {
				continue
			}
			lines = append(lines, i+1)
		}
	}
	return &File{Name: name, src: src, lines: lines}
}

// Source returns the indexed text.
func (f *File) Source() string {
	return f.src
}

// LineCount returns the number of lines, counting a final unterminated line.
func (f *File) LineCount() int {
	return len(f.lines)
}

// Position converts a byte offset into a line/column position. Offsets past
// the end of the source are clamped to it.
func (f *File) Position(offset uint32) Position {
	off := int(offset)
	if off > len(f.src) {
		off = len(f.src)
	}
	line := sort.Search(len(f.lines), func(i int) bool { return f.lines[i] > off }) - 1
	col := utf8.RuneCountInString(f.src[f.lines[line]:off]) + 1
	return Position{Line: line + 1, Column: col, Offset: off}
}

// Range converts a span into its start and end positions.
func (f *File) Range(s Span) (Position, Position) {
	return f.Position(s.Start), f.Position(s.End)
}
