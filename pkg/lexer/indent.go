package lexer

import (
	"slices"
	"strings"
)

// IndentChar is one element of a line's leading whitespace.
type IndentChar uint8

const (
	Space IndentChar = iota
	Tab
)

// Indentation is a leading whitespace run as an ordered sequence of tabs and
// spaces. One open block level is also an Indentation: the part of the run it
// added on top of its enclosing levels.
type Indentation []IndentChar

// ParseIndentation converts a run of spaces and tabs. It stops at the first
// other character.
func ParseIndentation(s string) Indentation {
	var in Indentation
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ':
			in = append(in, Space)
		case '\t':
			in = append(in, Tab)
		default:
			return in
		}
	}
	return in
}

func (in Indentation) String() string {
	var b strings.Builder
	for _, c := range in {
		if c == Tab {
			b.WriteString(`\t`)
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// Change is how one line moved the block structure.
type Change struct {
	Dedents int
	Indent  bool
}

// IndentStack holds the open block levels, outermost first.
type IndentStack struct {
	levels []Indentation
}

// Depth returns the number of open levels.
func (s *IndentStack) Depth() int {
	return len(s.levels)
}

// Levels returns a copy of the open levels, outermost first.
func (s *IndentStack) Levels() []Indentation {
	out := make([]Indentation, len(s.levels))
	for i, l := range s.levels {
		out[i] = slices.Clone(l)
	}
	return out
}

// Update compares a line's leading run against the open levels.
//
// Levels are matched from the outermost in. A level whose elements disagree
// with the run reports InconsistentIndentation; a run that ends partway
// through a level reports OddIndentation. Either way the stack is left as it
// was. A run that ends exactly on a level boundary closes every level past
// it, and whatever is left of the run once every level has matched opens one
// new level.
func (s *IndentStack) Update(run Indentation) (Change, ErrorKind) {
	rest := run
	for i, level := range s.levels {
		if len(rest) == 0 {
			n := len(s.levels) - i
			clear(s.levels[i:])
			s.levels = s.levels[:i]
			return Change{Dedents: n}, noError
		}
		for j, c := range level {
			if j >= len(rest) {
				return Change{}, OddIndentation
			}
			if rest[j] != c {
				return Change{}, InconsistentIndentation
			}
		}
		rest = rest[len(level):]
	}
	if len(rest) == 0 {
		return Change{}, noError
	}
	s.levels = append(s.levels, slices.Clone(rest))
	return Change{Indent: true}, noError
}

// pop closes the innermost level.
func (s *IndentStack) pop() {
	n := len(s.levels) - 1
	s.levels[n] = nil
	s.levels = s.levels[:n]
}
