package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIndentation(t *testing.T) {
	assert.Equal(t, Indentation{Space, Tab, Space}, ParseIndentation(" \t x"))
	assert.Nil(t, ParseIndentation("x  "))
	assert.Equal(t, `  \t`, ParseIndentation("  \t").String())
}

func TestIndentStackUpdate(t *testing.T) {
	var s IndentStack
	spaces := func(n int) Indentation {
		in := make(Indentation, n)
		for i := range in {
			in[i] = Space
		}
		return in
	}

	change, fault := s.Update(spaces(2))
	require.Equal(t, noError, fault)
	assert.Equal(t, Change{Indent: true}, change)

	change, fault = s.Update(spaces(6))
	require.Equal(t, noError, fault)
	assert.Equal(t, Change{Indent: true}, change)
	assert.Equal(t, []Indentation{spaces(2), spaces(4)}, s.Levels())

	change, fault = s.Update(spaces(6))
	require.Equal(t, noError, fault)
	assert.Equal(t, Change{}, change, "same depth changes nothing")

	_, fault = s.Update(spaces(4))
	assert.Equal(t, OddIndentation, fault)
	assert.Equal(t, 2, s.Depth(), "a fault leaves the stack alone")

	change, fault = s.Update(nil)
	require.Equal(t, noError, fault)
	assert.Equal(t, Change{Dedents: 2}, change)
	assert.Equal(t, 0, s.Depth())
}

func TestIndentStackInconsistent(t *testing.T) {
	var s IndentStack
	_, fault := s.Update(Indentation{Tab})
	require.Equal(t, noError, fault)

	_, fault = s.Update(Indentation{Space, Space, Space, Space})
	assert.Equal(t, InconsistentIndentation, fault)

	_, fault = s.Update(Indentation{Space, Tab})
	assert.Equal(t, InconsistentIndentation, fault)
	assert.Equal(t, 1, s.Depth())
}

func TestIndentStackPartialDedent(t *testing.T) {
	var s IndentStack
	s.Update(Indentation{Tab})
	s.Update(Indentation{Tab, Space})
	s.Update(Indentation{Tab, Space, Space, Space})

	change, fault := s.Update(Indentation{Tab, Space})

	require.Equal(t, noError, fault)
	assert.Equal(t, Change{Dedents: 1}, change)
	assert.Equal(t, []Indentation{{Tab}, {Space}}, s.Levels())
}

func TestIndentStackLevelsIsACopy(t *testing.T) {
	var s IndentStack
	s.Update(Indentation{Space})

	levels := s.Levels()
	levels[0][0] = Tab

	assert.Equal(t, []Indentation{{Space}}, s.Levels())
}
