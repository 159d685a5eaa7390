package intern

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternDeduplicates(t *testing.T) {
	in := New()

	a := in.Intern("hello")
	b := in.Intern(string([]byte{'h', 'e', 'l', 'l', 'o'}))
	c := in.Intern("world")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, 2, in.Len())
	assert.Equal(t, "hello", a.String())
	assert.Equal(t, uint32(1), a.ID())
	assert.Equal(t, uint32(2), c.ID())
}

func TestNameUsableAsMapKey(t *testing.T) {
	in := New()
	seen := map[Name]int{}

	for _, s := range []string{"x", "y", "x", "z", "y", "x"} {
		seen[in.Intern(s)]++
	}

	assert.Len(t, seen, 3)
	assert.Equal(t, 3, seen[in.Intern("x")])
}

func TestInternCopiesInput(t *testing.T) {
	in := New()
	buf := []byte("abcdef")

	n := in.Intern(string(buf[:3]))
	buf[0] = 'z'

	assert.Equal(t, "abc", n.String())
}

func TestHandlesStableAcrossGrowth(t *testing.T) {
	in := New()
	first := in.Intern("first")

	for i := 0; i < 10000; i++ {
		in.Intern(fmt.Sprintf("name%d", i))
	}

	again, ok := in.Lookup("first")
	require.True(t, ok)
	assert.Equal(t, first, again)
	assert.Equal(t, "first", first.String())
	assert.Equal(t, 10001, in.Len())
}

func TestLookupMissing(t *testing.T) {
	in := New()

	n, ok := in.Lookup("nope")

	assert.False(t, ok)
	assert.True(t, n.IsZero())
	assert.Equal(t, "", n.String())
}

func TestZeroNameIDIsDistinct(t *testing.T) {
	in := New()

	first := in.Intern("first")

	assert.Equal(t, uint32(0), Name{}.ID())
	assert.NotEqual(t, Name{}.ID(), first.ID())
}

func TestEmptyString(t *testing.T) {
	in := New()

	n := in.Intern("")

	assert.False(t, n.IsZero())
	assert.Equal(t, n, in.Intern(""))
}

func TestSeparateInternersDoNotShareHandles(t *testing.T) {
	a := New().Intern("same")
	b := New().Intern("same")

	assert.NotEqual(t, a, b)
	assert.Equal(t, a.String(), b.String())
}
