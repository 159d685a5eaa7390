package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type node struct {
	id       int
	children []*node
}

func TestAllocStability(t *testing.T) {
	a := NewWithChunkBytes(64)

	first := Alloc(a, node{id: 1})
	ptrs := []*node{first}
	for i := 2; i <= 1000; i++ {
		ptrs = append(ptrs, Alloc(a, node{id: i}))
	}

	for i, p := range ptrs {
		assert.Equal(t, i+1, p.id, "allocation %d changed value", i)
	}
	assert.Same(t, first, ptrs[0])
	assert.Greater(t, a.Stats().Chunks, 1, "small chunks should force several chunks")
}

func TestAllocUniqueness(t *testing.T) {
	a := New()

	p := Alloc(a, 7)
	q := Alloc(a, 7)

	require.NotSame(t, p, q)
	*p = 8
	assert.Equal(t, 7, *q)
}

func TestAllocMixedTypes(t *testing.T) {
	a := New()

	n := Alloc(a, node{id: 1})
	s := Alloc(a, "text")
	i := Alloc(a, int64(42))

	assert.Equal(t, 1, n.id)
	assert.Equal(t, "text", *s)
	assert.Equal(t, int64(42), *i)
	assert.Equal(t, 3, a.Stats().Objects)
}

func TestAllocSliceCopy(t *testing.T) {
	a := NewWithChunkBytes(32)

	src := []int{1, 2, 3}
	got := AllocSliceCopy(a, src)

	require.Equal(t, src, got)
	assert.Equal(t, len(got), cap(got), "capacity should be clipped")

	src[0] = 99
	assert.Equal(t, 1, got[0], "copy must not alias the source")

	// The next slice lands right after got in the same chunk.
	next := AllocSliceCopy(a, []int{4})
	_ = append(got, 100)
	assert.Equal(t, []int{4}, next, "appending to one slice must not clobber another")
	assert.Equal(t, 1, a.Stats().Chunks)
}

func TestAllocSliceCopyLargerThanChunk(t *testing.T) {
	a := NewWithChunkBytes(16)

	src := make([]int64, 100)
	for i := range src {
		src[i] = int64(i)
	}
	got := AllocSliceCopy(a, src)

	assert.Equal(t, src, got)
	assert.Equal(t, 1, a.Stats().Slices)
}

func TestAllocSliceCopyEmpty(t *testing.T) {
	a := New()

	assert.Nil(t, AllocSliceCopy[int](a, nil))
	assert.Equal(t, 0, a.Stats().Slices)
}

func TestAllocZeroSizedType(t *testing.T) {
	a := New()

	p := Alloc(a, struct{}{})
	q := Alloc(a, struct{}{})

	assert.NotNil(t, p)
	assert.NotNil(t, q)
}

func TestReferencesSurviveLaterAllocations(t *testing.T) {
	a := NewWithChunkBytes(48)

	root := Alloc(a, node{id: 0})
	kids := make([]*node, 0, 50)
	for i := 1; i <= 50; i++ {
		kids = append(kids, Alloc(a, node{id: i}))
	}
	root.children = AllocSliceCopy(a, kids)

	for i := 0; i < 500; i++ {
		Alloc(a, node{id: -i})
	}

	require.Len(t, root.children, 50)
	for i, k := range root.children {
		assert.Equal(t, i+1, k.id)
	}
}

func TestRelease(t *testing.T) {
	a := New()
	Alloc(a, 1)

	a.Release()

	assert.True(t, a.Released())
	assert.PanicsWithValue(t, "arena: use after release", func() { Alloc(a, 2) })
	assert.Panics(t, func() { AllocSliceCopy(a, []int{1}) })
	assert.Panics(t, func() { AllocSliceCopy[int](a, nil) })
}

func TestStatsBytes(t *testing.T) {
	a := NewWithChunkBytes(80)

	Alloc(a, int64(1))

	st := a.Stats()
	assert.Equal(t, 1, st.Chunks)
	assert.Equal(t, uintptr(80), st.Bytes)
}
