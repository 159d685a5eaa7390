package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentStore_OpenGetClose(t *testing.T) {
	store := NewDocumentStore()
	uri := "file:///proj/src/main.leap"

	store.Open(uri, "x = 1\n", 1)

	doc := store.Get(uri)
	require.NotNil(t, doc)
	assert.Equal(t, uri, doc.URI)
	assert.Equal(t, "x = 1\n", doc.Content)
	assert.Equal(t, 1, doc.Version)

	store.Close(uri)
	assert.Nil(t, store.Get(uri))
}

func TestDocumentStore_Update(t *testing.T) {
	store := NewDocumentStore()
	uri := "file:///proj/src/main.leap"
	store.Open(uri, "x = 1", 1)
	before := store.Get(uri)

	doc := store.Update(uri, "x = 2", 2)

	require.NotNil(t, doc)
	assert.Equal(t, "x = 2", store.Get(uri).Content)
	assert.Equal(t, 2, store.Get(uri).Version)
	assert.Equal(t, "x = 1", before.Content, "earlier snapshots are not mutated")

	stale := store.Update(uri, "x = 0", 1)
	assert.Equal(t, "x = 2", stale.Content, "older versions are ignored")

	assert.Nil(t, store.Update("file:///missing.leap", "", 1))
}

func TestDocumentStore_List(t *testing.T) {
	store := NewDocumentStore()
	store.Open("file:///c.leap", "c", 1)
	store.Open("file:///a.leap", "a", 1)
	store.Open("file:///b.leap", "b", 1)

	assert.Equal(t, []string{"file:///a.leap", "file:///b.leap", "file:///c.leap"}, store.List())
}

func TestComputeLineOffsets(t *testing.T) {
	tests := []struct {
		content string
		want    []int
	}{
		{"", []int{0}},
		{"abc", []int{0}},
		{"a\nb\n", []int{0, 2, 4}},
		{"a\r\nb", []int{0, 3}},
		{"a\rb\r\n\nc", []int{0, 2, 5, 6}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, computeLineOffsets(tt.content), "%q", tt.content)
	}
}

func TestDocument_PositionConversions(t *testing.T) {
	// a=0 😀=1..4 b=5 \n=6 c=7
	doc := newDocument("file:///x.leap", "a😀b\nc", 1)

	assert.Equal(t, Position{Line: 0, Character: 3}, doc.OffsetToPosition(5), "astral runes count two UTF-16 units")
	assert.Equal(t, Position{Line: 1, Character: 0}, doc.OffsetToPosition(7))
	assert.Equal(t, Position{Line: 1, Character: 1}, doc.OffsetToPosition(100), "offsets clamp to the end")

	assert.Equal(t, 5, doc.PositionToOffset(Position{Line: 0, Character: 3}))
	assert.Equal(t, 1, doc.PositionToOffset(Position{Line: 0, Character: 2}), "a split surrogate pair stays before the rune")
	assert.Equal(t, 7, doc.PositionToOffset(Position{Line: 1, Character: 0}))
	assert.Equal(t, 6, doc.PositionToOffset(Position{Line: 0, Character: 99}), "characters clamp to the line end")
	assert.Equal(t, 8, doc.PositionToOffset(Position{Line: 5, Character: 0}))
}

func TestDocument_SpanRange(t *testing.T) {
	doc := newDocument("file:///x.leap", "x = 1\ny = @\n", 1)

	r := doc.SpanRange(10, 11)

	assert.Equal(t, Range{
		Start: Position{Line: 1, Character: 4},
		End:   Position{Line: 1, Character: 5},
	}, r)
}

func TestDocument_GetLine(t *testing.T) {
	doc := newDocument("file:///x.leap", "first\r\nsecond\rthird\n", 1)

	assert.Equal(t, "first", doc.GetLine(0))
	assert.Equal(t, "second", doc.GetLine(1))
	assert.Equal(t, "third", doc.GetLine(2))
	assert.Equal(t, "", doc.GetLine(3))
	assert.Equal(t, "", doc.GetLine(-1))
	assert.Equal(t, "", doc.GetLine(9))
}

func TestURIConversions(t *testing.T) {
	assert.Equal(t, "/proj/src/main.leap", URIToPath("file:///proj/src/main.leap"))
	assert.Equal(t, "/proj/my src/a.leap", URIToPath("file:///proj/my%20src/a.leap"))
	assert.Equal(t, "untitled:1", URIToPath("untitled:1"))

	assert.Equal(t, "file:///proj/my%20src/a.leap", PathToURI("/proj/my src/a.leap"))
	assert.Equal(t, "file:///already", PathToURI("file:///already"))
}
