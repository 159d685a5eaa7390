// Package intern deduplicates identifier spellings for the lifetime of one
// compilation.
//
// Interning returns a Name handle. Two handles for byte-identical input are
// equal, and comparing or hashing a Name never looks at the string content.
package intern

import (
	"strings"

	"github.com/leapstack-labs/leapc/pkg/arena"
)

// Name is a handle to an interned string. The zero Name is not produced by any
// Interner and reports IsZero.
type Name struct {
	e *entry
}

type entry struct {
	text string
	id   uint32
}

// String returns the interned spelling.
func (n Name) String() string {
	if n.e == nil {
		return ""
	}
	return n.e.text
}

// ID returns the 1-based insertion index of the name within its Interner.
// The zero Name has ID 0.
func (n Name) ID() uint32 {
	if n.e == nil {
		return 0
	}
	return n.e.id
}

// IsZero reports whether n is the zero handle.
func (n Name) IsZero() bool {
	return n.e == nil
}

// Interner is an append-only deduplicating string store. It is not safe for
// concurrent use.
type Interner struct {
	arena *arena.Arena
	names map[string]Name
}

// New creates an empty interner.
func New() *Interner {
	return &Interner{
		arena: arena.New(),
		names: make(map[string]Name),
	}
}

// Intern returns the handle for s, adding s on first sight. The stored copy is
// independent of s, so callers may pass substrings of a larger buffer.
func (in *Interner) Intern(s string) Name {
	if n, ok := in.names[s]; ok {
		return n
	}
	text := strings.Clone(s)
	n := Name{e: arena.Alloc(in.arena, entry{text: text, id: uint32(len(in.names)) + 1})}
	in.names[text] = n
	return n
}

// Lookup returns the handle for s if it has been interned.
func (in *Interner) Lookup(s string) (Name, bool) {
	n, ok := in.names[s]
	return n, ok
}

// Len returns the number of distinct strings interned.
func (in *Interner) Len() int {
	return len(in.names)
}

// Release drops the backing store. Handles must not be used afterwards.
func (in *Interner) Release() {
	in.names = nil
	in.arena.Release()
}
