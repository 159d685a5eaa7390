// Package arena provides a bump allocator that owns every object of one
// compilation unit.
//
// Storage is handed out from typed chunks. A chunk is never grown in place, so
// a pointer or slice returned by Alloc or AllocSliceCopy stays valid and keeps
// its value for as long as the arena lives, no matter how many allocations
// follow. Individual objects are never freed; Release drops everything at once.
//
// An Arena is not safe for concurrent use. Each compilation unit owns its own.
package arena

import (
	"reflect"
)

// DefaultChunkBytes is the target size of one chunk.
const DefaultChunkBytes = 8 << 10

// Stats describes what an arena has handed out so far.
type Stats struct {
	Objects int     // values placed by Alloc
	Slices  int     // slices placed by AllocSliceCopy
	Chunks  int     // chunks reserved across all element types
	Bytes   uintptr // bytes reserved across all chunks
}

// Arena is a typed bump allocator.
type Arena struct {
	chunkBytes int
	slabs      map[reflect.Type]any
	stats      Stats
	released   bool
}

// slab is the chunk currently being filled for one element type. Appends stay
// within cap, so earlier elements never move.
type slab[T any] struct {
	cur []T
}

// New creates an arena using DefaultChunkBytes.
func New() *Arena {
	return NewWithChunkBytes(DefaultChunkBytes)
}

// NewWithChunkBytes creates an arena whose chunks target n bytes each.
func NewWithChunkBytes(n int) *Arena {
	if n <= 0 {
		n = DefaultChunkBytes
	}
	return &Arena{
		chunkBytes: n,
		slabs:      make(map[reflect.Type]any),
	}
}

// Alloc moves v into arena-owned storage and returns a pointer to it.
func Alloc[T any](a *Arena, v T) *T {
	s := slabFor[T](a)
	if len(s.cur) == cap(s.cur) {
		grow(a, s, 1)
	}
	s.cur = append(s.cur, v)
	a.stats.Objects++
	return &s.cur[len(s.cur)-1]
}

// AllocSliceCopy copies src into contiguous arena-owned storage. The returned
// slice has its capacity clipped to its length, so appending to it can never
// overwrite a neighbouring allocation. An empty src yields nil.
func AllocSliceCopy[T any](a *Arena, src []T) []T {
	if len(src) == 0 {
		a.check()
		return nil
	}
	s := slabFor[T](a)
	if cap(s.cur)-len(s.cur) < len(src) {
		grow(a, s, len(src))
	}
	start := len(s.cur)
	s.cur = append(s.cur, src...)
	a.stats.Slices++
	return s.cur[start:len(s.cur):len(s.cur)]
}

// Stats returns allocation counters.
func (a *Arena) Stats() Stats {
	return a.stats
}

// Release drops every chunk. The arena must not be used afterwards; any later
// allocation panics.
func (a *Arena) Release() {
	a.slabs = nil
	a.released = true
}

// Released reports whether Release has been called.
func (a *Arena) Released() bool {
	return a.released
}

func (a *Arena) check() {
	if a.released {
		panic("arena: use after release")
	}
}

func slabFor[T any](a *Arena) *slab[T] {
	a.check()
	t := reflect.TypeFor[T]()
	if s, ok := a.slabs[t]; ok {
		return s.(*slab[T])
	}
	s := &slab[T]{}
	a.slabs[t] = s
	return s
}

// grow starts a fresh chunk able to hold at least n elements. The previous
// chunk stays reachable through the pointers already handed out.
func grow[T any](a *Arena, s *slab[T], n int) {
	size := reflect.TypeFor[T]().Size()
	perChunk := 64
	if size > 0 {
		perChunk = a.chunkBytes / int(size)
	}
	if perChunk < n {
		perChunk = n
	}
	if perChunk < 1 {
		perChunk = 1
	}
	s.cur = make([]T, 0, perChunk)
	a.stats.Chunks++
	a.stats.Bytes += size * uintptr(perChunk)
}
