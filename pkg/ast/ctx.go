package ast

import (
	"github.com/leapstack-labs/leapc/pkg/arena"
	"github.com/leapstack-labs/leapc/pkg/intern"
	"golang.org/x/text/unicode/norm"
)

// CtxOptions tunes a compilation context.
type CtxOptions struct {
	// NormalizeNames applies Unicode NFKC to identifier spellings before they
	// are interned, so visually identical compositions share one Name.
	NormalizeNames bool
	// ChunkBytes overrides the arena chunk size. Zero keeps the default.
	ChunkBytes int
}

// Ctx owns every node and identifier of one compilation unit. It pairs an
// arena for node storage with an interner for names; both are torn down
// together by Release. A Ctx must not be shared between goroutines.
type Ctx struct {
	arena     *arena.Arena
	names     *intern.Interner
	normalize bool
}

// NewCtx creates a context with default options.
func NewCtx() *Ctx {
	return NewCtxWithOptions(CtxOptions{})
}

// NewCtxWithOptions creates a context.
func NewCtxWithOptions(opts CtxOptions) *Ctx {
	return &Ctx{
		arena:     arena.NewWithChunkBytes(opts.ChunkBytes),
		names:     intern.New(),
		normalize: opts.NormalizeNames,
	}
}

// Alloc places v in the context's arena.
func Alloc[T any](c *Ctx, v T) *T {
	return arena.Alloc(c.arena, v)
}

// AllocSliceCopy copies src into the context's arena.
func AllocSliceCopy[T any](c *Ctx, src []T) []T {
	return arena.AllocSliceCopy(c.arena, src)
}

// NewIdentName interns an identifier spelling.
func (c *Ctx) NewIdentName(s string) intern.Name {
	if c.normalize && !norm.NFKC.IsNormalString(s) {
		s = norm.NFKC.String(s)
	}
	return c.names.Intern(s)
}

// LookupIdentName returns the Name for s if it has been interned.
func (c *Ctx) LookupIdentName(s string) (intern.Name, bool) {
	if c.normalize {
		s = norm.NFKC.String(s)
	}
	return c.names.Lookup(s)
}

// NameCount returns the number of distinct names interned so far.
func (c *Ctx) NameCount() int {
	return c.names.Len()
}

// Stats reports arena usage.
func (c *Ctx) Stats() arena.Stats {
	return c.arena.Stats()
}

// Release frees every node and name at once. Nothing obtained from the
// context may be used afterwards.
func (c *Ctx) Release() {
	c.names.Release()
	c.arena.Release()
}

// Released reports whether Release has been called.
func (c *Ctx) Released() bool {
	return c.arena.Released()
}
