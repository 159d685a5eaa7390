// Package driver turns source files into compilation units: one arena-backed
// context per file holding its tokens, lexing faults and interned identifier
// names. It also checks whole source trees concurrently and watches them for
// changes.
package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"github.com/leapstack-labs/leapc/pkg/ast"
	"github.com/leapstack-labs/leapc/pkg/intern"
	"github.com/leapstack-labs/leapc/pkg/lexer"
	"github.com/leapstack-labs/leapc/pkg/token"
)

// Options configures compilation.
type Options struct {
	// NormalizeIdentifiers applies NFKC to identifier names before interning.
	NormalizeIdentifiers bool
	// ChunkBytes overrides the arena chunk size; zero uses the default.
	ChunkBytes int
	// Jobs bounds the number of files checked at once; zero or less means
	// GOMAXPROCS.
	Jobs int
	// Logger receives debug records; nil discards them.
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Unit is the result of compiling one source text.
type Unit struct {
	Path   string
	Source string
	Hash   string
	File   *token.File
	Tokens []token.Token
	Errors []lexer.LexError
	// Names is parallel to Tokens; it holds the interned spelling of each
	// Ident token and the zero Name elsewhere.
	Names []intern.Name

	ctx *ast.Ctx
}

// Compile lexes src in a fresh context and interns its identifiers.
func Compile(path, src string, opts Options) *Unit {
	c := ast.NewCtxWithOptions(ast.CtxOptions{
		NormalizeNames: opts.NormalizeIdentifiers,
		ChunkBytes:     opts.ChunkBytes,
	})
	res := lexer.Tokenize(src)

	names := make([]intern.Name, len(res.Tokens))
	for i, tok := range res.Tokens {
		if tok.Kind == token.Ident {
			names[i] = c.NewIdentName(tok.Text(src))
		}
	}

	u := &Unit{
		Path:   path,
		Source: src,
		Hash:   ContentHash(src),
		File:   token.NewFile(path, src),
		Tokens: res.Tokens,
		Errors: res.Errors,
		Names:  names,
		ctx:    c,
	}
	opts.logger().Debug("compiled unit",
		"path", path,
		"tokens", len(u.Tokens),
		"errors", len(u.Errors),
		"names", c.NameCount(),
	)
	return u
}

// ContentHash returns a short SHA-256 digest of src.
func ContentHash(src string) string {
	h := sha256.Sum256([]byte(src))
	return hex.EncodeToString(h[:8])
}

// Ctx returns the unit's context.
func (u *Unit) Ctx() *ast.Ctx { return u.ctx }

// HasErrors reports whether lexing recorded any fault.
func (u *Unit) HasErrors() bool { return len(u.Errors) > 0 }

// NameCount returns the number of distinct identifier names.
func (u *Unit) NameCount() int { return u.ctx.NameCount() }

// Leaves builds the expression node of every Ident, IntLit and StrLit token.
// Literals the lexer flagged as malformed are skipped and reported.
func (u *Unit) Leaves() ([]ast.Expr, []error) {
	var (
		leaves []ast.Expr
		errs   []error
	)
	for _, tok := range u.Tokens {
		switch tok.Kind {
		case token.Ident, token.IntLit, token.StrLit:
		default:
			continue
		}
		e, err := ast.LeafFromToken(u.ctx, u.Source, tok)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		leaves = append(leaves, e)
	}
	return leaves, errs
}

// Release frees the unit's context. Names and nodes must not be used after.
func (u *Unit) Release() {
	if !u.ctx.Released() {
		u.ctx.Release()
	}
}
