package ast

import (
	"fmt"
	"math/big"

	"github.com/leapstack-labs/leapc/pkg/lexer"
	"github.com/leapstack-labs/leapc/pkg/token"
)

// The constructors below are the only way nodes should be made. Each one
// allocates in the Ctx and widens the given span to cover every child, so a
// parser may pass the span of the node's own tokens and let the children
// extend it. Any child may be nil.

// cover unions span with the spans of the non-nil children.
func cover(span token.Span, children ...Node) token.Span {
	for _, ch := range children {
		if ch != nil {
			span = span.Union(ch.Span())
		}
	}
	return span
}

// optional turns a nil node pointer into a nil Node, so cover skips it.
func optional[P interface {
	*N
	Node
}, N any](p P) Node {
	if p == nil {
		return nil
	}
	return p
}

// NewProgram wraps the top-level statement list. A nil body is an empty
// program.
func NewProgram(c *Ctx, body *StmtList) *Program {
	var loc token.Span
	if body != nil {
		loc = body.Span()
	}
	return Alloc(c, Program{NodeInfo: NodeInfo{Loc: loc}, Body: body})
}

// NewStmtList copies stmts into the arena.
func NewStmtList(c *Ctx, span token.Span, stmts []Stmt) *StmtList {
	for _, s := range stmts {
		span = span.Union(s.Span())
	}
	return Alloc(c, StmtList{NodeInfo: NodeInfo{Loc: span}, Stmts: AllocSliceCopy(c, stmts)})
}

// NewClass declares a class. An empty extends means no base class.
func NewClass(c *Ctx, span token.Span, name, extends string, body *StmtList) *Class {
	cl := Class{
		NodeInfo: NodeInfo{Loc: cover(span, optional(body))},
		Name:     c.NewIdentName(name),
		Body:     body,
	}
	if extends != "" {
		cl.Extends = c.NewIdentName(extends)
	}
	return Alloc(c, cl)
}

// NewPass creates a pass statement.
func NewPass(c *Ctx, span token.Span) *PassStmt {
	return Alloc(c, PassStmt{NodeInfo: NodeInfo{Loc: span}})
}

// NewExprStmt wraps an expression as a statement.
func NewExprStmt(c *Ctx, x Expr) *ExprStmt {
	return Alloc(c, ExprStmt{NodeInfo: NodeInfo{Loc: x.Span()}, X: x})
}

// NewReturn creates a return statement; value may be nil.
func NewReturn(c *Ctx, span token.Span, value Expr) *ReturnStmt {
	return Alloc(c, ReturnStmt{NodeInfo: NodeInfo{Loc: cover(span, value)}, Value: value})
}

// NewVarDef creates a variable declaration.
func NewVarDef(c *Ctx, span token.Span, def *IdentDef) *VarDef {
	return Alloc(c, VarDef{NodeInfo: NodeInfo{Loc: cover(span, optional(def))}, Def: def})
}

// NewFuncDef creates a function declaration; result may be nil.
func NewFuncDef(c *Ctx, span token.Span, name string, params *ParamList, result Expr, body *StmtList) *FuncDef {
	return Alloc(c, FuncDef{
		NodeInfo: NodeInfo{Loc: cover(span, optional(params), result, optional(body))},
		Name:     c.NewIdentName(name),
		Params:   params,
		Result:   result,
		Body:     body,
	})
}

// NewParamList copies params into the arena.
func NewParamList(c *Ctx, span token.Span, params []*IdentDef) *ParamList {
	for _, p := range params {
		span = span.Union(p.Span())
	}
	return Alloc(c, ParamList{NodeInfo: NodeInfo{Loc: span}, Params: AllocSliceCopy(c, params)})
}

// NewIdentDef binds name with a type specification and an optional value.
func NewIdentDef(c *Ctx, span token.Span, name string, ty TySpec, val Expr) *IdentDef {
	return Alloc(c, IdentDef{
		NodeInfo: NodeInfo{Loc: cover(span, ty.Expr, val)},
		Name:     c.NewIdentName(name),
		Ty:       ty,
		Val:      val,
	})
}

// AnyType is the specification of an unannotated declaration.
func AnyType() TySpec { return TySpec{Kind: TyAny} }

// InferredType is the specification of a `:=` declaration.
func InferredType() TySpec { return TySpec{Kind: TyInferred} }

// ExplicitType is a written type expression.
func ExplicitType(e Expr) TySpec { return TySpec{Kind: TyExplicit, Expr: e} }

// NewIdent creates a name use.
func NewIdent(c *Ctx, span token.Span, name string) *Ident {
	return Alloc(c, Ident{NodeInfo: NodeInfo{Loc: span}, Name: c.NewIdentName(name)})
}

// NewIntLit creates an integer literal.
func NewIntLit(c *Ctx, span token.Span, v *big.Int) *Lit {
	return Alloc(c, Lit{NodeInfo: NodeInfo{Loc: span}, Kind: LitInt, Int: v})
}

// NewStrLit creates a string literal holding the decoded value.
func NewStrLit(c *Ctx, span token.Span, s string) *Lit {
	return Alloc(c, Lit{NodeInfo: NodeInfo{Loc: span}, Kind: LitStr, Str: s})
}

// NewBinOp combines two operands.
func NewBinOp(c *Ctx, op BinOpKind, lhs, rhs Expr) *BinOp {
	return Alloc(c, BinOp{
		NodeInfo: NodeInfo{Loc: lhs.Span().Union(rhs.Span())},
		Op:       op,
		Lhs:      lhs,
		Rhs:      rhs,
	})
}

// LeafFromToken builds the expression node for an Ident, IntLit or StrLit
// token. Other kinds, and literals the lexer flagged as malformed, return an
// error.
func LeafFromToken(c *Ctx, src string, tok token.Token) (Expr, error) {
	text := tok.Text(src)
	switch tok.Kind {
	case token.Ident:
		return NewIdent(c, tok.Span, text), nil
	case token.IntLit:
		v, err := lexer.ParseInt(text)
		if err != nil {
			return nil, fmt.Errorf("integer literal %s: %w", tok.Span, err)
		}
		return NewIntLit(c, tok.Span, v), nil
	case token.StrLit:
		s, err := lexer.Unquote(text)
		if err != nil {
			return nil, fmt.Errorf("string literal %s: %w", tok.Span, err)
		}
		return NewStrLit(c, tok.Span, s), nil
	}
	return nil, fmt.Errorf("token %s is not a leaf expression", tok)
}
