// Package ast defines the syntax tree and the compilation context that owns
// it.
//
// Every node is allocated in a Ctx and lives exactly as long as it. Nodes are
// built bottom-up through the constructors in this package, which keep the
// rule that a node's span covers the spans of all its children. Identifiers
// carry interned names, so comparing two names never compares strings.
package ast

import (
	"math/big"

	"github.com/leapstack-labs/leapc/pkg/intern"
	"github.com/leapstack-labs/leapc/pkg/token"
)

// Node is implemented by every syntax tree node.
type Node interface {
	Span() token.Span
}

// Expr is a marker interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a marker interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// NodeInfo carries the source span of a node.
type NodeInfo struct {
	Loc token.Span
}

// Span implements Node.
func (n NodeInfo) Span() token.Span { return n.Loc }

// ---------- Program structure ----------

// Program is the root of one compilation unit.
type Program struct {
	NodeInfo
	Body *StmtList
}

// StmtList is a sequence of statements forming one block.
type StmtList struct {
	NodeInfo
	Stmts []Stmt
}

// Class declares a class, optionally extending another.
type Class struct {
	NodeInfo
	Name    intern.Name
	Extends intern.Name // zero when absent
	Body    *StmtList
}

func (*Class) stmtNode() {}

// ---------- Statements ----------

// PassStmt is the empty statement.
type PassStmt struct {
	NodeInfo
}

func (*PassStmt) stmtNode() {}

// ExprStmt evaluates an expression for its effect.
type ExprStmt struct {
	NodeInfo
	X Expr
}

func (*ExprStmt) stmtNode() {}

// ReturnStmt leaves the enclosing function.
type ReturnStmt struct {
	NodeInfo
	Value Expr // nil for a bare return
}

func (*ReturnStmt) stmtNode() {}

// VarDef declares a variable.
type VarDef struct {
	NodeInfo
	Def *IdentDef
}

func (*VarDef) stmtNode() {}

// FuncDef declares a function.
type FuncDef struct {
	NodeInfo
	Name   intern.Name
	Params *ParamList
	Result Expr // nil when the result type is not written
	Body   *StmtList
}

func (*FuncDef) stmtNode() {}

// ParamList is a function's parameter list.
type ParamList struct {
	NodeInfo
	Params []*IdentDef
}

// IdentDef binds a name with an optional type and value. It is shared by
// parameters and variable declarations.
type IdentDef struct {
	NodeInfo
	Name intern.Name
	Ty   TySpec
	Val  Expr // nil when there is no initializer
}

// TyKind says how a declaration's type is given.
type TyKind uint8

const (
	// TyAny means no type annotation at all.
	TyAny TyKind = iota
	// TyInferred is the `:=` form: the type comes from the value.
	TyInferred
	// TyExplicit is a written type expression.
	TyExplicit
)

func (k TyKind) String() string {
	switch k {
	case TyAny:
		return "any"
	case TyInferred:
		return "inferred"
	case TyExplicit:
		return "explicit"
	}
	return "unknown"
}

// TySpec is a declaration's type specification. Expr is set only for
// TyExplicit.
type TySpec struct {
	Kind TyKind
	Expr Expr
}

// ---------- Expressions ----------

// Ident is a use of a name.
type Ident struct {
	NodeInfo
	Name intern.Name
}

func (*Ident) exprNode() {}

// LitKind is the kind of a literal.
type LitKind uint8

const (
	LitInt LitKind = iota
	LitStr
)

// Lit is a literal value. Int is set for LitInt, Str for LitStr.
type Lit struct {
	NodeInfo
	Kind LitKind
	Int  *big.Int
	Str  string
}

func (*Lit) exprNode() {}

// BinOp is a binary operation.
type BinOp struct {
	NodeInfo
	Op  BinOpKind
	Lhs Expr
	Rhs Expr
}

func (*BinOp) exprNode() {}
