package ast

import (
	"fmt"
	"strings"
)

// Visitor's Visit is called for each node encountered by Walk. If the result
// w is not nil, Walk visits each child of node with w, followed by a call of
// w.Visit(nil).
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses a tree in depth-first order.
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}
	for _, ch := range Children(node) {
		Walk(v, ch)
	}
	v.Visit(nil)
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses a tree in depth-first order, calling f for each node and
// then f(nil) after a node's children. Returning false from f skips the
// children.
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}

// Children returns the direct children of node in source order.
func Children(node Node) []Node {
	var out []Node
	add := func(n Node) {
		if n != nil {
			out = append(out, n)
		}
	}
	switch n := node.(type) {
	case *Program:
		if n.Body != nil {
			add(n.Body)
		}
	case *StmtList:
		for _, s := range n.Stmts {
			add(s)
		}
	case *Class:
		if n.Body != nil {
			add(n.Body)
		}
	case *ExprStmt:
		add(n.X)
	case *ReturnStmt:
		add(n.Value)
	case *VarDef:
		if n.Def != nil {
			add(n.Def)
		}
	case *FuncDef:
		if n.Params != nil {
			add(n.Params)
		}
		add(n.Result)
		if n.Body != nil {
			add(n.Body)
		}
	case *ParamList:
		for _, p := range n.Params {
			add(p)
		}
	case *IdentDef:
		add(n.Ty.Expr)
		add(n.Val)
	case *BinOp:
		add(n.Lhs)
		add(n.Rhs)
	case *PassStmt, *Ident, *Lit:
	default:
		panic(fmt.Sprintf("ast: unexpected node type %T", node))
	}
	return out
}

// SpanError reports a child whose span escapes its parent's.
type SpanError struct {
	Parent Node
	Child  Node
}

func (e *SpanError) Error() string {
	return fmt.Sprintf("%T span %s does not cover child %T span %s",
		e.Parent, e.Parent.Span(), e.Child, e.Child.Span())
}

// Verify checks that every node's span covers its children's spans. It
// returns the first violation found.
func Verify(root Node) error {
	var err error
	var check func(Node)
	check = func(n Node) {
		for _, ch := range Children(n) {
			if err != nil {
				return
			}
			if !n.Span().Covers(ch.Span()) {
				err = &SpanError{Parent: n, Child: ch}
				return
			}
			check(ch)
		}
	}
	check(root)
	return err
}

// Sprint renders a tree as a compact S-expression, for tests and debugging.
func Sprint(node Node) string {
	var b strings.Builder
	sprint(&b, node)
	return b.String()
}

func sprint(b *strings.Builder, node Node) {
	switch n := node.(type) {
	case *Ident:
		b.WriteString(n.Name.String())
		return
	case *Lit:
		if n.Kind == LitInt {
			b.WriteString(n.Int.String())
		} else {
			fmt.Fprintf(b, "%q", n.Str)
		}
		return
	case *PassStmt:
		b.WriteString("pass")
		return
	}

	b.WriteByte('(')
	switch n := node.(type) {
	case *Program:
		b.WriteString("program")
	case *StmtList:
		b.WriteString("block")
	case *Class:
		b.WriteString("class " + n.Name.String())
		if !n.Extends.IsZero() {
			b.WriteString(" extends " + n.Extends.String())
		}
	case *ExprStmt:
		b.WriteString("expr")
	case *ReturnStmt:
		b.WriteString("return")
	case *VarDef:
		b.WriteString("var")
	case *FuncDef:
		b.WriteString("func " + n.Name.String())
	case *ParamList:
		b.WriteString("params")
	case *IdentDef:
		fmt.Fprintf(b, "def %s %s", n.Name, n.Ty.Kind)
	case *BinOp:
		b.WriteString(n.Op.String())
	}
	for _, ch := range Children(node) {
		b.WriteByte(' ')
		sprint(b, ch)
	}
	b.WriteByte(')')
}
