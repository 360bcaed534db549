// Package filter composes search criteria into a row-level predicate over
// variant rows.
package filter

import (
	"strings"

	"github.com/inodb/vibe-search/internal/variant"
)

// Expr is a boolean predicate over a variant row.
type Expr interface {
	Eval(r *variant.Row) bool
	String() string
}

// True passes every row.
var True Expr = constExpr(true)

// False passes no row.
var False Expr = constExpr(false)

type constExpr bool

func (c constExpr) Eval(*variant.Row) bool { return bool(c) }

func (c constExpr) String() string {
	if c {
		return "true"
	}
	return "false"
}

type leaf struct {
	name string
	fn   func(*variant.Row) bool
}

// Leaf creates a named predicate fragment.
func Leaf(name string, fn func(*variant.Row) bool) Expr {
	return &leaf{name: name, fn: fn}
}

func (l *leaf) Eval(r *variant.Row) bool { return l.fn(r) }
func (l *leaf) String() string           { return l.name }

type group struct {
	op      string
	members []Expr
}

// And passes rows that pass every member. Nil members are ignored and an
// empty And is True.
func And(members ...Expr) Expr {
	return newGroup("and", True, members)
}

// Or passes rows that pass any member. Nil members are ignored and an empty
// Or is False.
func Or(members ...Expr) Expr {
	return newGroup("or", False, members)
}

func newGroup(op string, empty Expr, members []Expr) Expr {
	var kept []Expr
	for _, m := range members {
		if m == nil {
			continue
		}
		if g, ok := m.(*group); ok && g.op == op {
			kept = append(kept, g.members...)
			continue
		}
		kept = append(kept, m)
	}
	switch len(kept) {
	case 0:
		return empty
	case 1:
		return kept[0]
	}
	return &group{op: op, members: kept}
}

func (g *group) Eval(r *variant.Row) bool {
	if g.op == "and" {
		for _, m := range g.members {
			if !m.Eval(r) {
				return false
			}
		}
		return true
	}
	for _, m := range g.members {
		if m.Eval(r) {
			return true
		}
	}
	return false
}

func (g *group) String() string {
	parts := make([]string, len(g.members))
	for i, m := range g.members {
		parts[i] = m.String()
	}
	return g.op + "(" + strings.Join(parts, ", ") + ")"
}

type notExpr struct{ inner Expr }

// Not negates e.
func Not(e Expr) Expr {
	return &notExpr{inner: e}
}

func (n *notExpr) Eval(r *variant.Row) bool { return !n.inner.Eval(r) }
func (n *notExpr) String() string           { return "not(" + n.inner.String() + ")" }
