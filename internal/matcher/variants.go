package matcher

import (
	"strings"

	"github.com/oxhq/grepsql/internal/ast"
	"github.com/oxhq/grepsql/internal/capture"
)

// AnyNode is the `_` wildcard: true iff node is non-null.
type AnyNode struct{}

func (AnyNode) MatchHere(_ *EvalContext, node ast.Node, _ []ast.Node) bool {
	return node != nil
}

// HasChildren is the bare `...` wildcard: true iff node has at least one
// enumerable child.
type HasChildren struct{}

func (HasChildren) MatchHere(_ *EvalContext, node ast.Node, _ []ast.Node) bool {
	return node != nil && len(node.Children()) > 0
}

// NodeType matches on type_name(node) == Name, case-insensitively.
type NodeType struct {
	Name string
}

func (m *NodeType) MatchHere(_ *EvalContext, node ast.Node, _ []ast.Node) bool {
	return node != nil && strings.EqualFold(node.TypeName(), m.Name)
}

// Attribute matches iff node has a non-empty field named Name whose value,
// surfaced as a virtual attribute node, satisfies Value. A bare attribute
// reference (`relname` with no explicit predicate) sets Value to AnyNode{}.
type Attribute struct {
	Name  string
	Value Matcher
}

func (m *Attribute) MatchHere(ctx *EvalContext, node ast.Node, ancestors []ast.Node) bool {
	if node == nil {
		return false
	}
	field, ok := node.Field(m.Name)
	if !ok {
		return false
	}
	pred := m.Value
	if pred == nil {
		pred = AnyNode{}
	}
	return pred.MatchHere(ctx, field, withAncestor(ancestors, node))
}

// Literal matches a quoted string or an unknown bare identifier against a
// node's scalar value. CaseInsensitive is set for identifiers, cleared for
// quoted strings, per the tokenizer's source.
type Literal struct {
	Text            string
	CaseInsensitive bool
}

func (m *Literal) MatchHere(_ *EvalContext, node ast.Node, _ []ast.Node) bool {
	if node == nil {
		return false
	}
	val, ok := node.ScalarValue()
	if !ok {
		return false
	}
	if m.CaseInsensitive {
		return strings.EqualFold(val, m.Text)
	}
	return val == m.Text
}

// Any is the `{a b c}` OR combinator: true iff any child matches. Evaluation
// stops at the first match so captures inside untried branches never fire.
type Any struct {
	Children []Matcher
}

func (m *Any) MatchHere(ctx *EvalContext, node ast.Node, ancestors []ast.Node) bool {
	for _, c := range m.Children {
		if c.MatchHere(ctx, node, ancestors) {
			return true
		}
	}
	return false
}

// All is the `[a b c]` AND combinator: true iff every child matches.
type All struct {
	Children []Matcher
}

func (m *All) MatchHere(ctx *EvalContext, node ast.Node, ancestors []ast.Node) bool {
	for _, c := range m.Children {
		if !c.MatchHere(ctx, node, ancestors) {
			return false
		}
	}
	return true
}

// Not is `!p`: true iff p does not match. p is evaluated against a scratch
// capture store that is always discarded, so Not never produces captures.
type Not struct {
	Child Matcher
}

func (m *Not) MatchHere(ctx *EvalContext, node ast.Node, ancestors []ast.Node) bool {
	scratch := &EvalContext{Captures: capture.Scratch(), Diag: ctx.Diag}
	return !m.Child.MatchHere(scratch, node, ancestors)
}

// Maybe is `?p`: true iff node is null or p matches. Captures inside p are
// committed to the real store only when p actually fires.
type Maybe struct {
	Child Matcher
}

func (m *Maybe) MatchHere(ctx *EvalContext, node ast.Node, ancestors []ast.Node) bool {
	if node == nil {
		return true
	}
	scratch := &EvalContext{Captures: capture.Scratch(), Diag: ctx.Diag}
	if !m.Child.MatchHere(scratch, node, ancestors) {
		return false
	}
	ctx.Captures.Merge(scratch.Captures)
	return true
}

// Parent is `^p`: true iff the current node's parent matches p.
type Parent struct {
	Child Matcher
}

func (m *Parent) MatchHere(ctx *EvalContext, _ ast.Node, ancestors []ast.Node) bool {
	parent, rest, ok := parentOf(ancestors)
	if !ok {
		return false
	}
	return m.Child.MatchHere(ctx, parent, rest)
}

// Capture is `$name p`: evaluates p; on success, records a value against
// name in the active capture store and returns true. Per the value
// selection rule, when p is itself an Attribute matcher the captured value
// is the scalar field value it matched, not the node p was evaluated
// against; otherwise the captured value is the node itself.
type Capture struct {
	Name  string // capture.DefaultBucket for an unnamed capture
	Child Matcher
}

func (m *Capture) MatchHere(ctx *EvalContext, node ast.Node, ancestors []ast.Node) bool {
	if !m.Child.MatchHere(ctx, node, ancestors) {
		return false
	}

	value := node
	isAttribute := node != nil && node.IsVirtual()
	if attr, ok := m.Child.(*Attribute); ok && node != nil {
		if field, ok := node.Field(attr.Name); ok {
			value = field
			isAttribute = true
		}
	}

	ctx.Captures.Record(m.Name, capture.Value{Node: value, IsAttribute: isAttribute})
	return true
}

// Group is a parenthesized expression: conjuncts before the first ellipsis
// (Same) must all match the current node; conjuncts after it (Descendant)
// must each match somewhere in the current node's subtree (self included).
// A group with no ellipsis has an empty Descendant list and behaves as a
// plain AND over Same.
type Group struct {
	Same       []Matcher
	Descendant []Matcher
}

func (m *Group) MatchHere(ctx *EvalContext, node ast.Node, ancestors []ast.Node) bool {
	if node == nil {
		return false
	}
	for _, c := range m.Same {
		if !c.MatchHere(ctx, node, ancestors) {
			return false
		}
	}
	for _, d := range m.Descendant {
		if !existsInSubtree(ctx, d, node, ancestors) {
			return false
		}
	}
	return true
}
