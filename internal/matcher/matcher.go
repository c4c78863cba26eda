// Package matcher implements the polymorphic matcher tree (C5): every
// variant answers a single-node predicate, and the package provides one
// generic recursive Search shared by all of them, rather than each variant
// re-implementing traversal.
package matcher

import (
	"github.com/oxhq/grepsql/internal/ast"
	"github.com/oxhq/grepsql/internal/capture"
	"github.com/oxhq/grepsql/internal/diag"
)

// Matcher is implemented by every variant in the expression tree. ancestors
// is the chain from the search root down to node's immediate parent
// (ancestors[len-1]); it is never stored on the AST itself, only threaded
// through the traversal stack, per the facade's no-parent-pointers rule.
type Matcher interface {
	MatchHere(ctx *EvalContext, node ast.Node, ancestors []ast.Node) bool
}

// EvalContext is the explicit, per-evaluation state every match_here/search
// call threads through: no module-level mutable singletons, so concurrent
// evaluations never share state.
type EvalContext struct {
	Captures *capture.Store
	Diag     *diag.Sink
}

// NewEvalContext creates a fresh evaluation context with its own capture
// store. Pass a non-nil Diag to enable tracing for this call only.
func NewEvalContext(sink *diag.Sink) *EvalContext {
	return &EvalContext{Captures: capture.NewStore(), Diag: sink}
}

// Search performs the generic inherited search: pre-order, field-declaration
// order, sequence-index order (the order ast.Node.Children already returns),
// visiting every physical node exactly once and collecting those for which
// m.MatchHere returns true.
func Search(ctx *EvalContext, m Matcher, root ast.Node) []ast.Node {
	var results []ast.Node
	var walk func(node ast.Node, ancestors []ast.Node)
	walk = func(node ast.Node, ancestors []ast.Node) {
		matched := m.MatchHere(ctx, node, ancestors)
		if ctx.Diag != nil {
			ctx.Diag.Match(node.TypeName(), matched, "")
		}
		if matched {
			results = append(results, node)
		}
		next := withAncestor(ancestors, node)
		for _, child := range node.Children() {
			walk(child, next)
		}
	}
	walk(root, nil)
	return results
}

// existsInSubtree reports whether m matches node itself or any node in its
// subtree. Self is included so that the ellipsis monotonicity property
// (results(P) is always a subset of results((... P))) holds at every node:
// if P already matches here, (... P) must match here too.
func existsInSubtree(ctx *EvalContext, m Matcher, node ast.Node, ancestors []ast.Node) bool {
	if m.MatchHere(ctx, node, ancestors) {
		return true
	}
	next := withAncestor(ancestors, node)
	for _, child := range node.Children() {
		if existsInSubtree(ctx, m, child, next) {
			return true
		}
	}
	return false
}

// withAncestor returns a new slice with node appended, never mutating or
// aliasing ancestors' backing array — required because the traversal
// revisits ancestors across sibling subtrees.
func withAncestor(ancestors []ast.Node, node ast.Node) []ast.Node {
	next := make([]ast.Node, len(ancestors)+1)
	copy(next, ancestors)
	next[len(ancestors)] = node
	return next
}

func parentOf(ancestors []ast.Node) (ast.Node, []ast.Node, bool) {
	if len(ancestors) == 0 {
		return nil, nil, false
	}
	return ancestors[len(ancestors)-1], ancestors[:len(ancestors)-1], true
}
