// Package result defines the match record types returned by the SQL entry
// layer (C7): value types independent of the capture store that produced
// them, per spec.md §4.9.
package result

import "github.com/oxhq/grepsql/internal/ast"

// OriginKind distinguishes a match found directly in the outer SQL from one
// found inside a PL/pgSQL DO block's re-parsed body.
type OriginKind int

const (
	Direct OriginKind = iota
	EmbeddedInDoStmt
)

// Origin records where a match was found. ExtractedSQL is populated only
// when Kind is EmbeddedInDoStmt: the full PL/pgSQL body the statement was
// extracted from, for provenance display.
type Origin struct {
	Kind         OriginKind
	ExtractedSQL string
}

// Match is one record: the matched AST node, the index of its enclosing
// top-level statement, and where it came from. Captures are not part of the
// record; they are returned separately in a capture.Store. Invariant: when Origin.Kind is
// EmbeddedInDoStmt, Node is a subtree of the re-parsed embedded SQL, never
// of the outer statement's AST.
type Match struct {
	Node           ast.Node
	StatementIndex int
	Origin         Origin
}
