// Package ast provides a uniform facade over the protobuf AST produced by the
// external SQL parser (pg_query_go). It has no notion of patterns or matching;
// it only answers "what type is this node" and "what are its children".
package ast

// Node is the uniform interface every matcher walks. A Node is either a real
// AST node (backed by a generated pg_query struct) or a virtual attribute
// node, a transient adapter over a scalar field (see Virtual below).
type Node interface {
	// TypeName returns the node's type name (e.g. "SelectStmt", "A_Const"),
	// or, for a virtual attribute node, the field name it adapts.
	TypeName() string

	// Children returns this node's children in field-declaration order,
	// each field contributing its nested node, every element of its nested
	// sequence, or, for a non-empty scalar field, a virtual attribute node.
	// Empty values are never returned.
	Children() []Node

	// Field looks up a scalar field by name, case-insensitively, returning
	// it wrapped as a virtual attribute node. Reports ok=false if the node
	// has no such field or the field is empty.
	Field(name string) (Node, bool)

	// HasNonEmptyField reports whether Field would succeed.
	HasNonEmptyField(name string) bool

	// IsVirtual reports whether this Node is a virtual attribute node
	// rather than a node backed by a real AST struct.
	IsVirtual() bool

	// ScalarValue returns the string form of this node's value when the
	// node is a virtual attribute node or a leaf scalar-valued AST node
	// (e.g. the String/Integer/Float/Boolean wrapper nodes pg_query uses
	// inside oneofs). ok is false for structural nodes with no single
	// scalar payload.
	ScalarValue() (string, bool)
}

// StatementRoot is one top-level statement parsed from a SQL text, along with
// its byte span in the original source (used to recover origin text for
// PL/pgSQL bridge provenance and for CLI context display).
type StatementRoot struct {
	Node     Node
	Index    int
	Location int // byte offset of the statement in the source text
	Length   int // byte length, -1 if unknown (parser reported 0/absent)
}
