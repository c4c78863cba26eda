// Package capture implements the per-evaluation capture store (C6): an
// ordered, append-only map from capture name to the values captured under
// it during one search call. There is no package-level mutable state; every
// evaluation owns its own Store.
package capture

import "github.com/oxhq/grepsql/internal/ast"

// DefaultBucket is the key used for unnamed captures (`$` with no following
// identifier).
const DefaultBucket = ""

// Value is one captured value: either an AST node, or, for an attribute
// capture, the scalar field value wrapped as its virtual attribute node.
// Node is always non-nil; IsAttribute distinguishes the two cases for
// callers that want to unwrap straight to the scalar.
type Value struct {
	Node        ast.Node
	IsAttribute bool
}

// Scalar returns the captured value's string form when it is an attribute
// capture, matching C6's "wrapped scalar" contract.
func (v Value) Scalar() (string, bool) {
	if !v.IsAttribute {
		return "", false
	}
	return v.Node.ScalarValue()
}

// Store accumulates captures fired during one top-level search call. The
// zero value is ready to use.
type Store struct {
	values map[string][]Value
}

// NewStore creates a fresh, empty capture store. Call once per top-level
// search; never share a Store across concurrent evaluations.
func NewStore() *Store {
	return &Store{values: make(map[string][]Value)}
}

// Record appends a captured value under name, in encounter order. Passing
// name == "" records into the default bucket.
func (s *Store) Record(name string, v Value) {
	if s.values == nil {
		s.values = make(map[string][]Value)
	}
	s.values[name] = append(s.values[name], v)
}

// Get returns the ordered list of values captured under name.
func (s *Store) Get(name string) []Value {
	return s.values[name]
}

// Names returns the set of capture names that fired at least once, not in
// any particular order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	return names
}

// Len reports how many values have fired across all names.
func (s *Store) Len() int {
	n := 0
	for _, vs := range s.values {
		n += len(vs)
	}
	return n
}

// Merge appends other's captures into s, preserving encounter order within
// each name (used by the SQL entry layer to combine per-statement stores).
func (s *Store) Merge(other *Store) {
	if other == nil {
		return
	}
	for name, vs := range other.values {
		if s.values == nil {
			s.values = make(map[string][]Value)
		}
		s.values[name] = append(s.values[name], vs...)
	}
}

// Scratch creates a fresh, detached Store for evaluating a sub-pattern whose
// captures must be discarded or committed conditionally (the Not/Maybe
// matchers' "scratch capture store" rule).
func Scratch() *Store {
	return NewStore()
}
