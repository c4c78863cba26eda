package ast

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// pgNode wraps a pointer to a generated pg_query struct (e.g. *pg_query.SelectStmt).
// value is always a valid, non-nil reflect.Value of pointer kind.
type pgNode struct {
	value reflect.Value
}

// Wrap adapts a *pg_query.Node (the protobuf oneof envelope) into a Node,
// unwrapping the active oneof branch. It returns ok=false for a nil or empty
// envelope, matching the "empty values are not emitted" rule.
func Wrap(n *pg_query.Node) (Node, bool) {
	if n == nil {
		return nil, false
	}
	payload, ok := unwrapOneofInterface(reflect.ValueOf(n).Elem().FieldByName("Node"))
	if !ok {
		return nil, false
	}
	return nodeFromPayload(payload)
}

// nodeFromPayload turns a resolved payload into a Node. Only a non-nil
// pointer to a generated struct is accepted; anything else reports ok=false.
func nodeFromPayload(payload reflect.Value) (Node, bool) {
	if !payload.IsValid() || payload.Kind() != reflect.Ptr || payload.IsNil() {
		return nil, false
	}
	return pgNode{value: payload}, true
}

// unwrapOneofInterface resolves a protoc-gen-go oneof interface field (e.g.
// isNode_Node, isA_Const_Val) down to the pointer it ultimately carries. Every
// oneof wrapper type generated by protoc-gen-go is a struct with exactly one
// exported field, so this needs no per-node-type knowledge at all.
func unwrapOneofInterface(v reflect.Value) (reflect.Value, bool) {
	if !v.IsValid() || v.Kind() != reflect.Interface || v.IsNil() {
		return reflect.Value{}, false
	}
	wrapper := v.Elem()
	if wrapper.Kind() != reflect.Ptr || wrapper.IsNil() {
		return reflect.Value{}, false
	}
	elem := wrapper.Elem()
	if elem.Kind() != reflect.Struct || elem.NumField() != 1 {
		return reflect.Value{}, false
	}
	payload := elem.Field(0)
	switch payload.Kind() {
	case reflect.Ptr:
		if payload.IsNil() {
			return reflect.Value{}, false
		}
		return payload, true
	case reflect.Interface:
		return unwrapOneofInterface(payload)
	default:
		return payload, true
	}
}

func (n pgNode) structType() reflect.Type { return n.value.Type().Elem() }
func (n pgNode) structVal() reflect.Value { return n.value.Elem() }

func (n pgNode) TypeName() string { return n.structType().Name() }

// IsVirtual is always false for a real AST node.
func (n pgNode) IsVirtual() bool { return false }

// ScalarValue reports a value for "leaf" wrapper nodes that carry exactly one
// exported scalar field (pg_query's String/Integer/Float/Boolean/BitString
// nodes). Structural nodes with more than one field, or with zero fields,
// report ok=false.
func (n pgNode) ScalarValue() (string, bool) {
	t := n.structType()
	if countExportedFields(t) != 1 {
		return "", false
	}
	for i := 0; i < t.NumField(); i++ {
		if !t.Field(i).IsExported() {
			continue
		}
		return scalarString(n.structVal().Field(i))
	}
	return "", false
}

func countExportedFields(t reflect.Type) int {
	n := 0
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).IsExported() {
			n++
		}
	}
	return n
}

// Children enumerates fields in declaration order; each field contributes its
// nested node, the elements of its node sequence, or (for a non-empty
// scalar) a virtual attribute node.
func (n pgNode) Children() []Node {
	t := n.structType()
	v := n.structVal()
	var out []Node
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		out = append(out, childrenForField(sf, v.Field(i))...)
	}
	return out
}

var nodePtrType = reflect.TypeOf((*pg_query.Node)(nil))

func childrenForField(sf reflect.StructField, fv reflect.Value) []Node {
	switch {
	case fv.Type() == nodePtrType:
		if fv.IsNil() {
			return nil
		}
		if child, ok := Wrap(fv.Interface().(*pg_query.Node)); ok {
			return []Node{child}
		}
		return nil

	case fv.Kind() == reflect.Slice && fv.Type().Elem() == nodePtrType:
		var out []Node
		for i := 0; i < fv.Len(); i++ {
			if child, ok := Wrap(fv.Index(i).Interface().(*pg_query.Node)); ok {
				out = append(out, child)
			}
		}
		return out

	case fv.Kind() == reflect.Interface:
		// A nested oneof (e.g. A_Const.Val) behaves like a single nested
		// node: unwrap it and surface it directly as a child.
		payload, ok := unwrapOneofInterface(fv)
		if !ok {
			return nil
		}
		if node, ok := nodeFromPayload(payload); ok {
			return []Node{node}
		}
		return nil

	case fv.Kind() == reflect.Ptr && fv.Type().Elem().Kind() == reflect.Struct:
		// A field typed as a specific generated struct rather than the
		// *pg_query.Node envelope (e.g. RangeVar.Alias, InsertStmt.Relation)
		// is a nested node too.
		if node, ok := nodeFromPayload(fv); ok {
			return []Node{node}
		}
		return nil

	default:
		if isEmptyScalar(fv) {
			return nil
		}
		str, ok := scalarString(fv)
		if !ok {
			return nil
		}
		return []Node{attrNode{name: strings.ToLower(sf.Name), value: str}}
	}
}

// Field looks up a scalar field case-insensitively and returns it as a
// virtual attribute node. Only scalar fields are addressable this way, which
// matches the Attribute matcher's contract in the pattern language.
func (n pgNode) Field(name string) (Node, bool) {
	t := n.structType()
	v := n.structVal()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || !strings.EqualFold(sf.Name, name) {
			continue
		}
		fv := v.Field(i)
		if fv.Kind() == reflect.Ptr && fv.Type() == nodePtrType {
			continue // nested node fields are not attributes
		}
		if fv.Kind() == reflect.Slice {
			continue // sequences are not attributes
		}
		if fv.Kind() == reflect.Interface {
			continue // nested oneofs are not attributes
		}
		if isEmptyScalar(fv) {
			return nil, false
		}
		str, ok := scalarString(fv)
		if !ok {
			return nil, false
		}
		return attrNode{name: strings.ToLower(sf.Name), value: str}, true
	}
	return nil, false
}

func (n pgNode) HasNonEmptyField(name string) bool {
	_, ok := n.Field(name)
	return ok
}

// isEmptyScalar reports whether a scalar field counts as "empty" per the
// facade's non-emptiness rule: the Go zero value for its type. This
// generalizes the spec's "null / empty string / empty sequence" examples to
// every scalar kind the protobuf schema uses (bool, numeric, enum).
func isEmptyScalar(fv reflect.Value) bool {
	if !fv.IsValid() {
		return true
	}
	return fv.IsZero()
}

func scalarString(fv reflect.Value) (string, bool) {
	switch fv.Kind() {
	case reflect.String:
		return fv.String(), true
	case reflect.Bool:
		return strconv.FormatBool(fv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if s, ok := stringerValue(fv); ok {
			return s, true
		}
		return strconv.FormatInt(fv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(fv.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(fv.Float(), 'g', -1, 64), true
	default:
		return "", false
	}
}

// stringerValue calls String() on named integer (enum) types generated by
// protoc-gen-go, so e.g. a JoinType surfaces as "JOIN_INNER" rather than "0".
func stringerValue(fv reflect.Value) (string, bool) {
	if !fv.CanInterface() {
		return "", false
	}
	if s, ok := fv.Interface().(fmt.Stringer); ok {
		return s.String(), true
	}
	if fv.CanAddr() {
		if s, ok := fv.Addr().Interface().(fmt.Stringer); ok {
			return s.String(), true
		}
	}
	return "", false
}

// attrNode is a transient virtual attribute node: it presents a scalar field
// as if it were a node of type name == field name. It is never persisted
// beyond the matcher call that observes it.
type attrNode struct {
	name  string
	value string
}

func (a attrNode) TypeName() string               { return a.name }
func (a attrNode) Children() []Node                { return nil }
func (a attrNode) Field(string) (Node, bool)       { return nil, false }
func (a attrNode) HasNonEmptyField(string) bool    { return false }
func (a attrNode) IsVirtual() bool                 { return true }
func (a attrNode) ScalarValue() (string, bool)     { return a.value, true }
