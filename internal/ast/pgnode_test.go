package ast_test

import (
	"testing"

	"github.com/oxhq/grepsql/internal/ast"
	"github.com/stretchr/testify/require"
)

func findAll(n ast.Node, typeName string) []ast.Node {
	var out []ast.Node
	if n.TypeName() == typeName {
		out = append(out, n)
	}
	for _, c := range n.Children() {
		out = append(out, findAll(c, typeName)...)
	}
	return out
}

func TestParseSQL_SingleStatement(t *testing.T) {
	roots, err := ast.ParseSQL("SELECT id FROM users")
	require.NoError(t, err)
	require.Len(t, roots, 1)
	require.Equal(t, "SelectStmt", roots[0].Node.TypeName())
}

func TestParseSQL_MultipleStatements(t *testing.T) {
	roots, err := ast.ParseSQL("SELECT 1; SELECT 2;")
	require.NoError(t, err)
	require.Len(t, roots, 2)
	require.Equal(t, 0, roots[0].Index)
	require.Equal(t, 1, roots[1].Index)
}

func TestParseSQL_SyntaxErrorPropagates(t *testing.T) {
	_, err := ast.ParseSQL("SELECT FROM FROM")
	require.Error(t, err)
}

func TestRangeVarRelnameIsVirtualAttribute(t *testing.T) {
	roots, err := ast.ParseSQL("SELECT id FROM users")
	require.NoError(t, err)

	rangeVars := findAll(roots[0].Node, "RangeVar")
	require.Len(t, rangeVars, 1)

	relname, ok := rangeVars[0].Field("relname")
	require.True(t, ok)
	require.True(t, relname.IsVirtual())
	require.Equal(t, "relname", relname.TypeName())

	val, ok := relname.ScalarValue()
	require.True(t, ok)
	require.Equal(t, "users", val)
}

func TestEmptyScalarFieldIsAbsent(t *testing.T) {
	roots, err := ast.ParseSQL("SELECT id FROM users")
	require.NoError(t, err)

	rangeVars := findAll(roots[0].Node, "RangeVar")
	require.Len(t, rangeVars, 1)

	// RangeVar.Alias is a nested node field, not a scalar, and is unset here;
	// no attribute should be reported for it.
	require.False(t, rangeVars[0].HasNonEmptyField("alias"))

	// A genuinely absent/zero scalar, e.g. Inh defaults to true for a plain
	// table reference in real SQL, so instead assert a field that cannot
	// exist on this node type is reported absent.
	_, ok := rangeVars[0].Field("does_not_exist")
	require.False(t, ok)
}

func TestScalarValueNodeForStringLiteral(t *testing.T) {
	roots, err := ast.ParseSQL("SELECT 'hello'")
	require.NoError(t, err)

	consts := findAll(roots[0].Node, "A_Const")
	require.Len(t, consts, 1)

	// A_Const.Val is a nested oneof; its resolved payload is the scalar
	// String wrapper node, surfaced as a child of A_Const.
	children := consts[0].Children()
	require.NotEmpty(t, children)

	var found bool
	for _, c := range children {
		if c.IsVirtual() {
			continue
		}
		if v, ok := c.ScalarValue(); ok && v == "hello" {
			found = true
		}
	}
	require.True(t, found, "expected to find scalar value %q among A_Const children", "hello")
}

func TestTraversalTerminatesAndCoversKnownNodeTypes(t *testing.T) {
	roots, err := ast.ParseSQL("SELECT a, b FROM t WHERE a = 1")
	require.NoError(t, err)

	var count int
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		count++
		require.Less(t, count, 10000, "traversal did not terminate")
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(roots[0].Node)

	for _, want := range []string{"SelectStmt", "RangeVar", "ResTarget", "A_Expr"} {
		require.NotEmpty(t, findAll(roots[0].Node, want), "expected a %s node", want)
	}
}
