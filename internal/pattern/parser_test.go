package pattern_test

import (
	"testing"

	"github.com/oxhq/grepsql/internal/ast"
	"github.com/oxhq/grepsql/internal/grepsqlerr"
	"github.com/oxhq/grepsql/internal/matcher"
	"github.com/oxhq/grepsql/internal/pattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, patternText, sql string) ([]ast.Node, *matcher.EvalContext) {
	t.Helper()
	m, err := pattern.Compile(patternText)
	require.NoError(t, err)

	roots, err := ast.ParseSQL(sql)
	require.NoError(t, err)
	require.Len(t, roots, 1)

	ctx := matcher.NewEvalContext(nil)
	results := matcher.Search(ctx, m, roots[0].Node)
	return results, ctx
}

func TestSeedSelectStmt(t *testing.T) {
	results, _ := run(t, "SelectStmt", "SELECT id FROM users")
	require.Len(t, results, 1)
	assert.Equal(t, "SelectStmt", results[0].TypeName())
}

func TestSeedAConstLiterals(t *testing.T) {
	results, _ := run(t, "A_Const", "SELECT 1, 'hello', true")
	assert.Len(t, results, 3)
}

func TestSeedRelnameBareAttribute(t *testing.T) {
	results, _ := run(t, `(relname _)`, "SELECT * FROM users JOIN products ON users.id = products.user_id")
	assert.Len(t, results, 2)
}

func TestSeedRelnameCapture(t *testing.T) {
	_, ctx := run(t, `(relname $t)`, "SELECT * FROM users JOIN products ON users.id = products.user_id")
	values := ctx.Captures.Get("t")
	require.Len(t, values, 2)
	first, _ := values[0].Scalar()
	second, _ := values[1].Scalar()
	assert.Equal(t, []string{"users", "products"}, []string{first, second})
}

func TestSeedNotWhereClause(t *testing.T) {
	results, _ := run(t, `(SelectStmt !(whereClause ...))`, "SELECT * FROM users")
	assert.Len(t, results, 1)
}

func TestSeedMembershipCombinator(t *testing.T) {
	for _, tc := range []struct {
		sql  string
		want int
	}{
		{"SELECT * FROM users", 1},
		{"SELECT * FROM posts", 1},
		{"SELECT * FROM comments", 0},
	} {
		results, _ := run(t, `(relname {users posts !comments})`, tc.sql)
		assert.Len(t, results, tc.want, "sql=%s", tc.sql)
	}
}

func TestSeedEllipsisDescendantSearch(t *testing.T) {
	results, _ := run(t, `(SelectStmt ... (relname "users"))`, "SELECT * FROM users WHERE age > 18")
	require.Len(t, results, 1)
	assert.Equal(t, "SelectStmt", results[0].TypeName())
}

func TestUnbalancedParenIsSyntaxError(t *testing.T) {
	_, err := pattern.Compile(`(SelectStmt`)
	require.Error(t, err)
	var syntaxErr *grepsqlerr.PatternSyntaxError
	require.ErrorAs(t, err, &syntaxErr)
}

func TestTrailingInputIsSyntaxError(t *testing.T) {
	_, err := pattern.Compile(`SelectStmt extra`)
	require.Error(t, err)
}

func TestEmptyGroupIsAnyNode(t *testing.T) {
	m, err := pattern.Compile(`()`)
	require.NoError(t, err)
	assert.IsType(t, matcher.AnyNode{}, m)
}

func TestCombinatorMemberIdentDoesNotConsumeSibling(t *testing.T) {
	m, err := pattern.Compile(`{relname funcname}`)
	require.NoError(t, err)

	any, ok := m.(*matcher.Any)
	require.True(t, ok, "expected {relname funcname} to parse as an Any combinator, got %T", m)
	require.Len(t, any.Children, 2, "relname must not consume funcname as its value predicate")

	first, ok := any.Children[0].(*matcher.Attribute)
	require.True(t, ok)
	assert.Equal(t, "relname", first.Name)
	assert.Nil(t, first.Value)

	second, ok := any.Children[1].(*matcher.Attribute)
	require.True(t, ok)
	assert.Equal(t, "funcname", second.Name)
	assert.Nil(t, second.Value)
}

func TestCombinatorMemberMatchesEitherAttributeStandalone(t *testing.T) {
	results, _ := run(t, `(SelectStmt ... {relname funcname})`, "SELECT * FROM users WHERE upper(name) = 'X'")
	assert.NotEmpty(t, results)
}
