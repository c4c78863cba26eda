package matcher_test

import (
	"testing"

	"github.com/oxhq/grepsql/internal/ast"
	"github.com/oxhq/grepsql/internal/matcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOne(t *testing.T, sql string) ast.Node {
	t.Helper()
	roots, err := ast.ParseSQL(sql)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	return roots[0].Node
}

func countNodes(n ast.Node) int {
	count := 1
	for _, c := range n.Children() {
		count += countNodes(c)
	}
	return count
}

func TestTraversalCoverage(t *testing.T) {
	root := parseOne(t, "SELECT id FROM users")
	ctx := matcher.NewEvalContext(nil)
	results := matcher.Search(ctx, matcher.AnyNode{}, root)
	assert.Equal(t, countNodes(root), len(results))
}

func TestNodeTypeMatchesSelectStmt(t *testing.T) {
	root := parseOne(t, "SELECT id FROM users")
	ctx := matcher.NewEvalContext(nil)
	results := matcher.Search(ctx, &matcher.NodeType{Name: "SelectStmt"}, root)
	require.Len(t, results, 1)
	assert.Equal(t, "SelectStmt", results[0].TypeName())
}

func TestAttributeWithAnyValueFindsRangeVars(t *testing.T) {
	root := parseOne(t, "SELECT * FROM users JOIN products ON users.id = products.user_id")
	ctx := matcher.NewEvalContext(nil)
	attr := &matcher.Attribute{Name: "relname"}
	results := matcher.Search(ctx, attr, root)
	assert.Len(t, results, 2)
}

func TestAttributeCaptureOrdersBySourceOrder(t *testing.T) {
	root := parseOne(t, "SELECT * FROM users JOIN products ON users.id = products.user_id")
	ctx := matcher.NewEvalContext(nil)
	attr := &matcher.Attribute{
		Name:  "relname",
		Value: &matcher.Capture{Name: "t", Child: matcher.AnyNode{}},
	}
	matcher.Search(ctx, attr, root)

	values := ctx.Captures.Get("t")
	require.Len(t, values, 2)
	first, ok := values[0].Scalar()
	require.True(t, ok)
	second, ok := values[1].Scalar()
	require.True(t, ok)
	assert.Equal(t, []string{"users", "products"}, []string{first, second})
}

func TestNotProducesNoCaptures(t *testing.T) {
	root := parseOne(t, "SELECT * FROM users")
	ctx := matcher.NewEvalContext(nil)
	inner := &matcher.Attribute{
		Name:  "relname",
		Value: &matcher.Capture{Name: "t", Child: matcher.AnyNode{}},
	}
	not := &matcher.Not{Child: inner}
	matcher.Search(ctx, not, root)
	assert.Equal(t, 0, ctx.Captures.Len())
}

func TestAnyMembershipCombinator(t *testing.T) {
	for _, tc := range []struct {
		table string
		want  int
	}{
		{"users", 1},
		{"posts", 1},
		{"comments", 0},
	} {
		root := parseOne(t, "SELECT * FROM "+tc.table)
		ctx := matcher.NewEvalContext(nil)
		pred := &matcher.Any{Children: []matcher.Matcher{
			&matcher.Literal{Text: "users", CaseInsensitive: true},
			&matcher.Literal{Text: "posts", CaseInsensitive: true},
			&matcher.Not{Child: &matcher.Literal{Text: "comments", CaseInsensitive: true}},
		}}
		attr := &matcher.Attribute{Name: "relname", Value: pred}
		results := matcher.Search(ctx, attr, root)
		assert.Len(t, results, tc.want, "table=%s", tc.table)
	}
}

func TestEllipsisMonotonicity(t *testing.T) {
	root := parseOne(t, "SELECT * FROM users WHERE id = 1")
	ctx1 := matcher.NewEvalContext(nil)
	base := &matcher.Attribute{Name: "relname"}
	baseResults := matcher.Search(ctx1, base, root)

	ctx2 := matcher.NewEvalContext(nil)
	wrapped := &matcher.Group{Descendant: []matcher.Matcher{base}}
	wrappedResults := matcher.Search(ctx2, wrapped, root)

	assert.LessOrEqual(t, len(baseResults), len(wrappedResults))
}

func TestGroupHeadWithEllipsisSearchesDescendants(t *testing.T) {
	root := parseOne(t, "SELECT * FROM users WHERE age > 18")
	ctx := matcher.NewEvalContext(nil)
	group := &matcher.Group{
		Same:       []matcher.Matcher{&matcher.NodeType{Name: "SelectStmt"}},
		Descendant: []matcher.Matcher{&matcher.Attribute{Name: "relname", Value: &matcher.Literal{Text: "users", CaseInsensitive: true}}},
	}
	results := matcher.Search(ctx, group, root)
	require.Len(t, results, 1)
	assert.Equal(t, "SelectStmt", results[0].TypeName())
}

func TestMaybeCommitsCapturesOnlyWhenFired(t *testing.T) {
	root := parseOne(t, "SELECT * FROM users")
	ctx := matcher.NewEvalContext(nil)
	maybe := &matcher.Maybe{Child: &matcher.Attribute{
		Name:  "relname",
		Value: &matcher.Capture{Name: "t", Child: matcher.AnyNode{}},
	}}
	matcher.Search(ctx, maybe, root)
	assert.Len(t, ctx.Captures.Get("t"), 1)
}
