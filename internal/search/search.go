// Package search implements the SQL entry layer (C7): compiles a pattern,
// parses SQL text via the external parser, runs the compiled matcher over
// every top-level statement, and merges in PL/pgSQL bridge (C8) results.
package search

import (
	"fmt"

	"github.com/oxhq/grepsql/internal/ast"
	"github.com/oxhq/grepsql/internal/capture"
	"github.com/oxhq/grepsql/internal/diag"
	"github.com/oxhq/grepsql/internal/grepsqlerr"
	"github.com/oxhq/grepsql/internal/matcher"
	"github.com/oxhq/grepsql/internal/pattern"
	"github.com/oxhq/grepsql/internal/plpgsql"
	"github.com/oxhq/grepsql/internal/result"
)

// doStmtType is the compiled matcher used to locate DoStmt nodes inside
// each statement, built once since node-type matching is stateless.
var doStmtType = &matcher.NodeType{Name: "DoStmt"}

// Search compiles pattern and evaluates it against sqlText, returning
// match records with no capture information retained. A PatternSyntaxError
// from compilation propagates; a SQL parse failure is non-fatal and yields
// an empty result.
func Search(patternText, sqlText string) ([]result.Match, error) {
	matches, _, err := SearchWithCaptures(patternText, sqlText, nil)
	return matches, err
}

// SearchWithCaptures is Search plus the merged capture store across every
// statement (and every PL/pgSQL-embedded statement) searched. sink may be
// nil to disable diagnostics for this call.
func SearchWithCaptures(patternText, sqlText string, sink *diag.Sink) ([]result.Match, *capture.Store, error) {
	compiled, err := pattern.Compile(patternText)
	if err != nil {
		return nil, nil, err
	}

	store := capture.NewStore()

	roots, err := ast.ParseSQL(sqlText)
	if err != nil {
		if sink != nil {
			sink.Parse(fmt.Sprintf("sql parse error, skipping input: %v", err))
		}
		return nil, store, nil
	}

	var matches []result.Match
	for _, root := range roots {
		ctx := matcher.NewEvalContext(sink)
		for _, n := range matcher.Search(ctx, compiled, root.Node) {
			matches = append(matches, result.Match{
				Node:           n,
				StatementIndex: root.Index,
				Origin:         result.Origin{Kind: result.Direct},
			})
		}
		store.Merge(ctx.Captures)

		embedded := searchEmbedded(compiled, root, sink)
		matches = append(matches, embedded.matches...)
		store.Merge(embedded.captures)
	}

	return matches, store, nil
}

type embeddedResults struct {
	matches  []result.Match
	captures *capture.Store
}

// searchEmbedded finds every DoStmt in root's subtree, re-enters the bridge
// for each, and runs compiled against the re-parsed statements. Embedded
// parse failures are reported to sink at debug level and otherwise dropped,
// per spec.md §4.8 — they never abort the enclosing search.
func searchEmbedded(compiled matcher.Matcher, root ast.StatementRoot, sink *diag.Sink) embeddedResults {
	out := embeddedResults{captures: capture.NewStore()}

	doStmts := matcher.Search(matcher.NewEvalContext(nil), doStmtType, root.Node)
	for _, doStmt := range doStmts {
		if !plpgsql.IsDoStmt(doStmt) {
			continue
		}
		reparsed := plpgsql.Reenter(doStmt, func(e *grepsqlerr.EmbeddedParseError) {
			if sink != nil {
				sink.Parse(e.Error())
			}
		})
		for _, stmt := range reparsed {
			ctx := matcher.NewEvalContext(sink)
			for _, n := range matcher.Search(ctx, compiled, stmt.Root.Node) {
				out.matches = append(out.matches, result.Match{
					Node:           n,
					StatementIndex: root.Index,
					Origin: result.Origin{
						Kind:         result.EmbeddedInDoStmt,
						ExtractedSQL: stmt.Body,
					},
				})
			}
			out.captures.Merge(ctx.Captures)
		}
	}
	return out
}
