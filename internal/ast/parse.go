package ast

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// ParseSQL invokes the external parser and adapts its result into the facade
// Node shape, one StatementRoot per top-level statement. A raw statement with
// a nil Stmt (possible for e.g. a bare semicolon) is skipped.
func ParseSQL(sql string) ([]StatementRoot, error) {
	result, err := pg_query.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("parse SQL: %w", err)
	}
	return FromParseResult(result), nil
}

// FromParseResult adapts an already-parsed *pg_query.ParseResult. Exposed
// separately from ParseSQL so the PL/pgSQL bridge (which re-parses extracted
// statement bodies) can reuse the same adaptation step.
func FromParseResult(result *pg_query.ParseResult) []StatementRoot {
	if result == nil {
		return nil
	}
	var out []StatementRoot
	for i, raw := range result.Stmts {
		if raw == nil || raw.Stmt == nil {
			continue
		}
		node, ok := Wrap(raw.Stmt)
		if !ok {
			continue
		}
		length := int(raw.StmtLen)
		if length == 0 {
			length = -1
		}
		out = append(out, StatementRoot{
			Node:     node,
			Index:    i,
			Location: int(raw.StmtLocation),
			Length:   length,
		})
	}
	return out
}
