// Package plpgsql implements the PL/pgSQL bridge (C8): it detects DoStmt
// nodes, extracts the dollar-quoted body, re-parses the SQL statements
// inside it, and re-enters matching against them, tagging results with
// their textual origin.
package plpgsql

import (
	"encoding/json"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/oxhq/grepsql/internal/ast"
	"github.com/oxhq/grepsql/internal/grepsqlerr"
)

// IsDoStmt reports whether node is a PL/pgSQL anonymous block.
func IsDoStmt(node ast.Node) bool {
	return node != nil && strings.EqualFold(node.TypeName(), "DoStmt")
}

// ExtractBody locates the embedded PL/pgSQL source of a DoStmt: its args
// sequence holds DefElem elements, and the element whose defname equals
// "as" carries the body in its arg field. The scalar payload is found
// generically (the first non-virtual child with a scalar value), so no
// assumption is made about whether the grammar wraps it as a String or an
// A_Const.
func ExtractBody(doStmt ast.Node) (string, bool) {
	for _, child := range doStmt.Children() {
		if !strings.EqualFold(child.TypeName(), "DefElem") {
			continue
		}
		defname, ok := child.Field("defname")
		if !ok {
			continue
		}
		val, ok := defname.ScalarValue()
		if !ok || !strings.EqualFold(val, "as") {
			continue
		}
		if body, ok := firstRealScalarChild(child); ok {
			return body, true
		}
	}
	return "", false
}

func firstRealScalarChild(node ast.Node) (string, bool) {
	for _, child := range node.Children() {
		if child.IsVirtual() {
			continue
		}
		if v, ok := child.ScalarValue(); ok {
			return v, true
		}
	}
	return "", false
}

// sqlKeywordFieldNames are the field/node names the structured extraction
// pass treats as carrying an embedded SQL string, per spec.md §4.8.
var sqlKeywordFieldNames = map[string]bool{
	"query": true, "sqlstmt": true, "sql": true, "text": true, "stmt": true,
}

// ExtractStatements splits a PL/pgSQL block body into individual SQL
// statement texts, trying structured extraction first and falling back to
// the line-based heuristic when the structured parser is unavailable or
// fails.
func ExtractStatements(body string) []string {
	if stmts, ok := extractStructured(body); ok && len(stmts) > 0 {
		return stmts
	}
	return extractLineBased(body)
}

// extractStructured wraps body as a throwaway function and asks the
// external parser's PL/pgSQL entry point (when present) for its JSON
// representation, then walks that JSON generically for any field whose
// name indicates an embedded SQL string.
func extractStructured(body string) ([]string, bool) {
	wrapped := "CREATE FUNCTION __grepsql_bridge() RETURNS void AS $grepsql$ " +
		body + " $grepsql$ LANGUAGE plpgsql;"

	jsonText, err := pg_query.ParsePlPgSqlToJSON(wrapped)
	if err != nil {
		return nil, false
	}

	var tree any
	if err := json.Unmarshal([]byte(jsonText), &tree); err != nil {
		return nil, false
	}

	var stmts []string
	seen := map[string]bool{}
	walkJSON(tree, func(key string, value string) {
		if !sqlKeywordFieldNames[strings.ToLower(key)] {
			return
		}
		trimmed := strings.TrimSpace(value)
		if trimmed == "" || seen[trimmed] {
			return
		}
		seen[trimmed] = true
		stmts = append(stmts, trimmed)
	})
	return stmts, true
}

func walkJSON(node any, visit func(key, value string)) {
	switch v := node.(type) {
	case map[string]any:
		for key, child := range v {
			if s, ok := child.(string); ok {
				visit(key, s)
				continue
			}
			walkJSON(child, visit)
		}
	case []any:
		for _, child := range v {
			walkJSON(child, visit)
		}
	}
}

var sqlLeadKeywords = []string{
	"SELECT", "INSERT", "UPDATE", "DELETE", "WITH", "CREATE", "DROP", "ALTER", "GRANT", "REVOKE",
}

var plpgsqlControlKeywords = []string{"BEGIN", "END", "DECLARE", "EXECUTE"}

// extractLineBased implements the line-based fallback: accumulate lines
// starting at one of the known SQL lead keywords until a line ends in ';',
// rejecting candidates that contain a PL/pgSQL control-flow keyword as a
// whole word. Nesting is not considered: the keyword is looked for anywhere
// in the candidate, including inside literals and parentheses.
func extractLineBased(body string) []string {
	var stmts []string
	var current strings.Builder
	collecting := false

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !collecting {
			if !startsWithSQLKeyword(trimmed) {
				continue
			}
			collecting = true
			current.Reset()
		}

		current.WriteString(line)
		current.WriteByte('\n')

		if strings.HasSuffix(trimmed, ";") {
			stmt := current.String()
			collecting = false
			if containsControlKeyword(stmt) {
				continue
			}
			stmts = append(stmts, strings.TrimSpace(stmt))
		}
	}
	return stmts
}

func startsWithSQLKeyword(line string) bool {
	upper := strings.ToUpper(line)
	for _, kw := range sqlLeadKeywords {
		if strings.HasPrefix(upper, kw) {
			return true
		}
	}
	return false
}

func containsControlKeyword(stmt string) bool {
	words := strings.FieldsFunc(strings.ToUpper(stmt), func(r rune) bool {
		return !(r == '_' || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	})
	for _, word := range words {
		for _, kw := range plpgsqlControlKeywords {
			if word == kw {
				return true
			}
		}
	}
	return false
}

// ReparsedStatement is one statement extracted from a DoStmt body,
// successfully re-parsed by the external parser.
type ReparsedStatement struct {
	Root ast.StatementRoot
	Body string // the full PL/pgSQL block body it was extracted from
}

// Reenter extracts and re-parses every statement embedded in a DoStmt's
// body. Failures to parse an individual extracted statement are reported
// via onError (typically logged at debug) and otherwise suppressed, per
// spec.md §4.8 — they never abort the bridge.
func Reenter(doStmt ast.Node, onError func(*grepsqlerr.EmbeddedParseError)) []ReparsedStatement {
	body, ok := ExtractBody(doStmt)
	if !ok {
		return nil
	}

	var out []ReparsedStatement
	for _, stmtText := range ExtractStatements(body) {
		roots, err := ast.ParseSQL(stmtText)
		if err != nil {
			if onError != nil {
				onError(&grepsqlerr.EmbeddedParseError{Statement: stmtText, Err: err})
			}
			continue
		}
		for _, root := range roots {
			out = append(out, ReparsedStatement{Root: root, Body: body})
		}
	}
	return out
}
