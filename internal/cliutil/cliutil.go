// Package cliutil holds shared rendering and exit-code helpers for the
// grepsql CLI: human and JSON output for matches, error presentation via
// the grepsqlerr taxonomy, and the three-valued exit-code rule from
// spec.md §6.
package cliutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/oxhq/grepsql/internal/ast"
	"github.com/oxhq/grepsql/internal/capture"
	"github.com/oxhq/grepsql/internal/grepsqlerr"
	"github.com/oxhq/grepsql/internal/highlight"
	"github.com/oxhq/grepsql/internal/result"
)

// Exit codes per spec.md §6: 0 if at least one match, 1 if none, 2 on error.
const (
	ExitMatchFound = 0
	ExitNoMatch    = 1
	ExitError      = 2
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// ExitCodeForMatches implements the match-count half of spec.md §6's exit
// code rule.
func ExitCodeForMatches(matches []result.Match) int {
	if len(matches) > 0 {
		return ExitMatchFound
	}
	return ExitNoMatch
}

// RenderError prints err to w (or as a JSON object when jsonOut is set) and
// returns ExitError, mirroring the teacher's printFatal(err, jsonOut).
func RenderError(w io.Writer, err error, jsonOut bool) int {
	if jsonOut {
		fmt.Fprintln(w, errorJSON(err))
		return ExitError
	}

	var coded grepsqlerr.Coded
	if ok := asCoded(err, &coded); ok {
		fmt.Fprintf(w, "%s %s: %v\n", red("✗"), coded.Code(), coded)
	} else {
		fmt.Fprintf(w, "%s %v\n", red("✗"), err)
	}
	return ExitError
}

func asCoded(err error, out *grepsqlerr.Coded) bool {
	return errors.As(err, out)
}

func errorJSON(err error) string {
	payload := struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{Code: "ERR_UNKNOWN", Message: err.Error()}

	var coded grepsqlerr.Coded
	if asCoded(err, &coded) {
		payload.Code = string(coded.Code())
	}

	out, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		return fmt.Sprintf(`{"code":"ERR_UNKNOWN","message":%q}`, err.Error())
	}
	return string(out)
}

// Options controls how RenderMatches formats its output.
type Options struct {
	JSON          bool
	CapturesOnly  bool
	ShowLineNum   bool
	ContextLines  int
	Highlighter   *highlight.Highlighter
	SourceForStmt func(statementIndex int, origin result.Origin) string
}

type jsonMatch struct {
	NodeType       string `json:"node_type"`
	StatementIndex int    `json:"statement_index"`
	Origin         string `json:"origin"`
	ExtractedSQL   string `json:"extracted_sql,omitempty"`
	Snippet        string `json:"snippet,omitempty"`
	Line           int    `json:"line,omitempty"`
}

type jsonCapture struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type jsonOutput struct {
	Matches  []jsonMatch   `json:"matches"`
	Captures []jsonCapture `json:"captures,omitempty"`
}

// RenderMatches writes matches to w in the requested format. JSON output
// also lists the capture store's scalar values whenever store is non-nil;
// human output with CapturesOnly set prints only the captures.
func RenderMatches(w io.Writer, matches []result.Match, store *capture.Store, opts Options) {
	if opts.JSON {
		renderJSON(w, matches, store, opts)
		return
	}
	if opts.CapturesOnly {
		renderCapturesHuman(w, store)
		return
	}
	renderMatchesHuman(w, matches, opts)
}

func renderJSON(w io.Writer, matches []result.Match, store *capture.Store, opts Options) {
	out := jsonOutput{}
	for _, m := range matches {
		jm := jsonMatch{
			NodeType:       m.Node.TypeName(),
			StatementIndex: m.StatementIndex,
			Origin:         originLabel(m.Origin),
			ExtractedSQL:   m.Origin.ExtractedSQL,
		}
		if opts.SourceForStmt != nil {
			src := opts.SourceForStmt(m.StatementIndex, m.Origin)
			if loc, ok := NodeLocation(m.Node); ok {
				jm.Line = LineAt(src, loc)
				jm.Snippet = Snippet(src, loc, opts.ContextLines)
			}
		}
		out.Matches = append(out.Matches, jm)
	}
	if store != nil {
		for _, name := range store.Names() {
			var values []string
			for _, v := range store.Get(name) {
				if s, ok := v.Scalar(); ok {
					values = append(values, s)
				}
			}
			out.Captures = append(out.Captures, jsonCapture{Name: name, Values: values})
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}

func renderMatchesHuman(w io.Writer, matches []result.Match, opts Options) {
	if len(matches) == 0 {
		fmt.Fprintf(w, "%s no matches\n", yellow("→"))
		return
	}

	for i, m := range matches {
		fmt.Fprintf(w, "%s [%d] %s (statement %d, %s)\n",
			green("✓"), i+1, bold(m.Node.TypeName()), m.StatementIndex, originLabel(m.Origin))

		if opts.SourceForStmt == nil {
			continue
		}
		src := opts.SourceForStmt(m.StatementIndex, m.Origin)
		loc, ok := NodeLocation(m.Node)
		if !ok {
			continue
		}
		snippet := Snippet(src, loc, opts.ContextLines)
		if opts.ShowLineNum {
			line := LineAt(src, loc)
			for j, l := range strings.Split(snippet, "\n") {
				rendered := l
				if opts.Highlighter != nil {
					rendered = opts.Highlighter.Render(l)
				}
				fmt.Fprintf(w, "    %s %s\n", cyan(fmt.Sprintf("%d:", line+j)), rendered)
			}
		} else {
			rendered := snippet
			if opts.Highlighter != nil {
				rendered = opts.Highlighter.Render(snippet)
			}
			fmt.Fprintf(w, "    %s\n", strings.ReplaceAll(rendered, "\n", "\n    "))
		}
	}
}

func renderCapturesHuman(w io.Writer, store *capture.Store) {
	if store == nil || store.Len() == 0 {
		fmt.Fprintf(w, "%s no captures\n", yellow("→"))
		return
	}
	for _, name := range store.Names() {
		fmt.Fprintf(w, "%s %s:\n", cyan("$"+name), bold(""))
		for _, v := range store.Get(name) {
			if s, ok := v.Scalar(); ok {
				fmt.Fprintf(w, "    %s\n", s)
			} else {
				fmt.Fprintf(w, "    %s\n", v.Node.TypeName())
			}
		}
	}
}

func originLabel(o result.Origin) string {
	if o.Kind == result.EmbeddedInDoStmt {
		return "embedded in DO block"
	}
	return "direct"
}

// NodeLocation reads a node's generic "location" scalar field, present on
// most pg_query node structs as a byte offset into the statement's source
// text. Nodes that carry no location field (attribute leaves, some wrapper
// types) report false.
func NodeLocation(n ast.Node) (int, bool) {
	field, ok := n.Field("location")
	if !ok {
		return 0, false
	}
	raw, ok := field.ScalarValue()
	if !ok {
		return 0, false
	}
	var loc int
	if _, err := fmt.Sscanf(raw, "%d", &loc); err != nil {
		return 0, false
	}
	if loc < 0 {
		return 0, false
	}
	return loc, true
}

// LineAt returns the 1-based line number of byte offset loc within src.
func LineAt(src string, loc int) int {
	if loc > len(src) {
		loc = len(src)
	}
	return strings.Count(src[:loc], "\n") + 1
}

// Snippet extracts the line containing byte offset loc plus contextLines of
// surrounding context on each side.
func Snippet(src string, loc, contextLines int) string {
	lines := strings.Split(src, "\n")
	target := LineAt(src, loc) - 1
	start := target - contextLines
	if start < 0 {
		start = 0
	}
	end := target + contextLines + 1
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end || target < 0 || target >= len(lines) {
		return ""
	}
	return strings.Join(lines[start:end], "\n")
}
