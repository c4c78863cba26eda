// Package highlight renders SQL snippets with syntax highlighting for
// terminal or HTML output. It is a thin, optional layer the CLI calls; the
// search core never depends on it and stays render-agnostic.
package highlight

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Format selects the rendering target for Highlighter.Render.
type Format int

const (
	// Terminal renders ANSI escape codes for a TTY.
	Terminal Format = iota
	// HTML renders a standalone <pre> block.
	HTML
	// Plain performs no highlighting, returning the source unchanged.
	Plain
)

// Highlighter renders SQL source through a chroma lexer/formatter pair.
type Highlighter struct {
	style     *chroma.Style
	formatter chroma.Formatter
	plain     bool
}

// New builds a Highlighter for the named chroma style ("monokai", "github",
// ... — an unknown name falls back to styles.Fallback). format selects
// Terminal, HTML, or Plain.
func New(styleName string, format Format) *Highlighter {
	if format == Plain {
		return &Highlighter{plain: true}
	}

	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}

	var formatter chroma.Formatter
	if format == HTML {
		formatter = formatters.Get("html")
	} else {
		formatter = formatters.Get("terminal16m")
	}
	if formatter == nil {
		formatter = formatters.Fallback
	}

	return &Highlighter{style: style, formatter: formatter}
}

// Render highlights sql, returning the rendered text. A lexer or formatting
// failure degrades to the unmodified source rather than erroring — a
// snippet the CLI can't colorize is still worth printing plain.
func (h *Highlighter) Render(sql string) string {
	if h == nil || h.plain {
		return sql
	}

	lexer := lexers.Get("sql")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, sql)
	if err != nil {
		return sql
	}

	var buf strings.Builder
	if err := h.formatter.Format(&buf, h.style, iterator); err != nil {
		return sql
	}
	return buf.String()
}

// RenderLine highlights a single line and prefixes it with a right-aligned
// line number in a four-column "%4d | " gutter.
func (h *Highlighter) RenderLine(lineNo int, text string) string {
	return fmt.Sprintf("%4d | %s", lineNo, h.Render(text))
}
