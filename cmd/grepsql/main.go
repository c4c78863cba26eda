// Command grepsql is a grep-style structural search tool for SQL source:
// it evaluates an s-expression pattern against the PostgreSQL AST of its
// input and prints the matching nodes.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/oxhq/grepsql/internal/ast"
	"github.com/oxhq/grepsql/internal/cliutil"
	"github.com/oxhq/grepsql/internal/diag"
	"github.com/oxhq/grepsql/internal/highlight"
	"github.com/oxhq/grepsql/internal/history"
	"github.com/oxhq/grepsql/internal/result"
	"github.com/oxhq/grepsql/internal/scanner"
	"github.com/oxhq/grepsql/internal/search"
)

func main() {
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run builds and executes the command tree against args, returning the
// process exit code rather than calling os.Exit itself, so tests can drive
// it without terminating the test binary.
func run(args []string, stdout, stderr io.Writer) int {
	exitCode := cliutil.ExitError
	root := newRootCmd(stdout, stderr, &exitCode)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		return cliutil.ExitError
	}
	return exitCode
}

type searchFlags struct {
	patternFlag    string
	inlineSQL      string
	json           bool
	capturesOnly   bool
	tree           bool
	highlightStyle string
	noHighlight    bool
	html           bool
	contextLines   int
	lineNumbers    bool
	debug          bool
	includeGlobs   []string
	excludeGlobs   []string
	noGitignore    bool
	maxBytes       int64
	followSymlinks bool
	historyDB      string
	noHistory      bool
}

func newRootCmd(stdout, stderr io.Writer, exitCode *int) *cobra.Command {
	flags := &searchFlags{}

	root := &cobra.Command{
		Use:           "grepsql [pattern] [files...]",
		Short:         "Structural search for SQL source using s-expression patterns over the PostgreSQL AST",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			*exitCode = runSearch(args, flags, stdout, stderr)
			return nil
		},
	}

	registerSearchFlags(root, flags)
	root.AddCommand(newHistoryCmd(stdout, stderr, flags, exitCode))

	return root
}

func registerSearchFlags(cmd *cobra.Command, flags *searchFlags) {
	fs := cmd.Flags()
	fs.StringVarP(&flags.patternFlag, "pattern", "p", "", "pattern to search for (alternative to the first positional argument)")
	fs.StringVar(&flags.inlineSQL, "sql", "", "inline SQL text to search, instead of file arguments")
	fs.BoolVarP(&flags.json, "json", "j", false, "emit machine-readable JSON output")
	fs.BoolVar(&flags.capturesOnly, "captures-only", false, "print only captured values, not full match records")
	fs.BoolVar(&flags.tree, "tree", false, "print each match's subtree of node types")
	fs.StringVar(&flags.highlightStyle, "highlight", "monokai", "chroma style name for snippet highlighting")
	fs.BoolVar(&flags.noHighlight, "no-highlight", false, "disable snippet syntax highlighting")
	fs.BoolVar(&flags.html, "html", false, "render highlighted snippets as HTML instead of ANSI")
	fs.IntVarP(&flags.contextLines, "context", "C", 0, "lines of context to show around each match")
	fs.BoolVarP(&flags.lineNumbers, "line-numbers", "n", false, "prefix snippet lines with line numbers")
	fs.BoolVar(&flags.debug, "debug", false, "emit pattern/parse/match diagnostics to stderr")
	fs.StringSliceVar(&flags.includeGlobs, "include", nil, "only scan files matching these glob patterns")
	fs.StringSliceVar(&flags.excludeGlobs, "exclude", nil, "skip files matching these glob patterns")
	fs.BoolVar(&flags.noGitignore, "no-gitignore", false, "disable .gitignore filtering when scanning directories")
	fs.Int64Var(&flags.maxBytes, "max-bytes", 8*1024*1024, "skip files larger than this many bytes")
	fs.BoolVar(&flags.followSymlinks, "follow-symlinks", false, "follow symbolic links while scanning directories")
	fs.StringVar(&flags.historyDB, "history-db", defaultHistoryDBPath(), "path to the run-history SQLite database")
	fs.BoolVar(&flags.noHistory, "no-history", false, "don't record this run in the history database")
}

func defaultHistoryDBPath() string {
	if p := os.Getenv("GREPSQL_HISTORY_DB"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".grepsql/history.db"
	}
	return filepath.Join(home, ".grepsql", "history.db")
}

var fileLabel = color.New(color.FgMagenta, color.Bold).SprintFunc()

// runSearch implements the default (and only core) subcommand: compile the
// pattern for each file/input (inside search.SearchWithCaptures), gather SQL
// text from inline input or discovered files, render each
// input's results as they're produced, and record a summary to history.
func runSearch(args []string, flags *searchFlags, stdout, stderr io.Writer) int {
	pattern, targets, err := resolvePatternAndTargets(flags, args)
	if err != nil {
		return cliutil.RenderError(stderr, err, flags.json)
	}

	var sink *diag.Sink
	if flags.debug {
		sink = diag.NewSink()
	}

	var hl *highlight.Highlighter
	if !flags.noHighlight {
		format := highlight.Terminal
		if flags.html {
			format = highlight.HTML
		}
		hl = highlight.New(flags.highlightStyle, format)
	}

	started := time.Now()
	totalMatches := 0
	targetCount := 0
	var firstErr error

	renderOne := func(label, src string) {
		targetCount++
		matches, store, searchErr := search.SearchWithCaptures(pattern, src, sink)
		if searchErr != nil {
			if firstErr == nil {
				firstErr = searchErr
			}
			cliutil.RenderError(stderr, searchErr, flags.json)
			return
		}
		totalMatches += len(matches)
		if len(matches) == 0 {
			return
		}

		if !flags.json && label != "" {
			fmt.Fprintf(stdout, "%s\n", fileLabel(label+":"))
		}

		opts := cliutil.Options{
			JSON:         flags.json,
			CapturesOnly: flags.capturesOnly,
			ShowLineNum:  flags.lineNumbers,
			ContextLines: flags.contextLines,
			Highlighter:  hl,
			SourceForStmt: func(statementIndex int, origin result.Origin) string {
				if origin.Kind == result.EmbeddedInDoStmt {
					return origin.ExtractedSQL
				}
				return src
			},
		}
		cliutil.RenderMatches(stdout, matches, store, opts)

		if flags.tree {
			printTrees(stdout, matches)
		}
	}

	if flags.inlineSQL != "" {
		renderOne("", flags.inlineSQL)
	} else {
		files, scanErr := scanner.New(scanner.Config{
			IncludeGlobs:   flags.includeGlobs,
			ExcludeGlobs:   flags.excludeGlobs,
			NoGitignore:    flags.noGitignore,
			MaxBytes:       flags.maxBytes,
			FollowSymlinks: flags.followSymlinks,
		}).ScanTargets(context.Background(), targets)
		if scanErr != nil {
			return cliutil.RenderError(stderr, scanErr, flags.json)
		}

		for _, file := range files {
			data, readErr := os.ReadFile(file)
			if readErr != nil {
				fmt.Fprintf(stderr, "%s: %v\n", file, readErr)
				continue
			}
			renderOne(file, string(data))
		}
	}

	if flags.debug && sink != nil {
		for _, ev := range sink.Events() {
			fmt.Fprintln(stderr, ev.String())
		}
	}

	recordRun(flags, pattern, targetCount, totalMatches, time.Since(started), firstErr)

	if firstErr != nil {
		return cliutil.ExitError
	}
	if totalMatches > 0 {
		return cliutil.ExitMatchFound
	}
	return cliutil.ExitNoMatch
}

func recordRun(flags *searchFlags, pattern string, targetCount, matchCount int, elapsed time.Duration, runErr error) {
	if flags.noHistory {
		return
	}
	store, err := history.Open(flags.historyDB, false)
	if err != nil {
		return
	}
	defer store.Close()

	entry := &history.Run{
		Pattern:     pattern,
		TargetCount: targetCount,
		MatchCount:  matchCount,
		DurationMS:  elapsed.Milliseconds(),
		HadError:    runErr != nil,
	}
	if runErr != nil {
		entry.ErrorMessage = runErr.Error()
	}
	_ = store.Record(entry)
	_ = store.Prune(200)
}

func resolvePatternAndTargets(flags *searchFlags, args []string) (string, []string, error) {
	pattern := flags.patternFlag
	rest := args
	if pattern == "" {
		if len(args) == 0 {
			return "", nil, fmt.Errorf("a pattern is required (positional argument or --pattern)")
		}
		pattern = args[0]
		rest = args[1:]
	}

	targets := rest
	if len(targets) == 0 && flags.inlineSQL == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", nil, fmt.Errorf("getting current directory: %w", err)
		}
		targets = []string{cwd}
	}
	return pattern, targets, nil
}

func printTrees(w io.Writer, matches []result.Match) {
	for i, m := range matches {
		fmt.Fprintf(w, "--- match %d ---\n", i+1)
		printTree(w, m.Node, 0)
	}
}

func printTree(w io.Writer, n ast.Node, depth int) {
	fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), n.TypeName())
	for _, c := range n.Children() {
		printTree(w, c, depth+1)
	}
}

func newHistoryCmd(stdout, stderr io.Writer, flags *searchFlags, exitCode *int) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent search runs recorded in the local history database",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.Open(flags.historyDB, false)
			if err != nil {
				*exitCode = cliutil.RenderError(stderr, err, flags.json)
				return nil
			}
			defer store.Close()

			runs, err := store.Recent(limit)
			if err != nil {
				*exitCode = cliutil.RenderError(stderr, err, flags.json)
				return nil
			}
			for _, r := range runs {
				fmt.Fprintf(stdout, "%s  %-30s  matches=%-4d targets=%-3d %dms\n",
					r.RanAt.Format("2006-01-02 15:04:05"), truncate(r.Pattern, 30), r.MatchCount, r.TargetCount, r.DurationMS)
			}
			*exitCode = cliutil.ExitMatchFound
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show")
	return cmd
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
