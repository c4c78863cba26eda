package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/oxhq/grepsql/internal/cliutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	args = append(args, "--no-history", "--no-highlight")

	var outBuf, errBuf bytes.Buffer
	code = run(args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestCLIInlineSQLMatchExitsZero(t *testing.T) {
	stdout, _, code := runCLI(t, "--pattern", "SelectStmt", "--sql", "SELECT id FROM users")
	assert.Equal(t, cliutil.ExitMatchFound, code)
	assert.Contains(t, stdout, "SelectStmt")
}

func TestCLIInlineSQLNoMatchExitsOne(t *testing.T) {
	_, _, code := runCLI(t, "--pattern", "InsertStmt", "--sql", "SELECT id FROM users")
	assert.Equal(t, cliutil.ExitNoMatch, code)
}

func TestCLIPatternSyntaxErrorExitsTwo(t *testing.T) {
	_, stderr, code := runCLI(t, "--pattern", "(SelectStmt", "--sql", "SELECT 1")
	assert.Equal(t, cliutil.ExitError, code)
	assert.Contains(t, stderr, "ERR_PATTERN_SYNTAX")
}

func TestCLIMissingPatternIsError(t *testing.T) {
	_, _, code := runCLI(t)
	assert.Equal(t, cliutil.ExitError, code)
}

func TestCLIPositionalPatternAndFileArgument(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "queries.sql")
	require.NoError(t, os.WriteFile(file, []byte("SELECT id FROM accounts"), 0o644))

	stdout, _, code := runCLI(t, "(relname $t)", file)
	assert.Equal(t, cliutil.ExitMatchFound, code)
	assert.Contains(t, stdout, "accounts")
}

func TestCLIJSONOutput(t *testing.T) {
	stdout, _, code := runCLI(t, "--json", "--pattern", "SelectStmt", "--sql", "SELECT 1")
	assert.Equal(t, cliutil.ExitMatchFound, code)
	assert.Contains(t, stdout, `"node_type"`)
}

func TestCLITreeFlag(t *testing.T) {
	stdout, _, code := runCLI(t, "--tree", "--pattern", "SelectStmt", "--sql", "SELECT 1")
	assert.Equal(t, cliutil.ExitMatchFound, code)
	assert.Contains(t, stdout, "--- match 1 ---")
}
