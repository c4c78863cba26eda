package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp creates a temp directory, cds into it for the duration of the
// test, and writes each of files with placeholder SQL content.
func chdirTemp(t *testing.T, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
	require.NoError(t, os.Chdir(dir))

	for _, f := range files {
		require.NoError(t, os.MkdirAll(filepath.Dir(f), 0o755))
		require.NoError(t, os.WriteFile(f, []byte("SELECT 1;"), 0o644))
	}
	return dir
}

func baseNames(files []string) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
	}
	return names
}

func TestScannerBasic(t *testing.T) {
	chdirTemp(t, "queries.sql", "migration.sql", "README.md")

	files, err := New(Config{}).ScanTargets(context.Background(), []string{"."})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"queries.sql", "migration.sql"}, baseNames(files))
}

func TestScannerWithGitignore(t *testing.T) {
	chdirTemp(t, "main.sql", "ignored.sql", "temp.tmp")
	require.NoError(t, os.WriteFile(".gitignore", []byte("*.tmp\nignored.sql\n"), 0o644))

	files, err := New(Config{}).ScanTargets(context.Background(), []string{"."})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.sql"}, baseNames(files))
}

func TestScannerNoGitignore(t *testing.T) {
	chdirTemp(t, "main.sql", "ignored.sql")
	require.NoError(t, os.WriteFile(".gitignore", []byte("*.tmp\nignored.sql\n"), 0o644))

	files, err := New(Config{NoGitignore: true}).ScanTargets(context.Background(), []string{"."})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main.sql", "ignored.sql"}, baseNames(files))
}

func TestScannerIncludeGlob(t *testing.T) {
	chdirTemp(t, "main.sql", "test_main.sql", "utils.sql")

	files, err := New(Config{IncludeGlobs: []string{"test_*.sql"}}).ScanTargets(context.Background(), []string{"."})
	require.NoError(t, err)
	assert.Equal(t, []string{"test_main.sql"}, baseNames(files))
}

func TestScannerExcludeGlob(t *testing.T) {
	chdirTemp(t, "main.sql", "test_main.sql", "utils.sql")

	files, err := New(Config{ExcludeGlobs: []string{"test_*.sql"}}).ScanTargets(context.Background(), []string{"."})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main.sql", "utils.sql"}, baseNames(files))
}

func TestScannerIncludeGlobSupportsDoublestar(t *testing.T) {
	chdirTemp(t, filepath.Join("migrations", "nested", "up.sql"), "top.sql")

	files, err := New(Config{IncludeGlobs: []string{"**/up.sql"}}).ScanTargets(context.Background(), []string{"."})
	require.NoError(t, err)
	assert.Equal(t, []string{"up.sql"}, baseNames(files))
}

func TestScannerMaxBytes(t *testing.T) {
	chdirTemp(t, "small.sql")
	require.NoError(t, os.WriteFile("large.sql", make([]byte, 1000), 0o644))

	files, err := New(Config{MaxBytes: 100}).ScanTargets(context.Background(), []string{"."})
	require.NoError(t, err)
	assert.Equal(t, []string{"small.sql"}, baseNames(files))
}

func TestScannerSkipsConventionalAndHiddenDirectories(t *testing.T) {
	chdirTemp(t,
		filepath.Join(".git", "test.sql"),
		filepath.Join("vendor", "test.sql"),
		filepath.Join("node_modules", "test.sql"),
		filepath.Join(".hidden", "test.sql"),
		"main.sql",
	)

	files, err := New(Config{}).ScanTargets(context.Background(), []string{"."})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.sql"}, baseNames(files))
}

func TestScanTargetsDeduplicatesAcrossOverlappingTargets(t *testing.T) {
	chdirTemp(t, "main.sql")

	files, err := New(Config{}).ScanTargets(context.Background(), []string{"main.sql", ".", "main.sql"})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.sql"}, baseNames(files))
}

func TestGitignoreChainOrdersRootMostFirst(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.tmp\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", ".gitignore"), []byte("*.bak\n"), 0o644))

	chain := gitignoreChain(nested)
	require.Len(t, chain, 2)
	assert.Equal(t, filepath.Join(root, ".gitignore"), chain[0])
	assert.Equal(t, filepath.Join(root, "a", ".gitignore"), chain[1])
}

func TestNilIgnoreSetMatchesNothing(t *testing.T) {
	var is *ignoreSet
	assert.False(t, is.matches("anything.sql"))
}
