package history_test

import (
	"path/filepath"
	"testing"

	"github.com/oxhq/grepsql/internal/history"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *history.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path, false)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Record(&history.Run{
		Pattern:     "SelectStmt",
		TargetCount: 3,
		MatchCount:  7,
		DurationMS:  12,
	}))
	require.NoError(t, store.Record(&history.Run{
		Pattern:     "(relname $t)",
		TargetCount: 1,
		MatchCount:  0,
		DurationMS:  2,
	}))

	runs, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "(relname $t)", runs[0].Pattern) // most recent first
}

func TestPruneKeepsOnlyMostRecent(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(&history.Run{Pattern: "SelectStmt"}))
	}

	require.NoError(t, store.Prune(2))

	runs, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
}

func TestNilStoreMethodsAreNoOps(t *testing.T) {
	var store *history.Store
	require.NoError(t, store.Record(&history.Run{Pattern: "x"}))
	require.NoError(t, store.Close())
}
