package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myve/internal/types"
)

func openTestLog(t *testing.T) *AdviceLog {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "advice.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestAppendAndRecent(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	for i, q := range []string{"first question", "second question"} {
		err := l.Append(ctx, "u1", q, types.Reply{
			Response:  "advice",
			Intents:   []string{"plan"},
			Agents:    []string{"planning"},
			RequestID: string(rune('a' + i)),
		})
		require.NoError(t, err)
	}
	require.NoError(t, l.Append(ctx, "u2", "other user", types.Reply{Response: "x"}))

	entries, err := l.Recent(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "second question", entries[0].Query)
	assert.Equal(t, []string{"planning"}, entries[0].Agents)
	assert.Equal(t, []string{"plan"}, entries[0].Intents)

	entries, err = l.Recent(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	entries, err = l.Recent(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPrune(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	require.NoError(t, l.Append(ctx, "u1", "old", types.Reply{Response: "x"}))
	// Backdate the row so the prune window catches it.
	_, err := l.db.Exec(`UPDATE advice_log SET created_at = ?`,
		time.Now().UTC().Add(-48*time.Hour))
	require.NoError(t, err)
	require.NoError(t, l.Append(ctx, "u1", "fresh", types.Reply{Response: "y"}))

	pruned, err := l.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	entries, err := l.Recent(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "fresh", entries[0].Query)
}
