package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lookup-bot/internal/model"
)

func newTestRepo(t *testing.T) *QueryLogRepository {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return NewQueryLogRepository(db)
}

func TestQueryLogCounts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	entries := []model.QueryLog{
		{UserID: 1, Command: "num", Outcome: "ok"},
		{UserID: 1, Command: "num", Outcome: "timeout"},
		{UserID: 2, Command: "ifsc", Outcome: "ok"},
	}
	for i := range entries {
		require.NoError(t, repo.Record(ctx, &entries[i]))
	}

	counts, err := repo.CountByCommandSince(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, counts, 2)
	require.Equal(t, "num", counts[0].Command)
	require.Equal(t, int64(2), counts[0].Total)

	callers, err := repo.CountCallersSince(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(2), callers)
}

func TestQueryLogCountsRespectSince(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Record(ctx, &model.QueryLog{UserID: 1, Command: "num", Outcome: "ok"}))

	counts, err := repo.CountByCommandSince(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Empty(t, counts)
}
