package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/sitecheck/internal/logging"
	"github.com/raysh454/sitecheck/internal/model"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func record(id, owner string, t model.TestType, offset int) *model.TestRecord {
	at := epoch.Add(time.Duration(offset) * time.Second)
	return &model.TestRecord{
		ID: id, Owner: owner, URL: "https://example.com", TestType: t,
		Status: model.StatusPending, CreatedAt: at, UpdatedAt: at,
	}
}

// backends runs fn against every store that needs no external service.
func backends(t *testing.T, fn func(t *testing.T, s RecordStore)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "db", "sitecheck.db"), logging.NewNop())
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})
}

func TestStore_SaveFindRoundTrip(t *testing.T) {
	backends(t, func(t *testing.T, s RecordStore) {
		ctx := context.Background()
		rec := record("t1", "alice", model.TestSecurity, 0)
		rec.Parameters = map[string]any{"scanType": "full"}
		require.NoError(t, s.Save(ctx, rec))

		got, err := s.Find(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, got.Status)
		assert.Nil(t, got.Results)
		assert.Nil(t, got.Score)
		assert.Equal(t, "full", got.Parameters["scanType"])
		assert.True(t, got.CreatedAt.Equal(rec.CreatedAt))

		score := 82
		grade := 82.0
		rec.Status = model.StatusCompleted
		rec.Score = &score
		rec.Results = &model.Results{Security: &model.SecurityResult{Score: &grade, Grade: "B+"}}
		rec.UpdatedAt = epoch.Add(time.Minute)
		require.NoError(t, s.Save(ctx, rec))

		got, err = s.Find(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, model.StatusCompleted, got.Status)
		require.NotNil(t, got.Score)
		assert.Equal(t, 82, *got.Score)
		require.NotNil(t, got.Results)
		assert.Equal(t, "B+", got.Results.Security.Grade)
		assert.True(t, got.UpdatedAt.Equal(rec.UpdatedAt))
	})
}

func TestStore_SaveClearsPreviousResults(t *testing.T) {
	backends(t, func(t *testing.T, s RecordStore) {
		ctx := context.Background()
		score := 50
		rec := record("t1", "alice", model.TestPerformance, 0)
		rec.Status = model.StatusCompleted
		rec.Score = &score
		rec.Results = &model.Results{Performance: &model.PerformanceResult{Score: 0.5}}
		require.NoError(t, s.Save(ctx, rec))

		rec.Status = model.StatusRunning
		rec.Score = nil
		rec.Results = nil
		require.NoError(t, s.Save(ctx, rec))

		got, err := s.Find(ctx, "t1")
		require.NoError(t, err)
		assert.Nil(t, got.Results)
		assert.Nil(t, got.Score)
	})
}

func TestStore_FindUnknown(t *testing.T) {
	backends(t, func(t *testing.T, s RecordStore) {
		_, err := s.Find(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_DeleteTwice(t *testing.T) {
	backends(t, func(t *testing.T, s RecordStore) {
		ctx := context.Background()
		require.NoError(t, s.Save(ctx, record("t1", "alice", model.TestSEO, 0)))
		require.NoError(t, s.AppendRun(ctx, &model.RunEntry{ID: "r1", TestID: "t1", Status: model.StatusFailed, StartedAt: epoch, FinishedAt: epoch}))

		require.NoError(t, s.Delete(ctx, "t1"))
		assert.ErrorIs(t, s.Delete(ctx, "t1"), ErrNotFound)

		runs, err := s.ListRuns(ctx, "t1", 0)
		require.NoError(t, err)
		assert.Empty(t, runs)
	})
}

func TestStore_ListNewestFirstWithPaging(t *testing.T) {
	backends(t, func(t *testing.T, s RecordStore) {
		ctx := context.Background()
		for i := 0; i < 25; i++ {
			require.NoError(t, s.Save(ctx, record(fmt.Sprintf("t%02d", i), "alice", model.TestPerformance, i)))
		}
		require.NoError(t, s.Save(ctx, record("other", "bob", model.TestPerformance, 100)))

		n, err := s.Count(ctx, "alice", model.Filter{})
		require.NoError(t, err)
		assert.Equal(t, 25, n)

		page, err := s.List(ctx, "alice", model.Filter{}, 10, 10)
		require.NoError(t, err)
		require.Len(t, page, 10)
		assert.Equal(t, "t14", page[0].ID)
		assert.Equal(t, "t05", page[9].ID)

		all, err := s.List(ctx, "alice", model.Filter{}, 0, 0)
		require.NoError(t, err)
		assert.Len(t, all, 25)

		everyone, err := s.Count(ctx, "", model.Filter{})
		require.NoError(t, err)
		assert.Equal(t, 26, everyone)
	})
}

func TestStore_ListTieBreaksOnID(t *testing.T) {
	backends(t, func(t *testing.T, s RecordStore) {
		ctx := context.Background()
		require.NoError(t, s.Save(ctx, record("a", "alice", model.TestSEO, 0)))
		require.NoError(t, s.Save(ctx, record("b", "alice", model.TestSEO, 0)))

		got, err := s.List(ctx, "alice", model.Filter{}, 0, 0)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "b", got[0].ID)
	})
}

func TestStore_ListFiltersByType(t *testing.T) {
	backends(t, func(t *testing.T, s RecordStore) {
		ctx := context.Background()
		require.NoError(t, s.Save(ctx, record("p", "alice", model.TestPerformance, 0)))
		require.NoError(t, s.Save(ctx, record("s", "alice", model.TestSEO, 1)))

		got, err := s.List(ctx, "alice", model.Filter{TestType: model.TestSEO}, 0, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "s", got[0].ID)

		n, err := s.Count(ctx, "alice", model.Filter{TestType: model.TestBrowser})
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestStore_RunsNewestFirst(t *testing.T) {
	backends(t, func(t *testing.T, s RecordStore) {
		ctx := context.Background()
		require.NoError(t, s.Save(ctx, record("t1", "alice", model.TestPerformance, 0)))
		for i := 0; i < 3; i++ {
			score := 60 + i
			at := epoch.Add(time.Duration(i) * time.Minute)
			require.NoError(t, s.AppendRun(ctx, &model.RunEntry{
				ID: fmt.Sprintf("r%d", i), TestID: "t1", Status: model.StatusCompleted, Score: &score,
				Results:   &model.Results{Performance: &model.PerformanceResult{Score: float64(score) / 100}},
				StartedAt: at, FinishedAt: at.Add(time.Second),
			}))
		}

		runs, err := s.ListRuns(ctx, "t1", 2)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, "r2", runs[0].ID)
		assert.Equal(t, 62, *runs[0].Score)
		assert.InDelta(t, 0.62, runs[0].Results.Performance.Score, 1e-9)
		assert.Equal(t, "r1", runs[1].ID)
	})
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	rec := record("t1", "alice", model.TestSEO, 0)
	require.NoError(t, s.Save(ctx, rec))

	rec.Status = model.StatusFailed
	got, err := s.Find(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)

	got.Status = model.StatusRunning
	again, _ := s.Find(ctx, "t1")
	assert.Equal(t, model.StatusPending, again.Status)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewMemoryStore().Save(ctx, record("t1", "alice", model.TestSEO, 0))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestOpen_Drivers(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Config{Driver: DriverMemory}, logging.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "x.db")}, logging.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Config{Driver: "mongo"}, logging.NewNop())
	assert.Error(t, err)
}
