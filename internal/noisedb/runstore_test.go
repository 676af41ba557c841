package noisedb

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// migrationsDir locates the repo-level migrations directory relative to
// this package.
const migrationsDir = "../../migrations"

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.MigrateUp(migrationsDir))
	return db
}

func TestMigrateUpDown(t *testing.T) {
	db := openTestDB(t)

	version, dirty, err := db.MigrateVersion(migrationsDir)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)

	// Up is idempotent.
	require.NoError(t, db.MigrateUp(migrationsDir))

	require.NoError(t, db.MigrateDown(migrationsDir))
	version, _, err = db.MigrateVersion(migrationsDir)
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
}

func TestRunStore_InsertAndList(t *testing.T) {
	db := openTestDB(t)
	store := NewRunStore(db)

	params := json.RawMessage(`{"method":"radius","radius":1.0,"min_k":2}`)
	rec := &RunRecord{
		Method:       "radius",
		ParamsJSON:   params,
		PointCount:   100,
		InlierCount:  95,
		OutlierCount: 5,
		Applied:      true,
		DurationNs:   1234,
	}
	require.NoError(t, store.Insert(rec))
	assert.NotEmpty(t, rec.RunID, "Insert should assign a run id")
	assert.NotZero(t, rec.StartedAt, "Insert should stamp started_at")

	second := &RunRecord{
		Method:     "statistical",
		PointCount: 10,
		Threshold:  2.5,
		StartedAt:  rec.StartedAt + 1,
	}
	require.NoError(t, store.Insert(second))

	runs, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	// Newest first.
	assert.Equal(t, second.RunID, runs[0].RunID)
	assert.Equal(t, "statistical", runs[0].Method)
	assert.Equal(t, 2.5, runs[0].Threshold)
	assert.Nil(t, runs[0].ParamsJSON)
	assert.JSONEq(t, string(params), string(runs[1].ParamsJSON))

	limited, err := store.List(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, second.RunID, limited[0].RunID)
}

func TestRunStore_Get(t *testing.T) {
	db := openTestDB(t)
	store := NewRunStore(db)

	rec := &RunRecord{Method: "radius", PointCount: 7, OutlierCount: 7}
	require.NoError(t, store.Insert(rec))

	got, err := store.Get(rec.RunID)
	require.NoError(t, err)
	assert.Equal(t, rec.PointCount, got.PointCount)
	assert.Equal(t, rec.OutlierCount, got.OutlierCount)

	_, err = store.Get("no-such-run")
	assert.Error(t, err)
}

func TestIsSQLiteBusy(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"database is locked", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"SQLITE_BUSY", errors.New("SQLITE_BUSY"), true},
		{"other error", errors.New("some other error"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isSQLiteBusy(tt.err))
		})
	}
}

func TestRetryOnBusy(t *testing.T) {
	t.Run("busy errors retried", func(t *testing.T) {
		calls := 0
		err := retryOnBusy(func() error {
			calls++
			if calls < 3 {
				return errors.New("database is locked (5) (SQLITE_BUSY)")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("non-busy error fails immediately", func(t *testing.T) {
		calls := 0
		testErr := errors.New("some other error")
		err := retryOnBusy(func() error {
			calls++
			return testErr
		})
		assert.ErrorIs(t, err, testErr)
		assert.Equal(t, 1, calls)
	})

	t.Run("persistent busy gives up", func(t *testing.T) {
		calls := 0
		err := retryOnBusy(func() error {
			calls++
			return errors.New("SQLITE_BUSY")
		})
		assert.Error(t, err)
		assert.Equal(t, busyRetries, calls)
	})
}
