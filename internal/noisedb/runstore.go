package noisedb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RunRecord is one persisted filter run summary.
type RunRecord struct {
	RunID        string          `json:"run_id"`
	Method       string          `json:"method"`
	ParamsJSON   json.RawMessage `json:"params_json,omitempty"`
	PointCount   int             `json:"point_count"`
	InlierCount  int             `json:"inlier_count"`
	OutlierCount int             `json:"outlier_count"`
	Threshold    float64         `json:"threshold"`
	Applied      bool            `json:"applied"`
	StartedAt    int64           `json:"started_at"` // Unix nanos
	DurationNs   int64           `json:"duration_ns"`
}

// RunStore provides persistence for filter run summaries.
type RunStore struct {
	db *DB
}

// NewRunStore creates a RunStore backed by the given database.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// Insert persists a run record. If RunID is empty, a UUID is generated.
func (s *RunStore) Insert(rec *RunRecord) error {
	if rec.RunID == "" {
		rec.RunID = uuid.New().String()
	}
	if rec.StartedAt == 0 {
		rec.StartedAt = time.Now().UnixNano()
	}

	var paramsStr interface{}
	if len(rec.ParamsJSON) > 0 {
		paramsStr = string(rec.ParamsJSON)
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO noise_runs (
				run_id, method, params_json, point_count, inlier_count,
				outlier_count, threshold, applied, started_at, duration_ns
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.RunID, rec.Method, paramsStr, rec.PointCount, rec.InlierCount,
			rec.OutlierCount, rec.Threshold, rec.Applied, rec.StartedAt, rec.DurationNs,
		)
		return err
	})
}

// List returns the most recent runs, newest first. A non-positive limit
// returns everything.
func (s *RunStore) List(limit int) ([]*RunRecord, error) {
	query := `
		SELECT run_id, method, params_json, point_count, inlier_count,
		       outlier_count, threshold, applied, started_at, duration_ns
		FROM noise_runs
		ORDER BY started_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []*RunRecord
	for rows.Next() {
		rec := &RunRecord{}
		var paramsStr sql.NullString
		err := rows.Scan(&rec.RunID, &rec.Method, &paramsStr, &rec.PointCount,
			&rec.InlierCount, &rec.OutlierCount, &rec.Threshold, &rec.Applied,
			&rec.StartedAt, &rec.DurationNs)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if paramsStr.Valid {
			rec.ParamsJSON = json.RawMessage(paramsStr.String)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Get returns the run with the given id, or sql.ErrNoRows.
func (s *RunStore) Get(runID string) (*RunRecord, error) {
	rec := &RunRecord{}
	var paramsStr sql.NullString
	err := s.db.QueryRow(`
		SELECT run_id, method, params_json, point_count, inlier_count,
		       outlier_count, threshold, applied, started_at, duration_ns
		FROM noise_runs
		WHERE run_id = ?`, runID).
		Scan(&rec.RunID, &rec.Method, &paramsStr, &rec.PointCount,
			&rec.InlierCount, &rec.OutlierCount, &rec.Threshold, &rec.Applied,
			&rec.StartedAt, &rec.DurationNs)
	if err != nil {
		return nil, err
	}
	if paramsStr.Valid {
		rec.ParamsJSON = json.RawMessage(paramsStr.String)
	}
	return rec, nil
}

const (
	busyRetries  = 5
	busyBackoff  = 10 * time.Millisecond
	busyBackoff2 = 2 // exponential factor
)

// isSQLiteBusy reports whether err looks like a SQLITE_BUSY contention
// error from the driver.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy runs fn, retrying with exponential backoff while it fails
// with a busy error. Other errors fail immediately.
func retryOnBusy(fn func() error) error {
	backoff := busyBackoff
	var err error
	for attempt := 0; attempt < busyRetries; attempt++ {
		err = fn()
		if err == nil || !isSQLiteBusy(err) {
			return err
		}
		time.Sleep(backoff)
		backoff *= busyBackoff2
	}
	return err
}
