package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/banshee-data/presence.report/internal/radar/perception"
	"github.com/banshee-data/presence.report/internal/radar/pipeline"
	"github.com/banshee-data/presence.report/internal/timeutil"
	"github.com/google/uuid"
)

// ErrRunNotFound is returned when a run id has no row.
var ErrRunNotFound = errors.New("analysis run not found")

// Run is one persisted analysis of a capture.
type Run struct {
	RunID            string          `json:"run_id"`
	CapturePath      string          `json:"capture_path"`
	CaptureBytes     int64           `json:"capture_bytes"`
	ParamsJSON       json.RawMessage `json:"params_json"`
	Frames           int             `json:"frames"`
	Objects          int             `json:"objects"`
	ResyncSkipped    int             `json:"resync_skipped"`
	StopReason       string          `json:"stop_reason"`
	Truncated        bool            `json:"truncated"`
	Windows          int             `json:"windows"`
	ValidWindows     int             `json:"valid_windows"`
	NoClusterWindows int             `json:"no_cluster_windows"`
	Humans           int             `json:"humans"`
	Rodents          int             `json:"rodents"`
	CreatedAt        int64           `json:"created_at"` // unix nanoseconds
}

// Window is one persisted window result. MeanX and MeanY are nil unless the
// window produced a cluster.
type Window struct {
	WindowIndex int      `json:"window_index"`
	StartFrame  int      `json:"start_frame"`
	TimeSlot    int      `json:"time_slot"`
	SubSlot     int      `json:"sub_slot"`
	Status      string   `json:"status"`
	Points      int      `json:"points"`
	MeanX       *float64 `json:"mean_x,omitempty"`
	MeanY       *float64 `json:"mean_y,omitempty"`
	ClusterSize int      `json:"cluster_size"`
	CorePoints  int      `json:"core_points"`
	NumClusters int      `json:"num_clusters"`
	NoisePoints int      `json:"noise_points"`
}

// Verdict is one persisted classified run.
type Verdict struct {
	RunSeq          int     `json:"run_seq"`
	StartWindow     int     `json:"start_window"`
	EndWindow       int     `json:"end_window"`
	Length          int     `json:"length"`
	MeanClusterSize float64 `json:"mean_cluster_size"`
	DisplacementX   float64 `json:"displacement_x"`
	DisplacementY   float64 `json:"displacement_y"`
	Verdict         string  `json:"verdict"`
}

// RunStore provides persistence for analysis runs.
type RunStore struct {
	db    *DB
	clock timeutil.Clock
}

// NewRunStore creates a new RunStore on the real clock.
func NewRunStore(db *DB) *RunStore {
	return NewRunStoreWithClock(db, timeutil.RealClock{})
}

// NewRunStoreWithClock creates a RunStore that stamps runs and paces busy
// retries with clock.
func NewRunStoreWithClock(db *DB, clock timeutil.Clock) *RunStore {
	return &RunStore{db: db, clock: clock}
}

// Insert records res, its windows and its verdicts in one transaction and
// returns the generated run id.
func (s *RunStore) Insert(capturePath string, captureBytes int64, res *pipeline.AnalysisResult) (string, error) {
	params, err := json.Marshal(res.Params)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	runID := uuid.New().String()

	err = retryOnBusy(s.clock, func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer tx.Rollback()

		_, err = tx.Exec(`
			INSERT INTO analysis_runs (
				run_id, capture_path, capture_bytes, params_json,
				frames, objects, resync_skipped, stop_reason, truncated,
				windows, valid_windows, no_cluster_windows, humans, rodents,
				created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, capturePath, captureBytes, string(params),
			res.Decode.Frames, res.Decode.Objects, res.Decode.ResyncSkipped,
			string(res.Decode.StopReason), boolToInt(res.Decode.Truncated),
			res.Summary.Windows, res.Summary.ValidWindows, res.Summary.NoClusterWindows,
			res.Summary.Humans, res.Summary.Rodents,
			s.clock.Now().UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		winStmt, err := tx.Prepare(`
			INSERT INTO analysis_windows (
				run_id, window_index, start_frame, time_slot, sub_slot, status,
				points, mean_x, mean_y, cluster_size, core_points, num_clusters, noise_points
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare window insert: %w", err)
		}
		defer winStmt.Close()

		for _, w := range res.Windows.Windows {
			var meanX, meanY interface{}
			if w.Status == perception.WindowClustered {
				meanX, meanY = w.MeanX, w.MeanY
			}
			if _, err := winStmt.Exec(
				runID, w.Index, w.StartFrame, w.TimeSlot, w.SubSlot, w.Status.String(),
				w.Points, meanX, meanY, w.ClusterSize, w.CorePoints, w.NumClusters, w.NoisePoints,
			); err != nil {
				return fmt.Errorf("insert window %d: %w", w.Index, err)
			}
		}

		for i, r := range res.Runs {
			if _, err := tx.Exec(`
				INSERT INTO analysis_verdicts (
					run_id, run_seq, start_window, end_window, length,
					mean_cluster_size, displacement_x, displacement_y, verdict
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				runID, i, r.StartWindow, r.EndWindow, r.Length,
				r.MeanClusterSize, r.DisplacementX, r.DisplacementY, r.Verdict.String(),
			); err != nil {
				return fmt.Errorf("insert verdict %d: %w", i, err)
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return "", err
	}
	return runID, nil
}

const runColumns = `
	run_id, capture_path, capture_bytes, params_json,
	frames, objects, resync_skipped, stop_reason, truncated,
	windows, valid_windows, no_cluster_windows, humans, rodents,
	created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var params string
	var truncated int
	err := row.Scan(
		&r.RunID, &r.CapturePath, &r.CaptureBytes, &params,
		&r.Frames, &r.Objects, &r.ResyncSkipped, &r.StopReason, &truncated,
		&r.Windows, &r.ValidWindows, &r.NoClusterWindows, &r.Humans, &r.Rodents,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.ParamsJSON = json.RawMessage(params)
	r.Truncated = truncated != 0
	return &r, nil
}

// Get returns a single run by id.
func (s *RunStore) Get(runID string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM analysis_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return r, nil
}

// List returns the most recent runs first. limit <= 0 returns every run.
func (s *RunStore) List(limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM analysis_runs ORDER BY created_at DESC, run_id`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Windows returns the windows of a run in index order.
func (s *RunStore) Windows(runID string) ([]Window, error) {
	rows, err := s.db.Query(`
		SELECT window_index, start_frame, time_slot, sub_slot, status, points,
		       mean_x, mean_y, cluster_size, core_points, num_clusters, noise_points
		FROM analysis_windows
		WHERE run_id = ?
		ORDER BY window_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("query windows: %w", err)
	}
	defer rows.Close()

	var out []Window
	for rows.Next() {
		var w Window
		var meanX, meanY sql.NullFloat64
		if err := rows.Scan(
			&w.WindowIndex, &w.StartFrame, &w.TimeSlot, &w.SubSlot, &w.Status, &w.Points,
			&meanX, &meanY, &w.ClusterSize, &w.CorePoints, &w.NumClusters, &w.NoisePoints,
		); err != nil {
			return nil, fmt.Errorf("scan window: %w", err)
		}
		if meanX.Valid {
			w.MeanX = &meanX.Float64
		}
		if meanY.Valid {
			w.MeanY = &meanY.Float64
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Verdicts returns the classified runs of an analysis in order.
func (s *RunStore) Verdicts(runID string) ([]Verdict, error) {
	rows, err := s.db.Query(`
		SELECT run_seq, start_window, end_window, length,
		       mean_cluster_size, displacement_x, displacement_y, verdict
		FROM analysis_verdicts
		WHERE run_id = ?
		ORDER BY run_seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query verdicts: %w", err)
	}
	defer rows.Close()

	var out []Verdict
	for rows.Next() {
		var v Verdict
		if err := rows.Scan(
			&v.RunSeq, &v.StartWindow, &v.EndWindow, &v.Length,
			&v.MeanClusterSize, &v.DisplacementX, &v.DisplacementY, &v.Verdict,
		); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Delete removes a run and, by cascade, its windows and verdicts.
func (s *RunStore) Delete(runID string) error {
	return retryOnBusy(s.clock, func() error {
		result, err := s.db.Exec(`DELETE FROM analysis_runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil
	})
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// retryOnBusy retries fn while SQLite reports the database as locked.
func retryOnBusy(clock timeutil.Clock, fn func() error) error {
	const attempts = 5
	backoff := 20 * time.Millisecond
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || !isBusy(err) {
			return err
		}
		clock.Sleep(backoff)
		backoff *= 2
	}
	return err
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
