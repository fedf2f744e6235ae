// Package store persists agreement runs and their pairwise scores to
// SQLite, so successive runs over the same export can be compared without
// re-parsing old CSV trees.
package store

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/agreement.report/internal/metrics"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps the SQLite connection used for run persistence.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database at path and applies pending
// migrations.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite serializes writers; a single connection avoids busy errors
	// from the worker pool entirely.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrateUp(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error { return db.conn.Close() }

func (db *DB) migrateUp() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db.conn, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("init migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	// Closing m would close the shared connection; let it be collected.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Run is one persisted metrics computation over an export.
type Run struct {
	RunID     string `json:"run_id"`
	Project   string `json:"project"`
	Trader    string `json:"trader"`
	Common    bool   `json:"common"`
	NumTasks  int    `json:"num_tasks"`
	CreatedAt int64  `json:"created_at"`
}

// PairScore is one annotator pair's aggregated agreement within a run.
type PairScore struct {
	RunID            string          `json:"run_id"`
	PrimaryAnnotator string          `json:"primary_annotator"`
	SecondaryAnnot   string          `json:"secondary_annotator"`
	Overall          float64         `json:"overall"`
	NumTasks         int             `json:"num_tasks"`
	PerFieldJSON     json.RawMessage `json:"per_field_json"`
	PerLabelJSON     json.RawMessage `json:"per_label_json"`
}

// RunStore persists runs and pair scores.
type RunStore struct {
	db *DB
}

// NewRunStore creates a RunStore backed by the given database.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// InsertRun persists a run header. A missing RunID gets a fresh UUID; the
// assigned ID is returned.
func (s *RunStore) InsertRun(run *Run) (string, error) {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}
	err := retryOnBusy(func() error {
		_, err := s.db.conn.Exec(`
			INSERT INTO agreement_runs (run_id, project, trader, common_mode, num_tasks, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			run.RunID, run.Project, run.Trader, run.Common, run.NumTasks, run.CreatedAt)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return run.RunID, nil
}

// InsertScores persists every measured pair of an AllPairScores matrix under
// the given run.
func (s *RunStore) InsertScores(runID string, scores *metrics.AllPairScores) error {
	for _, primary := range scores.Annotators {
		for _, secondary := range scores.Annotators {
			if primary == secondary {
				continue
			}
			pair := scores.Get(primary, secondary)
			if pair == nil {
				continue
			}

			perField, err := json.Marshal(pair.PerField)
			if err != nil {
				return fmt.Errorf("encode per-field scores: %w", err)
			}
			perLabel, err := json.Marshal(pair.PerLabelRatios)
			if err != nil {
				return fmt.Errorf("encode per-label scores: %w", err)
			}

			err = retryOnBusy(func() error {
				_, err := s.db.conn.Exec(`
					INSERT INTO pair_scores (run_id, primary_annotator, secondary_annotator,
						overall, num_tasks, per_field_json, per_label_json)
					VALUES (?, ?, ?, ?, ?, ?, ?)`,
					runID, primary, secondary,
					pair.Overall, pair.NumTasks, string(perField), string(perLabel))
				return err
			})
			if err != nil {
				return fmt.Errorf("insert pair score %s/%s: %w", primary, secondary, err)
			}
		}
	}
	return nil
}

// ListRuns returns runs for a project, newest first. An empty project
// returns all runs.
func (s *RunStore) ListRuns(project string) ([]*Run, error) {
	query := `SELECT run_id, project, trader, common_mode, num_tasks, created_at
		FROM agreement_runs`
	var args []interface{}
	if project != "" {
		query += ` WHERE project = ?`
		args = append(args, project)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.RunID, &run.Project, &run.Trader, &run.Common,
			&run.NumTasks, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// ListScores returns the pair scores of one run.
func (s *RunStore) ListScores(runID string) ([]*PairScore, error) {
	rows, err := s.db.conn.Query(`
		SELECT run_id, primary_annotator, secondary_annotator,
		       overall, num_tasks, per_field_json, per_label_json
		FROM pair_scores
		WHERE run_id = ?
		ORDER BY primary_annotator, secondary_annotator`, runID)
	if err != nil {
		return nil, fmt.Errorf("query pair scores: %w", err)
	}
	defer rows.Close()

	var scores []*PairScore
	for rows.Next() {
		var ps PairScore
		var perField, perLabel string
		if err := rows.Scan(&ps.RunID, &ps.PrimaryAnnotator, &ps.SecondaryAnnot,
			&ps.Overall, &ps.NumTasks, &perField, &perLabel); err != nil {
			return nil, fmt.Errorf("scan pair score: %w", err)
		}
		ps.PerFieldJSON = json.RawMessage(perField)
		ps.PerLabelJSON = json.RawMessage(perLabel)
		scores = append(scores, &ps)
	}
	return scores, rows.Err()
}

// retryOnBusy retries a write a few times when SQLite reports a locked
// database.
func retryOnBusy(fn func() error) error {
	const attempts = 5
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || !isBusy(err) {
			return err
		}
		time.Sleep(time.Duration(i+1) * 10 * time.Millisecond)
	}
	return err
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
