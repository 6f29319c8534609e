// Package store persists backtest runs. The engine never touches
// storage; callers save the full request and result payload here keyed by
// an opaque run ID and an owning user.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"quant-backtester/internal/errors"
	"quant-backtester/internal/models"
)

// RunStore persists and retrieves backtest runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *models.BacktestRun) error
	GetRun(ctx context.Context, userID, runID string) (*models.BacktestRun, error)
	ListRuns(ctx context.Context, userID string, limit int) ([]models.RunSummary, error)
	DeleteRun(ctx context.Context, userID, runID string) error
	Close() error
}

// SQLiteStore implements RunStore on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseError, err.Error())
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS backtest_runs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		request TEXT NOT NULL,
		result TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_user_created
		ON backtest_runs(user_id, created_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return errors.Wrap(errors.ErrDatabaseError, err.Error())
	}
	return nil
}

// SaveRun inserts a run, assigning an ID and timestamp if unset.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *models.BacktestRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO backtest_runs (id, user_id, kind, created_at, request, result)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.UserID, string(run.Kind), run.CreatedAt,
		string(run.Request), string(run.Result),
	)
	if err != nil {
		return errors.Wrapf(errors.ErrDatabaseError, "save run %s: %v", run.ID, err)
	}
	return nil
}

// GetRun fetches one run. Runs are scoped to their owning user; asking
// for another user's run behaves like a missing run.
func (s *SQLiteStore) GetRun(ctx context.Context, userID, runID string) (*models.BacktestRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, kind, created_at, request, result
		FROM backtest_runs WHERE id = ? AND user_id = ?`,
		runID, userID,
	)

	var run models.BacktestRun
	var kind, request, result string
	err := row.Scan(&run.ID, &run.UserID, &kind, &run.CreatedAt, &request, &result)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrRunNotFound, "%s", runID)
	}
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabaseError, "get run %s: %v", runID, err)
	}
	run.Kind = models.RunKind(kind)
	run.Request = json.RawMessage(request)
	run.Result = json.RawMessage(result)
	return &run, nil
}

// ListRuns returns the user's runs, newest first. limit <= 0 means no
// limit.
func (s *SQLiteStore) ListRuns(ctx context.Context, userID string, limit int) ([]models.RunSummary, error) {
	query := `
		SELECT id, kind, created_at
		FROM backtest_runs WHERE user_id = ?
		ORDER BY created_at DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabaseError, "list runs: %v", err)
	}
	defer rows.Close()

	var summaries []models.RunSummary
	for rows.Next() {
		var summary models.RunSummary
		var kind string
		if err := rows.Scan(&summary.ID, &kind, &summary.CreatedAt); err != nil {
			return nil, errors.Wrapf(errors.ErrDatabaseError, "scan run: %v", err)
		}
		summary.Kind = models.RunKind(kind)
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrDatabaseError, "list runs: %v", err)
	}
	return summaries, nil
}

// DeleteRun removes one run owned by the user.
func (s *SQLiteStore) DeleteRun(ctx context.Context, userID, runID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM backtest_runs WHERE id = ? AND user_id = ?`,
		runID, userID,
	)
	if err != nil {
		return errors.Wrapf(errors.ErrDatabaseError, "delete run %s: %v", runID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(errors.ErrDatabaseError, "delete run %s: %v", runID, err)
	}
	if affected == 0 {
		return errors.Wrapf(errors.ErrRunNotFound, "%s", runID)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
