package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cesargomez89/catalogsync/internal/domain"
)

var ErrRunNotFound = errors.New("sync run not found")

const runColumns = `id, subscription_id, status, stage, progress, created_at, updated_at, error`

func (db *DB) CreateRun(ctx context.Context, run *domain.SyncRun) error {
	query := `INSERT INTO sync_runs (id, subscription_id, status, stage, progress, created_at, updated_at)
		VALUES (:id, :subscription_id, :status, :stage, :progress, :created_at, :updated_at)`

	_, err := db.NamedExecContext(ctx, query, run)
	return err
}

func (db *DB) GetRun(ctx context.Context, id string) (*domain.SyncRun, error) {
	run := &domain.SyncRun{}
	err := db.GetContext(ctx, run, `SELECT `+runColumns+` FROM sync_runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// LatestRun returns the most recent run of a subscription, or nil if it never ran.
func (db *DB) LatestRun(ctx context.Context, subscriptionID int64) (*domain.SyncRun, error) {
	query := `SELECT ` + runColumns + ` FROM sync_runs WHERE subscription_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`

	run := &domain.SyncRun{}
	err := db.GetContext(ctx, run, query, subscriptionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (db *DB) UpdateRunProgress(ctx context.Context, id string, stage domain.Stage, progress float64) error {
	query := `UPDATE sync_runs SET status = ?, stage = ?, progress = ?, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, domain.RunStatusRunning, stage, progress, time.Now(), id)
	return err
}

func (db *DB) FinishRun(ctx context.Context, id string, status domain.RunStatus, stage domain.Stage, progress float64, errorMsg *string) error {
	query := `UPDATE sync_runs SET status = ?, stage = ?, progress = ?, error = ?, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, status, stage, progress, errorMsg, time.Now(), id)
	return err
}

func (db *DB) ListRuns(ctx context.Context, limit int) ([]*domain.SyncRun, error) {
	query := `SELECT ` + runColumns + ` FROM sync_runs ORDER BY created_at DESC, rowid DESC LIMIT ?`

	var runs []*domain.SyncRun
	err := db.SelectContext(ctx, &runs, query, limit)
	return runs, err
}

// ResetStuckRuns marks runs left running by a previous process as failed.
func (db *DB) ResetStuckRuns(ctx context.Context) (int64, error) {
	query := `UPDATE sync_runs SET status = ?, error = ?, updated_at = ? WHERE status IN ('queued', 'running')`
	res, err := db.ExecContext(ctx, query, domain.RunStatusFailed, "interrupted by restart", time.Now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RunStats counts sync runs by final status across all subscriptions.
type RunStats struct {
	Total     int `db:"total" json:"total"`
	Completed int `db:"completed" json:"completed"`
	Failed    int `db:"failed" json:"failed"`
}

func (db *DB) GetRunStats(ctx context.Context) (*RunStats, error) {
	query := `SELECT
		COUNT(*) as total,
		COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) as completed,
		COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0) as failed
	FROM sync_runs`

	stats := &RunStats{}
	err := db.GetContext(ctx, stats, query)
	return stats, err
}
