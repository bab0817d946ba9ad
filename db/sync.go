// ABOUTME: Database operations for the sync_runs provenance table
// ABOUTME: Manages run lifecycle rows from start through terminal status
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pulsemap/pulsemap/models"
)

// StartSyncRun inserts a running row for a new sync execution. The id is
// allocated by the caller so it can double as the in-process flight token.
func StartSyncRun(db *sql.DB, id, kind, scope string) (*models.SyncRun, error) {
	run := &models.SyncRun{
		ID:        id,
		Kind:      kind,
		Scope:     scope,
		Status:    models.SyncStatusRunning,
		StartedAt: time.Now(),
	}

	var scopeVal sql.NullString
	if scope != "" {
		scopeVal = sql.NullString{String: scope, Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO sync_runs (id, kind, scope, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.Kind, scopeVal, run.Status, run.StartedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to start sync run: %w", err)
	}

	return run, nil
}

// CompleteSyncRun marks the run completed and records its final counts.
func CompleteSyncRun(db *sql.DB, run *models.SyncRun) error {
	now := time.Now()
	run.Status = models.SyncStatusCompleted
	run.CompletedAt = &now

	_, err := db.Exec(`
		UPDATE sync_runs
		SET status = ?, boards_processed = ?, items_created = ?, items_updated = ?, items_deleted = ?, completed_at = ?
		WHERE id = ?
	`, run.Status, run.BoardsProcessed, run.ItemsCreated, run.ItemsUpdated, run.ItemsDeleted, run.CompletedAt, run.ID)

	if err != nil {
		return fmt.Errorf("failed to complete sync run: %w", err)
	}

	return nil
}

// FailSyncRun marks the run failed, keeping whatever partial counts it
// accumulated before the error.
func FailSyncRun(db *sql.DB, run *models.SyncRun, errMsg string) error {
	now := time.Now()
	run.Status = models.SyncStatusFailed
	run.CompletedAt = &now
	run.Error = errMsg

	_, err := db.Exec(`
		UPDATE sync_runs
		SET status = ?, boards_processed = ?, items_created = ?, items_updated = ?, items_deleted = ?, completed_at = ?, error = ?
		WHERE id = ?
	`, run.Status, run.BoardsProcessed, run.ItemsCreated, run.ItemsUpdated, run.ItemsDeleted, run.CompletedAt, run.Error, run.ID)

	if err != nil {
		return fmt.Errorf("failed to record sync run failure: %w", err)
	}

	return nil
}

// CancelAbandonedRuns sweeps rows left in running state by an interrupted
// process. Called once at orchestrator startup, before any new run begins.
func CancelAbandonedRuns(db *sql.DB) (int, error) {
	res, err := db.Exec(`
		UPDATE sync_runs
		SET status = ?, completed_at = ?, error = 'interrupted before completion'
		WHERE status = ?
	`, models.SyncStatusCancelled, time.Now(), models.SyncStatusRunning)

	if err != nil {
		return 0, fmt.Errorf("failed to cancel abandoned runs: %w", err)
	}

	n, err := res.RowsAffected()
	return int(n), err
}

// GetSyncRun retrieves one run by id.
func GetSyncRun(db *sql.DB, id string) (*models.SyncRun, error) {
	run, err := scanSyncRun(db.QueryRow(`
		SELECT id, kind, scope, status, boards_processed, items_created, items_updated, items_deleted, started_at, completed_at, error
		FROM sync_runs
		WHERE id = ?
	`, id))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync run: %w", err)
	}

	return run, nil
}

// LastCompletedSyncRun returns the most recent successful run, or nil when
// no sync has ever completed.
func LastCompletedSyncRun(db *sql.DB) (*models.SyncRun, error) {
	run, err := scanSyncRun(db.QueryRow(`
		SELECT id, kind, scope, status, boards_processed, items_created, items_updated, items_deleted, started_at, completed_at, error
		FROM sync_runs
		WHERE status = ?
		ORDER BY completed_at DESC
		LIMIT 1
	`, models.SyncStatusCompleted))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last completed sync run: %w", err)
	}

	return run, nil
}

// RecentSyncRuns lists runs newest first.
func RecentSyncRuns(db *sql.DB, limit int) ([]models.SyncRun, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := db.Query(`
		SELECT id, kind, scope, status, boards_processed, items_created, items_updated, items_deleted, started_at, completed_at, error
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []models.SyncRun
	for rows.Next() {
		run, err := scanSyncRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync runs: %w", err)
	}

	return runs, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSyncRun(row rowScanner) (*models.SyncRun, error) {
	var run models.SyncRun
	var scope sql.NullString
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := row.Scan(
		&run.ID,
		&run.Kind,
		&scope,
		&run.Status,
		&run.BoardsProcessed,
		&run.ItemsCreated,
		&run.ItemsUpdated,
		&run.ItemsDeleted,
		&run.StartedAt,
		&completedAt,
		&errMsg,
	)
	if err != nil {
		return nil, err
	}

	if scope.Valid {
		run.Scope = scope.String
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}

	return &run, nil
}
