// ABOUTME: Workspace database operations
// ABOUTME: Handles workspace upserts and mirror-side lookups
package db

import (
	"database/sql"
	"time"

	"github.com/pulsemap/pulsemap/models"
)

// SaveWorkspace inserts or updates a workspace by its remote id. created_at
// survives updates so the first-mirrored time is preserved.
func SaveWorkspace(db *sql.DB, ws *models.Workspace) error {
	now := time.Now()
	ws.LastSeenAt = now
	ws.UpdatedAt = now
	if ws.CreatedAt.IsZero() {
		ws.CreatedAt = now
	}

	_, err := db.Exec(`
		INSERT INTO workspaces (id, name, kind, description, last_seen_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			kind = excluded.kind,
			description = excluded.description,
			last_seen_at = excluded.last_seen_at,
			updated_at = excluded.updated_at
	`, ws.ID, ws.Name, ws.Kind, ws.Description, ws.LastSeenAt, ws.CreatedAt, ws.UpdatedAt)

	return err
}

func GetWorkspace(db *sql.DB, id string) (*models.Workspace, error) {
	ws := &models.Workspace{}

	err := db.QueryRow(`
		SELECT id, name, kind, description, last_seen_at, created_at, updated_at
		FROM workspaces WHERE id = ?
	`, id).Scan(
		&ws.ID,
		&ws.Name,
		&ws.Kind,
		&ws.Description,
		&ws.LastSeenAt,
		&ws.CreatedAt,
		&ws.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ws, nil
}

func GetWorkspaces(db *sql.DB) ([]models.Workspace, error) {
	rows, err := db.Query(`
		SELECT id, name, kind, description, last_seen_at, created_at, updated_at
		FROM workspaces
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workspaces []models.Workspace
	for rows.Next() {
		var ws models.Workspace
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.Kind, &ws.Description, &ws.LastSeenAt, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
			return nil, err
		}
		workspaces = append(workspaces, ws)
	}

	return workspaces, rows.Err()
}

func CountWorkspaces(db *sql.DB) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM workspaces`).Scan(&count)
	return count, err
}
