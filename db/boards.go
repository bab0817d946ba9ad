// ABOUTME: Board and board column database operations
// ABOUTME: Handles board upserts, wholesale column replacement, and state marking
package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pulsemap/pulsemap/models"
)

// SaveBoard inserts or updates a board by its remote id. The health_status
// column is left alone here; it is an advisory cache written only by
// UpdateBoardHealth. Boards referencing workspaces we have not mirrored are
// accepted as-is and surfaced later by integrity validation.
func SaveBoard(db *sql.DB, b *models.Board) error {
	now := time.Now()
	b.LastSeenAt = now
	b.UpdatedAt = now
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.State == "" {
		b.State = models.BoardStateActive
	}

	_, err := db.Exec(`
		INSERT INTO boards (id, name, description, state, workspace_id, item_count, board_kind, permissions, remote_updated_at, last_seen_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			state = excluded.state,
			workspace_id = excluded.workspace_id,
			item_count = excluded.item_count,
			board_kind = excluded.board_kind,
			permissions = excluded.permissions,
			remote_updated_at = excluded.remote_updated_at,
			last_seen_at = excluded.last_seen_at,
			updated_at = excluded.updated_at
	`, b.ID, b.Name, b.Description, b.State, b.WorkspaceID, b.ItemCount, b.BoardKind, b.Permissions, b.RemoteUpdatedAt, b.LastSeenAt, b.CreatedAt, b.UpdatedAt)

	return err
}

func GetBoard(db *sql.DB, id string) (*models.Board, error) {
	b := &models.Board{}
	var workspaceID sql.NullString
	var healthStatus sql.NullString

	err := db.QueryRow(`
		SELECT id, name, description, state, workspace_id, item_count, board_kind, permissions, remote_updated_at, health_status, last_seen_at, created_at, updated_at
		FROM boards WHERE id = ?
	`, id).Scan(
		&b.ID,
		&b.Name,
		&b.Description,
		&b.State,
		&workspaceID,
		&b.ItemCount,
		&b.BoardKind,
		&b.Permissions,
		&b.RemoteUpdatedAt,
		&healthStatus,
		&b.LastSeenAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if workspaceID.Valid {
		b.WorkspaceID = &workspaceID.String
	}
	if healthStatus.Valid {
		b.HealthStatus = healthStatus.String
	}

	return b, nil
}

func GetBoards(db *sql.DB) ([]models.Board, error) {
	return queryBoards(db, `
		SELECT id, name, description, state, workspace_id, item_count, board_kind, permissions, remote_updated_at, health_status, last_seen_at, created_at, updated_at
		FROM boards
		ORDER BY name
	`)
}

func GetBoardsByWorkspace(db *sql.DB, workspaceID string) ([]models.Board, error) {
	return queryBoards(db, `
		SELECT id, name, description, state, workspace_id, item_count, board_kind, permissions, remote_updated_at, health_status, last_seen_at, created_at, updated_at
		FROM boards
		WHERE workspace_id = ?
		ORDER BY name
	`, workspaceID)
}

func GetBoardsByState(db *sql.DB, state string) ([]models.Board, error) {
	return queryBoards(db, `
		SELECT id, name, description, state, workspace_id, item_count, board_kind, permissions, remote_updated_at, health_status, last_seen_at, created_at, updated_at
		FROM boards
		WHERE state = ?
		ORDER BY name
	`, state)
}

func queryBoards(db *sql.DB, query string, args ...interface{}) ([]models.Board, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boards []models.Board
	for rows.Next() {
		var b models.Board
		var workspaceID sql.NullString
		var healthStatus sql.NullString

		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.State, &workspaceID, &b.ItemCount, &b.BoardKind, &b.Permissions, &b.RemoteUpdatedAt, &healthStatus, &b.LastSeenAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}

		if workspaceID.Valid {
			b.WorkspaceID = &workspaceID.String
		}
		if healthStatus.Valid {
			b.HealthStatus = healthStatus.String
		}

		boards = append(boards, b)
	}

	return boards, rows.Err()
}

// ReplaceBoardColumns swaps a board's column set in one transaction, so
// readers never observe a board with its columns half written.
func ReplaceBoardColumns(db *sql.DB, boardID string, columns []models.BoardColumn) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Safe even after commit
	}()

	if _, err := tx.Exec(`DELETE FROM board_columns WHERE board_id = ?`, boardID); err != nil {
		return fmt.Errorf("failed to clear columns for board %s: %w", boardID, err)
	}

	for i := range columns {
		c := &columns[i]
		c.BoardID = boardID
		c.Position = i

		if _, err := tx.Exec(`
			INSERT INTO board_columns (id, board_id, title, type, settings, archived, position)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, c.ID, c.BoardID, c.Title, c.Type, c.Settings, c.Archived, c.Position); err != nil {
			return fmt.Errorf("failed to insert column %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

func GetBoardColumns(db *sql.DB, boardID string) ([]models.BoardColumn, error) {
	rows, err := db.Query(`
		SELECT id, board_id, title, type, settings, archived, position
		FROM board_columns
		WHERE board_id = ?
		ORDER BY position
	`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []models.BoardColumn
	for rows.Next() {
		var c models.BoardColumn
		var settings sql.NullString

		if err := rows.Scan(&c.ID, &c.BoardID, &c.Title, &c.Type, &settings, &c.Archived, &c.Position); err != nil {
			return nil, err
		}
		if settings.Valid {
			c.Settings = settings.String
		}

		columns = append(columns, c)
	}

	return columns, rows.Err()
}

// MarkMissingBoardsDeleted flags every board not in seenIDs as deleted
// upstream. Rows are never removed, so history and relationships stay
// queryable. Returns the number of boards newly marked.
func MarkMissingBoardsDeleted(db *sql.DB, seenIDs []string) (int, error) {
	if len(seenIDs) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(seenIDs)), ",")
	args := make([]interface{}, 0, len(seenIDs)+1)
	args = append(args, time.Now())
	for _, id := range seenIDs {
		args = append(args, id)
	}

	res, err := db.Exec(`
		UPDATE boards
		SET state = 'deleted', updated_at = ?
		WHERE state != 'deleted' AND id NOT IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	return int(n), err
}

// UpdateBoardHealth writes the advisory health cache for one board.
func UpdateBoardHealth(db *sql.DB, boardID, status string) error {
	_, err := db.Exec(`
		UPDATE boards
		SET health_status = ?, updated_at = ?
		WHERE id = ?
	`, status, time.Now(), boardID)

	return err
}

func CountBoards(db *sql.DB) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM boards`).Scan(&count)
	return count, err
}

func CountBoardsByState(db *sql.DB, state string) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM boards WHERE state = ?`, state).Scan(&count)
	return count, err
}
