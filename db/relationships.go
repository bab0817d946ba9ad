// ABOUTME: Board relationship database operations
// ABOUTME: Handles edge upserts keyed by source, target, type, and column
package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pulsemap/pulsemap/models"
)

// SaveRelationship inserts a directed edge or refreshes an existing one.
// The natural key is (source, target, type, source column), so re-running
// discovery over the same columns never duplicates edges.
func SaveRelationship(db *sql.DB, rel *models.BoardRelationship) error {
	now := time.Now()
	rel.UpdatedAt = now
	if rel.ID == "" {
		rel.ID = uuid.New().String()
	}
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = now
	}

	_, err := db.Exec(`
		INSERT INTO board_relationships (id, source_board_id, target_board_id, relation_type, source_column_id, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_board_id, target_board_id, relation_type, source_column_id) DO UPDATE SET
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, rel.ID, rel.SourceBoardID, rel.TargetBoardID, rel.RelationType, rel.SourceColumnID, rel.Metadata, rel.CreatedAt, rel.UpdatedAt)

	return err
}

func GetRelationships(db *sql.DB) ([]models.BoardRelationship, error) {
	return queryRelationships(db, `
		SELECT id, source_board_id, target_board_id, relation_type, source_column_id, metadata, created_at, updated_at
		FROM board_relationships
		ORDER BY source_board_id, target_board_id
	`)
}

// GetRelationshipsForBoard returns every edge touching the board, in either
// direction.
func GetRelationshipsForBoard(db *sql.DB, boardID string) ([]models.BoardRelationship, error) {
	return queryRelationships(db, `
		SELECT id, source_board_id, target_board_id, relation_type, source_column_id, metadata, created_at, updated_at
		FROM board_relationships
		WHERE source_board_id = ? OR target_board_id = ?
		ORDER BY source_board_id, target_board_id
	`, boardID, boardID)
}

func queryRelationships(db *sql.DB, query string, args ...interface{}) ([]models.BoardRelationship, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rels []models.BoardRelationship
	for rows.Next() {
		var r models.BoardRelationship
		var metadata sql.NullString

		if err := rows.Scan(&r.ID, &r.SourceBoardID, &r.TargetBoardID, &r.RelationType, &r.SourceColumnID, &metadata, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		if metadata.Valid {
			r.Metadata = metadata.String
		}

		rels = append(rels, r)
	}

	return rels, rows.Err()
}

func CountRelationships(db *sql.DB) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM board_relationships`).Scan(&count)
	return count, err
}
