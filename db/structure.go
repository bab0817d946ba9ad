// ABOUTME: Assembles the organizational structure read projection
// ABOUTME: Combines workspaces, boards, relationships, users, and last scan time
package db

import (
	"database/sql"
	"fmt"

	"github.com/pulsemap/pulsemap/models"
)

// GetOrganizationalStructure builds the full mirror projection. It is
// recomputed from the tables on every call and never cached.
func GetOrganizationalStructure(db *sql.DB) (*models.OrganizationalStructure, error) {
	workspaces, err := GetWorkspaces(db)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspaces: %w", err)
	}

	boards, err := GetBoards(db)
	if err != nil {
		return nil, fmt.Errorf("failed to load boards: %w", err)
	}

	relationships, err := GetRelationships(db)
	if err != nil {
		return nil, fmt.Errorf("failed to load relationships: %w", err)
	}

	users, err := GetUsers(db)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	structure := &models.OrganizationalStructure{
		Workspaces:    workspaces,
		Boards:        boards,
		Relationships: relationships,
		Users:         users,
	}

	lastRun, err := LastCompletedSyncRun(db)
	if err != nil {
		return nil, fmt.Errorf("failed to load last sync run: %w", err)
	}
	if lastRun != nil {
		structure.LastScanned = lastRun.CompletedAt
	}

	return structure, nil
}
