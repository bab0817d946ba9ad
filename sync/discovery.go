// ABOUTME: Board relationship discovery from relation column settings
// ABOUTME: Derives connect-boards, mirror, and dependency edges and persists them
package sync

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log"

	"github.com/pulsemap/pulsemap/db"
	"github.com/pulsemap/pulsemap/models"
	"github.com/pulsemap/pulsemap/monday"
)

// Discoverer derives board-to-board relationships by inspecting the
// relation columns of each board in a sync's board set.
type Discoverer struct {
	client   *monday.Client
	database *sql.DB
	logger   *log.Logger
}

// NewDiscoverer creates a Discoverer. A nil logger discards warnings.
func NewDiscoverer(client *monday.Client, database *sql.DB, logger *log.Logger) *Discoverer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Discoverer{client: client, database: database, logger: logger}
}

// Discover fetches the relation columns of every board in boardIDs, parses
// their settings, and persists the edges whose endpoints both belong to the
// set. Failures to fetch or decode a single board degrade to warnings; the
// returned count is the number of edges persisted.
func (d *Discoverer) Discover(ctx context.Context, boardIDs []string) (int, error) {
	known := make(map[string]bool, len(boardIDs))
	for _, id := range boardIDs {
		known[id] = true
	}

	discovered := 0
	for _, boardID := range boardIDs {
		if err := ctx.Err(); err != nil {
			return discovered, err
		}

		columns, err := d.client.GetBoardConnections(ctx, boardID)
		if err != nil {
			d.logger.Printf("warning: skipping relationship scan for board %s: %v", boardID, err)
			continue
		}

		for _, col := range columns {
			discovered += d.persistColumnEdges(boardID, col, known)
		}
	}

	return discovered, nil
}

// persistColumnEdges turns one relation column into zero or more stored
// edges, dropping targets outside the known board set.
func (d *Discoverer) persistColumnEdges(boardID string, col monday.Column, known map[string]bool) int {
	settings := ParseColumnSettings(col.Type, col.SettingsStr)

	var targets []string
	var relationType string

	switch s := settings.(type) {
	case ConnectBoardsSettings:
		targets = s.BoardIDs
		relationType = models.RelationTypeConnectBoards
		if col.Type == monday.ColumnTypeDependency {
			relationType = models.RelationTypeDependency
		}
	case MirrorSettings:
		targets = []string{s.LinkedBoardID}
		relationType = models.RelationTypeMirror
	case UnparseableSettings:
		d.logger.Printf("warning: board %s column %s (%s): %s", boardID, col.ID, col.Type, s.Reason)
		return 0
	default:
		return 0
	}

	saved := 0
	for _, target := range targets {
		if !known[target] {
			d.logger.Printf("warning: board %s column %s links to unknown board %s, dropping edge", boardID, col.ID, target)
			continue
		}
		if target == boardID && relationType != models.RelationTypeDependency {
			// Self-references only make sense for dependency columns.
			continue
		}

		rel := &models.BoardRelationship{
			SourceBoardID:  boardID,
			TargetBoardID:  target,
			RelationType:   relationType,
			SourceColumnID: col.ID,
			Metadata:       columnMetadata(col),
		}
		if err := db.SaveRelationship(d.database, rel); err != nil {
			d.logger.Printf("warning: failed to save %s edge %s -> %s: %v", relationType, boardID, target, err)
			continue
		}
		saved++
	}

	return saved
}

func columnMetadata(col monday.Column) string {
	meta := map[string]string{"column_title": col.Title}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return ""
	}
	return string(encoded)
}
