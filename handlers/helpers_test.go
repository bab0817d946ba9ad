// ABOUTME: Shared test fixtures for the MCP handler suite
// ABOUTME: Seeds an in-memory mirror with a small two-workspace org
package handlers

import (
	"database/sql"
	"io"
	"log"
	"testing"
	"time"

	"github.com/pulsemap/pulsemap/db"
	"github.com/pulsemap/pulsemap/models"
	"github.com/pulsemap/pulsemap/monday"
	"github.com/pulsemap/pulsemap/sync"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = database.Close() })

	if err := db.InitSchema(database); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	return database
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

// seedMirror fills the store with two workspaces, three boards in assorted
// health states, one relationship, two users, and a just-completed full sync.
func seedMirror(t *testing.T, database *sql.DB) {
	t.Helper()

	now := time.Now()
	workspaces := []models.Workspace{
		{ID: "101", Name: "Engineering"},
		{ID: "102", Name: "Marketing"},
	}
	for i := range workspaces {
		if err := db.SaveWorkspace(database, &workspaces[i]); err != nil {
			t.Fatalf("failed to save workspace: %v", err)
		}
	}

	boards := []models.Board{
		{
			ID: "1001", Name: "Roadmap", State: models.BoardStateActive,
			WorkspaceID: strPtr("101"), ItemCount: 25,
			CreatedAt:       now.AddDate(0, 0, -60),
			RemoteUpdatedAt: timePtr(now.AddDate(0, 0, -2)),
		},
		{
			ID: "1002", Name: "Releases", State: models.BoardStateActive,
			WorkspaceID: strPtr("101"), ItemCount: 1,
			CreatedAt:       now.AddDate(0, 0, -60),
			RemoteUpdatedAt: timePtr(now.AddDate(0, 0, -20)),
		},
		{
			ID: "1003", Name: "Campaigns", State: models.BoardStateArchived,
			WorkspaceID: strPtr("102"), ItemCount: 7,
			CreatedAt: now.AddDate(0, 0, -60),
		},
	}
	for i := range boards {
		if err := db.SaveBoard(database, &boards[i]); err != nil {
			t.Fatalf("failed to save board: %v", err)
		}
	}

	columns := []models.BoardColumn{
		{ID: "name", BoardID: "1001", Title: "Name", Type: "name", Position: 0},
		{ID: "connect_1", BoardID: "1001", Title: "Linked Releases", Type: "board_relation", Settings: `{"boardIds":[1002]}`, Position: 1},
	}
	if err := db.ReplaceBoardColumns(database, "1001", columns); err != nil {
		t.Fatalf("failed to save columns: %v", err)
	}

	rel := models.BoardRelationship{
		SourceBoardID:  "1001",
		TargetBoardID:  "1002",
		RelationType:   models.RelationTypeConnectBoards,
		SourceColumnID: "connect_1",
	}
	if err := db.SaveRelationship(database, &rel); err != nil {
		t.Fatalf("failed to save relationship: %v", err)
	}

	users := []models.User{
		{ID: "u1", Name: "Ada Admin", Email: "ada@example.com", Enabled: true, IsAdmin: true},
		{ID: "u2", Name: "Gus Guest", Email: "gus@example.com", Enabled: true, IsGuest: true},
	}
	for i := range users {
		if err := db.SaveUser(database, &users[i]); err != nil {
			t.Fatalf("failed to save user: %v", err)
		}
	}

	run, err := db.StartSyncRun(database, "01HX0000000000000000000001", models.SyncKindFull, "")
	if err != nil {
		t.Fatalf("failed to start sync run: %v", err)
	}
	run.BoardsProcessed = 3
	if err := db.CompleteSyncRun(database, run); err != nil {
		t.Fatalf("failed to complete sync run: %v", err)
	}
}

// newTestOrchestrator builds a configured orchestrator whose client points
// nowhere. Tests that use it only exercise local paths.
func newTestOrchestrator(t *testing.T, database *sql.DB) *sync.Orchestrator {
	t.Helper()

	cfg := &sync.Config{
		APIToken:           "test-token",
		FreshForHours:      sync.DefaultFreshForHours,
		FullSyncAfterHours: sync.DefaultFullSyncAfterHours,
		MaxBoardsPerSync:   sync.DefaultMaxBoardsPerSync,
	}
	o := sync.NewOrchestrator(cfg, monday.NewClient("test-token"), database)
	o.SetLogger(log.New(io.Discard, "", 0))
	return o
}
