// ABOUTME: MCP resource handlers for exposing mirror data
// ABOUTME: Provides read-only access to workspaces, boards, and relationships via URI
package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pulsemap/pulsemap/db"
	"github.com/pulsemap/pulsemap/models"
)

type ResourceHandlers struct {
	db *sql.DB
}

func NewResourceHandlers(database *sql.DB) *ResourceHandlers {
	return &ResourceHandlers{db: database}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	// Parse the URI
	if !strings.HasPrefix(uri, "pulsemap://") {
		return nil, fmt.Errorf("invalid URI scheme: expected pulsemap://")
	}

	path := strings.TrimPrefix(uri, "pulsemap://")
	parts := strings.Split(path, "/")

	switch parts[0] {
	case "structure":
		return h.readStructure()

	case "workspaces":
		if len(parts) == 1 {
			return h.readAllWorkspaces()
		}
		return h.readWorkspace(parts[1])

	case "boards":
		if len(parts) == 1 {
			return h.readAllBoards()
		}
		return h.readBoard(parts[1])

	case "relationships":
		return h.readAllRelationships()

	case "users":
		return h.readAllUsers()

	case "sync-runs":
		return h.readSyncRuns()

	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
}

func (h *ResourceHandlers) readStructure() (*mcp.ReadResourceResult, error) {
	structure, err := db.GetOrganizationalStructure(h.db)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch organizational structure: %w", err)
	}

	data, err := json.MarshalIndent(structure, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal structure: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      "pulsemap://structure",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

func (h *ResourceHandlers) readAllWorkspaces() (*mcp.ReadResourceResult, error) {
	workspaces, err := db.GetWorkspaces(h.db)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workspaces: %w", err)
	}

	data, err := json.MarshalIndent(workspaces, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal workspaces: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      "pulsemap://workspaces",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

func (h *ResourceHandlers) readWorkspace(id string) (*mcp.ReadResourceResult, error) {
	workspace, err := db.GetWorkspace(h.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workspace: %w", err)
	}
	if workspace == nil {
		return nil, fmt.Errorf("workspace not found: %s", id)
	}

	// Include the workspace's boards
	boards, err := db.GetBoardsByWorkspace(h.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workspace boards: %w", err)
	}

	workspaceData := struct {
		models.Workspace
		Boards []models.Board `json:"boards"`
	}{
		Workspace: *workspace,
		Boards:    boards,
	}

	data, err := json.MarshalIndent(workspaceData, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal workspace: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      fmt.Sprintf("pulsemap://workspaces/%s", id),
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

func (h *ResourceHandlers) readAllBoards() (*mcp.ReadResourceResult, error) {
	boards, err := db.GetBoards(h.db)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch boards: %w", err)
	}

	data, err := json.MarshalIndent(boards, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal boards: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      "pulsemap://boards",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

func (h *ResourceHandlers) readBoard(id string) (*mcp.ReadResourceResult, error) {
	board, err := db.GetBoard(h.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch board: %w", err)
	}
	if board == nil {
		return nil, fmt.Errorf("board not found: %s", id)
	}

	// Include columns and discovered relationships
	columns, err := db.GetBoardColumns(h.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch board columns: %w", err)
	}

	relationships, err := db.GetRelationshipsForBoard(h.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch board relationships: %w", err)
	}

	boardData := struct {
		models.Board
		Columns       []models.BoardColumn       `json:"columns"`
		Relationships []models.BoardRelationship `json:"relationships"`
	}{
		Board:         *board,
		Columns:       columns,
		Relationships: relationships,
	}

	data, err := json.MarshalIndent(boardData, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal board: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      fmt.Sprintf("pulsemap://boards/%s", id),
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

func (h *ResourceHandlers) readAllRelationships() (*mcp.ReadResourceResult, error) {
	relationships, err := db.GetRelationships(h.db)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch relationships: %w", err)
	}

	data, err := json.MarshalIndent(relationships, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal relationships: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      "pulsemap://relationships",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

func (h *ResourceHandlers) readAllUsers() (*mcp.ReadResourceResult, error) {
	users, err := db.GetUsers(h.db)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal users: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      "pulsemap://users",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

func (h *ResourceHandlers) readSyncRuns() (*mcp.ReadResourceResult, error) {
	runs, err := db.RecentSyncRuns(h.db, 50)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sync runs: %w", err)
	}

	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sync runs: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      "pulsemap://sync-runs",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
