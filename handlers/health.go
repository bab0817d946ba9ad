// ABOUTME: Board and workspace health MCP tool handlers
// ABOUTME: Implements board_health and workspace_health scoring tools
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pulsemap/pulsemap/db"
	"github.com/pulsemap/pulsemap/models"
)

type HealthHandlers struct {
	db *sql.DB
}

func NewHealthHandlers(database *sql.DB) *HealthHandlers {
	return &HealthHandlers{db: database}
}

type BoardHealthInput struct {
	BoardID string `json:"board_id" jsonschema:"Board ID (required)"`
}

type BoardHealthOutput struct {
	BoardID            string `json:"board_id"`
	Name               string `json:"name"`
	State              string `json:"state"`
	Health             string `json:"health"`
	ItemCount          int    `json:"item_count"`
	RemoteUpdatedAt    string `json:"remote_updated_at,omitempty"`
	DaysSinceUpdate    int    `json:"days_since_update"`
	MirroredSinceDays  int    `json:"mirrored_since_days"`
}

func (h *HealthHandlers) BoardHealth(_ context.Context, request *mcp.CallToolRequest, input BoardHealthInput) (*mcp.CallToolResult, BoardHealthOutput, error) {
	if input.BoardID == "" {
		return nil, BoardHealthOutput{}, fmt.Errorf("board_id is required")
	}

	board, err := db.GetBoard(h.db, input.BoardID)
	if err != nil {
		return nil, BoardHealthOutput{}, fmt.Errorf("failed to fetch board: %w", err)
	}
	if board == nil {
		return nil, BoardHealthOutput{}, fmt.Errorf("board not found: %s", input.BoardID)
	}

	now := time.Now()
	output := BoardHealthOutput{
		BoardID:           board.ID,
		Name:              board.Name,
		State:             board.State,
		Health:            models.ClassifyBoardHealth(board, now),
		ItemCount:         board.ItemCount,
		DaysSinceUpdate:   -1,
		MirroredSinceDays: int(now.Sub(board.CreatedAt).Hours() / 24),
	}
	if board.RemoteUpdatedAt != nil {
		output.RemoteUpdatedAt = board.RemoteUpdatedAt.Format("2006-01-02T15:04:05Z07:00")
		output.DaysSinceUpdate = int(now.Sub(*board.RemoteUpdatedAt).Hours() / 24)
	}

	return nil, output, nil
}

type WorkspaceHealthInput struct {
	WorkspaceID string `json:"workspace_id,omitempty" jsonschema:"Workspace ID to score; omit to score every workspace"`
}

type WorkspaceHealthOutput struct {
	WorkspaceID     string  `json:"workspace_id"`
	WorkspaceName   string  `json:"workspace_name,omitempty"`
	Score           float64 `json:"score"`
	TotalBoards     int     `json:"total_boards"`
	HealthyBoards   int     `json:"healthy_boards"`
	WarningBoards   int     `json:"warning_boards"`
	InactiveBoards  int     `json:"inactive_boards"`
	AbandonedBoards int     `json:"abandoned_boards"`
	AverageItems    float64 `json:"average_items"`
}

type WorkspaceHealthListOutput struct {
	Workspaces []WorkspaceHealthOutput `json:"workspaces"`
}

func (h *HealthHandlers) WorkspaceHealth(_ context.Context, request *mcp.CallToolRequest, input WorkspaceHealthInput) (*mcp.CallToolResult, WorkspaceHealthListOutput, error) {
	var workspaces []models.Workspace
	if input.WorkspaceID != "" {
		ws, err := db.GetWorkspace(h.db, input.WorkspaceID)
		if err != nil {
			return nil, WorkspaceHealthListOutput{}, fmt.Errorf("failed to fetch workspace: %w", err)
		}
		if ws == nil {
			return nil, WorkspaceHealthListOutput{}, fmt.Errorf("workspace not found: %s", input.WorkspaceID)
		}
		workspaces = []models.Workspace{*ws}
	} else {
		all, err := db.GetWorkspaces(h.db)
		if err != nil {
			return nil, WorkspaceHealthListOutput{}, fmt.Errorf("failed to fetch workspaces: %w", err)
		}
		workspaces = all
	}

	now := time.Now()
	output := WorkspaceHealthListOutput{Workspaces: make([]WorkspaceHealthOutput, len(workspaces))}
	for i := range workspaces {
		boards, err := db.GetBoardsByWorkspace(h.db, workspaces[i].ID)
		if err != nil {
			return nil, WorkspaceHealthListOutput{}, fmt.Errorf("failed to fetch workspace boards: %w", err)
		}
		output.Workspaces[i] = workspaceHealthToOutput(models.ScoreWorkspace(&workspaces[i], boards, now))
	}

	return nil, output, nil
}

func workspaceHealthToOutput(wh models.WorkspaceHealth) WorkspaceHealthOutput {
	return WorkspaceHealthOutput{
		WorkspaceID:     wh.WorkspaceID,
		WorkspaceName:   wh.WorkspaceName,
		Score:           wh.Score,
		TotalBoards:     wh.TotalBoards,
		HealthyBoards:   wh.HealthyBoards,
		WarningBoards:   wh.WarningBoards,
		InactiveBoards:  wh.InactiveBoards,
		AbandonedBoards: wh.AbandonedBoards,
		AverageItems:    wh.AverageItems,
	}
}
