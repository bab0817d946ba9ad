// ABOUTME: MCP prompt handlers for reusable mirror workflow templates
// ABOUTME: Provides standardized prompts for health reviews and sync analysis
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pulsemap/pulsemap/db"
	"github.com/pulsemap/pulsemap/models"
)

type PromptHandlers struct {
	db *sql.DB
}

func NewPromptHandlers(database *sql.DB) *PromptHandlers {
	return &PromptHandlers{db: database}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	arguments := request.Params.Arguments
	switch name {
	case "workspace-health-report":
		return h.getWorkspaceHealthReportPrompt(arguments)
	case "board-activity-review":
		return h.getBoardActivityReviewPrompt(arguments)
	case "stale-board-cleanup":
		return h.getStaleBoardCleanupPrompt(arguments)
	case "sync-history-review":
		return h.getSyncHistoryReviewPrompt(arguments)
	case "org-overview":
		return h.getOrgOverviewPrompt(arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", name)
	}
}

func (h *PromptHandlers) getWorkspaceHealthReportPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	workspaceID, ok := args["workspace_id"]
	if !ok {
		return nil, fmt.Errorf("workspace_id is required")
	}

	workspace, err := db.GetWorkspace(h.db, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workspace: %w", err)
	}
	if workspace == nil {
		return nil, fmt.Errorf("workspace not found: %s", workspaceID)
	}

	boards, err := db.GetBoardsByWorkspace(h.db, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workspace boards: %w", err)
	}

	now := time.Now()
	health := models.ScoreWorkspace(workspace, boards, now)

	// Build the prompt
	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Please review the health of workspace: %s\n\n", workspace.Name))
	promptText.WriteString(fmt.Sprintf("Health Score: %.0f/100\n", health.Score))
	promptText.WriteString(fmt.Sprintf("Boards: %d total (%d healthy, %d warning, %d inactive, %d abandoned)\n",
		health.TotalBoards, health.HealthyBoards, health.WarningBoards, health.InactiveBoards, health.AbandonedBoards))
	promptText.WriteString(fmt.Sprintf("Average Items per Board: %.1f\n", health.AverageItems))

	if len(boards) > 0 {
		promptText.WriteString("\nBoards:\n")
		for i := range boards {
			status := models.ClassifyBoardHealth(&boards[i], now)
			promptText.WriteString(fmt.Sprintf("  - %s: %s, %d items", boards[i].Name, status, boards[i].ItemCount))
			if boards[i].RemoteUpdatedAt != nil {
				promptText.WriteString(fmt.Sprintf(", last activity %s", boards[i].RemoteUpdatedAt.Format("2006-01-02")))
			}
			promptText.WriteString("\n")
		}
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. An assessment of how actively this workspace is used")
	promptText.WriteString("\n2. Boards that should be archived or revived, with reasons")
	promptText.WriteString("\n3. Anything unusual in the activity pattern")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Health report for workspace: %s", workspace.Name),
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: promptText.String(),
				},
			},
		},
	}, nil
}

func (h *PromptHandlers) getBoardActivityReviewPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	boardID, ok := args["board_id"]
	if !ok {
		return nil, fmt.Errorf("board_id is required")
	}

	board, err := db.GetBoard(h.db, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch board: %w", err)
	}
	if board == nil {
		return nil, fmt.Errorf("board not found: %s", boardID)
	}

	columns, err := db.GetBoardColumns(h.db, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch board columns: %w", err)
	}

	relationships, err := db.GetRelationshipsForBoard(h.db, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch board relationships: %w", err)
	}

	// Get workspace name if available
	var workspaceName string
	if board.WorkspaceID != nil {
		workspace, err := db.GetWorkspace(h.db, *board.WorkspaceID)
		if err == nil && workspace != nil {
			workspaceName = workspace.Name
		}
	}

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Please review the activity of board: %s\n\n", board.Name))
	promptText.WriteString(fmt.Sprintf("State: %s\n", board.State))
	promptText.WriteString(fmt.Sprintf("Health: %s\n", models.ClassifyBoardHealth(board, time.Now())))
	promptText.WriteString(fmt.Sprintf("Items: %d\n", board.ItemCount))
	if workspaceName != "" {
		promptText.WriteString(fmt.Sprintf("Workspace: %s\n", workspaceName))
	}
	if board.RemoteUpdatedAt != nil {
		promptText.WriteString(fmt.Sprintf("Last Remote Activity: %s\n", board.RemoteUpdatedAt.Format("2006-01-02")))
	}
	if len(columns) > 0 {
		promptText.WriteString(fmt.Sprintf("\nColumns: %d\n", len(columns)))
		for _, col := range columns {
			promptText.WriteString(fmt.Sprintf("  - %s (%s)\n", col.Title, col.Type))
		}
	}
	if len(relationships) > 0 {
		promptText.WriteString(fmt.Sprintf("\nConnections: %d links to other boards\n", len(relationships)))
		for _, rel := range relationships {
			if rel.SourceBoardID == boardID {
				promptText.WriteString(fmt.Sprintf("  - %s to board %s\n", rel.RelationType, rel.TargetBoardID))
			} else {
				promptText.WriteString(fmt.Sprintf("  - %s from board %s\n", rel.RelationType, rel.SourceBoardID))
			}
		}
	}

	promptText.WriteString("\nPlease analyze this board and provide:")
	promptText.WriteString("\n1. A summary of what this board appears to be used for")
	promptText.WriteString("\n2. Whether its activity level matches its role")
	promptText.WriteString("\n3. How its connections tie it into the rest of the org")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Activity review for board: %s", board.Name),
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: promptText.String(),
				},
			},
		},
	}, nil
}

func (h *PromptHandlers) getStaleBoardCleanupPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	boards, err := db.GetBoards(h.db)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch boards: %w", err)
	}

	now := time.Now()
	var promptText strings.Builder
	promptText.WriteString("Boards that look stale and may need cleanup:\n\n")

	count := 0
	for i := range boards {
		b := &boards[i]
		if b.State != models.BoardStateActive {
			continue
		}
		health := models.ClassifyBoardHealth(b, now)
		if health != models.HealthWarning && health != models.HealthAbandoned {
			continue
		}
		promptText.WriteString(fmt.Sprintf("- %s (%s, %d items", b.Name, health, b.ItemCount))
		if b.RemoteUpdatedAt != nil {
			promptText.WriteString(fmt.Sprintf(", last activity %s", b.RemoteUpdatedAt.Format("2006-01-02")))
		}
		promptText.WriteString(")\n")
		count++
	}

	if count == 0 {
		promptText.WriteString("All active boards show recent activity.\n")
	}

	promptText.WriteString("\nPlease:")
	promptText.WriteString("\n1. Prioritize which boards to archive first")
	promptText.WriteString("\n2. Flag any that may be dormant on purpose (reference or template boards)")
	promptText.WriteString("\n3. Suggest owners to confirm with before archiving")

	return &mcp.GetPromptResult{
		Description: "Stale board cleanup suggestions",
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: promptText.String(),
				},
			},
		},
	}, nil
}

func (h *PromptHandlers) getSyncHistoryReviewPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	runs, err := db.RecentSyncRuns(h.db, 20)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sync runs: %w", err)
	}

	var promptText strings.Builder
	promptText.WriteString("Please review the recent sync history of this mirror:\n\n")

	if len(runs) == 0 {
		promptText.WriteString("No sync has ever run.\n")
	}

	failures := 0
	for _, run := range runs {
		promptText.WriteString(fmt.Sprintf("- %s sync at %s: %s", run.Kind, run.StartedAt.Format("2006-01-02 15:04"), run.Status))
		if run.Status == models.SyncStatusCompleted {
			promptText.WriteString(fmt.Sprintf(" (%d boards, %.1fs)", run.BoardsProcessed, run.Duration().Seconds()))
		}
		if run.Error != "" {
			promptText.WriteString(fmt.Sprintf(" - %s", run.Error))
		}
		if run.Status == models.SyncStatusFailed {
			failures++
		}
		promptText.WriteString("\n")
	}

	if failures > 0 {
		promptText.WriteString(fmt.Sprintf("\n%d of the last %d runs failed.\n", failures, len(runs)))
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. An assessment of sync reliability")
	promptText.WriteString("\n2. Patterns in any failures (time of day, strategy, error type)")
	promptText.WriteString("\n3. Whether the sync cadence looks appropriate for how fast the org changes")

	return &mcp.GetPromptResult{
		Description: "Sync history review",
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: promptText.String(),
				},
			},
		},
	}, nil
}

func (h *PromptHandlers) getOrgOverviewPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	structure, err := db.GetOrganizationalStructure(h.db)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch organizational structure: %w", err)
	}

	var promptText strings.Builder
	promptText.WriteString("Complete overview of the mirrored organization:\n\n")
	promptText.WriteString(fmt.Sprintf("Workspaces: %d\n", len(structure.Workspaces)))
	promptText.WriteString(fmt.Sprintf("Boards: %d\n", len(structure.Boards)))
	promptText.WriteString(fmt.Sprintf("Board Relationships: %d\n", len(structure.Relationships)))
	promptText.WriteString(fmt.Sprintf("Users: %d\n", len(structure.Users)))
	if structure.LastScanned != nil {
		promptText.WriteString(fmt.Sprintf("Last Synced: %s\n", structure.LastScanned.Format("2006-01-02 15:04")))
	}

	boardsPerWorkspace := make(map[string]int)
	for i := range structure.Boards {
		if structure.Boards[i].WorkspaceID != nil {
			boardsPerWorkspace[*structure.Boards[i].WorkspaceID]++
		}
	}

	if len(structure.Workspaces) > 0 {
		promptText.WriteString("\nWorkspaces:\n")
		for _, ws := range structure.Workspaces {
			promptText.WriteString(fmt.Sprintf("  - %s: %d boards\n", ws.Name, boardsPerWorkspace[ws.ID]))
		}
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. A summary of how this organization structures its work")
	promptText.WriteString("\n2. Which workspaces carry the most activity")
	promptText.WriteString("\n3. Notable cross-board dependencies worth understanding")

	return &mcp.GetPromptResult{
		Description: "Organizational overview",
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: promptText.String(),
				},
			},
		},
	}, nil
}
