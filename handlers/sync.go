// ABOUTME: Sync orchestration MCP tool handlers
// ABOUTME: Exposes smart_sync, full_sync, incremental_sync, sync_workspace, and freshness tools
package handlers

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pulsemap/pulsemap/db"
	"github.com/pulsemap/pulsemap/models"
	"github.com/pulsemap/pulsemap/sync"
)

type SyncHandlers struct {
	orchestrator *sync.Orchestrator
	db           *sql.DB
}

func NewSyncHandlers(orchestrator *sync.Orchestrator, database *sql.DB) *SyncHandlers {
	return &SyncHandlers{orchestrator: orchestrator, db: database}
}

type SyncRunOutput struct {
	ID              string  `json:"id"`
	Kind            string  `json:"kind"`
	Scope           string  `json:"scope,omitempty"`
	Status          string  `json:"status"`
	BoardsProcessed int     `json:"boards_processed"`
	ItemsCreated    int     `json:"items_created"`
	ItemsUpdated    int     `json:"items_updated"`
	ItemsDeleted    int     `json:"items_deleted"`
	StartedAt       string  `json:"started_at"`
	CompletedAt     string  `json:"completed_at,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
	Error           string  `json:"error,omitempty"`
}

func syncRunToOutput(run *models.SyncRun) SyncRunOutput {
	out := SyncRunOutput{
		ID:              run.ID,
		Kind:            run.Kind,
		Scope:           run.Scope,
		Status:          run.Status,
		BoardsProcessed: run.BoardsProcessed,
		ItemsCreated:    run.ItemsCreated,
		ItemsUpdated:    run.ItemsUpdated,
		ItemsDeleted:    run.ItemsDeleted,
		StartedAt:       run.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		DurationSeconds: run.Duration().Seconds(),
		Error:           run.Error,
	}
	if run.CompletedAt != nil {
		out.CompletedAt = run.CompletedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return out
}

type SmartSyncInput struct{}

type SmartSyncOutput struct {
	Strategy           string         `json:"strategy"`
	Run                *SyncRunOutput `json:"run,omitempty"`
	TotalWorkspaces    int            `json:"total_workspaces"`
	TotalBoards        int            `json:"total_boards"`
	TotalRelationships int            `json:"total_relationships"`
	TotalUsers         int            `json:"total_users"`
	Message            string         `json:"message"`
}

// SmartSync refreshes the mirror only as much as its age requires, then
// reports what the mirror holds.
func (h *SyncHandlers) SmartSync(ctx context.Context, request *mcp.CallToolRequest, input SmartSyncInput) (*mcp.CallToolResult, SmartSyncOutput, error) {
	result, err := h.orchestrator.SmartSync(ctx)
	if err != nil {
		return nil, SmartSyncOutput{}, fmt.Errorf("smart sync failed: %w", err)
	}

	output := SmartSyncOutput{Strategy: result.Strategy}
	if result.Run != nil {
		run := syncRunToOutput(result.Run)
		output.Run = &run
		output.Message = fmt.Sprintf("ran a %s sync, %d boards processed", result.Run.Kind, result.Run.BoardsProcessed)
	} else {
		output.Message = "mirror is fresh, no sync needed"
	}
	if result.Structure != nil {
		output.TotalWorkspaces = len(result.Structure.Workspaces)
		output.TotalBoards = len(result.Structure.Boards)
		output.TotalRelationships = len(result.Structure.Relationships)
		output.TotalUsers = len(result.Structure.Users)
	}

	return nil, output, nil
}

type FullSyncInput struct{}

func (h *SyncHandlers) FullSync(ctx context.Context, request *mcp.CallToolRequest, input FullSyncInput) (*mcp.CallToolResult, SyncRunOutput, error) {
	run, err := h.orchestrator.FullSync(ctx)
	if err != nil {
		return nil, SyncRunOutput{}, fmt.Errorf("full sync failed: %w", err)
	}

	return nil, syncRunToOutput(run), nil
}

type IncrementalSyncInput struct{}

func (h *SyncHandlers) IncrementalSync(ctx context.Context, request *mcp.CallToolRequest, input IncrementalSyncInput) (*mcp.CallToolResult, SyncRunOutput, error) {
	run, err := h.orchestrator.IncrementalSync(ctx)
	if err != nil {
		return nil, SyncRunOutput{}, fmt.Errorf("incremental sync failed: %w", err)
	}

	return nil, syncRunToOutput(run), nil
}

type SyncWorkspaceInput struct {
	Workspace string `json:"workspace" jsonschema:"Workspace ID or exact workspace name (required)"`
}

func (h *SyncHandlers) SyncWorkspace(ctx context.Context, request *mcp.CallToolRequest, input SyncWorkspaceInput) (*mcp.CallToolResult, SyncRunOutput, error) {
	if input.Workspace == "" {
		return nil, SyncRunOutput{}, fmt.Errorf("workspace is required")
	}

	run, err := h.orchestrator.SyncWorkspace(ctx, input.Workspace)
	if err != nil {
		return nil, SyncRunOutput{}, fmt.Errorf("workspace sync failed: %w", err)
	}

	return nil, syncRunToOutput(run), nil
}

type CacheStatusInput struct{}

type CacheStatusOutput struct {
	Healthy         bool    `json:"healthy"`
	TotalWorkspaces int     `json:"total_workspaces"`
	TotalBoards     int     `json:"total_boards"`
	LastSync        string  `json:"last_sync,omitempty"`
	CacheAgeHours   float64 `json:"cache_age_hours"`
	NeedsRefresh    bool    `json:"needs_refresh"`
}

func (h *SyncHandlers) CacheStatus(_ context.Context, request *mcp.CallToolRequest, input CacheStatusInput) (*mcp.CallToolResult, CacheStatusOutput, error) {
	status, err := h.orchestrator.CacheStatus()
	if err != nil {
		return nil, CacheStatusOutput{}, fmt.Errorf("failed to read cache status: %w", err)
	}

	output := CacheStatusOutput{
		Healthy:         status.Healthy,
		TotalWorkspaces: status.TotalWorkspaces,
		TotalBoards:     status.TotalBoards,
		NeedsRefresh:    status.NeedsRefresh,
	}
	if status.LastSync != nil {
		output.LastSync = status.LastSync.Format("2006-01-02T15:04:05Z07:00")
		output.CacheAgeHours = status.CacheAge.Hours()
	}

	return nil, output, nil
}

type ValidateMirrorInput struct{}

type ValidateMirrorOutput struct {
	Consistent bool     `json:"consistent"`
	Findings   []string `json:"findings,omitempty"`
	Message    string   `json:"message"`
}

func (h *SyncHandlers) ValidateMirror(_ context.Context, request *mcp.CallToolRequest, input ValidateMirrorInput) (*mcp.CallToolResult, ValidateMirrorOutput, error) {
	findings, err := h.orchestrator.ValidateIntegrity()
	if err != nil {
		return nil, ValidateMirrorOutput{}, fmt.Errorf("failed to validate mirror: %w", err)
	}

	output := ValidateMirrorOutput{
		Consistent: len(findings) == 0,
		Findings:   findings,
	}
	if output.Consistent {
		output.Message = "mirror is structurally consistent"
	} else {
		output.Message = fmt.Sprintf("%d integrity findings", len(findings))
	}

	return nil, output, nil
}

type ListSyncRunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum runs to return (default 10)"`
}

type ListSyncRunsOutput struct {
	Runs  []SyncRunOutput `json:"runs"`
	Count int             `json:"count"`
}

func (h *SyncHandlers) ListSyncRuns(_ context.Context, request *mcp.CallToolRequest, input ListSyncRunsInput) (*mcp.CallToolResult, ListSyncRunsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	runs, err := db.RecentSyncRuns(h.db, limit)
	if err != nil {
		return nil, ListSyncRunsOutput{}, fmt.Errorf("failed to list sync runs: %w", err)
	}

	output := ListSyncRunsOutput{Runs: make([]SyncRunOutput, len(runs))}
	for i := range runs {
		output.Runs[i] = syncRunToOutput(&runs[i])
	}
	output.Count = len(output.Runs)

	return nil, output, nil
}

type GetStructureInput struct{}

type WorkspaceSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Boards int    `json:"boards"`
}

type GetStructureOutput struct {
	TotalWorkspaces    int                `json:"total_workspaces"`
	TotalBoards        int                `json:"total_boards"`
	TotalRelationships int                `json:"total_relationships"`
	TotalUsers         int                `json:"total_users"`
	Workspaces         []WorkspaceSummary `json:"workspaces"`
	LastScanned        string             `json:"last_scanned,omitempty"`
}

// GetStructure summarizes the mirrored org. The full entity detail lives
// behind the pulsemap:// resources.
func (h *SyncHandlers) GetStructure(_ context.Context, request *mcp.CallToolRequest, input GetStructureInput) (*mcp.CallToolResult, GetStructureOutput, error) {
	structure, err := db.GetOrganizationalStructure(h.db)
	if err != nil {
		return nil, GetStructureOutput{}, fmt.Errorf("failed to read organizational structure: %w", err)
	}

	boardsPerWorkspace := make(map[string]int)
	for i := range structure.Boards {
		if structure.Boards[i].WorkspaceID != nil {
			boardsPerWorkspace[*structure.Boards[i].WorkspaceID]++
		}
	}

	output := GetStructureOutput{
		TotalWorkspaces:    len(structure.Workspaces),
		TotalBoards:        len(structure.Boards),
		TotalRelationships: len(structure.Relationships),
		TotalUsers:         len(structure.Users),
		Workspaces:         make([]WorkspaceSummary, len(structure.Workspaces)),
	}
	for i, ws := range structure.Workspaces {
		output.Workspaces[i] = WorkspaceSummary{
			ID:     ws.ID,
			Name:   ws.Name,
			Boards: boardsPerWorkspace[ws.ID],
		}
	}
	if structure.LastScanned != nil {
		output.LastScanned = structure.LastScanned.Format("2006-01-02T15:04:05Z07:00")
	}

	return nil, output, nil
}
