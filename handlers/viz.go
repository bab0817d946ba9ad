// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides generate_graph and dashboard tools for agents
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pulsemap/pulsemap/viz"
)

type VizHandlers struct {
	db *sql.DB
}

func NewVizHandlers(database *sql.DB) *VizHandlers {
	return &VizHandlers{db: database}
}

type GenerateGraphInput struct {
	WorkspaceID string `json:"workspace_id,omitempty" jsonschema:"Workspace ID to scope the graph to (optional, full org when omitted)"`
}

type GenerateGraphOutput struct {
	Scope     string `json:"scope"`
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(_ context.Context, request *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	generator := viz.NewGraphGenerator(h.db)

	scope := "org"
	var workspaceID *string
	if input.WorkspaceID != "" {
		workspaceID = &input.WorkspaceID
		scope = input.WorkspaceID
	}

	dot, err := generator.GenerateBoardGraph(workspaceID)
	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	// Count nodes and edges for stats
	nodeCount := strings.Count(dot, "[label=")
	edgeCount := strings.Count(dot, "->")

	return nil, GenerateGraphOutput{
		Scope:     scope,
		DOTSource: dot,
		NodeCount: nodeCount,
		EdgeCount: edgeCount,
	}, nil
}

type DashboardInput struct{}

type DashboardOutput struct {
	Rendered           string `json:"rendered"`
	TotalWorkspaces    int    `json:"total_workspaces"`
	TotalBoards        int    `json:"total_boards"`
	TotalRelationships int    `json:"total_relationships"`
	TotalUsers         int    `json:"total_users"`
	AttentionBoards    int    `json:"attention_boards"`
}

func (h *VizHandlers) Dashboard(_ context.Context, request *mcp.CallToolRequest, input DashboardInput) (*mcp.CallToolResult, DashboardOutput, error) {
	stats, err := viz.GenerateDashboardStats(h.db)
	if err != nil {
		return nil, DashboardOutput{}, fmt.Errorf("failed to generate dashboard: %w", err)
	}

	return nil, DashboardOutput{
		Rendered:           viz.RenderDashboard(stats),
		TotalWorkspaces:    stats.TotalWorkspaces,
		TotalBoards:        stats.TotalBoards,
		TotalRelationships: stats.TotalRelationships,
		TotalUsers:         stats.TotalUsers,
		AttentionBoards:    len(stats.AttentionBoards),
	}, nil
}
