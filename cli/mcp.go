// ABOUTME: MCP server subcommand
// ABOUTME: Exposes the mirror to MCP clients over stdio as tools, resources, and prompts
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pulsemap/pulsemap/handlers"
	"github.com/pulsemap/pulsemap/sync"
)

// MCPCommand starts the MCP server on stdio
func MCPCommand(db *sql.DB) error {
	log.Println("Starting PulseMap MCP Server...")

	cfg, err := sync.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	orchestrator, cleanup := buildOrchestrator(cfg, db)
	defer cleanup()

	// Create handlers
	syncHandlers := handlers.NewSyncHandlers(orchestrator, db)
	healthHandlers := handlers.NewHealthHandlers(db)
	vizHandlers := handlers.NewVizHandlers(db)
	queryHandlers := handlers.NewQueryHandlers(db)
	resourceHandlers := handlers.NewResourceHandlers(db)
	promptHandlers := handlers.NewPromptHandlers(db)

	// Create MCP server
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "pulsemap",
		Version: "0.1.0",
	}, nil)

	// Register tools
	mcp.AddTool(server, &mcp.Tool{
		Name:        "smart_sync",
		Description: "Refresh the mirror only as much as its age requires, then report its contents",
	}, syncHandlers.SmartSync)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "full_sync",
		Description: "Rebuild the mirror from the entire remote organizational graph",
	}, syncHandlers.FullSync)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "incremental_sync",
		Description: "Fetch only recently active boards and fold them into the mirror",
	}, syncHandlers.IncrementalSync)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sync_workspace",
		Description: "Sync a single workspace's boards and relationships by ID or name",
	}, syncHandlers.SyncWorkspace)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "cache_status",
		Description: "Report mirror freshness, size, and whether a refresh is due",
	}, syncHandlers.CacheStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_mirror",
		Description: "Run read-only consistency checks over the mirrored graph",
	}, syncHandlers.ValidateMirror)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_sync_runs",
		Description: "List recent sync runs with their status, counts, and durations",
	}, syncHandlers.ListSyncRuns)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_structure",
		Description: "Summarize the mirrored organization: workspaces, boards, relationships, users",
	}, syncHandlers.GetStructure)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "board_health",
		Description: "Classify one board's activity health from the mirror",
	}, healthHandlers.BoardHealth)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "workspace_health",
		Description: "Score workspace health from board activity, for one workspace or all",
	}, healthHandlers.WorkspaceHealth)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Generate a Graphviz DOT graph of boards and their relationships",
	}, vizHandlers.GenerateGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "dashboard",
		Description: "Render a text dashboard of mirror statistics and workspace health",
	}, vizHandlers.Dashboard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_mirror",
		Description: "Universal query tool for flexible filtering across all mirrored entity types (workspace, board, relationship, user)",
	}, queryHandlers.QueryMirror)

	// Register resources
	server.AddResource(&mcp.Resource{
		Name:        "structure",
		URI:         "pulsemap://structure",
		Description: "Complete mirrored organizational structure",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResource(&mcp.Resource{
		Name:        "workspaces",
		URI:         "pulsemap://workspaces",
		Description: "All mirrored workspaces",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResource(&mcp.Resource{
		Name:        "boards",
		URI:         "pulsemap://boards",
		Description: "All mirrored boards",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResource(&mcp.Resource{
		Name:        "relationships",
		URI:         "pulsemap://relationships",
		Description: "All discovered board-to-board relationships",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResource(&mcp.Resource{
		Name:        "users",
		URI:         "pulsemap://users",
		Description: "All mirrored users",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResource(&mcp.Resource{
		Name:        "sync-runs",
		URI:         "pulsemap://sync-runs",
		Description: "Recent sync runs with provenance",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "workspace",
		URITemplate: "pulsemap://workspaces/{id}",
		Description: "One workspace with its boards",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "board",
		URITemplate: "pulsemap://boards/{id}",
		Description: "One board with its columns and relationships",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	// Register prompts
	server.AddPrompt(&mcp.Prompt{
		Name:        "workspace-health-report",
		Description: "Summarize one workspace's health with per-board detail",
		Arguments: []*mcp.PromptArgument{
			{Name: "workspace_id", Description: "Workspace to report on", Required: true},
		},
	}, promptHandlers.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "board-activity-review",
		Description: "Review one board's state, columns, and relationships",
		Arguments: []*mcp.PromptArgument{
			{Name: "board_id", Description: "Board to review", Required: true},
		},
	}, promptHandlers.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "stale-board-cleanup",
		Description: "List active boards whose staleness suggests archiving",
	}, promptHandlers.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "sync-history-review",
		Description: "Review recent sync runs and flag failures",
	}, promptHandlers.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "org-overview",
		Description: "High-level overview of the mirrored organization",
	}, promptHandlers.GetPrompt)

	// Run server on stdio transport
	ctx := context.Background()
	return server.Run(ctx, &mcp.StdioTransport{})
}
