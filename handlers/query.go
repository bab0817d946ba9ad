// ABOUTME: Universal query tool handler
// ABOUTME: Implements flexible filtering across all mirrored entity types
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

type QueryHandlers struct {
	db *sql.DB
}

func NewQueryHandlers(database *sql.DB) *QueryHandlers {
	return &QueryHandlers{db: database}
}

type QueryMirrorInput struct {
	EntityType string                 `json:"entity_type" jsonschema:"Type of entity to query (workspace, board, relationship, user)"`
	Query      string                 `json:"query,omitempty" jsonschema:"Case-insensitive name match"`
	Filters    map[string]interface{} `json:"filters,omitempty" jsonschema:"Additional filters as key-value pairs (board: workspace_id, state, health; relationship: board_id, relation_type)"`
	Limit      int                    `json:"limit,omitempty" jsonschema:"Maximum results to return (default 10)"`
}

type QueryMirrorOutput struct {
	EntityType string        `json:"entity_type"`
	Results    []interface{} `json:"results"`
	Count      int           `json:"count"`
}

func (h *QueryHandlers) QueryMirror(ctx context.Context, req *mcp.CallToolRequest, input QueryMirrorInput) (*mcp.CallToolResult, QueryMirrorOutput, error) {
	// Set default limit
	if input.Limit == 0 {
		input.Limit = 10
	}

	switch input.EntityType {
	case "workspace":
		return h.queryWorkspaces(input)
	case "board":
		return h.queryBoards(input)
	case "relationship":
		return h.queryRelationships(input)
	case "user":
		return h.queryUsers(input)
	default:
		return nil, QueryMirrorOutput{}, fmt.Errorf("invalid entity_type: %s (valid: workspace, board, relationship, user)", input.EntityType)
	}
}

func (h *QueryHandlers) queryWorkspaces(input QueryMirrorInput) (*mcp.CallToolResult, QueryMirrorOutput, error) {
	workspaces, err := db.GetWorkspaces(h.db)
	if err != nil {
		return nil, QueryMirrorOutput{}, fmt.Errorf("failed to fetch workspaces: %w", err)
	}

	var results []interface{}
	for i := range workspaces {
		if !nameMatches(workspaces[i].Name, input.Query) {
			continue
		}
		results = append(results, workspaces[i])
		if len(results) >= input.Limit {
			break
		}
	}

	return &mcp.CallToolResult{}, QueryMirrorOutput{
		EntityType: "workspace",
		Results:    results,
		Count:      len(results),
	}, nil
}

func (h *QueryHandlers) queryBoards(input QueryMirrorInput) (*mcp.CallToolResult, QueryMirrorOutput, error) {
	// Narrow by workspace up front when the filter is present; the
	// remaining filters are applied in-memory over the mirror.
	var boards []models.Board
	var err error
	if workspaceID := stringFilter(input.Filters, "workspace_id"); workspaceID != "" {
		boards, err = db.GetBoardsByWorkspace(h.db, workspaceID)
	} else {
		boards, err = db.GetBoards(h.db)
	}
	if err != nil {
		return nil, QueryMirrorOutput{}, fmt.Errorf("failed to fetch boards: %w", err)
	}

	state := stringFilter(input.Filters, "state")
	health := stringFilter(input.Filters, "health")
	now := time.Now()

	var results []interface{}
	for i := range boards {
		b := &boards[i]
		if !nameMatches(b.Name, input.Query) {
			continue
		}
		if state != "" && b.State != state {
			continue
		}
		if health != "" && models.ClassifyBoardHealth(b, now) != health {
			continue
		}
		results = append(results, *b)
		if len(results) >= input.Limit {
			break
		}
	}

	return &mcp.CallToolResult{}, QueryMirrorOutput{
		EntityType: "board",
		Results:    results,
		Count:      len(results),
	}, nil
}

func (h *QueryHandlers) queryRelationships(input QueryMirrorInput) (*mcp.CallToolResult, QueryMirrorOutput, error) {
	var relationships []models.BoardRelationship
	var err error
	if boardID := stringFilter(input.Filters, "board_id"); boardID != "" {
		relationships, err = db.GetRelationshipsForBoard(h.db, boardID)
	} else {
		relationships, err = db.GetRelationships(h.db)
	}
	if err != nil {
		return nil, QueryMirrorOutput{}, fmt.Errorf("failed to fetch relationships: %w", err)
	}

	relationType := stringFilter(input.Filters, "relation_type")

	var results []interface{}
	for i := range relationships {
		if relationType != "" && relationships[i].RelationType != relationType {
			continue
		}
		results = append(results, relationships[i])
		if len(results) >= input.Limit {
			break
		}
	}

	return &mcp.CallToolResult{}, QueryMirrorOutput{
		EntityType: "relationship",
		Results:    results,
		Count:      len(results),
	}, nil
}

func (h *QueryHandlers) queryUsers(input QueryMirrorInput) (*mcp.CallToolResult, QueryMirrorOutput, error) {
	users, err := db.GetUsers(h.db)
	if err != nil {
		return nil, QueryMirrorOutput{}, fmt.Errorf("failed to fetch users: %w", err)
	}

	adminsOnly := boolFilter(input.Filters, "admins_only")
	includeGuests := boolFilter(input.Filters, "include_guests")

	var results []interface{}
	for i := range users {
		u := &users[i]
		if !nameMatches(u.Name, input.Query) && !nameMatches(u.Email, input.Query) {
			continue
		}
		if adminsOnly && !u.IsAdmin {
			continue
		}
		if u.IsGuest && !includeGuests {
			continue
		}
		results = append(results, *u)
		if len(results) >= input.Limit {
			break
		}
	}

	return &mcp.CallToolResult{}, QueryMirrorOutput{
		EntityType: "user",
		Results:    results,
		Count:      len(results),
	}, nil
}

func nameMatches(name, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(query))
}

func stringFilter(filters map[string]interface{}, key string) string {
	if filters == nil {
		return ""
	}
	if v, ok := filters[key].(string); ok {
		return v
	}
	return ""
}

func boolFilter(filters map[string]interface{}, key string) bool {
	if filters == nil {
		return false
	}
	if v, ok := filters[key].(bool); ok {
		return v
	}
	return false
}
