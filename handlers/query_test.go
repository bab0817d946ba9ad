// ABOUTME: Query tool test suite
// ABOUTME: Tests the universal query_mirror tool with filtering across entity types
package handlers

import (
	"context"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestQueryMirrorBoards(t *testing.T) {
	database := setupTestDB(t)
	seedMirror(t, database)
	h := NewQueryHandlers(database)

	t.Run("QueryAllBoards", func(t *testing.T) {
		input := QueryMirrorInput{EntityType: "board", Limit: 10}

		_, output, err := h.QueryMirror(context.Background(), &mcp.CallToolRequest{}, input)
		if err != nil {
			t.Fatalf("QueryMirror failed: %v", err)
		}

		if output.EntityType != "board" {
			t.Errorf("expected entity_type board, got %s", output.EntityType)
		}
		if output.Count != 3 {
			t.Errorf("expected 3 boards, got %d", output.Count)
		}
	})

	t.Run("QueryBoardsByName", func(t *testing.T) {
		input := QueryMirrorInput{EntityType: "board", Query: "road", Limit: 10}

		_, output, err := h.QueryMirror(context.Background(), &mcp.CallToolRequest{}, input)
		if err != nil {
			t.Fatalf("QueryMirror failed: %v", err)
		}

		if output.Count != 1 {
			t.Errorf("expected 1 board matching road, got %d", output.Count)
		}
	})

	t.Run("FilterByWorkspace", func(t *testing.T) {
		input := QueryMirrorInput{
			EntityType: "board",
			Filters:    map[string]interface{}{"workspace_id": "101"},
			Limit:      10,
		}

		_, output, err := h.QueryMirror(context.Background(), &mcp.CallToolRequest{}, input)
		if err != nil {
			t.Fatalf("QueryMirror failed: %v", err)
		}

		if output.Count != 2 {
			t.Errorf("expected 2 boards in workspace 101, got %d", output.Count)
		}
	})

	t.Run("FilterByState", func(t *testing.T) {
		input := QueryMirrorInput{
			EntityType: "board",
			Filters:    map[string]interface{}{"state": "archived"},
			Limit:      10,
		}

		_, output, err := h.QueryMirror(context.Background(), &mcp.CallToolRequest{}, input)
		if err != nil {
			t.Fatalf("QueryMirror failed: %v", err)
		}

		if output.Count != 1 {
			t.Errorf("expected 1 archived board, got %d", output.Count)
		}
	})

	t.Run("FilterByHealth", func(t *testing.T) {
		input := QueryMirrorInput{
			EntityType: "board",
			Filters:    map[string]interface{}{"health": "warning"},
			Limit:      10,
		}

		_, output, err := h.QueryMirror(context.Background(), &mcp.CallToolRequest{}, input)
		if err != nil {
			t.Fatalf("QueryMirror failed: %v", err)
		}

		if output.Count != 1 {
			t.Errorf("expected 1 warning board, got %d", output.Count)
		}
	})

	t.Run("LimitResults", func(t *testing.T) {
		input := QueryMirrorInput{EntityType: "board", Limit: 2}

		_, output, err := h.QueryMirror(context.Background(), &mcp.CallToolRequest{}, input)
		if err != nil {
			t.Fatalf("QueryMirror failed: %v", err)
		}

		if output.Count != 2 {
			t.Errorf("expected the limit to cap results at 2, got %d", output.Count)
		}
	})
}

func TestQueryMirrorWorkspaces(t *testing.T) {
	database := setupTestDB(t)
	seedMirror(t, database)
	h := NewQueryHandlers(database)

	t.Run("QueryAllWorkspaces", func(t *testing.T) {
		input := QueryMirrorInput{EntityType: "workspace", Limit: 10}

		_, output, err := h.QueryMirror(context.Background(), &mcp.CallToolRequest{}, input)
		if err != nil {
			t.Fatalf("QueryMirror failed: %v", err)
		}

		if output.EntityType != "workspace" {
			t.Errorf("expected entity_type workspace, got %s", output.EntityType)
		}
		if output.Count != 2 {
			t.Errorf("expected 2 workspaces, got %d", output.Count)
		}
	})

	t.Run("QueryWorkspacesByName", func(t *testing.T) {
		input := QueryMirrorInput{EntityType: "workspace", Query: "engineering", Limit: 10}

		_, output, err := h.QueryMirror(context.Background(), &mcp.CallToolRequest{}, input)
		if err != nil {
			t.Fatalf("QueryMirror failed: %v", err)
		}

		if output.Count != 1 {
			t.Errorf("expected 1 workspace matching engineering, got %d", output.Count)
		}
	})
}

func TestQueryMirrorRelationships(t *testing.T) {
	database := setupTestDB(t)
	seedMirror(t, database)
	h := NewQueryHandlers(database)

	t.Run("QueryByBoardID", func(t *testing.T) {
		input := QueryMirrorInput{
			EntityType: "relationship",
			Filters:    map[string]interface{}{"board_id": "1001"},
			Limit:      10,
		}

		_, output, err := h.QueryMirror(context.Background(), &mcp.CallToolRequest{}, input)
		if err != nil {
			t.Fatalf("QueryMirror failed: %v", err)
		}

		if output.EntityType != "relationship" {
			t.Errorf("expected entity_type relationship, got %s", output.EntityType)
		}
		if output.Count != 1 {
			t.Errorf("expected 1 relationship for board 1001, got %d", output.Count)
		}
	})

	t.Run("QueryByRelationType", func(t *testing.T) {
		input := QueryMirrorInput{
			EntityType: "relationship",
			Filters:    map[string]interface{}{"relation_type": "connect_boards"},
			Limit:      10,
		}

		_, output, err := h.QueryMirror(context.Background(), &mcp.CallToolRequest{}, input)
		if err != nil {
			t.Fatalf("QueryMirror failed: %v", err)
		}

		if output.Count != 1 {
			t.Errorf("expected 1 connect_boards relationship, got %d", output.Count)
		}
	})

	t.Run("QueryByTypeNoMatches", func(t *testing.T) {
		input := QueryMirrorInput{
			EntityType: "relationship",
			Filters:    map[string]interface{}{"relation_type": "mirror"},
			Limit:      10,
		}

		_, output, err := h.QueryMirror(context.Background(), &mcp.CallToolRequest{}, input)
		if err != nil {
			t.Fatalf("QueryMirror failed: %v", err)
		}

		if output.Count != 0 {
			t.Errorf("expected no mirror relationships, got %d", output.Count)
		}
	})
}

func TestQueryMirrorUsers(t *testing.T) {
	database := setupTestDB(t)
	seedMirror(t, database)
	h := NewQueryHandlers(database)

	t.Run("GuestsExcludedByDefault", func(t *testing.T) {
		input := QueryMirrorInput{EntityType: "user", Limit: 10}

		_, output, err := h.QueryMirror(context.Background(), &mcp.CallToolRequest{}, input)
		if err != nil {
			t.Fatalf("QueryMirror failed: %v", err)
		}

		if output.Count != 1 {
			t.Errorf("expected guests to be excluded, got %d users", output.Count)
		}
	})

	t.Run("IncludeGuests", func(t *testing.T) {
		input := QueryMirrorInput{
			EntityType: "user",
			Filters:    map[string]interface{}{"include_guests": true},
			Limit:      10,
		}

		_, output, err := h.QueryMirror(context.Background(), &mcp.CallToolRequest{}, input)
		if err != nil {
			t.Fatalf("QueryMirror failed: %v", err)
		}

		if output.Count != 2 {
			t.Errorf("expected 2 users including guests, got %d", output.Count)
		}
	})

	t.Run("AdminsOnly", func(t *testing.T) {
		input := QueryMirrorInput{
			EntityType: "user",
			Filters:    map[string]interface{}{"admins_only": true},
			Limit:      10,
		}

		_, output, err := h.QueryMirror(context.Background(), &mcp.CallToolRequest{}, input)
		if err != nil {
			t.Fatalf("QueryMirror failed: %v", err)
		}

		if output.Count != 1 {
			t.Errorf("expected 1 admin, got %d", output.Count)
		}
	})

	t.Run("QueryByEmail", func(t *testing.T) {
		input := QueryMirrorInput{EntityType: "user", Query: "ada@", Limit: 10}

		_, output, err := h.QueryMirror(context.Background(), &mcp.CallToolRequest{}, input)
		if err != nil {
			t.Fatalf("QueryMirror failed: %v", err)
		}

		if output.Count != 1 {
			t.Errorf("expected 1 user matching ada@, got %d", output.Count)
		}
	})
}

func TestQueryMirrorInvalidEntityType(t *testing.T) {
	database := setupTestDB(t)
	h := NewQueryHandlers(database)

	input := QueryMirrorInput{EntityType: "item", Limit: 10}

	_, _, err := h.QueryMirror(context.Background(), &mcp.CallToolRequest{}, input)
	if err == nil {
		t.Fatal("expected an error for an invalid entity_type")
	}
	if !strings.Contains(err.Error(), "invalid entity_type") {
		t.Errorf("expected an invalid entity_type error, got %v", err)
	}
}
