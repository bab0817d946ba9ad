// ABOUTME: Tests for the monday.com GraphQL client
// ABOUTME: Uses a fake HTTP server to exercise pagination and error translation
package monday

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func decodeRequest(t *testing.T, r *http.Request) graphqlRequest {
	t.Helper()
	var req graphqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Fatalf("Failed to decode request: %v", err)
	}
	return req
}

func TestClientSendsAuthHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "secret-token" {
			t.Errorf("Expected Authorization header, got %q", got)
		}
		if got := r.Header.Get("API-Version"); got == "" {
			t.Error("Expected API-Version header to be set")
		}
		fmt.Fprint(w, `{"data":{"me":{"id":"3001","name":"Dana"}}}`)
	}))
	defer server.Close()

	client := NewClientWithEndpoint("secret-token", server.URL)
	if err := client.TestConnection(context.Background()); err != nil {
		t.Fatalf("TestConnection failed: %v", err)
	}
}

func TestTestConnectionEmptyIdentity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"me":null}}`)
	}))
	defer server.Close()

	client := NewClientWithEndpoint("t", server.URL)
	if err := client.TestConnection(context.Background()); err == nil {
		t.Error("Expected error for null identity")
	}
}

func TestGetWorkspaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"workspaces":[
			{"id":"1001","name":"Product","kind":"open","description":"Product org"},
			{"id":"1002","name":"Operations","kind":"closed","description":""}
		]}}`)
	}))
	defer server.Close()

	client := NewClientWithEndpoint("t", server.URL)
	workspaces, err := client.GetWorkspaces(context.Background())
	if err != nil {
		t.Fatalf("GetWorkspaces failed: %v", err)
	}

	if len(workspaces) != 2 {
		t.Fatalf("Expected 2 workspaces, got %d", len(workspaces))
	}
	if workspaces[0].ID != "1001" || workspaces[0].Kind != "open" {
		t.Errorf("Unexpected first workspace: %+v", workspaces[0])
	}
}

func TestGetBoardsPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		page := int(req.Variables["page"].(float64))

		// Full first page forces a second fetch; short second page stops it
		n := boardPageSize
		if page > 1 {
			n = 1
		}
		boards := make([]map[string]interface{}, 0, n)
		for i := 0; i < n; i++ {
			boards = append(boards, map[string]interface{}{
				"id":    fmt.Sprintf("b%d-%d", page, i),
				"name":  "Board",
				"state": "active",
			})
		}
		resp := map[string]interface{}{"data": map[string]interface{}{"boards": boards}}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Fatalf("Failed to encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClientWithEndpoint("t", server.URL)
	boards, err := client.GetBoards(context.Background(), BoardOptions{})
	if err != nil {
		t.Fatalf("GetBoards failed: %v", err)
	}

	if len(boards) != boardPageSize+1 {
		t.Errorf("Expected %d boards across pages, got %d", boardPageSize+1, len(boards))
	}
}

func TestGetBoardsHonorsLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		boards := make([]map[string]interface{}, 0, boardPageSize)
		for i := 0; i < boardPageSize; i++ {
			boards = append(boards, map[string]interface{}{
				"id":    fmt.Sprintf("b%d", i),
				"name":  "Board",
				"state": "active",
			})
		}
		resp := map[string]interface{}{"data": map[string]interface{}{"boards": boards}}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Fatalf("Failed to encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClientWithEndpoint("t", server.URL)
	boards, err := client.GetBoards(context.Background(), BoardOptions{Limit: 3})
	if err != nil {
		t.Fatalf("GetBoards failed: %v", err)
	}

	if len(boards) != 3 {
		t.Errorf("Expected limit of 3 boards, got %d", len(boards))
	}
}

func TestGetBoardsScopesWorkspaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		ids, ok := req.Variables["workspaceIds"].([]interface{})
		if !ok || len(ids) != 1 || ids[0] != "1001" {
			t.Errorf("Expected workspaceIds [1001], got %v", req.Variables["workspaceIds"])
		}
		fmt.Fprint(w, `{"data":{"boards":[]}}`)
	}))
	defer server.Close()

	client := NewClientWithEndpoint("t", server.URL)
	if _, err := client.GetBoards(context.Background(), BoardOptions{WorkspaceIDs: []string{"1001"}}); err != nil {
		t.Fatalf("GetBoards failed: %v", err)
	}
}

func TestGraphQLErrorTranslated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors":[{"message":"Complexity budget exhausted","extensions":{"code":"COMPLEXITY_BUDGET_EXHAUSTED"}}]}`)
	}))
	defer server.Close()

	client := NewClientWithEndpoint("t", server.URL)
	_, err := client.GetWorkspaces(context.Background())
	if err == nil {
		t.Fatal("Expected error from GraphQL error response")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %T: %v", err, err)
	}
	if apiErr.ErrorCode != "COMPLEXITY_BUDGET_EXHAUSTED" {
		t.Errorf("Expected error code preserved, got %q", apiErr.ErrorCode)
	}
}

func TestHTTPErrorTranslated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error_message":"Not authenticated"}`)
	}))
	defer server.Close()

	client := NewClientWithEndpoint("bad-token", server.URL)
	err := client.TestConnection(context.Background())
	if err == nil {
		t.Fatal("Expected error from 401 response")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", apiErr.StatusCode)
	}
}

func TestLegacyErrorEnvelopeTranslated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error_code":"InvalidVersionException","error_message":"The API version is invalid"}`)
	}))
	defer server.Close()

	client := NewClientWithEndpoint("t", server.URL)
	_, err := client.GetUsers(context.Background())
	if err == nil {
		t.Fatal("Expected error from legacy error envelope")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %T: %v", err, err)
	}
	if apiErr.ErrorCode != "InvalidVersionException" {
		t.Errorf("Expected legacy error code preserved, got %q", apiErr.ErrorCode)
	}
}

func TestGetBoardConnectionsFilters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		if !strings.Contains(req.Query, "boards (ids: $boardIds)") {
			t.Errorf("Expected board columns query, got: %s", req.Query)
		}
		fmt.Fprint(w, `{"data":{"boards":[{"id":"2001","columns":[
			{"id":"status","title":"Status","type":"status","settings_str":"{}"},
			{"id":"connect","title":"Linked","type":"board_relation","settings_str":"{\"boardIds\":[2002]}"},
			{"id":"old_mirror","title":"Old","type":"mirror","settings_str":"{}","archived":true},
			{"id":"dep","title":"Blocked by","type":"dependency","settings_str":"{}"}
		]}]}}`)
	}))
	defer server.Close()

	client := NewClientWithEndpoint("t", server.URL)
	cols, err := client.GetBoardConnections(context.Background(), "2001")
	if err != nil {
		t.Fatalf("GetBoardConnections failed: %v", err)
	}

	if len(cols) != 2 {
		t.Fatalf("Expected 2 relation columns after filtering, got %d", len(cols))
	}
	if cols[0].ID != "connect" || cols[1].ID != "dep" {
		t.Errorf("Unexpected columns: %+v", cols)
	}
}

func TestGetBoardConnectionsUnknownBoard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"boards":[]}}`)
	}))
	defer server.Close()

	client := NewClientWithEndpoint("t", server.URL)
	cols, err := client.GetBoardConnections(context.Background(), "gone")
	if err != nil {
		t.Fatalf("GetBoardConnections failed: %v", err)
	}
	if cols != nil {
		t.Errorf("Expected nil columns for unknown board, got %+v", cols)
	}
}
