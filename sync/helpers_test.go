// ABOUTME: Shared test fixtures for the sync package
// ABOUTME: Provides a fake monday.com GraphQL server and in-memory store setup
package sync

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pulsemap/pulsemap/db"
	"github.com/pulsemap/pulsemap/monday"
)

// fakeMonday serves canned GraphQL responses in the shapes the client
// queries for. Failure toggles let tests break specific operations.
type fakeMonday struct {
	mu              sync.Mutex
	workspaces      []monday.Workspace
	boards          []monday.Board
	users           []monday.User
	failMe          bool
	failUsers       bool
	failConnections map[string]bool
	blockUsers      chan struct{}
	requests        int
}

func (f *fakeMonday) server(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakeMonday) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

func (f *fakeMonday) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests++
	failMe, failUsers := f.failMe, f.failUsers
	blockUsers := f.blockUsers
	failConnections := f.failConnections
	workspaces := append([]monday.Workspace(nil), f.workspaces...)
	boards := append([]monday.Board(nil), f.boards...)
	users := append([]monday.User(nil), f.users...)
	f.mu.Unlock()

	var req struct {
		Query     string                 `json:"query"`
		Variables map[string]interface{} `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	page := 1
	if v, ok := req.Variables["page"].(float64); ok {
		page = int(v)
	}

	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.Contains(req.Query, "me {"):
		if failMe {
			writeGraphQLError(w, "not authenticated", "AUTH_FAILED")
			return
		}
		_, _ = w.Write([]byte(`{"data":{"me":{"id":"u0","name":"Fake Admin"}}}`))

	case strings.Contains(req.Query, "boards (ids:"):
		serveBoardColumns(w, req.Variables, boards, failConnections)

	case strings.Contains(req.Query, "boards (limit:"):
		serveBoards(w, req.Variables, boards, page)

	case strings.Contains(req.Query, "workspaces (limit:"):
		if page > 1 {
			workspaces = nil
		}
		writeData(w, "workspaces", workspaces)

	case strings.Contains(req.Query, "users (limit:"):
		if blockUsers != nil {
			<-blockUsers
		}
		if failUsers {
			writeGraphQLError(w, "user fetch exploded", "INTERNAL_SERVER_ERROR")
			return
		}
		if page > 1 {
			users = nil
		}
		writeData(w, "users", users)

	default:
		http.Error(w, "unrecognized query", http.StatusBadRequest)
	}
}

func serveBoards(w http.ResponseWriter, vars map[string]interface{}, boards []monday.Board, page int) {
	state, _ := vars["state"].(string)

	var wsFilter map[string]bool
	if raw, ok := vars["workspaceIds"].([]interface{}); ok {
		wsFilter = make(map[string]bool)
		for _, v := range raw {
			if s, ok := v.(string); ok {
				wsFilter[s] = true
			}
		}
	}

	var out []monday.Board
	for _, b := range boards {
		if state == "active" && b.State != "active" {
			continue
		}
		if wsFilter != nil && (b.Workspace == nil || !wsFilter[b.Workspace.ID]) {
			continue
		}
		out = append(out, b)
	}
	if page > 1 {
		out = nil
	}
	writeData(w, "boards", out)
}

func serveBoardColumns(w http.ResponseWriter, vars map[string]interface{}, boards []monday.Board, failConnections map[string]bool) {
	var boardID string
	if raw, ok := vars["boardIds"].([]interface{}); ok && len(raw) > 0 {
		boardID, _ = raw[0].(string)
	}

	if failConnections[boardID] {
		writeGraphQLError(w, fmt.Sprintf("board %s is unavailable", boardID), "INTERNAL_SERVER_ERROR")
		return
	}

	var out []map[string]interface{}
	for _, b := range boards {
		if b.ID == boardID {
			out = append(out, map[string]interface{}{"id": b.ID, "columns": b.Columns})
		}
	}
	writeData(w, "boards", out)
}

func writeData(w http.ResponseWriter, name string, items interface{}) {
	resp := map[string]interface{}{"data": map[string]interface{}{name: items}}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeGraphQLError(w http.ResponseWriter, message, code string) {
	_, _ = fmt.Fprintf(w, `{"errors":[{"message":%q,"extensions":{"code":%q}}]}`, message, code)
}

// exampleOrg builds the reference fixture: two workspaces, five boards
// (three active, two archived), one mirror column linking board 1001 to
// 1002, and two users.
func exampleOrg() *fakeMonday {
	recent := time.Now().Add(-48 * time.Hour)
	wsRef := func(id string) *monday.WorkspaceRef { return &monday.WorkspaceRef{ID: id} }
	nameColumn := monday.Column{ID: "name", Title: "Name", Type: "name"}

	return &fakeMonday{
		workspaces: []monday.Workspace{
			{ID: "101", Name: "Engineering", Kind: "open"},
			{ID: "102", Name: "Marketing", Kind: "open"},
		},
		boards: []monday.Board{
			{
				ID: "1001", Name: "Roadmap", State: "active", ItemsCount: 25,
				UpdatedAt: &recent, Workspace: wsRef("101"),
				Columns: []monday.Column{
					nameColumn,
					{ID: "mirror_1", Title: "Release Status", Type: monday.ColumnTypeMirror, SettingsStr: `{"displayed_column":{},"linkedBoardId":1002}`},
				},
			},
			{
				ID: "1002", Name: "Releases", State: "active", ItemsCount: 18,
				UpdatedAt: &recent, Workspace: wsRef("101"),
				Columns: []monday.Column{nameColumn},
			},
			{
				ID: "1003", Name: "Campaigns", State: "active", ItemsCount: 7,
				UpdatedAt: &recent, Workspace: wsRef("102"),
				Columns: []monday.Column{nameColumn},
			},
			{
				ID: "1004", Name: "Legacy Sprints", State: "archived", ItemsCount: 40,
				UpdatedAt: &recent, Workspace: wsRef("101"),
				Columns: []monday.Column{nameColumn},
			},
			{
				ID: "1005", Name: "Old Campaigns", State: "archived", ItemsCount: 12,
				UpdatedAt: &recent, Workspace: wsRef("102"),
				Columns: []monday.Column{nameColumn},
			},
		},
		users: []monday.User{
			{ID: "u1", Name: "Ada Admin", Email: "ada@example.com", Enabled: true, IsAdmin: true},
			{ID: "u2", Name: "Mel Member", Email: "mel@example.com", Enabled: true},
		},
	}
}

func setupTestStore(t *testing.T) *sql.DB {
	t.Helper()

	database, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = database.Close() })

	if err := db.InitSchema(database); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}
	return database
}

func testConfig() *Config {
	return &Config{
		APIToken:           "test-token",
		FreshForHours:      DefaultFreshForHours,
		FullSyncAfterHours: DefaultFullSyncAfterHours,
		MaxBoardsPerSync:   DefaultMaxBoardsPerSync,
	}
}

func newTestOrchestrator(t *testing.T, f *fakeMonday) (*Orchestrator, *sql.DB) {
	return newTestOrchestratorWithConfig(t, f, testConfig())
}

func newTestOrchestratorWithConfig(t *testing.T, f *fakeMonday, cfg *Config) (*Orchestrator, *sql.DB) {
	t.Helper()

	database := setupTestStore(t)
	srv := f.server(t)
	client := monday.NewClientWithEndpoint(cfg.APIToken, srv.URL)

	o := NewOrchestrator(cfg, client, database)
	o.SetLogger(log.New(io.Discard, "", 0))
	return o, database
}

func quietOrchestrator(t *testing.T, database *sql.DB) *Orchestrator {
	t.Helper()

	o := NewOrchestrator(testConfig(), monday.NewClient("unused"), database)
	o.SetLogger(log.New(io.Discard, "", 0))
	return o
}
