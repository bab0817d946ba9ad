// ABOUTME: HTTP client for the monday.com GraphQL API
// ABOUTME: Handles auth headers, pagination, and typed API failures
package monday

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultEndpoint is the public monday.com GraphQL endpoint.
const DefaultEndpoint = "https://api.monday.com/v2"

const apiVersion = "2024-10"

// Page sizes and safety limits for paginated fetches.
const (
	workspacePageSize = 100
	boardPageSize     = 50
	userPageSize      = 100
	maxPages          = 200
)

// APIError is a failure reported by the monday.com API, either as a non-2xx
// HTTP status or a GraphQL-level error in a 200 response.
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
}

func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("monday API error %s: %s", e.ErrorCode, e.Message)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("monday API error (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("monday API error: %s", e.Message)
}

type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
}

func NewClient(token string) *Client {
	return NewClientWithEndpoint(token, DefaultEndpoint)
}

// NewClientWithEndpoint exists for tests and API proxies.
func NewClientWithEndpoint(token, endpoint string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   strings.TrimRight(endpoint, "/"),
		token:      token,
	}
}

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphqlError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`

	// Legacy monday error envelope, still served for auth failures
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func (c *Client) execute(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(graphqlRequest{Query: query, Variables: variables}); err != nil {
		return fmt.Errorf("failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, buf)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.token)
	req.Header.Set("API-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach monday API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	var envelope graphqlResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if envelope.ErrorCode != "" {
		return &APIError{ErrorCode: envelope.ErrorCode, Message: envelope.ErrorMessage}
	}
	if len(envelope.Errors) > 0 {
		first := envelope.Errors[0]
		return &APIError{ErrorCode: first.Extensions.Code, Message: first.Message}
	}

	if out == nil || envelope.Data == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}

	return nil
}

// TestConnection verifies the token by asking the API who we are.
func (c *Client) TestConnection(ctx context.Context) error {
	var result struct {
		Me *struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"me"`
	}

	if err := c.execute(ctx, meQuery, nil, &result); err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	if result.Me == nil {
		return &APIError{Message: "me query returned no identity"}
	}

	return nil
}

// GetWorkspaces fetches every workspace visible to the token.
func (c *Client) GetWorkspaces(ctx context.Context) ([]Workspace, error) {
	var all []Workspace

	for page := 1; page <= maxPages; page++ {
		var result struct {
			Workspaces []Workspace `json:"workspaces"`
		}
		variables := map[string]interface{}{
			"limit": workspacePageSize,
			"page":  page,
		}
		if err := c.execute(ctx, workspacesQuery, variables, &result); err != nil {
			return nil, fmt.Errorf("failed to fetch workspaces page %d: %w", page, err)
		}

		all = append(all, result.Workspaces...)
		if len(result.Workspaces) < workspacePageSize {
			break
		}
	}

	return all, nil
}

// BoardOptions restricts a board fetch.
type BoardOptions struct {
	WorkspaceIDs    []string
	IncludeArchived bool
	Limit           int // 0 means unbounded
}

// GetBoards fetches boards page by page, with their column sets embedded.
func (c *Client) GetBoards(ctx context.Context, opts BoardOptions) ([]Board, error) {
	state := "active"
	if opts.IncludeArchived {
		state = "all"
	}

	var all []Board

	for page := 1; page <= maxPages; page++ {
		var result struct {
			Boards []Board `json:"boards"`
		}
		variables := map[string]interface{}{
			"limit": boardPageSize,
			"page":  page,
			"state": state,
		}
		if len(opts.WorkspaceIDs) > 0 {
			variables["workspaceIds"] = opts.WorkspaceIDs
		}
		if err := c.execute(ctx, boardsQuery, variables, &result); err != nil {
			return nil, fmt.Errorf("failed to fetch boards page %d: %w", page, err)
		}

		all = append(all, result.Boards...)

		if opts.Limit > 0 && len(all) >= opts.Limit {
			all = all[:opts.Limit]
			break
		}
		if len(result.Boards) < boardPageSize {
			break
		}
	}

	return all, nil
}

// GetUsers fetches every account member, including guests.
func (c *Client) GetUsers(ctx context.Context) ([]User, error) {
	var all []User

	for page := 1; page <= maxPages; page++ {
		var result struct {
			Users []User `json:"users"`
		}
		variables := map[string]interface{}{
			"limit": userPageSize,
			"page":  page,
		}
		if err := c.execute(ctx, usersQuery, variables, &result); err != nil {
			return nil, fmt.Errorf("failed to fetch users page %d: %w", page, err)
		}

		all = append(all, result.Users...)
		if len(result.Users) < userPageSize {
			break
		}
	}

	return all, nil
}

// GetBoardConnections fetches the columns of one board that can point at
// other boards. A board the API no longer serves yields an empty set, not
// an error.
func (c *Client) GetBoardConnections(ctx context.Context, boardID string) ([]Column, error) {
	var result struct {
		Boards []struct {
			ID      string   `json:"id"`
			Columns []Column `json:"columns"`
		} `json:"boards"`
	}
	variables := map[string]interface{}{
		"boardIds": []string{boardID},
	}
	if err := c.execute(ctx, boardColumnsQuery, variables, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch columns for board %s: %w", boardID, err)
	}

	if len(result.Boards) == 0 {
		return nil, nil
	}

	var relevant []Column
	for _, col := range result.Boards[0].Columns {
		if col.IsRelationColumn() && !col.Archived {
			relevant = append(relevant, col)
		}
	}

	return relevant, nil
}
