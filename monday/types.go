// ABOUTME: Wire types for the monday.com GraphQL API
// ABOUTME: Mirrors the fields requested by the queries in this package
package monday

import "time"

// Column type values that can reference other boards.
const (
	ColumnTypeBoardRelation = "board_relation"
	ColumnTypeMirror        = "mirror"
	ColumnTypeDependency    = "dependency"
)

type Workspace struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

type Board struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	State       string        `json:"state"`
	BoardKind   string        `json:"board_kind"`
	ItemsCount  int           `json:"items_count"`
	Permissions string        `json:"permissions"`
	UpdatedAt   *time.Time    `json:"updated_at"`
	Workspace   *WorkspaceRef `json:"workspace"`
	Columns     []Column      `json:"columns"`
}

type WorkspaceRef struct {
	ID string `json:"id"`
}

// Column carries the raw settings_str blob untouched. Parsing it is the
// caller's concern; the API serves it as a JSON-encoded string.
type Column struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	SettingsStr string `json:"settings_str"`
	Archived    bool   `json:"archived"`
}

type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Enabled      bool       `json:"enabled"`
	IsAdmin      bool       `json:"is_admin"`
	IsGuest      bool       `json:"is_guest"`
	LastActivity *time.Time `json:"last_activity"`
}

// IsRelationColumn reports whether the column type can reference another
// board and is therefore interesting for relationship discovery.
func (c *Column) IsRelationColumn() bool {
	switch c.Type {
	case ColumnTypeBoardRelation, ColumnTypeMirror, ColumnTypeDependency:
		return true
	}
	return false
}
