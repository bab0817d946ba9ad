// ABOUTME: Data models for mirrored monday.com entities
// ABOUTME: Defines Workspace, Board, BoardColumn, BoardRelationship, User, and SyncRun structs
package models

import (
	"math"
	"time"
)

// Workspace is a mirrored monday.com workspace. IDs are the remote
// identifiers, kept opaque as strings.
type Workspace struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind,omitempty"`
	Description string    `json:"description,omitempty"`
	LastSeenAt  time.Time `json:"last_seen_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Board struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	State           string     `json:"state"`
	WorkspaceID     *string    `json:"workspace_id,omitempty"`
	ItemCount       int        `json:"item_count"`
	BoardKind       string     `json:"board_kind,omitempty"`
	Permissions     string     `json:"permissions,omitempty"`
	RemoteUpdatedAt *time.Time `json:"remote_updated_at,omitempty"`
	HealthStatus    string     `json:"health_status,omitempty"`
	LastSeenAt      time.Time  `json:"last_seen_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// BoardColumn is one column definition on a board. Settings holds the raw
// settings_str JSON exactly as the API returned it.
type BoardColumn struct {
	ID       string `json:"id"`
	BoardID  string `json:"board_id"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	Settings string `json:"settings,omitempty"`
	Archived bool   `json:"archived"`
	Position int    `json:"position"`
}

// BoardRelationship is a directed edge between two mirrored boards,
// discovered from column settings. The row ID is local; the natural key is
// (source, target, type, source column).
type BoardRelationship struct {
	ID             string    `json:"id"`
	SourceBoardID  string    `json:"source_board_id"`
	TargetBoardID  string    `json:"target_board_id"`
	RelationType   string    `json:"relation_type"`
	SourceColumnID string    `json:"source_column_id,omitempty"`
	Metadata       string    `json:"metadata,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email,omitempty"`
	Enabled      bool       `json:"enabled"`
	IsAdmin      bool       `json:"is_admin"`
	IsGuest      bool       `json:"is_guest"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Board state constants.
const (
	BoardStateActive   = "active"
	BoardStateArchived = "archived"
	BoardStateDeleted  = "deleted"
)

// Relation type constants.
const (
	RelationTypeDependency    = "dependency"
	RelationTypeMirror        = "mirror"
	RelationTypeConnectBoards = "connect_boards"
	RelationTypeIntegration   = "integration"
)

// Sync run kind constants.
const (
	SyncKindFull        = "full"
	SyncKindIncremental = "incremental"
	SyncKindWorkspace   = "workspace"
)

// Sync run status constants.
const (
	SyncStatusRunning   = "running"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
	SyncStatusCancelled = "cancelled"
)

// SyncRun records one execution of a sync strategy, from start to terminal
// status. Failed runs keep their error message and partial counts.
type SyncRun struct {
	ID              string     `json:"id"`
	Kind            string     `json:"kind"`
	Scope           string     `json:"scope,omitempty"`
	Status          string     `json:"status"`
	BoardsProcessed int        `json:"boards_processed"`
	ItemsCreated    int        `json:"items_created"`
	ItemsUpdated    int        `json:"items_updated"`
	ItemsDeleted    int        `json:"items_deleted"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Error           string     `json:"error,omitempty"`
}

// Duration reports how long the run took, or how long it has been running so far.
func (r *SyncRun) Duration() time.Duration {
	if r.CompletedAt != nil {
		return r.CompletedAt.Sub(r.StartedAt)
	}
	return time.Since(r.StartedAt)
}

// OrganizationalStructure is the read projection of the whole mirror. It is
// assembled fresh on every read and never stored.
type OrganizationalStructure struct {
	Workspaces    []Workspace         `json:"workspaces"`
	Boards        []Board             `json:"boards"`
	Relationships []BoardRelationship `json:"relationships"`
	Users         []User              `json:"users"`
	LastScanned   *time.Time          `json:"last_scanned,omitempty"`
}

// CacheStatus summarizes mirror freshness. LastSync is nil when no sync has
// ever completed; callers should treat the mirror as infinitely stale then.
type CacheStatus struct {
	Healthy         bool          `json:"healthy"`
	LastSync        *time.Time    `json:"last_sync,omitempty"`
	TotalBoards     int           `json:"total_boards"`
	TotalWorkspaces int           `json:"total_workspaces"`
	CacheAge        time.Duration `json:"cache_age"`
	NeedsRefresh    bool          `json:"needs_refresh"`
}

// AgeHours returns the cache age in hours, infinite when never synced.
func (s *CacheStatus) AgeHours() float64 {
	if s.LastSync == nil {
		return math.Inf(1)
	}
	return s.CacheAge.Hours()
}
