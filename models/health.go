// ABOUTME: Pure health scoring for mirrored boards and workspaces
// ABOUTME: Classifies board activity and computes weighted workspace scores
package models

import "time"

// Health status constants.
const (
	HealthHealthy   = "healthy"
	HealthWarning   = "warning"
	HealthInactive  = "inactive"
	HealthAbandoned = "abandoned"
)

// Health thresholds, in days of remote inactivity.
const (
	InactiveAfterDays  = 30
	AbandonedAfterDays = 2 * InactiveAfterDays
	WarningAfterDays   = InactiveAfterDays / 2
	MinAnalysisAgeDays = 14
	MinActiveItems     = 3
)

// ItemBaselinePerBoard is the item count at which a board counts as fully
// utilized for workspace scoring.
const ItemBaselinePerBoard = 20

// Workspace score weights.
const (
	healthyWeight     = 0.5
	activeWeight      = 0.3
	utilizationWeight = 0.2
)

// WorkspaceHealth is the scored summary of one workspace's boards.
type WorkspaceHealth struct {
	WorkspaceID     string  `json:"workspace_id"`
	WorkspaceName   string  `json:"workspace_name,omitempty"`
	Score           float64 `json:"score"`
	TotalBoards     int     `json:"total_boards"`
	HealthyBoards   int     `json:"healthy_boards"`
	WarningBoards   int     `json:"warning_boards"`
	InactiveBoards  int     `json:"inactive_boards"`
	AbandonedBoards int     `json:"abandoned_boards"`
	AverageItems    float64 `json:"average_items"`
}

// ClassifyBoardHealth buckets a board by how recently it changed upstream.
// Boards mirrored for less than MinAnalysisAgeDays are always healthy, since
// there is not enough history to judge them. A board with no known remote
// update time is treated as never updated.
func ClassifyBoardHealth(b *Board, now time.Time) string {
	switch b.State {
	case BoardStateArchived:
		return HealthInactive
	case BoardStateDeleted:
		return HealthAbandoned
	}

	if daysBetween(b.CreatedAt, now) < MinAnalysisAgeDays {
		return HealthHealthy
	}

	staleDays := AbandonedAfterDays
	if b.RemoteUpdatedAt != nil {
		staleDays = daysBetween(*b.RemoteUpdatedAt, now)
	}

	switch {
	case staleDays >= AbandonedAfterDays:
		return HealthAbandoned
	case staleDays >= InactiveAfterDays:
		return HealthInactive
	case staleDays >= WarningAfterDays || b.ItemCount < MinActiveItems:
		return HealthWarning
	default:
		return HealthHealthy
	}
}

// ScoreWorkspace computes a 0-100 score for a set of boards belonging to one
// workspace. Healthy ratio carries half the weight, the share of boards still
// in use (healthy or warning) 30%, and average item utilization against
// ItemBaselinePerBoard the remaining 20%. An empty workspace scores zero.
func ScoreWorkspace(ws *Workspace, boards []Board, now time.Time) WorkspaceHealth {
	wh := WorkspaceHealth{
		WorkspaceID:   ws.ID,
		WorkspaceName: ws.Name,
		TotalBoards:   len(boards),
	}
	if len(boards) == 0 {
		return wh
	}

	totalItems := 0
	for i := range boards {
		totalItems += boards[i].ItemCount
		switch ClassifyBoardHealth(&boards[i], now) {
		case HealthHealthy:
			wh.HealthyBoards++
		case HealthWarning:
			wh.WarningBoards++
		case HealthInactive:
			wh.InactiveBoards++
		case HealthAbandoned:
			wh.AbandonedBoards++
		}
	}

	total := float64(len(boards))
	healthyRatio := float64(wh.HealthyBoards) / total
	activeRatio := float64(wh.HealthyBoards+wh.WarningBoards) / total
	wh.AverageItems = float64(totalItems) / total

	utilization := wh.AverageItems / ItemBaselinePerBoard
	if utilization > 1.0 {
		utilization = 1.0
	}

	wh.Score = 100 * (healthyWeight*healthyRatio + activeWeight*activeRatio + utilizationWeight*utilization)
	return wh
}

func daysBetween(t, now time.Time) int {
	return int(now.Sub(t).Hours() / 24)
}
