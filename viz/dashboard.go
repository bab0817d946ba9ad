// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Provides ASCII overview of the mirrored org, health, and sync history
package viz

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pulsemap/pulsemap/db"
	"github.com/pulsemap/pulsemap/models"
)

type DashboardStats struct {
	// Overall mirror contents
	TotalWorkspaces    int
	TotalBoards        int
	TotalRelationships int
	TotalUsers         int

	BoardsByState map[string]int
	HealthCounts  map[string]int

	// Per-workspace scores, sorted by name
	WorkspaceScores []models.WorkspaceHealth

	// Freshness
	LastSync      *time.Time
	CacheAgeHours float64

	// Needs attention
	AttentionBoards []AttentionBoard

	RecentRuns []models.SyncRun
}

type AttentionBoard struct {
	Name      string
	Health    string
	DaysIdle  int
	ItemCount int
}

func GenerateDashboardStats(database *sql.DB) (*DashboardStats, error) {
	stats := &DashboardStats{
		BoardsByState: make(map[string]int),
		HealthCounts:  make(map[string]int),
	}

	workspaces, err := db.GetWorkspaces(database)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workspaces: %w", err)
	}
	stats.TotalWorkspaces = len(workspaces)

	boards, err := db.GetBoards(database)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch boards: %w", err)
	}
	stats.TotalBoards = len(boards)

	stats.TotalRelationships, err = db.CountRelationships(database)
	if err != nil {
		return nil, fmt.Errorf("failed to count relationships: %w", err)
	}

	stats.TotalUsers, err = db.CountUsers(database)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	now := time.Now()
	boardsByWorkspace := make(map[string][]models.Board)
	for i := range boards {
		b := &boards[i]
		stats.BoardsByState[b.State]++

		health := models.ClassifyBoardHealth(b, now)
		stats.HealthCounts[health]++

		if b.WorkspaceID != nil {
			boardsByWorkspace[*b.WorkspaceID] = append(boardsByWorkspace[*b.WorkspaceID], *b)
		}

		// Archived and deleted boards were parked on purpose; only flag
		// boards that look abandoned while still nominally active.
		if b.State == models.BoardStateActive && (health == models.HealthWarning || health == models.HealthAbandoned) {
			idle := models.AbandonedAfterDays
			if b.RemoteUpdatedAt != nil {
				idle = int(now.Sub(*b.RemoteUpdatedAt).Hours() / 24)
			}
			stats.AttentionBoards = append(stats.AttentionBoards, AttentionBoard{
				Name:      b.Name,
				Health:    health,
				DaysIdle:  idle,
				ItemCount: b.ItemCount,
			})
		}
	}

	for i := range workspaces {
		ws := &workspaces[i]
		stats.WorkspaceScores = append(stats.WorkspaceScores, models.ScoreWorkspace(ws, boardsByWorkspace[ws.ID], now))
	}
	sort.Slice(stats.WorkspaceScores, func(i, j int) bool {
		return stats.WorkspaceScores[i].WorkspaceName < stats.WorkspaceScores[j].WorkspaceName
	})

	last, err := db.LastCompletedSyncRun(database)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch last sync run: %w", err)
	}
	if last != nil && last.CompletedAt != nil {
		stats.LastSync = last.CompletedAt
		stats.CacheAgeHours = now.Sub(*last.CompletedAt).Hours()
	}

	stats.RecentRuns, err = db.RecentSyncRuns(database, 5)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent sync runs: %w", err)
	}

	return stats, nil
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	// Header
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString(titleStyle.Render("  PULSEMAP MIRROR DASHBOARD") + "\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	// Freshness
	out.WriteString(sectionStyle.Render("MIRROR") + "\n")
	if stats.LastSync == nil {
		out.WriteString("  ⚠️  never synced - run a full sync to populate the mirror\n\n")
	} else {
		out.WriteString(fmt.Sprintf("  ⏱  last sync %.1fh ago (%s)\n\n",
			stats.CacheAgeHours, stats.LastSync.Format("2006-01-02 15:04")))
	}

	// Workspace health
	out.WriteString(sectionStyle.Render("WORKSPACE HEALTH") + "\n")
	renderWorkspaceScores(&out, stats.WorkspaceScores)
	out.WriteString("\n")

	// Stats
	out.WriteString(sectionStyle.Render("STATS") + "\n")
	out.WriteString(fmt.Sprintf("  🗂  %d workspaces  📋 %d boards  🔗 %d relationships  👥 %d users\n",
		stats.TotalWorkspaces, stats.TotalBoards, stats.TotalRelationships, stats.TotalUsers))
	out.WriteString(fmt.Sprintf("  boards: %d active, %d archived, %d deleted\n\n",
		stats.BoardsByState[models.BoardStateActive],
		stats.BoardsByState[models.BoardStateArchived],
		stats.BoardsByState[models.BoardStateDeleted]))

	// Needs attention
	if len(stats.AttentionBoards) > 0 {
		out.WriteString(sectionStyle.Render("NEEDS ATTENTION") + "\n")
		for _, b := range stats.AttentionBoards {
			out.WriteString(fmt.Sprintf("  ⚠️  %s - %s, no remote activity in %d days\n",
				b.Name, healthStyle(b.Health).Render(b.Health), b.DaysIdle))
		}
		out.WriteString("\n")
	}

	// Recent sync history
	if len(stats.RecentRuns) > 0 {
		out.WriteString(sectionStyle.Render("RECENT SYNCS") + "\n")
		for _, run := range stats.RecentRuns {
			out.WriteString(fmt.Sprintf("  %s %-12s %s  %d boards\n",
				runSymbol(run.Status), run.Kind,
				run.StartedAt.Format("2006-01-02 15:04"), run.BoardsProcessed))
		}
	}

	return out.String()
}

func renderWorkspaceScores(out *strings.Builder, scores []models.WorkspaceHealth) {
	if len(scores) == 0 {
		out.WriteString("  (no workspaces mirrored)\n")
		return
	}

	for _, wh := range scores {
		// Scores run 0-100; scale to a 10-block bar.
		barLength := int(wh.Score) / 10
		if barLength > 10 {
			barLength = 10
		}
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)

		out.WriteString(fmt.Sprintf("  %-13s %s  %3.0f  (%d boards)\n",
			wh.WorkspaceName, scoreStyle(wh.Score).Render(bar), wh.Score, wh.TotalBoards))
	}
}

func runSymbol(status string) string {
	switch status {
	case models.SyncStatusCompleted:
		return "✓"
	case models.SyncStatusFailed:
		return "✗"
	case models.SyncStatusRunning:
		return "→"
	default:
		return "·"
	}
}
