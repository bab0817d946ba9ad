// ABOUTME: Sync orchestration for the monday.com mirror
// ABOUTME: Owns single-flight execution, strategy selection, provenance, and freshness
package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/pulsemap/pulsemap/archive"
	"github.com/pulsemap/pulsemap/db"
	"github.com/pulsemap/pulsemap/models"
	"github.com/pulsemap/pulsemap/monday"
)

// Hard errors surfaced to callers. Everything else inside a sync degrades
// to warnings and partial results.
var (
	ErrSyncInProgress      = errors.New("a sync is already in progress")
	ErrWorkspaceNotFound   = errors.New("workspace not found in the mirror")
	ErrWorkspaceNotAllowed = errors.New("workspace is not in the configured allow-list")
	ErrNotConfigured       = errors.New("no API token configured, run sync init first")
)

// Smart sync strategy names.
const (
	StrategyFull        = "full"
	StrategyIncremental = "incremental"
	StrategyFresh       = "fresh"
)

// flight is the in-process sync state token: idle when runID is empty,
// running otherwise. Exclusivity is advisory and does not extend across
// processes.
type flight struct {
	mu    sync.Mutex
	runID string
}

func (f *flight) begin(runID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.runID != "" {
		return false
	}
	f.runID = runID
	return true
}

func (f *flight) end() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runID = ""
}

func (f *flight) current() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runID
}

// Orchestrator mediates all writes to the mirror. At most one sync runs at
// a time per process; concurrent attempts are rejected, never queued.
type Orchestrator struct {
	config   *Config
	client   *monday.Client
	database *sql.DB
	archives *archive.Store
	logger   *log.Logger
	flight   flight
}

// NewOrchestrator wires a sync orchestrator. Runs left in running state by
// a previous process are swept to cancelled here, so the audit trail never
// shows two concurrent runs.
func NewOrchestrator(cfg *Config, client *monday.Client, database *sql.DB) *Orchestrator {
	o := &Orchestrator{
		config:   cfg,
		client:   client,
		database: database,
		logger:   log.New(os.Stderr, "[sync] ", log.LstdFlags),
	}

	if n, err := db.CancelAbandonedRuns(database); err != nil {
		o.logger.Printf("warning: failed to sweep abandoned sync runs: %v", err)
	} else if n > 0 {
		o.logger.Printf("marked %d abandoned sync runs as cancelled", n)
	}

	return o
}

// SetLogger replaces the default stderr logger.
func (o *Orchestrator) SetLogger(logger *log.Logger) {
	if logger != nil {
		o.logger = logger
	}
}

// AttachArchive enables best-effort raw payload archiving for later runs.
func (o *Orchestrator) AttachArchive(store *archive.Store) {
	o.archives = store
}

// IsSyncing reports whether a sync is currently in flight.
func (o *Orchestrator) IsSyncing() bool {
	return o.flight.current() != ""
}

// CurrentRunID returns the in-flight run id, or empty when idle.
func (o *Orchestrator) CurrentRunID() string {
	return o.flight.current()
}

// FullSync discovers the entire remote organizational graph (or the
// configured workspace subset) and persists it: workspaces first, then each
// board with its column set, then users, then relationship discovery over
// the fetched board set. Connectivity to both the API and the store is
// verified before any fetch. Boards persisted before a failure stay
// persisted; the failed run record carries the error.
func (o *Orchestrator) FullSync(ctx context.Context) (*models.SyncRun, error) {
	if !o.config.IsConfigured() {
		return nil, ErrNotConfigured
	}

	runID := GenerateSyncRunID()
	if !o.flight.begin(runID) {
		return nil, ErrSyncInProgress
	}
	defer o.flight.end()

	run, err := db.StartSyncRun(o.database, runID, models.SyncKindFull, "")
	if err != nil {
		return nil, fmt.Errorf("failed to record sync run: %w", err)
	}
	o.logger.Printf("full sync %s started", runID)

	if err := o.client.TestConnection(ctx); err != nil {
		o.fail(run, err)
		return run, fmt.Errorf("remote API unreachable: %w", err)
	}
	if err := o.database.PingContext(ctx); err != nil {
		o.fail(run, err)
		return run, fmt.Errorf("store unreachable: %w", err)
	}

	workspaces, err := o.client.GetWorkspaces(ctx)
	if err != nil {
		o.fail(run, err)
		return run, fmt.Errorf("failed to fetch workspaces: %w", err)
	}
	workspaces = o.filterAllowedWorkspaces(workspaces)
	o.archivePayload(runID, "workspaces", workspaces)

	for i := range workspaces {
		if err := db.SaveWorkspace(o.database, convertWorkspace(workspaces[i])); err != nil {
			o.fail(run, err)
			return run, fmt.Errorf("failed to save workspace %s: %w", workspaces[i].ID, err)
		}
		run.ItemsCreated++
	}
	o.logger.Printf("synced %d workspaces", len(workspaces))

	boards, err := o.client.GetBoards(ctx, monday.BoardOptions{
		WorkspaceIDs:    o.config.AllowedWorkspaces,
		IncludeArchived: true,
		Limit:           o.config.MaxBoardsPerSync,
	})
	if err != nil {
		o.fail(run, err)
		return run, fmt.Errorf("failed to fetch boards: %w", err)
	}
	o.archivePayload(runID, "boards", boards)

	boardIDs, err := o.persistBoards(ctx, run, boards, true)
	if err != nil {
		o.fail(run, err)
		return run, err
	}
	o.logger.Printf("synced %d boards", len(boardIDs))

	users, err := o.client.GetUsers(ctx)
	if err != nil {
		o.fail(run, err)
		return run, fmt.Errorf("failed to fetch users: %w", err)
	}
	o.archivePayload(runID, "users", users)

	for i := range users {
		if err := db.SaveUser(o.database, convertUser(users[i])); err != nil {
			o.fail(run, err)
			return run, fmt.Errorf("failed to save user %s: %w", users[i].ID, err)
		}
		run.ItemsCreated++
	}
	o.logger.Printf("synced %d users", len(users))

	discoverer := NewDiscoverer(o.client, o.database, o.logger)
	edges, err := discoverer.Discover(ctx, boardIDs)
	if err != nil {
		o.fail(run, err)
		return run, fmt.Errorf("relationship discovery aborted: %w", err)
	}
	o.logger.Printf("discovered %d board relationships", edges)

	deleted, err := o.markMissingBoards(boardIDs, len(boards))
	if err != nil {
		o.fail(run, err)
		return run, fmt.Errorf("failed to mark missing boards: %w", err)
	}
	run.ItemsDeleted = deleted

	o.refreshHealthCaches()

	if err := db.CompleteSyncRun(o.database, run); err != nil {
		return run, fmt.Errorf("failed to complete sync run: %w", err)
	}
	o.logger.Printf("full sync %s completed: %d created, %d deleted", runID, run.ItemsCreated, run.ItemsDeleted)

	return run, nil
}

// IncrementalSync refreshes active boards only, bounded by the configured
// cap. It skips the connectivity pre-flight, relationship discovery, and
// users, and records its work as updates.
func (o *Orchestrator) IncrementalSync(ctx context.Context) (*models.SyncRun, error) {
	if !o.config.IsConfigured() {
		return nil, ErrNotConfigured
	}

	runID := GenerateSyncRunID()
	if !o.flight.begin(runID) {
		return nil, ErrSyncInProgress
	}
	defer o.flight.end()

	run, err := db.StartSyncRun(o.database, runID, models.SyncKindIncremental, "")
	if err != nil {
		return nil, fmt.Errorf("failed to record sync run: %w", err)
	}
	o.logger.Printf("incremental sync %s started", runID)

	boards, err := o.client.GetBoards(ctx, monday.BoardOptions{
		WorkspaceIDs: o.config.AllowedWorkspaces,
		Limit:        o.config.MaxBoardsPerSync,
	})
	if err != nil {
		o.fail(run, err)
		return run, fmt.Errorf("failed to fetch boards: %w", err)
	}
	o.archivePayload(runID, "boards", boards)

	if _, err := o.persistBoards(ctx, run, boards, false); err != nil {
		o.fail(run, err)
		return run, err
	}

	if err := db.CompleteSyncRun(o.database, run); err != nil {
		return run, fmt.Errorf("failed to complete sync run: %w", err)
	}
	o.logger.Printf("incremental sync %s completed: %d boards updated", runID, run.ItemsUpdated)

	return run, nil
}

// SyncWorkspace refreshes a single workspace's boards. The workspace must
// pass the configured allow-list and already exist in the mirror (by id or
// name); both checks happen before any remote call.
func (o *Orchestrator) SyncWorkspace(ctx context.Context, workspaceID string) (*models.SyncRun, error) {
	if !o.config.IsConfigured() {
		return nil, ErrNotConfigured
	}

	resolved, err := o.resolveWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	if !o.config.WorkspaceAllowed(resolved.ID) {
		return nil, fmt.Errorf("workspace %s: %w", workspaceID, ErrWorkspaceNotAllowed)
	}

	runID := GenerateSyncRunID()
	if !o.flight.begin(runID) {
		return nil, ErrSyncInProgress
	}
	defer o.flight.end()

	run, err := db.StartSyncRun(o.database, runID, models.SyncKindWorkspace, resolved.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to record sync run: %w", err)
	}
	o.logger.Printf("workspace sync %s started for %s (%s)", runID, resolved.Name, resolved.ID)

	boards, err := o.client.GetBoards(ctx, monday.BoardOptions{
		WorkspaceIDs:    []string{resolved.ID},
		IncludeArchived: true,
		Limit:           o.config.MaxBoardsPerSync,
	})
	if err != nil {
		o.fail(run, err)
		return run, fmt.Errorf("failed to fetch boards for workspace %s: %w", resolved.ID, err)
	}
	o.archivePayload(runID, "boards", boards)

	boardIDs, err := o.persistBoards(ctx, run, boards, true)
	if err != nil {
		o.fail(run, err)
		return run, err
	}

	discoverer := NewDiscoverer(o.client, o.database, o.logger)
	edges, err := discoverer.Discover(ctx, boardIDs)
	if err != nil {
		o.fail(run, err)
		return run, fmt.Errorf("relationship discovery aborted: %w", err)
	}
	o.logger.Printf("discovered %d board relationships in workspace %s", edges, resolved.ID)

	if err := db.CompleteSyncRun(o.database, run); err != nil {
		return run, fmt.Errorf("failed to complete sync run: %w", err)
	}
	o.logger.Printf("workspace sync %s completed: %d boards", runID, run.BoardsProcessed)

	return run, nil
}

// SmartSyncResult reports which strategy a smart sync chose and the mirror
// state afterwards. Run is nil when the mirror was fresh enough to leave
// alone.
type SmartSyncResult struct {
	Strategy  string
	Run       *models.SyncRun
	Structure *models.OrganizationalStructure
}

// SmartSync picks a strategy from mirror freshness: full when the mirror is
// empty, unhealthy, or older than the long TTL; incremental past the short
// TTL; otherwise it returns the current mirror without touching the remote
// API at all.
func (o *Orchestrator) SmartSync(ctx context.Context) (*SmartSyncResult, error) {
	status, err := o.CacheStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to read cache status: %w", err)
	}

	result := &SmartSyncResult{Strategy: StrategyFresh}
	age := status.AgeHours()

	switch {
	case !status.Healthy || age > float64(o.config.FullSyncAfterHours):
		result.Strategy = StrategyFull
		result.Run, err = o.FullSync(ctx)
	case age > float64(o.config.FreshForHours):
		result.Strategy = StrategyIncremental
		result.Run, err = o.IncrementalSync(ctx)
	default:
		o.logger.Printf("mirror is %.1f hours old, no sync needed", age)
	}
	if err != nil {
		return nil, err
	}

	result.Structure, err = db.GetOrganizationalStructure(o.database)
	if err != nil {
		return nil, fmt.Errorf("failed to read organizational structure: %w", err)
	}

	return result, nil
}

// CacheStatus summarizes mirror freshness from local state only. Healthy
// means at least one workspace and one board are mirrored.
func (o *Orchestrator) CacheStatus() (*models.CacheStatus, error) {
	totalWorkspaces, err := db.CountWorkspaces(o.database)
	if err != nil {
		return nil, fmt.Errorf("failed to count workspaces: %w", err)
	}
	totalBoards, err := db.CountBoards(o.database)
	if err != nil {
		return nil, fmt.Errorf("failed to count boards: %w", err)
	}

	last, err := db.LastCompletedSyncRun(o.database)
	if err != nil {
		return nil, fmt.Errorf("failed to read last sync run: %w", err)
	}

	status := &models.CacheStatus{
		Healthy:         totalWorkspaces > 0 && totalBoards > 0,
		TotalBoards:     totalBoards,
		TotalWorkspaces: totalWorkspaces,
		NeedsRefresh:    true,
	}
	if last != nil && last.CompletedAt != nil {
		status.LastSync = last.CompletedAt
		status.CacheAge = time.Since(*last.CompletedAt)
		status.NeedsRefresh = status.CacheAge > o.config.FreshFor()
	}

	return status, nil
}

// ValidateIntegrity runs read-only consistency checks over the mirror and
// returns human-readable findings. Findings are reports, not errors; the
// error return covers only store access problems.
func (o *Orchestrator) ValidateIntegrity() ([]string, error) {
	structure, err := db.GetOrganizationalStructure(o.database)
	if err != nil {
		return nil, fmt.Errorf("failed to read organizational structure: %w", err)
	}

	var issues []string

	workspaceIDs := make(map[string]bool, len(structure.Workspaces))
	for _, ws := range structure.Workspaces {
		workspaceIDs[ws.ID] = true
	}

	boardState := make(map[string]string, len(structure.Boards))
	boardsPerWorkspace := make(map[string]int)
	for _, b := range structure.Boards {
		boardState[b.ID] = b.State
		if b.State == models.BoardStateDeleted {
			continue
		}
		if b.WorkspaceID == nil {
			issues = append(issues, fmt.Sprintf("board %s (%s) has no workspace reference", b.Name, b.ID))
			continue
		}
		if !workspaceIDs[*b.WorkspaceID] {
			issues = append(issues, fmt.Sprintf("board %s (%s) references missing workspace %s", b.Name, b.ID, *b.WorkspaceID))
			continue
		}
		boardsPerWorkspace[*b.WorkspaceID]++
	}

	for _, ws := range structure.Workspaces {
		if boardsPerWorkspace[ws.ID] == 0 {
			issues = append(issues, fmt.Sprintf("workspace %s (%s) has no boards", ws.Name, ws.ID))
		}
	}

	for _, rel := range structure.Relationships {
		if boardState[rel.SourceBoardID] == models.BoardStateDeleted {
			issues = append(issues, fmt.Sprintf("%s relationship %s -> %s originates from deleted board %s", rel.RelationType, rel.SourceBoardID, rel.TargetBoardID, rel.SourceBoardID))
		}
		if boardState[rel.TargetBoardID] == models.BoardStateDeleted {
			issues = append(issues, fmt.Sprintf("%s relationship %s -> %s points at deleted board %s", rel.RelationType, rel.SourceBoardID, rel.TargetBoardID, rel.TargetBoardID))
		}
	}

	if structure.LastScanned == nil {
		issues = append(issues, "mirror has never completed a sync")
	} else if age := time.Since(*structure.LastScanned); age > 2*o.config.FullSyncAfter() {
		issues = append(issues, fmt.Sprintf("mirror is very stale: last successful sync was %.0f hours ago", age.Hours()))
	}

	return issues, nil
}

// persistBoards saves each board and replaces its column set, honoring ctx
// between boards. Counts go to created for full/workspace syncs and to
// updated for incremental ones.
func (o *Orchestrator) persistBoards(ctx context.Context, run *models.SyncRun, boards []monday.Board, asCreated bool) ([]string, error) {
	boardIDs := make([]string, 0, len(boards))
	for i := range boards {
		if err := ctx.Err(); err != nil {
			return boardIDs, fmt.Errorf("sync interrupted: %w", err)
		}

		b := &boards[i]
		if err := db.SaveBoard(o.database, convertBoard(b)); err != nil {
			return boardIDs, fmt.Errorf("failed to save board %s: %w", b.ID, err)
		}
		if err := db.ReplaceBoardColumns(o.database, b.ID, convertColumns(b.ID, b.Columns)); err != nil {
			return boardIDs, fmt.Errorf("failed to replace columns for board %s: %w", b.ID, err)
		}

		boardIDs = append(boardIDs, b.ID)
		run.BoardsProcessed++
		if asCreated {
			run.ItemsCreated++
		} else {
			run.ItemsUpdated++
		}
	}
	return boardIDs, nil
}

// markMissingBoards marks boards absent from a full fetch as deleted. The
// pass is skipped when the fetch may be partial: a configured allow-list
// hides other workspaces' boards, and a fetch that filled the board cap may
// have been truncated.
func (o *Orchestrator) markMissingBoards(seenIDs []string, fetched int) (int, error) {
	if len(o.config.AllowedWorkspaces) > 0 {
		o.logger.Printf("workspace allow-list configured, skipping missing-board cleanup")
		return 0, nil
	}
	if o.config.MaxBoardsPerSync > 0 && fetched >= o.config.MaxBoardsPerSync {
		o.logger.Printf("board fetch hit the %d cap, skipping missing-board cleanup", o.config.MaxBoardsPerSync)
		return 0, nil
	}

	deleted, err := db.MarkMissingBoardsDeleted(o.database, seenIDs)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		o.logger.Printf("marked %d boards deleted (no longer present upstream)", deleted)
	}
	return deleted, nil
}

// refreshHealthCaches recomputes the advisory health_status column for
// every mirrored board. Failures only warn; fresh classifications are
// always recomputed by readers anyway.
func (o *Orchestrator) refreshHealthCaches() {
	boards, err := db.GetBoards(o.database)
	if err != nil {
		o.logger.Printf("warning: failed to load boards for health refresh: %v", err)
		return
	}

	now := time.Now()
	for i := range boards {
		status := models.ClassifyBoardHealth(&boards[i], now)
		if status == boards[i].HealthStatus {
			continue
		}
		if err := db.UpdateBoardHealth(o.database, boards[i].ID, status); err != nil {
			o.logger.Printf("warning: failed to cache health for board %s: %v", boards[i].ID, err)
		}
	}
}

// resolveWorkspace finds a workspace in the local mirror by id or, failing
// that, by exact name.
func (o *Orchestrator) resolveWorkspace(idOrName string) (*models.Workspace, error) {
	ws, err := db.GetWorkspace(o.database, idOrName)
	if err != nil {
		return nil, fmt.Errorf("failed to look up workspace: %w", err)
	}
	if ws != nil {
		return ws, nil
	}

	all, err := db.GetWorkspaces(o.database)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	for i := range all {
		if all[i].Name == idOrName {
			return &all[i], nil
		}
	}

	return nil, fmt.Errorf("workspace %q: %w", idOrName, ErrWorkspaceNotFound)
}

func (o *Orchestrator) filterAllowedWorkspaces(workspaces []monday.Workspace) []monday.Workspace {
	if len(o.config.AllowedWorkspaces) == 0 {
		return workspaces
	}
	filtered := make([]monday.Workspace, 0, len(workspaces))
	for _, ws := range workspaces {
		if o.config.WorkspaceAllowed(ws.ID) {
			filtered = append(filtered, ws)
		}
	}
	return filtered
}

// archivePayload stores a raw API payload for the run. Archiving is
// best-effort and never fails a sync.
func (o *Orchestrator) archivePayload(runID, entity string, payload interface{}) {
	if o.archives == nil {
		return
	}
	if err := o.archives.Put(runID, entity, payload); err != nil {
		o.logger.Printf("warning: failed to archive %s payload: %v", entity, err)
	}
}

// fail records a failed run, keeping whatever partial counts accumulated.
func (o *Orchestrator) fail(run *models.SyncRun, cause error) {
	if err := db.FailSyncRun(o.database, run, cause.Error()); err != nil {
		o.logger.Printf("warning: failed to record sync failure: %v", err)
	}
}

func convertWorkspace(ws monday.Workspace) *models.Workspace {
	return &models.Workspace{
		ID:          ws.ID,
		Name:        ws.Name,
		Kind:        ws.Kind,
		Description: ws.Description,
	}
}

func convertBoard(b *monday.Board) *models.Board {
	board := &models.Board{
		ID:              b.ID,
		Name:            b.Name,
		Description:     b.Description,
		State:           b.State,
		ItemCount:       b.ItemsCount,
		BoardKind:       b.BoardKind,
		Permissions:     b.Permissions,
		RemoteUpdatedAt: b.UpdatedAt,
	}
	if b.Workspace != nil && b.Workspace.ID != "" {
		id := b.Workspace.ID
		board.WorkspaceID = &id
	}
	return board
}

func convertColumns(boardID string, columns []monday.Column) []models.BoardColumn {
	out := make([]models.BoardColumn, 0, len(columns))
	for i, c := range columns {
		out = append(out, models.BoardColumn{
			ID:       c.ID,
			BoardID:  boardID,
			Title:    c.Title,
			Type:     c.Type,
			Settings: c.SettingsStr,
			Archived: c.Archived,
			Position: i,
		})
	}
	return out
}

func convertUser(u monday.User) *models.User {
	return &models.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Enabled:      u.Enabled,
		IsAdmin:      u.IsAdmin,
		IsGuest:      u.IsGuest,
		LastActivity: u.LastActivity,
	}
}
