// ABOUTME: Tests for sync run provenance operations
// ABOUTME: Covers run lifecycle, failure records, and abandoned-run cleanup
package db

import (
	"testing"
	"time"

	"github.com/pulsemap/pulsemap/models"
)

func TestSyncRunLifecycle(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	run, err := StartSyncRun(db, "01HQZX4J9N6YV1R8Q2M3T5W7K9", models.SyncKindFull, "")
	if err != nil {
		t.Fatalf("StartSyncRun failed: %v", err)
	}
	if run.Status != models.SyncStatusRunning {
		t.Errorf("Expected running status, got %s", run.Status)
	}

	run.BoardsProcessed = 5
	run.ItemsCreated = 7
	if err := CompleteSyncRun(db, run); err != nil {
		t.Fatalf("CompleteSyncRun failed: %v", err)
	}

	got, err := GetSyncRun(db, run.ID)
	if err != nil {
		t.Fatalf("GetSyncRun failed: %v", err)
	}
	if got.Status != models.SyncStatusCompleted {
		t.Errorf("Expected completed status, got %s", got.Status)
	}
	if got.BoardsProcessed != 5 || got.ItemsCreated != 7 {
		t.Errorf("Expected counts 5/7, got %d/%d", got.BoardsProcessed, got.ItemsCreated)
	}
	if got.CompletedAt == nil {
		t.Error("Expected completed_at to be set")
	}
}

func TestFailSyncRunKeepsPartialCounts(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	run, err := StartSyncRun(db, "01HQZX4J9N6YV1R8Q2M3T5W7KA", models.SyncKindFull, "")
	if err != nil {
		t.Fatalf("StartSyncRun failed: %v", err)
	}

	run.BoardsProcessed = 3
	run.ItemsCreated = 4
	if err := FailSyncRun(db, run, "remote API unreachable"); err != nil {
		t.Fatalf("FailSyncRun failed: %v", err)
	}

	got, err := GetSyncRun(db, run.ID)
	if err != nil {
		t.Fatalf("GetSyncRun failed: %v", err)
	}
	if got.Status != models.SyncStatusFailed {
		t.Errorf("Expected failed status, got %s", got.Status)
	}
	if got.Error != "remote API unreachable" {
		t.Errorf("Expected error message, got %q", got.Error)
	}
	if got.BoardsProcessed != 3 || got.ItemsCreated != 4 {
		t.Errorf("Expected partial counts 3/4 preserved, got %d/%d", got.BoardsProcessed, got.ItemsCreated)
	}
}

func TestLastCompletedSyncRun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	// No runs yet
	got, err := LastCompletedSyncRun(db)
	if err != nil {
		t.Fatalf("LastCompletedSyncRun failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil when no run completed, got %+v", got)
	}

	first, err := StartSyncRun(db, "01HQZX4J9N6YV1R8Q2M3T5W7KB", models.SyncKindFull, "")
	if err != nil {
		t.Fatalf("StartSyncRun failed: %v", err)
	}
	if err := CompleteSyncRun(db, first); err != nil {
		t.Fatalf("CompleteSyncRun failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	second, err := StartSyncRun(db, "01HQZX4J9N6YV1R8Q2M3T5W7KC", models.SyncKindIncremental, "")
	if err != nil {
		t.Fatalf("StartSyncRun failed: %v", err)
	}
	if err := CompleteSyncRun(db, second); err != nil {
		t.Fatalf("CompleteSyncRun failed: %v", err)
	}

	// A failed run after the completions must not win
	failed, err := StartSyncRun(db, "01HQZX4J9N6YV1R8Q2M3T5W7KD", models.SyncKindFull, "")
	if err != nil {
		t.Fatalf("StartSyncRun failed: %v", err)
	}
	if err := FailSyncRun(db, failed, "boom"); err != nil {
		t.Fatalf("FailSyncRun failed: %v", err)
	}

	got, err = LastCompletedSyncRun(db)
	if err != nil {
		t.Fatalf("LastCompletedSyncRun failed: %v", err)
	}
	if got == nil || got.ID != second.ID {
		t.Errorf("Expected most recent completed run %s, got %+v", second.ID, got)
	}
}

func TestCancelAbandonedRuns(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if _, err := StartSyncRun(db, "01HQZX4J9N6YV1R8Q2M3T5W7KE", models.SyncKindFull, ""); err != nil {
		t.Fatalf("StartSyncRun failed: %v", err)
	}
	done, err := StartSyncRun(db, "01HQZX4J9N6YV1R8Q2M3T5W7KF", models.SyncKindFull, "")
	if err != nil {
		t.Fatalf("StartSyncRun failed: %v", err)
	}
	if err := CompleteSyncRun(db, done); err != nil {
		t.Fatalf("CompleteSyncRun failed: %v", err)
	}

	n, err := CancelAbandonedRuns(db)
	if err != nil {
		t.Fatalf("CancelAbandonedRuns failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 abandoned run cancelled, got %d", n)
	}

	got, err := GetSyncRun(db, "01HQZX4J9N6YV1R8Q2M3T5W7KE")
	if err != nil {
		t.Fatalf("GetSyncRun failed: %v", err)
	}
	if got.Status != models.SyncStatusCancelled {
		t.Errorf("Expected cancelled status, got %s", got.Status)
	}
}

func TestRecentSyncRunsLimit(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ids := []string{
		"01HQZX4J9N6YV1R8Q2M3T5W7A1",
		"01HQZX4J9N6YV1R8Q2M3T5W7A2",
		"01HQZX4J9N6YV1R8Q2M3T5W7A3",
	}
	for _, id := range ids {
		run, err := StartSyncRun(db, id, models.SyncKindIncremental, "")
		if err != nil {
			t.Fatalf("StartSyncRun failed: %v", err)
		}
		if err := CompleteSyncRun(db, run); err != nil {
			t.Fatalf("CompleteSyncRun failed: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	runs, err := RecentSyncRuns(db, 2)
	if err != nil {
		t.Fatalf("RecentSyncRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != ids[2] {
		t.Errorf("Expected newest run first, got %s", runs[0].ID)
	}
}

func TestSyncRunScopeRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	run, err := StartSyncRun(db, "01HQZX4J9N6YV1R8Q2M3T5W7A4", models.SyncKindWorkspace, "1001")
	if err != nil {
		t.Fatalf("StartSyncRun failed: %v", err)
	}
	if err := CompleteSyncRun(db, run); err != nil {
		t.Fatalf("CompleteSyncRun failed: %v", err)
	}

	got, err := GetSyncRun(db, run.ID)
	if err != nil {
		t.Fatalf("GetSyncRun failed: %v", err)
	}
	if got.Scope != "1001" {
		t.Errorf("Expected scope 1001, got %q", got.Scope)
	}
	if got.Kind != models.SyncKindWorkspace {
		t.Errorf("Expected workspace kind, got %s", got.Kind)
	}
}
