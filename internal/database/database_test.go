package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func TestDatabaseInitialization(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "nested", "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	version, err := db.GetVersion()
	if err != nil {
		t.Fatalf("Failed to get version: %v", err)
	}
	if version != LatestVersion() {
		t.Errorf("Expected version %d, got %d", LatestVersion(), version)
	}

	// Running again is a no-op
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to re-run migrations: %v", err)
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestRollback(t *testing.T) {
	db := openTestDB(t)

	if err := db.RollbackTo(2); err != nil {
		t.Fatalf("Failed to roll back: %v", err)
	}

	version, err := db.GetVersion()
	if err != nil {
		t.Fatalf("Failed to get version: %v", err)
	}
	if version != 2 {
		t.Errorf("Expected version 2, got %d", version)
	}

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if _, ok := stats["account_outcomes"]; ok {
		t.Error("Expected account_outcomes to be dropped")
	}

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to migrate forward again: %v", err)
	}
}

func TestCycleOperations(t *testing.T) {
	db := openTestDB(t)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	seq, err := db.StartCycle("cycle-a", start)
	if err != nil {
		t.Fatalf("Failed to start cycle: %v", err)
	}
	if seq != 1 {
		t.Errorf("Expected sequence 1, got %d", seq)
	}

	seq, err = db.StartCycle("cycle-b", start.Add(time.Minute))
	if err != nil {
		t.Fatalf("Failed to start second cycle: %v", err)
	}
	if seq != 2 {
		t.Errorf("Expected sequence 2, got %d", seq)
	}

	err = db.FinishCycle("cycle-a", CycleTotals{
		FinishedAt:        start.Add(30 * time.Second),
		AccountsTotal:     3,
		AccountsSucceeded: 2,
		AccountsFailed:    1,
		CoinsCollected:    450,
		TasksCompleted:    4,
		TasksFailed:       1,
	})
	if err != nil {
		t.Fatalf("Failed to finish cycle: %v", err)
	}

	cycle, err := db.GetCycle("cycle-a")
	if err != nil {
		t.Fatalf("Failed to get cycle: %v", err)
	}
	if cycle.Status != CycleCompleted {
		t.Errorf("Expected status %s, got %s", CycleCompleted, cycle.Status)
	}
	if cycle.FinishedAt == nil || !cycle.FinishedAt.Equal(start.Add(30*time.Second)) {
		t.Errorf("Unexpected finish time %v", cycle.FinishedAt)
	}
	if cycle.CoinsCollected != 450 || cycle.AccountsFailed != 1 {
		t.Errorf("Unexpected totals %+v", cycle)
	}

	count, err := db.CycleCount()
	if err != nil {
		t.Fatalf("Failed to count cycles: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 cycles, got %d", count)
	}

	recent, err := db.RecentCycles(10)
	if err != nil {
		t.Fatalf("Failed to list cycles: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "cycle-b" {
		t.Errorf("Expected newest cycle first, got %+v", recent)
	}
	if recent[0].FinishedAt != nil || recent[0].Status != CycleRunning {
		t.Errorf("Expected cycle-b still running, got %+v", recent[0])
	}

	if err := db.FinishCycle("missing", CycleTotals{FinishedAt: start, Aborted: true}); !errors.Is(err, ErrCycleNotFound) {
		t.Errorf("Expected ErrCycleNotFound, got %v", err)
	}
	if _, err := db.GetCycle("missing"); !errors.Is(err, ErrCycleNotFound) {
		t.Errorf("Expected ErrCycleNotFound, got %v", err)
	}
}

func TestAccountOutcomes(t *testing.T) {
	db := openTestDB(t)
	start := time.Now()

	if _, err := db.StartCycle("c1", start); err != nil {
		t.Fatalf("Failed to start cycle: %v", err)
	}

	balance := int64(1200)
	outcomes := []*AccountOutcome{
		{CycleID: "c1", AccountID: 7, DisplayName: "Seven", Stage: "tasks", Result: ResultSuccess,
			TokenRefreshed: true, Balance: &balance, CoinsCollected: 200, TasksCompleted: 2,
			RecordedAt: start.Add(time.Second)},
		{CycleID: "c1", AccountID: 8, DisplayName: "Eight", Stage: "token", Result: ResultFailed,
			Message: "account banned", RecordedAt: start.Add(2 * time.Second)},
		{CycleID: "c1", AccountID: 7, DisplayName: "Seven", Proxy: "http://1.2.3.4:80", Stage: "tasks",
			Result: ResultSuccess, CoinsCollected: 50, RecordedAt: start.Add(3 * time.Second)},
	}
	for _, o := range outcomes {
		if _, err := db.RecordAccount(o); err != nil {
			t.Fatalf("Failed to record outcome: %v", err)
		}
		if o.ID == 0 {
			t.Error("Expected outcome ID to be set")
		}
	}

	recent, err := db.RecentOutcomes(7, 10)
	if err != nil {
		t.Fatalf("Failed to get outcomes: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 outcomes for account 7, got %d", len(recent))
	}
	if recent[0].CoinsCollected != 50 || recent[0].Proxy != "http://1.2.3.4:80" {
		t.Errorf("Expected newest outcome first, got %+v", recent[0])
	}
	if recent[1].Balance == nil || *recent[1].Balance != 1200 || !recent[1].TokenRefreshed {
		t.Errorf("Unexpected first outcome %+v", recent[1])
	}
	if recent[0].Balance != nil {
		t.Error("Expected missing balance to stay nil")
	}

	all, err := db.CycleOutcomes("c1")
	if err != nil {
		t.Fatalf("Failed to get cycle outcomes: %v", err)
	}
	if len(all) != 3 || all[1].Message != "account banned" {
		t.Errorf("Unexpected cycle outcomes %+v", all)
	}

	summaries, err := db.AccountSummaries()
	if err != nil {
		t.Fatalf("Failed to get summaries: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("Expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].AccountID != 7 || summaries[0].Runs != 2 || summaries[0].CoinsCollected != 250 {
		t.Errorf("Unexpected summary %+v", summaries[0])
	}
	if summaries[1].Successes != 0 {
		t.Errorf("Expected no successes for account 8, got %d", summaries[1].Successes)
	}

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats["account_outcomes"] != 3 || stats["cycle_runs"] != 1 {
		t.Errorf("Unexpected stats %v", stats)
	}
}

func TestOutcomeRequiresCycle(t *testing.T) {
	db := openTestDB(t)

	_, err := db.RecordAccount(&AccountOutcome{CycleID: "nope", AccountID: 1, Stage: "token", Result: ResultFailed})
	if err == nil {
		t.Error("Expected foreign key violation for unknown cycle")
	}
}
