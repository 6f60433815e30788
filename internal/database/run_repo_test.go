package database

import (
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunRepository_InsertAndGet(t *testing.T) {
	repo := NewRunRepository(setupTestDB(t))

	run := NewRun("Holiday Clip", "upload")
	if err := repo.Insert(run); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := repo.GetByID(run.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.VideoName != "Holiday Clip" || got.Source != "upload" {
		t.Errorf("unexpected run: %+v", got)
	}
	if got.Status != RunStatusPending {
		t.Errorf("new run should be PENDING, got %s", got.Status)
	}
}

func TestRunRepository_Update(t *testing.T) {
	repo := NewRunRepository(setupTestDB(t))

	run := NewRun("clip", "youtube")
	if err := repo.Insert(run); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	run.Status = RunStatusCompleted
	run.SessionID = "20260831_120000_clip_ab12cd34"
	if err := repo.Update(run); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := repo.GetByID(run.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != RunStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", got.Status)
	}
	if got.SessionID != run.SessionID {
		t.Errorf("session id not persisted: %q", got.SessionID)
	}
}

func TestRunRepository_GetByID_NotFound(t *testing.T) {
	repo := NewRunRepository(setupTestDB(t))

	if _, err := repo.GetByID("00000000-0000-0000-0000-000000000000"); err == nil {
		t.Error("expected error for unknown run, got nil")
	}
}

func TestRunRepository_List(t *testing.T) {
	repo := NewRunRepository(setupTestDB(t))

	first := NewRun("first", "upload")
	if err := repo.Insert(first); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	second := NewRun("second", "upload")
	second.CreatedAt = second.CreatedAt.Add(time.Second)
	if err := repo.Insert(second); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	runs, err := repo.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].VideoName != "second" {
		t.Errorf("expected newest first, got %s", runs[0].VideoName)
	}
}
