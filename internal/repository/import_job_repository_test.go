package repository

import (
	"context"
	"testing"

	"github.com/geotax/api/internal/models"
)

func TestImportJob_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewImportJobRepository(db)
	ctx := context.Background()

	job, err := repo.Create(ctx)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if job.Status != models.JobStatusPending {
		t.Fatalf("Expected PENDING, got %s", job.Status)
	}
	if len(job.ErrorReport) != 0 {
		t.Errorf("Expected empty error report, got %v", job.ErrorReport)
	}

	claimed, err := repo.MarkProcessing(ctx, job.ID, 10)
	if err != nil {
		t.Fatalf("MarkProcessing returned error: %v", err)
	}
	if !claimed {
		t.Fatal("Expected to claim the PENDING job")
	}

	report := []models.ImportError{{Row: 2, Error: "invalid latitude"}}
	if err := repo.UpdateProgress(ctx, job.ID, 5, 4, 1, report); err != nil {
		t.Fatalf("UpdateProgress returned error: %v", err)
	}

	if err := repo.Complete(ctx, job.ID); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}

	got, err := repo.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if got == nil {
		t.Fatal("Expected job, got nil")
	}
	if got.Status != models.JobStatusCompleted {
		t.Errorf("Expected COMPLETED, got %s", got.Status)
	}
	if got.TotalRows != 10 || got.ProcessedRows != 5 || got.SuccessRows != 4 || got.FailedRows != 1 {
		t.Errorf("Unexpected counters: %+v", got)
	}
	if len(got.ErrorReport) != 1 || got.ErrorReport[0].Row != 2 {
		t.Errorf("Unexpected error report: %v", got.ErrorReport)
	}
	if got.StartedAt == nil || got.FinishedAt == nil {
		t.Error("Expected started_at and finished_at to be stamped")
	}
}

func TestImportJob_MarkProcessingRejectsReplay(t *testing.T) {
	db := setupTestDB(t)
	repo := NewImportJobRepository(db)
	ctx := context.Background()

	job, err := repo.Create(ctx)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	claimed, err := repo.MarkProcessing(ctx, job.ID, 3)
	if err != nil {
		t.Fatalf("MarkProcessing returned error: %v", err)
	}
	if !claimed {
		t.Fatal("Expected first claim to succeed")
	}

	// A redelivered task must not claim the job again.
	claimed, err = repo.MarkProcessing(ctx, job.ID, 3)
	if err != nil {
		t.Fatalf("Second MarkProcessing returned error: %v", err)
	}
	if claimed {
		t.Error("Expected replayed claim to be rejected")
	}
}

func TestImportJob_Fail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewImportJobRepository(db)
	ctx := context.Background()

	job, err := repo.Create(ctx)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := repo.MarkProcessing(ctx, job.ID, 1); err != nil {
		t.Fatalf("MarkProcessing returned error: %v", err)
	}

	report := []models.ImportError{{GlobalError: "missing required columns", Trace: "header: foo,bar"}}
	if err := repo.Fail(ctx, job.ID, report); err != nil {
		t.Fatalf("Fail returned error: %v", err)
	}

	got, err := repo.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if got.Status != models.JobStatusFailed {
		t.Errorf("Expected FAILED, got %s", got.Status)
	}
	if len(got.ErrorReport) != 1 || got.ErrorReport[0].GlobalError == "" {
		t.Errorf("Expected global error entry, got %v", got.ErrorReport)
	}
	if !got.IsTerminal() {
		t.Error("Expected FAILED to be terminal")
	}
}

func TestImportJob_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewImportJobRepository(db)

	job, err := repo.GetByID(context.Background(), 999999)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if job != nil {
		t.Errorf("Expected nil for missing job, got %+v", job)
	}
}

func TestImportJob_List_NewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewImportJobRepository(db)
	ctx := context.Background()

	first, err := repo.Create(ctx)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	second, err := repo.Create(ctx)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	jobs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != second.ID || jobs[1].ID != first.ID {
		t.Errorf("Expected newest first, got %d then %d", jobs[0].ID, jobs[1].ID)
	}
}
