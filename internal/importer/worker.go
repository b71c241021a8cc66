package importer

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/geotax/api/internal/logger"
	"github.com/geotax/api/internal/models"
	"github.com/geotax/api/internal/queue"
	"github.com/geotax/api/internal/repository"
	"github.com/geotax/api/internal/services"
)

// DefaultBatchSize is how many rows are processed between progress writes.
const DefaultBatchSize = 500

// Worker consumes import tasks from the queue and drives each job through
// PENDING -> PROCESSING -> COMPLETED/FAILED. Safe to run several per process;
// the PENDING claim guarantees a job is only ever worked once.
type Worker struct {
	tax       services.TaxService
	jobs      repository.ImportJobRepository
	queue     queue.Queue
	batchSize int
	log       *logger.Logger
}

// NewWorker creates a worker. A non-positive batchSize falls back to
// DefaultBatchSize.
func NewWorker(tax services.TaxService, jobs repository.ImportJobRepository, q queue.Queue, batchSize int, log *logger.Logger) *Worker {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Worker{
		tax:       tax,
		jobs:      jobs,
		queue:     q,
		batchSize: batchSize,
		log:       log,
	}
}

// Run consumes tasks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		task, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.log.Error("Failed to dequeue import task", err, nil)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}

		if err := w.ProcessTask(ctx, task); err != nil {
			w.log.Error("Import task failed", err, map[string]interface{}{
				"job_id": task.JobID,
			})
		}
	}
}

// ProcessTask runs one import job end to end. A redelivered task whose job
// already left PENDING is skipped without touching the stores. Row failures
// are captured in the error report and never abort the job; only a payload
// that cannot be parsed at all (or a store failure) transitions it to FAILED.
func (w *Worker) ProcessTask(ctx context.Context, task *queue.ImportTask) (err error) {
	log := w.log.WithJob(task.JobID)

	// Accumulated per-row errors. A job that fails terminally keeps these
	// entries; the global record is appended after them, never instead of
	// them.
	report := []models.ImportError{}

	failJob := func(global models.ImportError) {
		if failErr := w.jobs.Fail(ctx, task.JobID, append(report, global)); failErr != nil {
			log.Error("Failed to mark import job as FAILED", failErr, nil)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			failJob(models.ImportError{
				GlobalError: fmt.Sprintf("panic: %v", r),
				Trace:       string(debug.Stack()),
			})
			err = fmt.Errorf("import job %d panicked: %v", task.JobID, r)
		}
	}()

	claimed, err := w.jobs.MarkProcessing(ctx, task.JobID, CountDataRows(task.Content))
	if err != nil {
		return err
	}
	if !claimed {
		log.Warn("Skipping replayed import task, job is not PENDING", nil)
		return nil
	}

	doc, err := Parse(task.Content)
	if err != nil {
		failJob(models.ImportError{
			GlobalError: fmt.Sprintf("failed to parse import payload: %v", err),
			Trace:       fmt.Sprintf("%+v", err),
		})
		return nil
	}

	log.Info("Processing import job", map[string]interface{}{
		"total_rows": doc.TotalRows,
	})

	var processed, success, failed int

	for start := 0; start < len(doc.Rows); start += w.batchSize {
		end := start + w.batchSize
		if end > len(doc.Rows) {
			end = len(doc.Rows)
		}

		for _, row := range doc.Rows[start:end] {
			processed++
			if rowErr := w.processRow(ctx, task.JobID, row); rowErr != nil {
				failed++
				report = append(report, models.ImportError{Row: row.Index, Error: rowErr.Error()})
				continue
			}
			success++
		}

		if progressErr := w.jobs.UpdateProgress(ctx, task.JobID, processed, success, failed, report); progressErr != nil {
			failJob(models.ImportError{
				GlobalError: fmt.Sprintf("failed to persist import progress: %v", progressErr),
			})
			return progressErr
		}
	}

	if progressErr := w.jobs.UpdateProgress(ctx, task.JobID, processed, success, failed, report); progressErr != nil {
		failJob(models.ImportError{
			GlobalError: fmt.Sprintf("failed to persist import progress: %v", progressErr),
		})
		return progressErr
	}
	if completeErr := w.jobs.Complete(ctx, task.JobID); completeErr != nil {
		failJob(models.ImportError{
			GlobalError: fmt.Sprintf("failed to complete import job: %v", completeErr),
		})
		return completeErr
	}

	log.Info("Import job completed", map[string]interface{}{
		"processed": processed,
		"success":   success,
		"failed":    failed,
	})
	return nil
}

// processRow converts one parsed row into an order. Each row runs in its own
// transactional boundary (the single order insert), so a failure here cannot
// roll back earlier rows.
func (w *Worker) processRow(ctx context.Context, jobID int64, row Row) error {
	if row.Err != nil {
		return row.Err
	}

	lat, err := strconv.ParseFloat(row.Lat, 64)
	if err != nil {
		return fmt.Errorf("invalid latitude %q", row.Lat)
	}
	lon, err := strconv.ParseFloat(row.Lon, 64)
	if err != nil {
		return fmt.Errorf("invalid longitude %q", row.Lon)
	}

	input := services.ProcessOrderInput{
		Lat:            lat,
		Lon:            lon,
		Subtotal:       row.Subtotal,
		ImportJobID:    &jobID,
		ImportRowIndex: &row.Index,
	}

	if row.Timestamp != "" {
		ts, err := ParseTimestamp(row.Timestamp)
		if err != nil {
			return err
		}
		input.Timestamp = &ts
	}

	if _, err := w.tax.ProcessOrder(ctx, input); err != nil {
		return err
	}
	return nil
}
