package jobs

import (
	"context"
	"errors"
	"log/slog"

	"schoolattend/internal/attendance"
	"schoolattend/internal/metrics"
	"schoolattend/internal/queue"
)

// Ingester runs one upload through the attendance pipeline.
type Ingester interface {
	Ingest(ctx context.Context, fileName string, data []byte) (attendance.Report, error)
}

// Worker consumes ingest messages and records their outcome.
type Worker struct {
	tracker  Tracker
	ingester Ingester
	log      *slog.Logger
}

// NewWorker creates a worker.
func NewWorker(t Tracker, in Ingester, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.Default()
	}
	return &Worker{tracker: t, ingester: in, log: log}
}

// Run processes messages until ctx is cancelled or the queue closes.
func (w *Worker) Run(ctx context.Context, q queue.Queue) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return err
	}
	w.log.Info("worker started, waiting for messages")
	for msg := range messages {
		if msg.Type != queue.TypeIngest {
			w.log.Warn("skipping message", "type", msg.Type)
			continue
		}
		if err := w.Process(ctx, msg); err != nil {
			w.log.Error("ingest job failed", "error", err)
		}
	}
	w.log.Info("worker stopped")
	return nil
}

// Process handles one ingest message. The job ends as done, or failed with
// the error recorded; an upload with no usable rows counts as failed.
func (w *Worker) Process(ctx context.Context, msg queue.Message) error {
	in, err := queue.DecodeIngest(msg)
	if err != nil {
		metrics.JobsProcessed.WithLabelValues(string(StatusFailed)).Inc()
		return err
	}
	job, err := w.tracker.Get(ctx, in.JobID)
	if errors.Is(err, ErrNotFound) {
		job = Job{ID: in.JobID, FileName: in.FileName, ArchiveURL: in.ArchiveURL}
	} else if err != nil {
		return err
	}
	job.Status = StatusRunning
	if err := w.tracker.Put(ctx, job); err != nil {
		return err
	}

	rep, ingestErr := w.ingester.Ingest(ctx, in.FileName, in.Data)
	job.ParsedRows = rep.ParsedRows
	job.Updated = rep.Updated
	job.Status = StatusDone
	if ingestErr != nil {
		job.Status = StatusFailed
		job.Error = ingestErr.Error()
	}
	metrics.JobsProcessed.WithLabelValues(string(job.Status)).Inc()
	if err := w.tracker.Put(ctx, job); err != nil {
		return err
	}
	w.log.Info("ingest job finished", "job", job.ID, "file", job.FileName, "status", job.Status,
		"parsed", job.ParsedRows, "updated", job.Updated)
	return ingestErr
}
