package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vetlinkhq/vetsched/libs/db"
	otelx "github.com/vetlinkhq/vetsched/libs/otel"
	"github.com/vetlinkhq/vetsched/services/reminder-service/internal/outbox"
)

// jobStore is the slice of Repository the batch loop needs.
type jobStore interface {
	FetchDue(ctx context.Context, tx pgx.Tx, limit int) ([]DueReminder, error)
	MarkDelivered(ctx context.Context, tx pgx.Tx, ids []string) error
	MarkFailed(ctx context.Context, tx pgx.Tx, id string, attempts int, maxAttempts int, nextRunAt time.Time, lastError string) error
	InsertReminderNotification(ctx context.Context, tx pgx.Tx, d DueReminder, title, content string) (bool, error)
}

type eventStore interface {
	Insert(ctx context.Context, tx pgx.Tx, evt outbox.Event) error
}

// Worker scans reminder_jobs for due entries and dispatches each one exactly
// once: the in-app notification insert, the outbox event, and the delivered
// flag all commit in the same transaction.
type Worker struct {
	pool      *db.Pool
	repo      jobStore
	outbox    eventStore
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
	backoff   time.Duration
}

type WorkerConfig struct {
	Interval  time.Duration
	BatchSize int
	Backoff   time.Duration
}

func NewWorker(pool *db.Pool, repo *Repository, outboxRepo *outbox.Repository, logger *slog.Logger, cfg WorkerConfig) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 1 * time.Minute
	}
	return &Worker{
		pool:      pool,
		repo:      repo,
		outbox:    outboxRepo,
		logger:    logger,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		backoff:   cfg.Backoff,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.processBatch(ctx); err != nil {
				w.logger.Error("reminder batch failed", "err", err)
			}
		}
	}
}

func (w *Worker) processBatch(ctx context.Context) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	delivered, failed, err := w.runBatch(ctx, tx)
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	if delivered > 0 || failed > 0 {
		w.logger.Info("reminder batch dispatched", "delivered", delivered, "failed", failed)
	}
	return nil
}

func (w *Worker) runBatch(ctx context.Context, tx pgx.Tx) (int, int, error) {
	due, err := w.repo.FetchDue(ctx, tx, w.batchSize)
	if err != nil {
		return 0, 0, err
	}

	var delivered []string
	var failed []DueReminder
	for _, d := range due {
		jobCtx := otelx.ContextWithTraceContext(ctx, d.Traceparent, d.Tracestate)
		// Each dispatch runs in a savepoint so a bad job rolls back alone
		// and the outer transaction stays usable for MarkFailed and the DLQ.
		sp, err := tx.Begin(ctx)
		if err != nil {
			return 0, 0, err
		}
		if dispatchErr := w.dispatch(jobCtx, sp, d); dispatchErr != nil {
			_ = sp.Rollback(ctx)
			w.logger.Error("reminder dispatch failed", "err", dispatchErr, "reminder_job_id", d.ID)
			failed = append(failed, d)
			continue
		}
		if err := sp.Commit(ctx); err != nil {
			return 0, 0, err
		}
		delivered = append(delivered, d.ID)
	}

	if err := w.repo.MarkDelivered(ctx, tx, delivered); err != nil {
		return 0, 0, err
	}

	for _, d := range failed {
		jobCtx := otelx.ContextWithTraceContext(ctx, d.Traceparent, d.Tracestate)
		nextRunAt := time.Now().UTC().Add(w.backoff)
		attempts := d.Attempts + 1
		if err := w.repo.MarkFailed(ctx, tx, d.ID, attempts, d.MaxAttempts, nextRunAt, "dispatch failed"); err != nil {
			return 0, 0, err
		}
		if attempts >= d.MaxAttempts {
			if err := w.enqueueDLQ(jobCtx, tx, d, "max attempts reached"); err != nil {
				return 0, 0, err
			}
		}
	}
	return len(delivered), len(failed), nil
}

func (w *Worker) dispatch(ctx context.Context, tx pgx.Tx, d DueReminder) error {
	title, content := reminderText(d)
	inserted, err := w.repo.InsertReminderNotification(ctx, tx, d, title, content)
	if err != nil {
		return err
	}
	if !inserted {
		// The job was already dispatched once; marking it delivered again
		// is fine, emitting a second event is not.
		return nil
	}

	payload, err := json.Marshal(map[string]any{
		"reminder_job_id": d.ID,
		"appointment_id":  d.AppointmentID,
		"kind":            d.Kind,
		"recipient_id":    d.ClientID,
		"pet_id":          d.PetID,
		"scheduled_at":    d.ScheduledAt.UTC().Format(time.RFC3339),
		"fire_at":         d.FireAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return w.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "reminder_job",
		AggregateID:   d.ID,
		EventType:     outbox.TopicReminderDue,
		Payload:       payload,
	})
}

func (w *Worker) enqueueDLQ(ctx context.Context, tx pgx.Tx, d DueReminder, reason string) error {
	payload, err := json.Marshal(map[string]any{
		"reminder_job_id": d.ID,
		"appointment_id":  d.AppointmentID,
		"kind":            d.Kind,
		"fire_at":         d.FireAt.UTC().Format(time.RFC3339),
		"error_reason":    reason,
		"failed_at":       time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return w.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "reminder_job",
		AggregateID:   d.ID,
		EventType:     outbox.TopicReminderDLQ,
		Payload:       payload,
	})
}

func reminderText(d DueReminder) (title, content string) {
	when := d.ScheduledAt.UTC().Format(time.RFC1123)
	switch d.Kind {
	case "1h":
		return "Appointment in one hour", fmt.Sprintf("Your pet's visit starts at %s.", when)
	default:
		return "Appointment tomorrow", fmt.Sprintf("Your pet's visit is scheduled for %s.", when)
	}
}
