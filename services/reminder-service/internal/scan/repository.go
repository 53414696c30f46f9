package scan

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DueReminder is a claimed reminder job joined with the appointment it
// belongs to. Only jobs whose appointment is still active are fetched;
// cancelled and completed visits never produce a reminder.
type DueReminder struct {
	ID             string
	AppointmentID  string
	Kind           string
	FireAt         time.Time
	ClientID       string
	PractitionerID string
	PetID          string
	ScheduledAt    time.Time
	Traceparent    string
	Tracestate     string
	Attempts       int
	MaxAttempts    int
}

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// FetchDue claims up to limit due jobs with FOR UPDATE SKIP LOCKED, so
// concurrent scanner replicas never pick the same job twice.
func (r *Repository) FetchDue(ctx context.Context, tx pgx.Tx, limit int) ([]DueReminder, error) {
	rows, err := tx.Query(ctx, `
		SELECT j.id, j.appointment_id, j.kind, j.fire_at,
			a.client_id, a.practitioner_id, a.pet_id, a.scheduled_at,
			j.traceparent, j.tracestate, j.attempts, j.max_attempts
		FROM reminder_jobs j
		JOIN appointments a ON a.id = j.appointment_id
		WHERE NOT j.delivered
			AND NOT j.cancelled
			AND j.next_run_at <= now()
			AND a.status IN ('pending', 'scheduled', 'confirmed')
		ORDER BY j.next_run_at
		LIMIT $1
		FOR UPDATE OF j SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []DueReminder
	for rows.Next() {
		var d DueReminder
		if err := rows.Scan(
			&d.ID, &d.AppointmentID, &d.Kind, &d.FireAt,
			&d.ClientID, &d.PractitionerID, &d.PetID, &d.ScheduledAt,
			&d.Traceparent, &d.Tracestate, &d.Attempts, &d.MaxAttempts,
		); err != nil {
			return nil, err
		}
		due = append(due, d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return due, nil
}

func (r *Repository) MarkDelivered(ctx context.Context, tx pgx.Tx, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE reminder_jobs
		SET delivered = true, updated_at = now()
		WHERE id = ANY($1)
	`, ids)
	return err
}

func (r *Repository) MarkFailed(ctx context.Context, tx pgx.Tx, id string, attempts int, maxAttempts int, nextRunAt time.Time, lastError string) error {
	cancelled := attempts >= maxAttempts
	_, err := tx.Exec(ctx, `
		UPDATE reminder_jobs
		SET attempts = $2,
		    cancelled = $3,
		    next_run_at = $4,
		    last_error = $5,
		    updated_at = now()
		WHERE id = $1
	`, id, attempts, cancelled, nextRunAt, lastError)
	return err
}

// InsertReminderNotification writes the in-app reminder for the client and
// reports whether a row was actually inserted. The unique index on
// reminder_job_id makes dispatch idempotent: a replay of an already-dispatched
// job inserts nothing.
func (r *Repository) InsertReminderNotification(ctx context.Context, tx pgx.Tx, d DueReminder, title, content string) (bool, error) {
	ct, err := tx.Exec(ctx, `
		INSERT INTO notifications (id, recipient_id, type, title, content, appointment_id, reminder_job_id)
		VALUES ($1, $2, 'appointment_reminder', $3, $4, $5, $6)
		ON CONFLICT (reminder_job_id) DO NOTHING
	`, uuid.NewString(), d.ClientID, title, content, d.AppointmentID, d.ID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}
