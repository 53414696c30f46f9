package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vetlinkhq/vetsched/libs/db"
	otelx "github.com/vetlinkhq/vetsched/libs/otel"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/availability"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/model"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/outbox"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/store"
)

// AppointmentRepo implements store.AppointmentStore on Postgres. The
// availability check and the appointment write are serialized per
// practitioner with a transaction-scoped advisory lock, so concurrent
// bookings for overlapping windows cannot both pass the check.
type AppointmentRepo struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewAppointmentRepo(pool *db.Pool, outboxRepo *outbox.Repository) *AppointmentRepo {
	return &AppointmentRepo{pool: pool, outbox: outboxRepo}
}

const appointmentColumns = `id, pet_id, client_id, practitioner_id, clinic_id,
	scheduled_at, duration_minutes, reason, status, created_at, updated_at`

func (r *AppointmentRepo) Create(ctx context.Context, appt model.Appointment, fx store.SideEffects) (model.Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, depErr(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if appt.Status.Active() {
		if err := lockPractitioner(ctx, tx, appt.PractitionerID); err != nil {
			return model.Appointment{}, depErr(err)
		}
		conflict, err := hasOverlap(ctx, tx, appt.PractitionerID, appt.ScheduledAt, appt.End(), "")
		if err != nil {
			return model.Appointment{}, depErr(err)
		}
		if conflict {
			return model.Appointment{}, model.ErrSlotConflict
		}
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO appointments
			(id, pet_id, client_id, practitioner_id, clinic_id, scheduled_at, duration_minutes, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, appt.ID, appt.PetID, appt.ClientID, appt.PractitionerID, appt.ClinicID,
		appt.ScheduledAt.UTC(), appt.DurationMinutes, appt.Reason, string(appt.Status),
	).Scan(&appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		return model.Appointment{}, depErr(err)
	}

	if err := r.applySideEffects(ctx, tx, appt.ID, fx); err != nil {
		return model.Appointment{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, depErr(err)
	}
	return appt, nil
}

func (r *AppointmentRepo) Update(ctx context.Context, id string, apply store.ApplyFunc) (model.Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, depErr(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := getForUpdate(ctx, tx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	prevStart := appt.ScheduledAt

	fx, err := apply(&appt)
	if err != nil {
		return model.Appointment{}, err
	}

	// A moved appointment re-enters the availability check, ignoring its
	// own prior slot.
	if appt.Status.Active() && (fx.RevalidateSlot || !appt.ScheduledAt.Equal(prevStart)) {
		if err := lockPractitioner(ctx, tx, appt.PractitionerID); err != nil {
			return model.Appointment{}, depErr(err)
		}
		conflict, err := hasOverlap(ctx, tx, appt.PractitionerID, appt.ScheduledAt, appt.End(), appt.ID)
		if err != nil {
			return model.Appointment{}, depErr(err)
		}
		if conflict {
			return model.Appointment{}, model.ErrSlotConflict
		}
	}

	err = tx.QueryRow(ctx, `
		UPDATE appointments
		SET scheduled_at = $2,
			reason = $3,
			status = $4,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, appt.ID, appt.ScheduledAt.UTC(), appt.Reason, string(appt.Status)).Scan(&appt.UpdatedAt)
	if err != nil {
		return model.Appointment{}, depErr(err)
	}

	if err := r.applySideEffects(ctx, tx, appt.ID, fx); err != nil {
		return model.Appointment{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, depErr(err)
	}
	return appt, nil
}

func (r *AppointmentRepo) Get(ctx context.Context, id string) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	appt, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Appointment{}, model.ErrNotFound
	}
	return appt, err
}

func (r *AppointmentRepo) List(ctx context.Context, filter store.ListFilter) ([]model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	var where []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.PractitionerID != "" {
		where = append(where, "practitioner_id = "+arg(filter.PractitionerID))
	}
	if filter.ClientID != "" {
		where = append(where, "client_id = "+arg(filter.ClientID))
	}
	if !filter.From.IsZero() {
		where = append(where, "scheduled_at >= "+arg(filter.From.UTC()))
	}
	if !filter.To.IsZero() {
		where = append(where, "scheduled_at < "+arg(filter.To.UTC()))
	}
	if filter.Status != "" {
		where = append(where, "status = "+arg(string(filter.Status)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY scheduled_at ASC"
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query += " LIMIT " + arg(limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, depErr(err)
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, depErr(rows.Err())
	}
	return appts, nil
}

func (r *AppointmentRepo) BusyIntervals(ctx context.Context, practitionerID string, from, to time.Time) ([]availability.Interval, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT scheduled_at, scheduled_at + make_interval(mins => duration_minutes)
		FROM appointments
		WHERE practitioner_id = $1
			AND status IN ('pending', 'scheduled', 'confirmed')
			AND scheduled_at < $3
			AND scheduled_at + make_interval(mins => duration_minutes) > $2
		ORDER BY scheduled_at ASC
	`, practitionerID, from.UTC(), to.UTC())
	if err != nil {
		return nil, depErr(err)
	}
	defer rows.Close()

	var busy []availability.Interval
	for rows.Next() {
		var iv availability.Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, depErr(err)
		}
		busy = append(busy, iv)
	}
	if rows.Err() != nil {
		return nil, depErr(rows.Err())
	}
	return busy, nil
}

func (r *AppointmentRepo) applySideEffects(ctx context.Context, tx pgx.Tx, appointmentID string, fx store.SideEffects) error {
	if fx.CancelReminders {
		_, err := tx.Exec(ctx, `
			UPDATE reminder_jobs
			SET cancelled = true, updated_at = now()
			WHERE appointment_id = $1 AND NOT delivered AND NOT cancelled
		`, appointmentID)
		if err != nil {
			return depErr(err)
		}
	}
	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	for _, job := range fx.ReminderJobs {
		id := job.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO reminder_jobs (id, appointment_id, fire_at, kind, next_run_at, traceparent, tracestate)
			VALUES ($1, $2, $3, $4, $3, $5, $6)
		`, id, appointmentID, job.FireAt.UTC(), string(job.Kind), traceparent, tracestate)
		if err != nil {
			return depErr(err)
		}
	}
	for _, n := range fx.Notifications {
		id := n.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO notifications (id, recipient_id, type, title, content, appointment_id)
			VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		`, id, n.RecipientID, string(n.Type), n.Title, n.Content, n.AppointmentID)
		if err != nil {
			return depErr(err)
		}
	}
	for _, evt := range fx.Events {
		if err := r.outbox.Insert(ctx, tx, evt); err != nil {
			return depErr(err)
		}
	}
	return nil
}

// lockPractitioner serializes check+write for one practitioner within the
// current transaction. Released automatically at commit/rollback.
func lockPractitioner(ctx context.Context, tx pgx.Tx, practitionerID string) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, practitionerID)
	return err
}

// hasOverlap runs the half-open interval test against active appointments:
// existing.start < windowEnd AND existing.end > windowStart.
func hasOverlap(ctx context.Context, tx pgx.Tx, practitionerID string, windowStart, windowEnd time.Time, excludeID string) (bool, error) {
	var conflict bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE practitioner_id = $1
				AND status IN ('pending', 'scheduled', 'confirmed')
				AND scheduled_at < $3
				AND scheduled_at + make_interval(mins => duration_minutes) > $2
				AND ($4 = '' OR id::text <> $4)
		)
	`, practitionerID, windowStart.UTC(), windowEnd.UTC(), excludeID).Scan(&conflict)
	return conflict, err
}

func getForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Appointment, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, id)
	appt, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Appointment{}, model.ErrNotFound
	}
	return appt, err
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	var status string
	err := row.Scan(
		&appt.ID,
		&appt.PetID,
		&appt.ClientID,
		&appt.PractitionerID,
		&appt.ClinicID,
		&appt.ScheduledAt,
		&appt.DurationMinutes,
		&appt.Reason,
		&status,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Appointment{}, err
		}
		return model.Appointment{}, depErr(err)
	}
	parsed, err := model.ParseStatus(status)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.Status = parsed
	return appt, nil
}

// depErr classifies store failures as retryable dependency errors while
// keeping the underlying cause in the message.
func depErr(err error) error {
	return fmt.Errorf("%w: %v", model.ErrDependencyUnavailable, err)
}
