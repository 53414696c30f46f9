package store

import (
	"context"
	"time"

	"github.com/vetlinkhq/vetsched/services/booking-service/internal/availability"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/model"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/outbox"
)

// SideEffects is everything a lifecycle transition persists alongside the
// appointment row. The store applies the whole set in the same transaction as
// the appointment write; a failure anywhere rolls back everything.
type SideEffects struct {
	// CancelReminders marks every live (not delivered, not cancelled)
	// reminder job for the appointment as cancelled before any new jobs
	// are inserted.
	CancelReminders bool
	ReminderJobs    []model.ReminderJob
	Notifications   []model.NotificationRecord
	Events          []outbox.Event

	// RevalidateSlot forces the availability re-check even when the
	// appointment time did not change (confirm re-validates its slot).
	RevalidateSlot bool
}

// ListFilter selects appointments for calendar rendering. Zero values mean
// "no constraint".
type ListFilter struct {
	PractitionerID string
	ClientID       string
	From           time.Time
	To             time.Time
	Status         model.Status
	Limit          int
}

// ApplyFunc inspects and mutates a row-locked appointment. Returning an error
// aborts the transaction with nothing applied.
type ApplyFunc func(appt *model.Appointment) (SideEffects, error)

// AppointmentStore is the transactional persistence contract for the booking
// core.
//
// Create serializes the availability check and the insert per practitioner
// (advisory lock on the practitioner id), so two concurrent requests for
// overlapping windows cannot both succeed. Appointments created in a
// non-active status (express visits) skip the overlap check.
//
// Update locks the appointment row, runs apply, and re-checks availability
// against the practitioner's calendar whenever apply moved the appointment,
// excluding the appointment's own prior slot.
type AppointmentStore interface {
	Create(ctx context.Context, appt model.Appointment, fx SideEffects) (model.Appointment, error)
	Update(ctx context.Context, id string, apply ApplyFunc) (model.Appointment, error)
	Get(ctx context.Context, id string) (model.Appointment, error)
	List(ctx context.Context, filter ListFilter) ([]model.Appointment, error)
	// BusyIntervals returns the active appointment intervals for a
	// practitioner inside [from, to), for free-slot listings.
	BusyIntervals(ctx context.Context, practitionerID string, from, to time.Time) ([]availability.Interval, error)
}
