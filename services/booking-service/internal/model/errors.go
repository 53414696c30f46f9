package model

import (
	"errors"
	"fmt"
)

// Error taxonomy surfaced by booking operations. Handlers map these to HTTP
// status codes; everything else is treated as an internal failure.
var (
	// ErrSlotConflict: the requested window overlaps an active appointment
	// for the same practitioner. Never retried automatically.
	ErrSlotConflict = errors.New("slot conflict")

	// ErrInvalidTransition: the requested status change is not legal from
	// the appointment's current state.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrPastAppointment: the target or current appointment time is already
	// in the past.
	ErrPastAppointment = errors.New("appointment time is in the past")

	ErrNotFound = errors.New("appointment not found")

	// ErrDependencyUnavailable: a store or directory lookup failed
	// transiently. Retryable for reads; state-changing operations are not
	// auto-retried.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// IntegrityError marks data read from the store that violates the closed
// enums of the domain (e.g. an unmapped status string). It is surfaced, not
// defaulted.
type IntegrityError struct {
	Field string
	Value string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("data integrity: unexpected %s %q", e.Field, e.Value)
}
