package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vetlinkhq/vetsched/libs/clock"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/availability"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/directory"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/model"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/outbox"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/reminders"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/store"
)

// Actor is the authenticated caller, as established by the gateway.
type Actor struct {
	ID   string
	Role string // "client", "practitioner", or "admin"
}

func (a Actor) staff() bool {
	return a.Role == "practitioner" || a.Role == "admin"
}

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// Service orchestrates the appointment lifecycle: availability validation,
// status transitions, reminder scheduling, and in-app notification writes,
// all applied atomically through the store.
type Service struct {
	store     store.AppointmentStore
	clock     clock.Clock
	directory directory.Provider
	logger    *slog.Logger

	// fallback clinic assignment when no directory is configured
	defaultClinicID string
	slotStep        time.Duration
	workdayStart    string
	workdayEnd      string
}

type Config struct {
	DefaultClinicID string
	SlotStep        time.Duration
	WorkdayStart    string // "09:00"
	WorkdayEnd      string // "17:00"
}

func NewService(st store.AppointmentStore, clk clock.Clock, dir directory.Provider, logger *slog.Logger, cfg Config) *Service {
	if cfg.SlotStep <= 0 {
		cfg.SlotStep = 30 * time.Minute
	}
	if cfg.WorkdayStart == "" {
		cfg.WorkdayStart = "09:00"
	}
	if cfg.WorkdayEnd == "" {
		cfg.WorkdayEnd = "17:00"
	}
	return &Service{
		store:           st,
		clock:           clk,
		directory:       dir,
		logger:          logger,
		defaultClinicID: cfg.DefaultClinicID,
		slotStep:        cfg.SlotStep,
		workdayStart:    cfg.WorkdayStart,
		workdayEnd:      cfg.WorkdayEnd,
	}
}

type RequestInput struct {
	PetID          string
	PractitionerID string
	ScheduledAt    time.Time
	Reason         string
}

// Request books a client-initiated appointment in Pending state and notifies
// the practitioner. The slot is held from this point: pending appointments
// participate in the overlap invariant.
func (s *Service) Request(ctx context.Context, actor Actor, in RequestInput) (model.Appointment, error) {
	if actor.Role != "client" && !actor.staff() {
		return model.Appointment{}, validationError("unknown caller role")
	}
	appt, err := s.newAppointment(ctx, actor.ID, in.PetID, in.PractitionerID, in.ScheduledAt, in.Reason)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.Status = model.StatusPending

	fx := store.SideEffects{
		Notifications: []model.NotificationRecord{{
			RecipientID:   appt.PractitionerID,
			AppointmentID: appt.ID,
			Type:          model.NotifyNewAppointment,
			Title:         "New appointment request",
			Content:       fmt.Sprintf("A client requested a visit on %s.", appt.ScheduledAt.UTC().Format(time.RFC1123)),
		}},
	}
	fx.Events = []outbox.Event{s.event(outbox.TopicAppointmentRequested, appt, nil)}
	return s.create(ctx, appt, fx)
}

type ScheduleInput struct {
	PetID          string
	ClientID       string
	PractitionerID string
	ScheduledAt    time.Time
	Reason         string
}

// Schedule books a practitioner- or admin-initiated appointment directly in
// Scheduled state, notifies the client, and schedules reminders.
func (s *Service) Schedule(ctx context.Context, actor Actor, in ScheduleInput) (model.Appointment, error) {
	if !actor.staff() {
		return model.Appointment{}, validationError("only practitioners or admins can schedule directly")
	}
	if in.ClientID == "" {
		return model.Appointment{}, validationError("client_id is required")
	}
	appt, err := s.newAppointment(ctx, in.ClientID, in.PetID, in.PractitionerID, in.ScheduledAt, in.Reason)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.Status = model.StatusScheduled

	fx := store.SideEffects{
		ReminderJobs: reminders.Plan(appt.ScheduledAt, s.clock.Now()),
		Notifications: []model.NotificationRecord{{
			RecipientID:   appt.ClientID,
			AppointmentID: appt.ID,
			Type:          model.NotifyAppointmentScheduled,
			Title:         "Appointment scheduled",
			Content:       fmt.Sprintf("Your visit is scheduled for %s.", appt.ScheduledAt.UTC().Format(time.RFC1123)),
		}},
	}
	fx.Events = []outbox.Event{s.event(outbox.TopicAppointmentScheduled, appt, nil)}
	return s.create(ctx, appt, fx)
}

// Confirm moves a Pending or Scheduled appointment to Confirmed and
// schedules (or refreshes) its reminders.
func (s *Service) Confirm(ctx context.Context, actor Actor, appointmentID string) (model.Appointment, error) {
	now := s.clock.Now()
	return s.store.Update(ctx, appointmentID, func(appt *model.Appointment) (store.SideEffects, error) {
		if !model.CanTransition(appt.Status, model.StatusConfirmed) {
			return store.SideEffects{}, model.ErrInvalidTransition
		}
		appt.Status = model.StatusConfirmed
		fx := store.SideEffects{
			CancelReminders: true,
			ReminderJobs:    reminders.Plan(appt.ScheduledAt, now),
			RevalidateSlot:  true,
			Events:          []outbox.Event{s.event(outbox.TopicAppointmentConfirmed, *appt, nil)},
		}
		return fx, nil
	})
}

// Reschedule moves an active appointment to a new time, keeping its status.
// On conflict nothing is mutated: the appointment keeps its slot and its
// reminder jobs.
func (s *Service) Reschedule(ctx context.Context, actor Actor, appointmentID string, newTime time.Time) (model.Appointment, error) {
	if newTime.IsZero() {
		return model.Appointment{}, validationError("new time is required")
	}
	now := s.clock.Now()
	newTime = newTime.UTC()
	return s.store.Update(ctx, appointmentID, func(appt *model.Appointment) (store.SideEffects, error) {
		if appt.Status.Terminal() {
			return store.SideEffects{}, model.ErrInvalidTransition
		}
		// Elapsed appointments are history; neither leg of a reschedule
		// may sit in the past.
		if appt.ScheduledAt.Before(now) || newTime.Before(now) {
			return store.SideEffects{}, model.ErrPastAppointment
		}
		appt.ScheduledAt = newTime
		fx := store.SideEffects{
			CancelReminders: true,
			ReminderJobs:    reminders.Plan(newTime, now),
			Notifications: []model.NotificationRecord{{
				RecipientID:   s.otherParty(actor, *appt),
				AppointmentID: appt.ID,
				Type:          model.NotifyAppointmentRescheduled,
				Title:         "Appointment rescheduled",
				Content:       fmt.Sprintf("The visit was moved to %s.", newTime.Format(time.RFC1123)),
			}},
			Events: []outbox.Event{s.event(outbox.TopicAppointmentRescheduled, *appt, nil)},
		}
		return fx, nil
	})
}

// Cancel moves an active appointment to Cancelled, cancels outstanding
// reminders, and notifies the other party. The record is kept.
func (s *Service) Cancel(ctx context.Context, actor Actor, appointmentID string, reason string) (model.Appointment, error) {
	now := s.clock.Now()
	return s.store.Update(ctx, appointmentID, func(appt *model.Appointment) (store.SideEffects, error) {
		if !model.CanTransition(appt.Status, model.StatusCancelled) {
			return store.SideEffects{}, model.ErrInvalidTransition
		}
		if appt.ScheduledAt.Before(now) {
			return store.SideEffects{}, model.ErrPastAppointment
		}
		appt.Status = model.StatusCancelled
		fx := store.SideEffects{
			CancelReminders: true,
			Notifications: []model.NotificationRecord{{
				RecipientID:   s.otherParty(actor, *appt),
				AppointmentID: appt.ID,
				Type:          model.NotifyAppointmentCancelled,
				Title:         "Appointment cancelled",
				Content:       fmt.Sprintf("The visit on %s was cancelled.", appt.ScheduledAt.UTC().Format(time.RFC1123)),
			}},
			Events: []outbox.Event{s.event(outbox.TopicAppointmentCancelled, *appt, map[string]any{"reason": reason})},
		}
		return fx, nil
	})
}

// Complete marks a Scheduled or Confirmed appointment as Completed and
// cancels any reminder that has not fired yet (a no-op if all fired).
func (s *Service) Complete(ctx context.Context, actor Actor, appointmentID string) (model.Appointment, error) {
	if !actor.staff() {
		return model.Appointment{}, validationError("only practitioners or admins can complete a visit")
	}
	return s.store.Update(ctx, appointmentID, func(appt *model.Appointment) (store.SideEffects, error) {
		if !model.CanTransition(appt.Status, model.StatusCompleted) {
			return store.SideEffects{}, model.ErrInvalidTransition
		}
		appt.Status = model.StatusCompleted
		fx := store.SideEffects{
			CancelReminders: true,
			Events:          []outbox.Event{s.event(outbox.TopicAppointmentCompleted, *appt, nil)},
		}
		return fx, nil
	})
}

type ExpressVisitInput struct {
	PetID       string
	ClientID    string
	ScheduledAt time.Time
	Reason      string
}

// ExpressVisit records a walk-in that never went through booking: the
// appointment is created directly in Completed state. Completed appointments
// do not hold calendar slots, so no availability check applies.
func (s *Service) ExpressVisit(ctx context.Context, actor Actor, in ExpressVisitInput) (model.Appointment, error) {
	if !actor.staff() {
		return model.Appointment{}, validationError("only practitioners or admins can record an express visit")
	}
	if in.ClientID == "" {
		return model.Appointment{}, validationError("client_id is required")
	}
	if in.PetID == "" {
		return model.Appointment{}, validationError("pet_id is required")
	}
	when := in.ScheduledAt
	if when.IsZero() {
		when = s.clock.Now()
	}

	clinicID, err := s.clinicFor(ctx, actor.ID)
	if err != nil {
		return model.Appointment{}, err
	}
	appt := model.Appointment{
		ID:              uuid.NewString(),
		PetID:           in.PetID,
		ClientID:        in.ClientID,
		PractitionerID:  actor.ID,
		ClinicID:        clinicID,
		ScheduledAt:     when.UTC(),
		DurationMinutes: model.DefaultDurationMinutes,
		Reason:          strings.TrimSpace(in.Reason),
		Status:          model.StatusCompleted,
	}
	fx := store.SideEffects{
		Events: []outbox.Event{s.event(outbox.TopicAppointmentCompleted, appt, map[string]any{"express": true})},
	}
	return s.create(ctx, appt, fx)
}

// List returns appointments matching the filter, for calendar rendering.
// Read-only; safe to retry.
func (s *Service) List(ctx context.Context, filter store.ListFilter) ([]model.Appointment, error) {
	return s.store.List(ctx, filter)
}

// Slots lists the free visit start times for a practitioner on a given UTC day.
func (s *Service) Slots(ctx context.Context, practitionerID string, day time.Time) ([]time.Time, error) {
	workStart, workEnd := s.workdayStart, s.workdayEnd
	if s.directory != nil {
		practice, err := s.directory.GetPractice(ctx, practitionerID)
		if err != nil {
			return nil, fmt.Errorf("%w: directory: %v", model.ErrDependencyUnavailable, err)
		}
		if practice.WorkdayStart != "" {
			workStart = practice.WorkdayStart
		}
		if practice.WorkdayEnd != "" {
			workEnd = practice.WorkdayEnd
		}
	}

	windowStart, windowEnd, err := dayWindow(day, workStart, workEnd)
	if err != nil {
		return nil, err
	}
	busy, err := s.store.BusyIntervals(ctx, practitionerID, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	duration := time.Duration(model.DefaultDurationMinutes) * time.Minute
	return availability.FreeSlots(windowStart, windowEnd, duration, s.slotStep, busy, s.clock.Now()), nil
}

func (s *Service) newAppointment(ctx context.Context, clientID, petID, practitionerID string, scheduledAt time.Time, reason string) (model.Appointment, error) {
	if petID == "" {
		return model.Appointment{}, validationError("pet_id is required")
	}
	if practitionerID == "" {
		return model.Appointment{}, validationError("practitioner_id is required")
	}
	if scheduledAt.IsZero() {
		return model.Appointment{}, validationError("scheduled_at is required")
	}
	if scheduledAt.Before(s.clock.Now()) {
		return model.Appointment{}, model.ErrPastAppointment
	}

	clinicID, err := s.clinicFor(ctx, practitionerID)
	if err != nil {
		return model.Appointment{}, err
	}
	return model.Appointment{
		ID:              uuid.NewString(),
		PetID:           petID,
		ClientID:        clientID,
		PractitionerID:  practitionerID,
		ClinicID:        clinicID,
		ScheduledAt:     scheduledAt.UTC(),
		DurationMinutes: model.DefaultDurationMinutes,
		Reason:          strings.TrimSpace(reason),
	}, nil
}

func (s *Service) create(ctx context.Context, appt model.Appointment, fx store.SideEffects) (model.Appointment, error) {
	created, err := s.store.Create(ctx, appt, fx)
	if err != nil {
		return model.Appointment{}, err
	}
	s.logger.Info("appointment created",
		"appointment_id", created.ID,
		"practitioner_id", created.PractitionerID,
		"status", string(created.Status),
		"scheduled_at", created.ScheduledAt.UTC().Format(time.RFC3339),
	)
	return created, nil
}

func (s *Service) clinicFor(ctx context.Context, practitionerID string) (string, error) {
	if s.directory == nil {
		return s.defaultClinicID, nil
	}
	practice, err := s.directory.GetPractice(ctx, practitionerID)
	if err != nil {
		return "", fmt.Errorf("%w: directory: %v", model.ErrDependencyUnavailable, err)
	}
	if practice.ClinicID == "" {
		return s.defaultClinicID, nil
	}
	return practice.ClinicID, nil
}

// otherParty picks the notification recipient: whoever did not initiate the
// change.
func (s *Service) otherParty(actor Actor, appt model.Appointment) string {
	if actor.ID == appt.ClientID {
		return appt.PractitionerID
	}
	return appt.ClientID
}

func (s *Service) event(topic string, appt model.Appointment, extra map[string]any) outbox.Event {
	body := map[string]any{
		"appointment_id":  appt.ID,
		"pet_id":          appt.PetID,
		"client_id":       appt.ClientID,
		"practitioner_id": appt.PractitionerID,
		"clinic_id":       appt.ClinicID,
		"scheduled_at":    appt.ScheduledAt.UTC().Format(time.RFC3339),
		"status":          string(appt.Status),
	}
	for k, v := range extra {
		body[k] = v
	}
	payload, err := json.Marshal(body)
	if err != nil {
		// Map of scalars; cannot fail in practice.
		s.logger.Error("event payload marshal failed", "err", err, "topic", topic)
		payload = []byte("{}")
	}
	return outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     topic,
		Payload:       payload,
	}
}

func dayWindow(day time.Time, workStart, workEnd string) (time.Time, time.Time, error) {
	startClock, err := time.Parse("15:04", workStart)
	if err != nil {
		return time.Time{}, time.Time{}, validationError("invalid workday start")
	}
	endClock, err := time.Parse("15:04", workEnd)
	if err != nil {
		return time.Time{}, time.Time{}, validationError("invalid workday end")
	}
	day = day.UTC()
	windowStart := time.Date(day.Year(), day.Month(), day.Day(), startClock.Hour(), startClock.Minute(), 0, 0, time.UTC)
	windowEnd := time.Date(day.Year(), day.Month(), day.Day(), endClock.Hour(), endClock.Minute(), 0, 0, time.UTC)
	if !windowEnd.After(windowStart) {
		return time.Time{}, time.Time{}, validationError("workday end must be after start")
	}
	return windowStart, windowEnd, nil
}
