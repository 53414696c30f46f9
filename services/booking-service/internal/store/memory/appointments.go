package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/availability"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/model"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/outbox"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/store"
)

// AppointmentStore is an in-memory store.AppointmentStore for service and
// handler tests. A single mutex stands in for the per-practitioner advisory
// lock: check+write is atomic here by construction.
type AppointmentStore struct {
	mu            sync.Mutex
	appointments  map[string]model.Appointment
	ReminderJobs  map[string]model.ReminderJob
	Notifications []model.NotificationRecord
	Events        []outbox.Event
}

func NewAppointmentStore() *AppointmentStore {
	return &AppointmentStore{
		appointments: make(map[string]model.Appointment),
		ReminderJobs: make(map[string]model.ReminderJob),
	}
}

func (s *AppointmentStore) Create(_ context.Context, appt model.Appointment, fx store.SideEffects) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if appt.Status.Active() && s.overlapLocked(appt.PractitionerID, appt.ScheduledAt, appt.End(), "") {
		return model.Appointment{}, model.ErrSlotConflict
	}

	now := time.Now().UTC()
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	appt.CreatedAt = now
	appt.UpdatedAt = now
	s.appointments[appt.ID] = appt
	s.applyLocked(appt.ID, fx)
	return appt, nil
}

func (s *AppointmentStore) Update(_ context.Context, id string, apply store.ApplyFunc) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appt, ok := s.appointments[id]
	if !ok {
		return model.Appointment{}, model.ErrNotFound
	}
	prevStart := appt.ScheduledAt

	fx, err := apply(&appt)
	if err != nil {
		return model.Appointment{}, err
	}
	if appt.Status.Active() && (fx.RevalidateSlot || !appt.ScheduledAt.Equal(prevStart)) &&
		s.overlapLocked(appt.PractitionerID, appt.ScheduledAt, appt.End(), appt.ID) {
		return model.Appointment{}, model.ErrSlotConflict
	}

	appt.UpdatedAt = time.Now().UTC()
	s.appointments[id] = appt
	s.applyLocked(id, fx)
	return appt, nil
}

func (s *AppointmentStore) Get(_ context.Context, id string) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appt, ok := s.appointments[id]
	if !ok {
		return model.Appointment{}, model.ErrNotFound
	}
	return appt, nil
}

func (s *AppointmentStore) List(_ context.Context, filter store.ListFilter) ([]model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Appointment, 0)
	for _, appt := range s.appointments {
		if filter.PractitionerID != "" && appt.PractitionerID != filter.PractitionerID {
			continue
		}
		if filter.ClientID != "" && appt.ClientID != filter.ClientID {
			continue
		}
		if !filter.From.IsZero() && appt.ScheduledAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !appt.ScheduledAt.Before(filter.To) {
			continue
		}
		if filter.Status != "" && appt.Status != filter.Status {
			continue
		}
		out = append(out, appt)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledAt.Before(out[j].ScheduledAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *AppointmentStore) BusyIntervals(_ context.Context, practitionerID string, from, to time.Time) ([]availability.Interval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var busy []availability.Interval
	for _, appt := range s.appointments {
		if appt.PractitionerID != practitionerID || !appt.Status.Active() {
			continue
		}
		if availability.Overlaps(appt.ScheduledAt, appt.End(), from, to) {
			busy = append(busy, availability.Interval{Start: appt.ScheduledAt, End: appt.End()})
		}
	}
	sort.Slice(busy, func(i, j int) bool { return busy[i].Start.Before(busy[j].Start) })
	return busy, nil
}

// LiveReminders returns the non-cancelled, non-delivered jobs for an
// appointment, ordered by fire time. Test helper.
func (s *AppointmentStore) LiveReminders(appointmentID string) []model.ReminderJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	var jobs []model.ReminderJob
	for _, job := range s.ReminderJobs {
		if job.AppointmentID == appointmentID && !job.Cancelled && !job.Delivered {
			jobs = append(jobs, job)
		}
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].FireAt.Before(jobs[j].FireAt) })
	return jobs
}

func (s *AppointmentStore) overlapLocked(practitionerID string, start, end time.Time, excludeID string) bool {
	for _, other := range s.appointments {
		if other.PractitionerID != practitionerID || !other.Status.Active() {
			continue
		}
		if other.ID == excludeID {
			continue
		}
		if availability.Overlaps(start, end, other.ScheduledAt, other.End()) {
			return true
		}
	}
	return false
}

func (s *AppointmentStore) applyLocked(appointmentID string, fx store.SideEffects) {
	if fx.CancelReminders {
		for id, job := range s.ReminderJobs {
			if job.AppointmentID == appointmentID && !job.Delivered && !job.Cancelled {
				job.Cancelled = true
				s.ReminderJobs[id] = job
			}
		}
	}
	for _, job := range fx.ReminderJobs {
		job.ID = uuid.NewString()
		job.AppointmentID = appointmentID
		job.CreatedAt = time.Now().UTC()
		s.ReminderJobs[job.ID] = job
	}
	for _, n := range fx.Notifications {
		n.ID = uuid.NewString()
		n.CreatedAt = time.Now().UTC()
		s.Notifications = append(s.Notifications, n)
	}
	s.Events = append(s.Events, fx.Events...)
}
