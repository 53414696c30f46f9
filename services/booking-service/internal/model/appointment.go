package model

import "time"

// DefaultDurationMinutes is the fixed visit length for this system.
const DefaultDurationMinutes = 30

// Appointment is one scheduled encounter between a client's pet and a
// practitioner. Rows are never deleted; cancellation is a status change.
type Appointment struct {
	ID              string
	PetID           string
	ClientID        string
	PractitionerID  string
	ClinicID        string
	ScheduledAt     time.Time
	DurationMinutes int
	Reason          string
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (a Appointment) Duration() time.Duration {
	mins := a.DurationMinutes
	if mins <= 0 {
		mins = DefaultDurationMinutes
	}
	return time.Duration(mins) * time.Minute
}

// End returns the exclusive end of the appointment interval.
func (a Appointment) End() time.Time {
	return a.ScheduledAt.Add(a.Duration())
}

// ReminderKind identifies the wall-clock offset a reminder fires at.
type ReminderKind string

const (
	Reminder24h ReminderKind = "24h"
	Reminder1h  ReminderKind = "1h"
)

// Kinds lists every reminder offset scheduled for an upcoming appointment.
var Kinds = []ReminderKind{Reminder24h, Reminder1h}

func ParseReminderKind(raw string) (ReminderKind, error) {
	switch ReminderKind(raw) {
	case Reminder24h, Reminder1h:
		return ReminderKind(raw), nil
	}
	return "", &IntegrityError{Field: "reminder kind", Value: raw}
}

// Offset returns how long before the appointment this kind fires.
func (k ReminderKind) Offset() time.Duration {
	switch k {
	case Reminder24h:
		return 24 * time.Hour
	case Reminder1h:
		return time.Hour
	}
	return 0
}

// ReminderJob is a scheduled future reminder tied to one appointment.
// At most one non-cancelled job of a given kind exists per appointment.
type ReminderJob struct {
	ID            string
	AppointmentID string
	FireAt        time.Time
	Kind          ReminderKind
	Delivered     bool
	Cancelled     bool
	CreatedAt     time.Time
}

// NotificationType is the closed set of in-app notification categories.
type NotificationType string

const (
	NotifyNewAppointment         NotificationType = "new_appointment"
	NotifyAppointmentScheduled   NotificationType = "appointment_scheduled"
	NotifyAppointmentReminder    NotificationType = "appointment_reminder"
	NotifyAppointmentCancelled   NotificationType = "appointment_cancelled"
	NotifyAppointmentRescheduled NotificationType = "appointment_rescheduled"
	NotifyNewMessage             NotificationType = "new_message"
)

// NotificationRecord is an in-app notification. Creation is append-only and
// is_read only ever moves false -> true.
type NotificationRecord struct {
	ID            string
	RecipientID   string
	Type          NotificationType
	Title         string
	Content       string
	AppointmentID string // optional
	ReminderJobID string // set only for reminder dispatches; dedup key
	IsRead        bool
	CreatedAt     time.Time
}
