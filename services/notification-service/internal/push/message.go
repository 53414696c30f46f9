package push

import (
	"fmt"
	"time"
)

// EventDetails is the subset of an appointment event payload that push
// rendering needs. ScheduledAt is already parsed by the caller.
type EventDetails struct {
	Kind        string // reminder kind, set only for reminder events
	ScheduledAt time.Time
}

// Render maps a consumed event type to the push message shown on the
// client's device. Unknown event types yield ok=false and are skipped.
func Render(eventType string, d EventDetails) (Message, bool) {
	when := d.ScheduledAt.UTC().Format(time.RFC1123)
	switch eventType {
	case "scheduling.reminder.due.v1":
		if d.Kind == "1h" {
			return Message{
				Title: "Appointment in one hour",
				Body:  fmt.Sprintf("Your pet's visit starts at %s.", when),
			}, true
		}
		return Message{
			Title: "Appointment tomorrow",
			Body:  fmt.Sprintf("Your pet's visit is scheduled for %s.", when),
		}, true
	case "booking.appointment.scheduled.v1":
		return Message{
			Title: "Appointment scheduled",
			Body:  fmt.Sprintf("Your visit is scheduled for %s.", when),
		}, true
	case "booking.appointment.rescheduled.v1":
		return Message{
			Title: "Appointment rescheduled",
			Body:  fmt.Sprintf("Your visit was moved to %s.", when),
		}, true
	case "booking.appointment.cancelled.v1":
		return Message{
			Title: "Appointment cancelled",
			Body:  fmt.Sprintf("The visit on %s was cancelled.", when),
		}, true
	}
	return Message{}, false
}
