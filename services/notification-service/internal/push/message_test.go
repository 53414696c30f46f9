package push

import (
	"testing"
	"time"
)

func TestRender(t *testing.T) {
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	msg, ok := Render("scheduling.reminder.due.v1", EventDetails{Kind: "24h", ScheduledAt: at})
	if !ok || msg.Title != "Appointment tomorrow" {
		t.Fatalf("unexpected 24h reminder message: %+v ok=%v", msg, ok)
	}

	msg, ok = Render("scheduling.reminder.due.v1", EventDetails{Kind: "1h", ScheduledAt: at})
	if !ok || msg.Title != "Appointment in one hour" {
		t.Fatalf("unexpected 1h reminder message: %+v ok=%v", msg, ok)
	}

	msg, ok = Render("booking.appointment.cancelled.v1", EventDetails{ScheduledAt: at})
	if !ok || msg.Title != "Appointment cancelled" {
		t.Fatalf("unexpected cancellation message: %+v ok=%v", msg, ok)
	}

	if _, ok := Render("directory.practice.updated.v1", EventDetails{}); ok {
		t.Fatal("unknown event types must not render")
	}
}
