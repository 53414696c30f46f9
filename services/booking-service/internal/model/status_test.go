package model

import "testing"

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusConfirmed},
		{StatusPending, StatusCancelled},
		{StatusScheduled, StatusConfirmed},
		{StatusScheduled, StatusCompleted},
		{StatusScheduled, StatusCancelled},
		{StatusConfirmed, StatusCompleted},
		{StatusConfirmed, StatusCancelled},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusPending, StatusCompleted},
		{StatusCompleted, StatusCancelled},
		{StatusCompleted, StatusConfirmed},
		{StatusCancelled, StatusScheduled},
		{StatusCancelled, StatusCancelled},
		{StatusConfirmed, StatusPending},
	}
	for _, tc := range denied {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	all := []Status{StatusPending, StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled}
	for _, from := range all {
		if !from.Terminal() {
			continue
		}
		for _, to := range all {
			if CanTransition(from, to) {
				t.Errorf("terminal state %s allows transition to %s", from, to)
			}
		}
	}
}

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{"pending", "scheduled", "confirmed", "completed", "cancelled"} {
		status, err := ParseStatus(raw)
		if err != nil {
			t.Fatalf("ParseStatus(%q): %v", raw, err)
		}
		if string(status) != raw {
			t.Fatalf("ParseStatus(%q) = %q", raw, status)
		}
	}

	if _, err := ParseStatus("booked"); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if _, err := ParseStatus(""); err == nil {
		t.Fatal("expected error for empty status")
	}
}

func TestActiveStatesHoldSlots(t *testing.T) {
	for _, status := range []Status{StatusPending, StatusScheduled, StatusConfirmed} {
		if !status.Active() {
			t.Errorf("expected %s to hold a calendar slot", status)
		}
	}
	for _, status := range []Status{StatusCompleted, StatusCancelled} {
		if status.Active() {
			t.Errorf("expected %s not to hold a calendar slot", status)
		}
	}
}
