package reminders

import (
	"testing"
	"time"

	"github.com/vetlinkhq/vetsched/services/booking-service/internal/model"
)

func TestPlan_BothOffsetsInFuture(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	scheduledAt := now.Add(30 * time.Hour)

	jobs := Plan(scheduledAt, now)
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].Kind != model.Reminder24h || !jobs[0].FireAt.Equal(scheduledAt.Add(-24*time.Hour)) {
		t.Fatalf("unexpected first job: %+v", jobs[0])
	}
	if jobs[1].Kind != model.Reminder1h || !jobs[1].FireAt.Equal(scheduledAt.Add(-time.Hour)) {
		t.Fatalf("unexpected second job: %+v", jobs[1])
	}
}

func TestPlan_NearTermBookingGetsNoBackfill(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

	if jobs := Plan(now.Add(30*time.Minute), now); len(jobs) != 0 {
		t.Fatalf("expected 0 jobs for a 30m-out booking, got %d", len(jobs))
	}
}

func TestPlan_OnlyOneHourOffsetFits(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

	jobs := Plan(now.Add(5*time.Hour), now)
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].Kind != model.Reminder1h {
		t.Fatalf("expected 1h reminder, got %s", jobs[0].Kind)
	}
}

func TestPlan_FireTimeExactlyNowIsSkipped(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

	// fireAt must be strictly after now.
	jobs := Plan(now.Add(time.Hour), now)
	if len(jobs) != 0 {
		t.Fatalf("expected 0 jobs when fire time equals now, got %d", len(jobs))
	}
}
