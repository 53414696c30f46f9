package availability

import (
	"testing"
	"time"
)

func TestOverlaps_HalfOpen(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	nine := day.Add(9 * time.Hour)
	nineThirty := nine.Add(30 * time.Minute)
	ten := day.Add(10 * time.Hour)

	if !Overlaps(nine, nineThirty, nine.Add(15*time.Minute), nine.Add(45*time.Minute)) {
		t.Fatal("expected partial overlap to be detected")
	}
	// Back-to-back visits share a boundary instant but no time.
	if Overlaps(nine, nineThirty, nineThirty, ten) {
		t.Fatal("adjacent intervals must not overlap")
	}
	if Overlaps(nineThirty, ten, nine, nineThirty) {
		t.Fatal("adjacent intervals must not overlap (reversed)")
	}
	if !Overlaps(nine, ten, nine.Add(15*time.Minute), nineThirty) {
		t.Fatal("expected contained interval to overlap")
	}
}

func TestFreeSlots_SkipsBusyAndPast(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	windowStart := day.Add(9 * time.Hour)
	windowEnd := day.Add(11 * time.Hour)

	busy := []Interval{
		{Start: day.Add(9*time.Hour + 30*time.Minute), End: day.Add(10 * time.Hour)},
	}
	now := day.Add(8 * time.Hour)

	slots := FreeSlots(windowStart, windowEnd, 30*time.Minute, 30*time.Minute, busy, now)
	want := []time.Time{
		day.Add(9 * time.Hour),
		day.Add(10 * time.Hour),
		day.Add(10*time.Hour + 30*time.Minute),
	}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d", len(want), len(slots))
	}
	for i := range want {
		if !slots[i].Equal(want[i]) {
			t.Fatalf("slot %d: expected %s, got %s", i, want[i], slots[i])
		}
	}
}

func TestFreeSlots_PastSlotsExcluded(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	windowStart := day.Add(9 * time.Hour)
	windowEnd := day.Add(10 * time.Hour)

	now := day.Add(9*time.Hour + 20*time.Minute)
	slots := FreeSlots(windowStart, windowEnd, 30*time.Minute, 30*time.Minute, nil, now)
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if !slots[0].Equal(day.Add(9*time.Hour + 30*time.Minute)) {
		t.Fatalf("expected 09:30, got %s", slots[0])
	}
}

func TestFreeSlots_VisitMustFitWindow(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	windowStart := day.Add(16*time.Hour + 45*time.Minute)
	windowEnd := day.Add(17 * time.Hour)

	slots := FreeSlots(windowStart, windowEnd, 30*time.Minute, 15*time.Minute, nil, day)
	if len(slots) != 0 {
		t.Fatalf("expected no slots in a 15m window, got %d", len(slots))
	}
}
