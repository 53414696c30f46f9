package clock

import "time"

// Clock abstracts wall-clock reads so booking rules ("is this slot in the
// past?", reminder offsets) can be exercised against a fixed instant in tests.
// All callers operate on UTC instants.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// System returns the real wall clock, normalized to UTC.
func System() Clock {
	return systemClock{}
}

// Fixed is a Clock pinned to a settable instant.
type Fixed struct {
	Instant time.Time
}

func (f *Fixed) Now() time.Time {
	return f.Instant.UTC()
}

// Advance moves the fixed instant forward.
func (f *Fixed) Advance(d time.Duration) {
	f.Instant = f.Instant.Add(d)
}
