package model

// Status is the closed set of appointment lifecycle states. Values are stored
// as text in Postgres; anything read back that does not parse is treated as a
// data-integrity failure, never silently defaulted.
type Status string

const (
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPending, StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled:
		return Status(raw), nil
	}
	return "", &IntegrityError{Field: "appointment status", Value: raw}
}

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Active reports whether an appointment in this state blocks the
// practitioner's calendar. Only active appointments participate in the
// overlap invariant.
func (s Status) Active() bool {
	switch s {
	case StatusPending, StatusScheduled, StatusConfirmed:
		return true
	}
	return false
}

var transitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusConfirmed: true,
		StatusCancelled: true,
	},
	StatusScheduled: {
		StatusConfirmed: true,
		StatusCompleted: true,
		StatusCancelled: true,
	},
	StatusConfirmed: {
		StatusCompleted: true,
		StatusCancelled: true,
	},
	StatusCompleted: {},
	StatusCancelled: {},
}

// CanTransition reports whether from -> to is a legal lifecycle step.
// Reschedules keep the current status and are not modelled here.
func CanTransition(from, to Status) bool {
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	return allowed[to]
}
