package outbox

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType (event per topic).
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Topics published by the booking core. Downstream consumers (push fanout,
// audit) subscribe per topic.
const (
	TopicAppointmentRequested   = "booking.appointment.requested.v1"
	TopicAppointmentScheduled   = "booking.appointment.scheduled.v1"
	TopicAppointmentConfirmed   = "booking.appointment.confirmed.v1"
	TopicAppointmentRescheduled = "booking.appointment.rescheduled.v1"
	TopicAppointmentCancelled   = "booking.appointment.cancelled.v1"
	TopicAppointmentCompleted   = "booking.appointment.completed.v1"
)
