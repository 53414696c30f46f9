package reminders

import (
	"time"

	"github.com/vetlinkhq/vetsched/services/booking-service/internal/model"
)

// Plan computes the reminder jobs for an appointment starting at scheduledAt.
// One job per kind (24h, 1h before the visit); offsets whose fire time is not
// strictly after now are skipped, so a near-term booking gets no backfill
// reminder.
func Plan(scheduledAt, now time.Time) []model.ReminderJob {
	var jobs []model.ReminderJob
	for _, kind := range model.Kinds {
		fireAt := scheduledAt.Add(-kind.Offset())
		if !fireAt.After(now) {
			continue
		}
		jobs = append(jobs, model.ReminderJob{
			Kind:   kind,
			FireAt: fireAt.UTC(),
		})
	}
	return jobs
}
