package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/vetlinkhq/vetsched/libs/clock"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/model"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/outbox"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/store"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/store/memory"
)

var (
	client       = Actor{ID: "client-1", Role: "client"}
	secondClient = Actor{ID: "client-2", Role: "client"}
	vet          = Actor{ID: "vet-1", Role: "practitioner"}
)

func newTestService(t *testing.T, now time.Time) (*Service, *memory.AppointmentStore, *clock.Fixed) {
	t.Helper()
	st := memory.NewAppointmentStore()
	clk := &clock.Fixed{Instant: now}
	svc := NewService(st, clk, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), Config{DefaultClinicID: "clinic-1"})
	return svc, st, clk
}

func request(t *testing.T, svc *Service, actor Actor, at time.Time) model.Appointment {
	t.Helper()
	appt, err := svc.Request(context.Background(), actor, RequestInput{
		PetID:          "pet-1",
		PractitionerID: vet.ID,
		ScheduledAt:    at,
		Reason:         "annual checkup",
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return appt
}

func TestRequest_CreatesPendingAndNotifiesPractitioner(t *testing.T) {
	now := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	svc, st, _ := newTestService(t, now)

	appt := request(t, svc, client, now.Add(25*time.Hour))

	if appt.Status != model.StatusPending {
		t.Fatalf("expected pending, got %s", appt.Status)
	}
	if appt.ClinicID != "clinic-1" {
		t.Fatalf("expected fallback clinic, got %q", appt.ClinicID)
	}
	if len(st.Notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(st.Notifications))
	}
	n := st.Notifications[0]
	if n.RecipientID != vet.ID || n.Type != model.NotifyNewAppointment || n.AppointmentID != appt.ID {
		t.Fatalf("unexpected notification: %+v", n)
	}
	// A pending request does not schedule reminders yet.
	if jobs := st.LiveReminders(appt.ID); len(jobs) != 0 {
		t.Fatalf("expected no reminders for pending, got %d", len(jobs))
	}
	if len(st.Events) != 1 || st.Events[0].EventType != outbox.TopicAppointmentRequested {
		t.Fatalf("unexpected events: %+v", st.Events)
	}
}

func TestRequest_RejectsPastTime(t *testing.T) {
	now := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)

	_, err := svc.Request(context.Background(), client, RequestInput{
		PetID:          "pet-1",
		PractitionerID: vet.ID,
		ScheduledAt:    now.Add(-time.Hour),
	})
	if !errors.Is(err, model.ErrPastAppointment) {
		t.Fatalf("expected ErrPastAppointment, got %v", err)
	}
}

func TestSchedule_StaffOnly(t *testing.T) {
	now := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	svc, st, _ := newTestService(t, now)

	_, err := svc.Schedule(context.Background(), client, ScheduleInput{
		PetID: "pet-1", ClientID: client.ID, PractitionerID: vet.ID,
		ScheduledAt: now.Add(48 * time.Hour),
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error for client-initiated schedule, got %v", err)
	}

	appt, err := svc.Schedule(context.Background(), vet, ScheduleInput{
		PetID: "pet-1", ClientID: client.ID, PractitionerID: vet.ID,
		ScheduledAt: now.Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	if appt.Status != model.StatusScheduled {
		t.Fatalf("expected scheduled, got %s", appt.Status)
	}
	if jobs := st.LiveReminders(appt.ID); len(jobs) != 2 {
		t.Fatalf("expected 2 reminders, got %d", len(jobs))
	}
	if len(st.Notifications) != 1 || st.Notifications[0].RecipientID != client.ID {
		t.Fatalf("expected client notification, got %+v", st.Notifications)
	}
}

func TestOverlappingRequestRejected(t *testing.T) {
	now := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)

	slot := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	request(t, svc, client, slot)

	_, err := svc.Request(context.Background(), secondClient, RequestInput{
		PetID:          "pet-2",
		PractitionerID: vet.ID,
		ScheduledAt:    slot.Add(15 * time.Minute),
	})
	if !errors.Is(err, model.ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}
}

func TestBackToBackAppointmentsAllowed(t *testing.T) {
	now := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)

	slot := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	request(t, svc, client, slot)

	if _, err := svc.Request(context.Background(), secondClient, RequestInput{
		PetID:          "pet-2",
		PractitionerID: vet.ID,
		ScheduledAt:    slot.Add(30 * time.Minute),
	}); err != nil {
		t.Fatalf("back-to-back booking should succeed: %v", err)
	}
}

func TestConcurrentRequestsForSameSlot(t *testing.T) {
	now := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)
	slot := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	const attempts = 20
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Request(context.Background(), client, RequestInput{
				PetID:          "pet-1",
				PractitionerID: vet.ID,
				ScheduledAt:    slot,
			})
			errs[i] = err
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, model.ErrSlotConflict):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", won)
	}
}

func TestConfirm_SchedulesReminders(t *testing.T) {
	now := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	svc, st, _ := newTestService(t, now)

	slot := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	appt := request(t, svc, client, slot)

	confirmed, err := svc.Confirm(context.Background(), vet, appt.ID)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if confirmed.Status != model.StatusConfirmed {
		t.Fatalf("expected confirmed, got %s", confirmed.Status)
	}

	jobs := st.LiveReminders(appt.ID)
	if len(jobs) != 2 {
		t.Fatalf("expected 2 reminders, got %d", len(jobs))
	}
	if !jobs[0].FireAt.Equal(time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected 24h fire time: %s", jobs[0].FireAt)
	}
	if !jobs[1].FireAt.Equal(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected 1h fire time: %s", jobs[1].FireAt)
	}
}

func TestConfirm_Twice(t *testing.T) {
	now := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)

	appt := request(t, svc, client, now.Add(26*time.Hour))
	if _, err := svc.Confirm(context.Background(), vet, appt.ID); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	_, err := svc.Confirm(context.Background(), vet, appt.ID)
	if !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestReschedule_ReplacesReminders(t *testing.T) {
	now := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	svc, st, _ := newTestService(t, now)

	slot := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	appt := request(t, svc, client, slot)
	if _, err := svc.Confirm(context.Background(), vet, appt.ID); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	newTime := time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC)
	moved, err := svc.Reschedule(context.Background(), client, appt.ID, newTime)
	if err != nil {
		t.Fatalf("reschedule failed: %v", err)
	}
	if moved.Status != model.StatusConfirmed {
		t.Fatalf("reschedule must keep status, got %s", moved.Status)
	}
	if !moved.ScheduledAt.Equal(newTime) {
		t.Fatalf("expected %s, got %s", newTime, moved.ScheduledAt)
	}

	jobs := st.LiveReminders(appt.ID)
	if len(jobs) != 2 {
		t.Fatalf("expected 2 live reminders after reschedule, got %d", len(jobs))
	}
	if !jobs[0].FireAt.Equal(newTime.Add(-24 * time.Hour)) {
		t.Fatalf("24h reminder not relative to new time: %s", jobs[0].FireAt)
	}
	if !jobs[1].FireAt.Equal(newTime.Add(-time.Hour)) {
		t.Fatalf("1h reminder not relative to new time: %s", jobs[1].FireAt)
	}
}

func TestReschedule_ConflictLeavesEverythingUnchanged(t *testing.T) {
	now := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	svc, st, _ := newTestService(t, now)

	slotA := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	slotB := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	apptA := request(t, svc, client, slotA)
	apptB := request(t, svc, secondClient, slotB)
	if _, err := svc.Confirm(context.Background(), vet, apptA.ID); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	before := st.LiveReminders(apptA.ID)

	_, err := svc.Reschedule(context.Background(), client, apptA.ID, slotB.Add(15*time.Minute))
	if !errors.Is(err, model.ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}

	got, err := svc.store.Get(context.Background(), apptA.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !got.ScheduledAt.Equal(slotA) {
		t.Fatalf("scheduled_at mutated on failed reschedule: %s", got.ScheduledAt)
	}
	after := st.LiveReminders(apptA.ID)
	if len(after) != len(before) {
		t.Fatalf("reminders mutated on failed reschedule: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if !after[i].FireAt.Equal(before[i].FireAt) || after[i].Cancelled != before[i].Cancelled {
			t.Fatalf("reminder %d mutated: %+v -> %+v", i, before[i], after[i])
		}
	}
	_ = apptB
}

func TestReschedule_IntoOwnSlotAllowed(t *testing.T) {
	now := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)

	slot := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	appt := request(t, svc, client, slot)

	// Shifting 15m overlaps the appointment's own old interval only.
	if _, err := svc.Reschedule(context.Background(), client, appt.ID, slot.Add(15*time.Minute)); err != nil {
		t.Fatalf("reschedule into own slot should succeed: %v", err)
	}
}

func TestReschedule_PastLegsRejected(t *testing.T) {
	now := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	svc, _, clk := newTestService(t, now)

	appt := request(t, svc, client, now.Add(2*time.Hour))

	// New time in the past.
	_, err := svc.Reschedule(context.Background(), client, appt.ID, now.Add(-time.Hour))
	if !errors.Is(err, model.ErrPastAppointment) {
		t.Fatalf("expected ErrPastAppointment, got %v", err)
	}

	// Appointment itself already elapsed.
	clk.Advance(3 * time.Hour)
	_, err = svc.Reschedule(context.Background(), client, appt.ID, clk.Now().Add(24*time.Hour))
	if !errors.Is(err, model.ErrPastAppointment) {
		t.Fatalf("expected ErrPastAppointment for elapsed appointment, got %v", err)
	}
}

func TestCancel_CancelsRemindersAndNotifiesOtherParty(t *testing.T) {
	now := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	svc, st, _ := newTestService(t, now)

	slot := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	appt := request(t, svc, client, slot)
	if _, err := svc.Confirm(context.Background(), vet, appt.ID); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	cancelled, err := svc.Cancel(context.Background(), client, appt.ID, "pet recovered")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != model.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if jobs := st.LiveReminders(appt.ID); len(jobs) != 0 {
		t.Fatalf("expected 0 live reminders after cancel, got %d", len(jobs))
	}

	last := st.Notifications[len(st.Notifications)-1]
	if last.Type != model.NotifyAppointmentCancelled || last.RecipientID != vet.ID {
		t.Fatalf("expected cancellation notification to practitioner, got %+v", last)
	}

	// The freed slot can be booked again.
	if _, err := svc.Request(context.Background(), secondClient, RequestInput{
		PetID: "pet-2", PractitionerID: vet.ID, ScheduledAt: slot,
	}); err != nil {
		t.Fatalf("rebooking freed slot failed: %v", err)
	}
}

func TestCancel_TerminalStatesRejected(t *testing.T) {
	now := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)

	appt := request(t, svc, client, now.Add(26*time.Hour))
	if _, err := svc.Cancel(context.Background(), client, appt.ID, ""); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	_, err := svc.Cancel(context.Background(), client, appt.ID, "")
	if !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on double cancel, got %v", err)
	}
}

func TestComplete_FromConfirmed(t *testing.T) {
	now := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	svc, st, clk := newTestService(t, now)

	slot := now.Add(26 * time.Hour)
	appt := request(t, svc, client, slot)
	if _, err := svc.Confirm(context.Background(), vet, appt.ID); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	if _, err := svc.Complete(context.Background(), client, appt.ID); err == nil {
		t.Fatal("expected client-initiated complete to be rejected")
	}

	clk.Advance(26 * time.Hour)
	done, err := svc.Complete(context.Background(), vet, appt.ID)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if done.Status != model.StatusCompleted {
		t.Fatalf("expected completed, got %s", done.Status)
	}
	if jobs := st.LiveReminders(appt.ID); len(jobs) != 0 {
		t.Fatalf("expected no live reminders after complete, got %d", len(jobs))
	}

	// Completed appointments no longer hold the slot.
	if _, err := svc.Request(context.Background(), secondClient, RequestInput{
		PetID: "pet-2", PractitionerID: vet.ID, ScheduledAt: slot.Add(48 * time.Hour),
	}); err != nil {
		t.Fatalf("unrelated booking failed: %v", err)
	}
}

func TestExpressVisit_CreatesCompletedWithoutSlotCheck(t *testing.T) {
	now := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	svc, st, _ := newTestService(t, now)

	slot := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	request(t, svc, client, slot)

	// A walk-in recorded over an occupied slot is fine: completed visits do
	// not participate in the overlap invariant.
	visit, err := svc.ExpressVisit(context.Background(), vet, ExpressVisitInput{
		PetID: "pet-9", ClientID: secondClient.ID, ScheduledAt: slot, Reason: "walk-in",
	})
	if err != nil {
		t.Fatalf("express visit failed: %v", err)
	}
	if visit.Status != model.StatusCompleted {
		t.Fatalf("expected completed, got %s", visit.Status)
	}
	if jobs := st.LiveReminders(visit.ID); len(jobs) != 0 {
		t.Fatalf("express visit must not schedule reminders, got %d", len(jobs))
	}

	if _, err := svc.ExpressVisit(context.Background(), client, ExpressVisitInput{
		PetID: "pet-9", ClientID: client.ID,
	}); err == nil {
		t.Fatal("expected client-initiated express visit to be rejected")
	}
}

func TestSlots_ExcludesBookedIntervals(t *testing.T) {
	now := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	request(t, svc, client, day.Add(9*time.Hour))

	slots, err := svc.Slots(context.Background(), vet.ID, day)
	if err != nil {
		t.Fatalf("slots failed: %v", err)
	}
	// Workday 09:00-17:00, 30m step: 16 slots minus the booked 09:00.
	if len(slots) != 15 {
		t.Fatalf("expected 15 slots, got %d", len(slots))
	}
	if slots[0].Equal(day.Add(9 * time.Hour)) {
		t.Fatal("booked 09:00 slot must not be offered")
	}
	if !slots[0].Equal(day.Add(9*time.Hour + 30*time.Minute)) {
		t.Fatalf("expected first free slot 09:30, got %s", slots[0])
	}
}

// Full lifecycle: request, confirm, conflicting second request, reschedule.
func TestLifecycleScenario(t *testing.T) {
	now := time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC)
	svc, st, _ := newTestService(t, now)

	slot := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	appt := request(t, svc, client, slot)
	if appt.Status != model.StatusPending {
		t.Fatalf("expected pending, got %s", appt.Status)
	}

	confirmed, err := svc.Confirm(context.Background(), vet, appt.ID)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if confirmed.Status != model.StatusConfirmed {
		t.Fatalf("expected confirmed, got %s", confirmed.Status)
	}
	jobs := st.LiveReminders(appt.ID)
	if len(jobs) != 2 {
		t.Fatalf("expected 2 reminders, got %d", len(jobs))
	}
	if !jobs[0].FireAt.Equal(time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC)) ||
		!jobs[1].FireAt.Equal(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected reminder times: %s / %s", jobs[0].FireAt, jobs[1].FireAt)
	}

	_, err = svc.Request(context.Background(), secondClient, RequestInput{
		PetID: "pet-2", PractitionerID: vet.ID,
		ScheduledAt: time.Date(2025, 3, 10, 9, 15, 0, 0, time.UTC),
	})
	if !errors.Is(err, model.ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}

	newTime := time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC)
	if _, err := svc.Reschedule(context.Background(), client, appt.ID, newTime); err != nil {
		t.Fatalf("reschedule failed: %v", err)
	}
	jobs = st.LiveReminders(appt.ID)
	if len(jobs) != 2 {
		t.Fatalf("expected 2 reminders after reschedule, got %d", len(jobs))
	}
	if !jobs[0].FireAt.Equal(newTime.Add(-24*time.Hour)) || !jobs[1].FireAt.Equal(newTime.Add(-time.Hour)) {
		t.Fatalf("reminders not rebased to new time: %s / %s", jobs[0].FireAt, jobs[1].FireAt)
	}
}

var _ store.AppointmentStore = (*memory.AppointmentStore)(nil)
