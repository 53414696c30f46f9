package scan

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vetlinkhq/vetsched/services/reminder-service/internal/outbox"
)

// fakeTx satisfies pgx.Tx for the batch loop; the fakes below never touch
// the connection, so only the savepoint lifecycle methods matter.
type fakeTx struct {
	pgx.Tx
}

func (t *fakeTx) Begin(_ context.Context) (pgx.Tx, error) { return t, nil }
func (t *fakeTx) Commit(_ context.Context) error          { return nil }
func (t *fakeTx) Rollback(_ context.Context) error        { return nil }

type fakeJobStore struct {
	due       []DueReminder
	inserted  map[string]int
	insertErr error
	delivered map[string]int
	failures  []failureRecord
}

type failureRecord struct {
	id        string
	attempts  int
	nextRunAt time.Time
}

func newFakeJobStore(due ...DueReminder) *fakeJobStore {
	return &fakeJobStore{
		due:       due,
		inserted:  map[string]int{},
		delivered: map[string]int{},
	}
}

func (s *fakeJobStore) FetchDue(_ context.Context, _ pgx.Tx, _ int) ([]DueReminder, error) {
	return s.due, nil
}

func (s *fakeJobStore) MarkDelivered(_ context.Context, _ pgx.Tx, ids []string) error {
	for _, id := range ids {
		s.delivered[id]++
	}
	return nil
}

func (s *fakeJobStore) MarkFailed(_ context.Context, _ pgx.Tx, id string, attempts, _ int, nextRunAt time.Time, _ string) error {
	s.failures = append(s.failures, failureRecord{id: id, attempts: attempts, nextRunAt: nextRunAt})
	return nil
}

func (s *fakeJobStore) InsertReminderNotification(_ context.Context, _ pgx.Tx, d DueReminder, _, _ string) (bool, error) {
	if s.insertErr != nil {
		return false, s.insertErr
	}
	s.inserted[d.ID]++
	// The unique reminder_job_id key: only the first insert lands a row.
	return s.inserted[d.ID] == 1, nil
}

type fakeEventStore struct {
	events []outbox.Event
}

func (s *fakeEventStore) Insert(_ context.Context, _ pgx.Tx, evt outbox.Event) error {
	s.events = append(s.events, evt)
	return nil
}

func newTestWorker(store jobStore, events eventStore) *Worker {
	return &Worker{
		repo:      store,
		outbox:    events,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		batchSize: 10,
		backoff:   time.Minute,
	}
}

func dueJob(id string) DueReminder {
	return DueReminder{
		ID:            id,
		AppointmentID: "appt-1",
		Kind:          "24h",
		FireAt:        time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC),
		ClientID:      "client-1",
		PetID:         "pet-1",
		ScheduledAt:   time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		MaxAttempts:   2,
	}
}

func TestWorkerDispatchesClaimedJobOnce(t *testing.T) {
	store := newFakeJobStore(dueJob("job-1"))
	events := &fakeEventStore{}
	w := newTestWorker(store, events)

	// Two scanner passes over the same claimed job, as after a manual
	// replay or a reset delivered flag.
	for pass := 0; pass < 2; pass++ {
		delivered, failed, err := w.runBatch(context.Background(), &fakeTx{})
		if err != nil {
			t.Fatalf("pass %d: runBatch failed: %v", pass, err)
		}
		if delivered != 1 || failed != 0 {
			t.Fatalf("pass %d: expected 1 delivered, 0 failed; got %d/%d", pass, delivered, failed)
		}
	}

	if got := len(events.events); got != 1 {
		t.Fatalf("expected exactly one reminder.due event, got %d", got)
	}
	if events.events[0].EventType != outbox.TopicReminderDue {
		t.Fatalf("unexpected event type %q", events.events[0].EventType)
	}
	if events.events[0].AggregateID != "job-1" {
		t.Fatalf("event keyed by %q, want job id", events.events[0].AggregateID)
	}
	if store.delivered["job-1"] == 0 {
		t.Fatal("job was never marked delivered")
	}
}

func TestWorkerFailedDispatchBacksOffThenDeadLetters(t *testing.T) {
	job := dueJob("job-2")
	store := newFakeJobStore(job)
	store.insertErr = errors.New("boom")
	events := &fakeEventStore{}
	w := newTestWorker(store, events)

	before := time.Now().UTC()
	delivered, failed, err := w.runBatch(context.Background(), &fakeTx{})
	if err != nil {
		t.Fatalf("a failing job must not fail the batch: %v", err)
	}
	if delivered != 0 || failed != 1 {
		t.Fatalf("expected 0 delivered, 1 failed; got %d/%d", delivered, failed)
	}
	if len(store.failures) != 1 {
		t.Fatalf("expected one MarkFailed call, got %d", len(store.failures))
	}
	first := store.failures[0]
	if first.attempts != 1 {
		t.Fatalf("expected attempts bumped to 1, got %d", first.attempts)
	}
	if !first.nextRunAt.After(before) {
		t.Fatalf("expected next run pushed into the future, got %s", first.nextRunAt)
	}
	if len(events.events) != 0 {
		t.Fatalf("no DLQ event expected before max attempts, got %d", len(events.events))
	}

	// Second pass with the bumped attempt count hits max_attempts.
	job.Attempts = 1
	store.due = []DueReminder{job}
	if _, failed, err = w.runBatch(context.Background(), &fakeTx{}); err != nil || failed != 1 {
		t.Fatalf("second pass: failed=%d err=%v", failed, err)
	}
	if len(events.events) != 1 || events.events[0].EventType != outbox.TopicReminderDLQ {
		t.Fatalf("expected one dead-letter event, got %+v", events.events)
	}
}

func TestReminderText(t *testing.T) {
	d := DueReminder{
		Kind:        "1h",
		ScheduledAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	title, content := reminderText(d)
	if title != "Appointment in one hour" {
		t.Fatalf("unexpected title: %q", title)
	}
	if !strings.Contains(content, "09:00:00 UTC") {
		t.Fatalf("content missing visit time: %q", content)
	}

	d.Kind = "24h"
	title, _ = reminderText(d)
	if title != "Appointment tomorrow" {
		t.Fatalf("unexpected title: %q", title)
	}
}
