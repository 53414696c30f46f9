package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vetlinkhq/vetsched/libs/clock"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/booking"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/store/memory"
)

func newTestHandler(t *testing.T, now time.Time) *AppointmentHandler {
	t.Helper()
	st := memory.NewAppointmentStore()
	svc := booking.NewService(st, &clock.Fixed{Instant: now}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), booking.Config{
		DefaultClinicID: "clinic-1",
	})
	return NewAppointmentHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, target, userID, role, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
		req.Header.Set("X-User-Role", role)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestRequestEndpoint(t *testing.T) {
	now := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	h := newTestHandler(t, now)

	body := `{"pet_id":"pet-1","practitioner_id":"vet-1","scheduled_at":"2025-03-10T09:00:00Z","reason":"checkup"}`
	rec := doJSON(t, h.Request, http.MethodPost, "/api/v1/appointments/request", "client-1", "client", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp appointmentItem
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.AppointmentID == "" || resp.Status != "pending" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.EndTime != "2025-03-10T09:30:00Z" {
		t.Fatalf("unexpected end_time: %s", resp.EndTime)
	}
}

func TestRequestEndpoint_Errors(t *testing.T) {
	now := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	h := newTestHandler(t, now)

	// Missing identity headers.
	rec := doJSON(t, h.Request, http.MethodPost, "/api/v1/appointments/request", "", "", `{}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	// Malformed body.
	rec = doJSON(t, h.Request, http.MethodPost, "/api/v1/appointments/request", "client-1", "client", `{`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	// Past time maps to 422.
	body := `{"pet_id":"pet-1","practitioner_id":"vet-1","scheduled_at":"2025-03-08T09:00:00Z"}`
	rec = doJSON(t, h.Request, http.MethodPost, "/api/v1/appointments/request", "client-1", "client", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}

	// GET not allowed.
	rec = doJSON(t, h.Request, http.MethodGet, "/api/v1/appointments/request", "client-1", "client", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestConflictMapsTo409(t *testing.T) {
	now := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	h := newTestHandler(t, now)

	body := `{"pet_id":"pet-1","practitioner_id":"vet-1","scheduled_at":"2025-03-10T09:00:00Z"}`
	if rec := doJSON(t, h.Request, http.MethodPost, "/api/v1/appointments/request", "client-1", "client", body); rec.Code != http.StatusCreated {
		t.Fatalf("setup booking failed: %d", rec.Code)
	}

	overlapping := `{"pet_id":"pet-2","practitioner_id":"vet-1","scheduled_at":"2025-03-10T09:15:00Z"}`
	rec := doJSON(t, h.Request, http.MethodPost, "/api/v1/appointments/request", "client-2", "client", overlapping)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestConfirmAndDoubleConfirm(t *testing.T) {
	now := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	h := newTestHandler(t, now)

	body := `{"pet_id":"pet-1","practitioner_id":"vet-1","scheduled_at":"2025-03-10T09:00:00Z"}`
	rec := doJSON(t, h.Request, http.MethodPost, "/api/v1/appointments/request", "client-1", "client", body)
	var created appointmentItem
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid response: %v", err)
	}

	confirmBody := `{"appointment_id":"` + created.AppointmentID + `"}`
	rec = doJSON(t, h.Confirm, http.MethodPost, "/api/v1/appointments/confirm", "vet-1", "practitioner", confirmBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var confirmed appointmentItem
	if err := json.Unmarshal(rec.Body.Bytes(), &confirmed); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if confirmed.Status != "confirmed" {
		t.Fatalf("expected confirmed, got %s", confirmed.Status)
	}

	rec = doJSON(t, h.Confirm, http.MethodPost, "/api/v1/appointments/confirm", "vet-1", "practitioner", confirmBody)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on double confirm, got %d", rec.Code)
	}
}

func TestTransitionUnknownAppointment(t *testing.T) {
	now := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	h := newTestHandler(t, now)

	rec := doJSON(t, h.Cancel, http.MethodPost, "/api/v1/appointments/cancel", "client-1", "client", `{"appointment_id":"nope"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = doJSON(t, h.Cancel, http.MethodPost, "/api/v1/appointments/cancel", "client-1", "client", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing appointment_id, got %d", rec.Code)
	}
}

func TestListScopesClientsToTheirOwnAppointments(t *testing.T) {
	now := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	h := newTestHandler(t, now)

	mine := `{"pet_id":"pet-1","practitioner_id":"vet-1","scheduled_at":"2025-03-10T09:00:00Z"}`
	theirs := `{"pet_id":"pet-2","practitioner_id":"vet-1","scheduled_at":"2025-03-10T11:00:00Z"}`
	doJSON(t, h.Request, http.MethodPost, "/api/v1/appointments/request", "client-1", "client", mine)
	doJSON(t, h.Request, http.MethodPost, "/api/v1/appointments/request", "client-2", "client", theirs)

	rec := doJSON(t, h.List, http.MethodGet, "/api/v1/appointments?client_id=client-2", "client-1", "client", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var items []appointmentItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if len(items) != 1 || items[0].ClientID != "client-1" {
		t.Fatalf("client list not scoped to caller: %+v", items)
	}

	// Staff may filter freely.
	rec = doJSON(t, h.List, http.MethodGet, "/api/v1/appointments?client_id=client-2", "vet-1", "practitioner", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if len(items) != 1 || items[0].ClientID != "client-2" {
		t.Fatalf("staff filter ignored: %+v", items)
	}
}

func TestSlotsEndpoint(t *testing.T) {
	now := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	h := newTestHandler(t, now)

	body := `{"pet_id":"pet-1","practitioner_id":"vet-1","scheduled_at":"2025-03-10T09:00:00Z"}`
	doJSON(t, h.Request, http.MethodPost, "/api/v1/appointments/request", "client-1", "client", body)

	rec := doJSON(t, h.Slots, http.MethodGet, "/api/v1/public/slots?practitioner_id=vet-1&date=2025-03-10", "", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var slots []string
	if err := json.Unmarshal(rec.Body.Bytes(), &slots); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if len(slots) != 15 {
		t.Fatalf("expected 15 slots, got %d", len(slots))
	}
	for _, slot := range slots {
		if slot == "2025-03-10T09:00:00Z" {
			t.Fatal("booked slot offered")
		}
	}

	rec = doJSON(t, h.Slots, http.MethodGet, "/api/v1/public/slots?practitioner_id=vet-1", "", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without date, got %d", rec.Code)
	}
}
