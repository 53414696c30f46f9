package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vetlinkhq/vetsched/services/booking-service/internal/booking"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/model"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/store"
)

// AppointmentHandler exposes the booking lifecycle over HTTP. The gateway
// authenticates callers and forwards identity in X-User-Id / X-User-Role.
type AppointmentHandler struct {
	svc    *booking.Service
	logger *slog.Logger
}

func NewAppointmentHandler(svc *booking.Service, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{svc: svc, logger: logger}
}

type requestAppointmentRequest struct {
	PetID          string `json:"pet_id"`
	PractitionerID string `json:"practitioner_id"`
	ScheduledAt    string `json:"scheduled_at"`
	Reason         string `json:"reason"`
}

type scheduleAppointmentRequest struct {
	PetID          string `json:"pet_id"`
	ClientID       string `json:"client_id"`
	PractitionerID string `json:"practitioner_id"`
	ScheduledAt    string `json:"scheduled_at"`
	Reason         string `json:"reason"`
}

type transitionRequest struct {
	AppointmentID string `json:"appointment_id"`
	Reason        string `json:"reason,omitempty"`
}

type rescheduleRequest struct {
	AppointmentID string `json:"appointment_id"`
	NewTime       string `json:"new_time"`
}

type expressVisitRequest struct {
	PetID       string `json:"pet_id"`
	ClientID    string `json:"client_id"`
	ScheduledAt string `json:"scheduled_at,omitempty"`
	Reason      string `json:"reason"`
}

type appointmentItem struct {
	AppointmentID  string `json:"appointment_id"`
	PetID          string `json:"pet_id"`
	ClientID       string `json:"client_id"`
	PractitionerID string `json:"practitioner_id"`
	ClinicID       string `json:"clinic_id,omitempty"`
	ScheduledAt    string `json:"scheduled_at"`
	EndTime        string `json:"end_time"`
	Reason         string `json:"reason,omitempty"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func (h *AppointmentHandler) Request(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req requestAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	scheduledAt, ok := parseTime(w, req.ScheduledAt, "scheduled_at")
	if !ok {
		return
	}

	appt, err := h.svc.Request(r.Context(), actor, booking.RequestInput{
		PetID:          strings.TrimSpace(req.PetID),
		PractitionerID: strings.TrimSpace(req.PractitionerID),
		ScheduledAt:    scheduledAt,
		Reason:         req.Reason,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItem(appt))
}

func (h *AppointmentHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req scheduleAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	scheduledAt, ok := parseTime(w, req.ScheduledAt, "scheduled_at")
	if !ok {
		return
	}

	practitionerID := strings.TrimSpace(req.PractitionerID)
	if practitionerID == "" && actor.Role == "practitioner" {
		practitionerID = actor.ID
	}
	appt, err := h.svc.Schedule(r.Context(), actor, booking.ScheduleInput{
		PetID:          strings.TrimSpace(req.PetID),
		ClientID:       strings.TrimSpace(req.ClientID),
		PractitionerID: practitionerID,
		ScheduledAt:    scheduledAt,
		Reason:         req.Reason,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItem(appt))
}

func (h *AppointmentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor booking.Actor, req transitionRequest) (model.Appointment, error) {
		return h.svc.Confirm(r.Context(), actor, req.AppointmentID)
	})
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor booking.Actor, req transitionRequest) (model.Appointment, error) {
		return h.svc.Cancel(r.Context(), actor, req.AppointmentID, strings.TrimSpace(req.Reason))
	})
}

func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor booking.Actor, req transitionRequest) (model.Appointment, error) {
		return h.svc.Complete(r.Context(), actor, req.AppointmentID)
	})
}

func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}
	newTime, ok := parseTime(w, req.NewTime, "new_time")
	if !ok {
		return
	}

	appt, err := h.svc.Reschedule(r.Context(), actor, req.AppointmentID, newTime)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItem(appt))
}

func (h *AppointmentHandler) Express(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req expressVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	in := booking.ExpressVisitInput{
		PetID:    strings.TrimSpace(req.PetID),
		ClientID: strings.TrimSpace(req.ClientID),
		Reason:   req.Reason,
	}
	if strings.TrimSpace(req.ScheduledAt) != "" {
		when, ok := parseTime(w, req.ScheduledAt, "scheduled_at")
		if !ok {
			return
		}
		in.ScheduledAt = when
	}

	appt, err := h.svc.ExpressVisit(r.Context(), actor, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItem(appt))
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := store.ListFilter{
		PractitionerID: strings.TrimSpace(q.Get("practitioner_id")),
		ClientID:       strings.TrimSpace(q.Get("client_id")),
	}
	// Clients only ever see their own appointments.
	if !staffRole(actor.Role) {
		filter.ClientID = actor.ID
	}
	if raw := strings.TrimSpace(q.Get("from")); raw != "" {
		from, ok := parseTime(w, raw, "from")
		if !ok {
			return
		}
		filter.From = from
	}
	if raw := strings.TrimSpace(q.Get("to")); raw != "" {
		to, ok := parseTime(w, raw, "to")
		if !ok {
			return
		}
		filter.To = to
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := model.ParseStatus(raw)
		if err != nil {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}
		filter.Status = status
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			filter.Limit = n
		}
	}

	appts, err := h.svc.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items := make([]appointmentItem, 0, len(appts))
	for _, appt := range appts {
		items = append(items, toItem(appt))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *AppointmentHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	practitionerID := strings.TrimSpace(r.URL.Query().Get("practitioner_id"))
	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if practitionerID == "" || dateStr == "" {
		http.Error(w, "practitioner_id and date are required", http.StatusBadRequest)
		return
	}
	day, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	slots, err := h.svc.Slots(r.Context(), practitionerID, day)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]string, 0, len(slots))
	for _, slot := range slots {
		out = append(out, slot.UTC().Format(time.RFC3339))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AppointmentHandler) transition(w http.ResponseWriter, r *http.Request, apply func(booking.Actor, transitionRequest) (model.Appointment, error)) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}

	appt, err := apply(actor, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItem(appt))
}

func (h *AppointmentHandler) actor(w http.ResponseWriter, r *http.Request) (booking.Actor, bool) {
	actor := booking.Actor{
		ID:   strings.TrimSpace(r.Header.Get("X-User-Id")),
		Role: strings.TrimSpace(r.Header.Get("X-User-Role")),
	}
	if actor.ID == "" || actor.Role == "" {
		http.Error(w, "missing caller identity", http.StatusUnauthorized)
		return booking.Actor{}, false
	}
	return actor, true
}

func (h *AppointmentHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *booking.ValidationError
	var ierr *model.IntegrityError
	switch {
	case errors.Is(err, model.ErrSlotConflict):
		http.Error(w, "time slot already booked", http.StatusConflict)
	case errors.Is(err, model.ErrInvalidTransition):
		http.Error(w, "appointment state does not allow this change", http.StatusConflict)
	case errors.Is(err, model.ErrPastAppointment):
		http.Error(w, "appointment time is in the past", http.StatusUnprocessableEntity)
	case errors.Is(err, model.ErrNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
	case errors.Is(err, model.ErrDependencyUnavailable):
		h.logger.Error("dependency unavailable", "err", err, "path", r.URL.Path)
		http.Error(w, "service dependency unavailable", http.StatusServiceUnavailable)
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusBadRequest)
	case errors.As(err, &ierr):
		h.logger.Error("integrity error", "err", err, "path", r.URL.Path)
		http.Error(w, "internal error", http.StatusInternalServerError)
	default:
		h.logger.Error("request failed", "err", err, "path", r.URL.Path)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func parseTime(w http.ResponseWriter, raw, field string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		http.Error(w, "invalid "+field, http.StatusBadRequest)
		return time.Time{}, false
	}
	return t, true
}

func toItem(appt model.Appointment) appointmentItem {
	return appointmentItem{
		AppointmentID:  appt.ID,
		PetID:          appt.PetID,
		ClientID:       appt.ClientID,
		PractitionerID: appt.PractitionerID,
		ClinicID:       appt.ClinicID,
		ScheduledAt:    appt.ScheduledAt.UTC().Format(time.RFC3339),
		EndTime:        appt.End().UTC().Format(time.RFC3339),
		Reason:         appt.Reason,
		Status:         string(appt.Status),
		CreatedAt:      appt.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      appt.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func staffRole(role string) bool {
	return role == "practitioner" || role == "admin"
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
