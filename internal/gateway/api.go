package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/voxlane/frontdesk/internal/domain"
	"github.com/voxlane/frontdesk/internal/ledger"
)

// handleListAppointments returns a tenant's appointments, newest first.
func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	tenant := s.cfg.Tenant(r.URL.Query().Get("tenant"))
	if tenant == nil {
		writeError(w, http.StatusNotFound, "unknown tenant")
		return
	}
	appts := s.deps.Bookings.List(tenant.ID)
	if appts == nil {
		appts = []domain.Appointment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": appts})
}

type createAppointmentRequest struct {
	TenantID string `json:"tenantId"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Reason   string `json:"reason,omitempty"`
}

// handleCreateAppointment books a slot from the dashboard. It goes through
// the same ledger as phone bookings, so conflicts are refused the same way.
func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	tenant := s.cfg.Tenant(req.TenantID)
	if tenant == nil {
		writeError(w, http.StatusNotFound, "unknown tenant")
		return
	}
	if req.Name == "" || req.Date == "" || req.Time == "" {
		writeError(w, http.StatusBadRequest, "name, date and time are required")
		return
	}

	apptID := uuid.New().String()
	err := s.deps.Slots.Reserve(tenant.ID, req.Date, req.Time, apptID, s.cfg.Call.SlotMinutes)
	switch {
	case errors.Is(err, ledger.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot already taken")
		return
	case errors.Is(err, ledger.ErrBadTime):
		writeError(w, http.StatusBadRequest, "time must be HH:MM")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "could not reserve slot")
		return
	}

	appt := &domain.Appointment{
		ID:       apptID,
		TenantID: tenant.ID,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Date:     req.Date,
		Time:     req.Time,
		Reason:   req.Reason,
		Source:   "manual",
	}
	if err := s.deps.Bookings.Create(appt); err != nil {
		s.deps.Slots.Release(tenant.ID, apptID)
		s.log.Error().Err(err).Msg("appointment insert failed")
		writeError(w, http.StatusInternalServerError, "could not save appointment")
		return
	}

	s.events.Broadcast("appointment.booked", appt)
	writeJSON(w, http.StatusCreated, appt)
}

// handleAcceptAppointment confirms a pending appointment.
func (s *Server) handleAcceptAppointment(w http.ResponseWriter, r *http.Request) {
	s.reviewAppointment(w, r, domain.AppointmentAccepted)
}

// handleRejectAppointment declines an appointment and frees its slot.
func (s *Server) handleRejectAppointment(w http.ResponseWriter, r *http.Request) {
	s.reviewAppointment(w, r, domain.AppointmentRejected)
}

func (s *Server) reviewAppointment(w http.ResponseWriter, r *http.Request, status domain.AppointmentStatus) {
	id := r.PathValue("id")
	appt := s.deps.Bookings.Get(id)
	if appt == nil {
		writeError(w, http.StatusNotFound, "unknown appointment")
		return
	}
	if !s.deps.Bookings.SetStatus(id, status) {
		writeError(w, http.StatusInternalServerError, "could not update appointment")
		return
	}
	appt.Status = status

	if status == domain.AppointmentRejected {
		s.deps.Slots.Release(appt.TenantID, id)
	}
	s.notifyReview(appt, status)

	s.events.Broadcast("appointment.reviewed", appt)
	writeJSON(w, http.StatusOK, appt)
}

// notifyReview texts the caller the review outcome.
func (s *Server) notifyReview(appt *domain.Appointment, status domain.AppointmentStatus) {
	if appt.Phone == "" || s.deps.Twilio == nil || !s.deps.Twilio.Enabled() {
		return
	}
	tenant := s.cfg.Tenant(appt.TenantID)
	if tenant == nil {
		return
	}

	var body string
	if status == domain.AppointmentAccepted {
		body = fmt.Sprintf("Your appointment with %s on %s at %s is confirmed. See you then!",
			tenant.Name, appt.Date, appt.Time)
	} else {
		body = fmt.Sprintf("Unfortunately %s can't make your requested time on %s at %s. Please reply with a few alternative times that work for you.",
			tenant.Name, appt.Date, appt.Time)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.deps.Twilio.SendSMS(ctx, appt.Phone, body); err != nil {
			s.log.Error().Err(err).Str("appointment", appt.ID).Msg("review notification failed")
		}
	}()
}

// handleListMessages returns a tenant's messages, newest first.
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	tenant := s.cfg.Tenant(r.URL.Query().Get("tenant"))
	if tenant == nil {
		writeError(w, http.StatusNotFound, "unknown tenant")
		return
	}
	msgs := s.deps.Messages.List(tenant.ID)
	if msgs == nil {
		msgs = []domain.TextMessage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

type createMessageRequest struct {
	TenantID   string `json:"tenantId"`
	CallerName string `json:"callerName,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Body       string `json:"body"`
	Urgency    string `json:"urgency,omitempty"`
}

// handleCreateMessage records a message left for the business.
func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var req createMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	tenant := s.cfg.Tenant(req.TenantID)
	if tenant == nil {
		writeError(w, http.StatusNotFound, "unknown tenant")
		return
	}
	if req.Body == "" {
		writeError(w, http.StatusBadRequest, "body is required")
		return
	}

	msg := &domain.TextMessage{
		TenantID:   tenant.ID,
		CallerName: req.CallerName,
		Phone:      req.Phone,
		Body:       req.Body,
		Urgency:    req.Urgency,
	}
	if err := s.deps.Messages.Create(msg); err != nil {
		s.log.Error().Err(err).Msg("message insert failed")
		writeError(w, http.StatusInternalServerError, "could not save message")
		return
	}

	s.events.Broadcast("message.created", msg)
	writeJSON(w, http.StatusCreated, msg)
}

// handleMarkMessageRead flips a message to read.
func (s *Server) handleMarkMessageRead(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.deps.Messages.MarkRead(id) {
		writeError(w, http.StatusNotFound, "unknown message")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "read"})
}

// handleListCalls returns a tenant's recent call log.
func (s *Server) handleListCalls(w http.ResponseWriter, r *http.Request) {
	tenant := s.cfg.Tenant(r.URL.Query().Get("tenant"))
	if tenant == nil {
		writeError(w, http.StatusNotFound, "unknown tenant")
		return
	}
	calls := s.deps.CallLog.Recent(tenant.ID, 100)
	if calls == nil {
		calls = []domain.CallLogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"calls": calls})
}
