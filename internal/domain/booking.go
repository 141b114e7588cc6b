package domain

import "time"

// AppointmentStatus tracks the review state of an appointment.
type AppointmentStatus string

const (
	AppointmentPending  AppointmentStatus = "pending"
	AppointmentAccepted AppointmentStatus = "accepted"
	AppointmentRejected AppointmentStatus = "rejected"
)

// Appointment is a booking request captured from a call, text, or the
// dashboard.
type Appointment struct {
	ID        string            `json:"id"`
	TenantID  string            `json:"tenantId"`
	Name      string            `json:"name"`
	Email     string            `json:"email,omitempty"`
	Phone     string            `json:"phone,omitempty"`
	Date      string            `json:"date"` // YYYY-MM-DD
	Time      string            `json:"time"` // HH:MM
	Reason    string            `json:"reason,omitempty"`
	Status    AppointmentStatus `json:"status"`
	Source    string            `json:"source"` // "phone", "sms", "manual"
	CreatedAt time.Time         `json:"createdAt"`
}

// SlotReservation is a reserved time window backing one appointment.
type SlotReservation struct {
	TenantID      string `json:"tenantId"`
	Date          string `json:"date"` // YYYY-MM-DD
	Time          string `json:"time"` // HH:MM
	AppointmentID string `json:"appointmentId"`
	DurationMin   int    `json:"durationMinutes"`
}

// TextMessage is a message a caller left for the business.
type TextMessage struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenantId"`
	CallerName string    `json:"callerName,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Body       string    `json:"body"`
	Urgency    string    `json:"urgency"` // "normal", "urgent"
	Status     string    `json:"status"`  // "unread", "read"
	CreatedAt  time.Time `json:"createdAt"`
}

// SMSSession is a persisted text-message conversation keyed by
// (caller number, tenant).
type SMSSession struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	Phone     string    `json:"phone"`
	Turns     []Turn    `json:"turns,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
