package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/voxlane/frontdesk/internal/domain"
)

// BookingStore persists appointments and their reserved slots.
type BookingStore struct {
	db *DB
}

// NewBookingStore creates a booking store using the given database.
func NewBookingStore(db *DB) *BookingStore {
	return &BookingStore{db: db}
}

// Create inserts a new appointment. A missing ID is filled in; status
// defaults to pending.
func (s *BookingStore) Create(appt *domain.Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.New().String()
	}
	if appt.Status == "" {
		appt.Status = domain.AppointmentPending
	}
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = time.Now()
	}

	_, err := s.db.sql.Exec(
		`INSERT INTO appointments (id, tenant_id, name, email, phone, date, time, reason, status, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		appt.ID, appt.TenantID, appt.Name, appt.Email, appt.Phone,
		appt.Date, appt.Time, appt.Reason, appt.Status, appt.Source,
		appt.CreatedAt.Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("inserting appointment: %w", err)
	}
	return nil
}

// Get returns an appointment by ID, or nil if not found.
func (s *BookingStore) Get(id string) *domain.Appointment {
	row := s.db.sql.QueryRow(
		`SELECT id, tenant_id, name, email, phone, date, time, reason, status, source, created_at
		 FROM appointments WHERE id = ?`, id,
	)
	return scanAppointment(row)
}

// List returns a tenant's appointments, newest first.
func (s *BookingStore) List(tenantID string) []domain.Appointment {
	rows, err := s.db.sql.Query(
		`SELECT id, tenant_id, name, email, phone, date, time, reason, status, source, created_at
		 FROM appointments WHERE tenant_id = ? ORDER BY created_at DESC, id`, tenantID,
	)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []domain.Appointment
	for rows.Next() {
		if appt := scanAppointment(rows); appt != nil {
			out = append(out, *appt)
		}
	}
	return out
}

// SetStatus moves an appointment to accepted or rejected. Returns false if
// the appointment does not exist.
func (s *BookingStore) SetStatus(id string, status domain.AppointmentStatus) bool {
	res, err := s.db.sql.Exec(
		`UPDATE appointments SET status = ? WHERE id = ?`, status, id,
	)
	if err != nil {
		s.db.log.Error().Err(err).Str("id", id).Msg("failed to update appointment status")
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

// SaveSlots replaces a tenant's reserved slots with the given snapshot.
// This is the flush target of the in-memory slot ledger.
func (s *BookingStore) SaveSlots(tenantID string, slots []domain.SlotReservation) error {
	tx, err := s.db.sql.Begin()
	if err != nil {
		return fmt.Errorf("begin slot save: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM booked_slots WHERE tenant_id = ?`, tenantID); err != nil {
		tx.Rollback()
		return fmt.Errorf("clearing slots: %w", err)
	}
	for _, slot := range slots {
		if _, err := tx.Exec(
			`INSERT INTO booked_slots (tenant_id, date, time, appointment_id, duration_min)
			 VALUES (?, ?, ?, ?, ?)`,
			tenantID, slot.Date, slot.Time, slot.AppointmentID, slot.DurationMin,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting slot: %w", err)
		}
	}

	return tx.Commit()
}

// LoadSlots returns all reserved slots grouped by tenant, for hydrating the
// ledger at startup.
func (s *BookingStore) LoadSlots() (map[string][]domain.SlotReservation, error) {
	rows, err := s.db.sql.Query(
		`SELECT tenant_id, date, time, appointment_id, duration_min FROM booked_slots`,
	)
	if err != nil {
		return nil, fmt.Errorf("loading slots: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.SlotReservation)
	for rows.Next() {
		var slot domain.SlotReservation
		if err := rows.Scan(&slot.TenantID, &slot.Date, &slot.Time, &slot.AppointmentID, &slot.DurationMin); err != nil {
			continue
		}
		out[slot.TenantID] = append(out[slot.TenantID], slot)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) *domain.Appointment {
	var appt domain.Appointment
	var createdAt string
	err := row.Scan(
		&appt.ID, &appt.TenantID, &appt.Name, &appt.Email, &appt.Phone,
		&appt.Date, &appt.Time, &appt.Reason, &appt.Status, &appt.Source,
		&createdAt,
	)
	if err != nil {
		return nil
	}
	appt.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
	return &appt
}
