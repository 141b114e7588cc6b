// Package ledger tracks booked time windows per tenant and date, and is the
// single authority on whether a requested slot collides with an existing
// reservation.
package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/voxlane/frontdesk/internal/domain"
)

// ErrSlotTaken is returned when a requested interval overlaps an existing
// reservation. It is an expected, user-facing outcome, not a failure.
var ErrSlotTaken = errors.New("slot already reserved")

// ErrBadTime is returned for malformed HH:MM tokens. Rejecting outright
// beats silently booking everything at midnight.
var ErrBadTime = errors.New("malformed time")

// ParseClock converts "HH:MM" to minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrBadTime, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrBadTime, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrBadTime, s)
	}
	return h*60 + m, nil
}

// overlaps applies the half-open interval law: [a, a+da) and [b, b+db)
// conflict iff a < b+db && b < a+da. Touching endpoints do not conflict.
func overlaps(aStart, aDur, bStart, bDur int) bool {
	return aStart < bStart+bDur && bStart < aStart+aDur
}

// Persister is notified after every ledger mutation so reservations survive
// restarts. The Ledger calls SaveSlots with the tenant lock held, so saves
// for one tenant arrive in mutation order; implementations must not call
// back into the Ledger.
type Persister interface {
	SaveSlots(tenantID string, slots []domain.SlotReservation) error
}

// Ledger is the in-process slot authority. Each tenant gets its own lock so
// the check-then-reserve sequence is atomic per tenant and tenants never
// contend with each other.
type Ledger struct {
	mu      sync.Mutex
	tenants map[string]*tenantLedger
	persist Persister // optional
}

type tenantLedger struct {
	mu    sync.Mutex
	slots []domain.SlotReservation
}

// New creates an empty ledger. persist may be nil.
func New(persist Persister) *Ledger {
	return &Ledger{
		tenants: make(map[string]*tenantLedger),
		persist: persist,
	}
}

// Hydrate seeds a tenant's reservations, typically from the store at
// startup.
func (l *Ledger) Hydrate(tenantID string, slots []domain.SlotReservation) {
	t := l.tenant(tenantID)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.slots = append([]domain.SlotReservation(nil), slots...)
}

func (l *Ledger) tenant(tenantID string) *tenantLedger {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tenants[tenantID]
	if !ok {
		t = &tenantLedger{}
		l.tenants[tenantID] = t
	}
	return t
}

// IsAvailable reports whether [time, time+duration) on the given date is
// free of conflicts for the tenant.
func (l *Ledger) IsAvailable(tenantID, date, clock string, durationMin int) (bool, error) {
	start, err := ParseClock(clock)
	if err != nil {
		return false, err
	}
	t := l.tenant(tenantID)
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.free(date, start, durationMin), nil
}

func (t *tenantLedger) free(date string, start, dur int) bool {
	for _, s := range t.slots {
		if s.Date != date {
			continue
		}
		other, err := ParseClock(s.Time)
		if err != nil {
			continue // unparseable stored slot cannot conflict
		}
		if overlaps(start, dur, other, s.DurationMin) {
			return false
		}
	}
	return true
}

// Reserve atomically checks availability and records the reservation.
// Returns ErrSlotTaken on conflict, ErrBadTime on a malformed clock token.
func (l *Ledger) Reserve(tenantID, date, clock, appointmentID string, durationMin int) error {
	start, err := ParseClock(clock)
	if err != nil {
		return err
	}

	t := l.tenant(tenantID)
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.free(date, start, durationMin) {
		return ErrSlotTaken
	}
	t.slots = append(t.slots, domain.SlotReservation{
		TenantID:      tenantID,
		Date:          date,
		Time:          clock,
		AppointmentID: appointmentID,
		DurationMin:   durationMin,
	})
	// Flushed under the lock so persisted snapshots cannot interleave out of
	// mutation order.
	l.flush(tenantID, append([]domain.SlotReservation(nil), t.slots...))
	return nil
}

// Release removes the reservation backing the given appointment. Releasing
// an unknown appointment is a no-op.
func (l *Ledger) Release(tenantID, appointmentID string) {
	t := l.tenant(tenantID)
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.slots[:0]
	removed := false
	for _, s := range t.slots {
		if s.AppointmentID == appointmentID {
			removed = true
			continue
		}
		kept = append(kept, s)
	}
	t.slots = kept
	if removed {
		l.flush(tenantID, append([]domain.SlotReservation(nil), t.slots...))
	}
}

// Booked returns a copy of the reservations for a tenant on the given date,
// or all dates when date is empty.
func (l *Ledger) Booked(tenantID, date string) []domain.SlotReservation {
	t := l.tenant(tenantID)
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []domain.SlotReservation
	for _, s := range t.slots {
		if date == "" || s.Date == date {
			out = append(out, s)
		}
	}
	return out
}

func (l *Ledger) flush(tenantID string, snapshot []domain.SlotReservation) {
	if l.persist == nil {
		return
	}
	// Persist errors are deliberately not surfaced to the caller: the
	// in-memory ledger stays authoritative for the running process.
	_ = l.persist.SaveSlots(tenantID, snapshot)
}
