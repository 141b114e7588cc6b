package store

import (
	"time"

	"github.com/voxlane/frontdesk/internal/domain"
)

// CallerMemoryStore persists what the receptionist remembers about each
// phone number, keyed by (tenant, normalized phone).
type CallerMemoryStore struct {
	db *DB
}

// NewCallerMemoryStore creates a caller memory store using the given database.
func NewCallerMemoryStore(db *DB) *CallerMemoryStore {
	return &CallerMemoryStore{db: db}
}

// Get returns the memory for a caller, or nil if this number has never called.
func (s *CallerMemoryStore) Get(tenantID, phone string) *domain.CallerMemory {
	phone = domain.NormalizePhone(phone)

	var mem domain.CallerMemory
	var lastCallAt string
	err := s.db.sql.QueryRow(
		`SELECT tenant_id, phone, name, call_count, last_call_at, last_reason
		 FROM caller_memory WHERE tenant_id = ? AND phone = ?`, tenantID, phone,
	).Scan(&mem.TenantID, &mem.Phone, &mem.Name, &mem.CallCount, &lastCallAt, &mem.LastReason)
	if err != nil {
		return nil
	}
	mem.LastCallAt, _ = time.Parse(time.DateTime, lastCallAt)
	return &mem
}

// Record upserts a caller's memory after a call. The call count only ever
// grows; name and reason overwrite the previous values when non-empty.
func (s *CallerMemoryStore) Record(tenantID, phone, name, reason string) {
	phone = domain.NormalizePhone(phone)
	if phone == "" {
		return
	}

	now := time.Now().Format(time.DateTime)
	_, err := s.db.sql.Exec(
		`INSERT INTO caller_memory (tenant_id, phone, name, call_count, last_call_at, last_reason)
		 VALUES (?, ?, ?, 1, ?, ?)
		 ON CONFLICT (tenant_id, phone) DO UPDATE SET
			call_count   = call_count + 1,
			last_call_at = excluded.last_call_at,
			name         = CASE WHEN excluded.name != '' THEN excluded.name ELSE name END,
			last_reason  = CASE WHEN excluded.last_reason != '' THEN excluded.last_reason ELSE last_reason END`,
		tenantID, phone, name, now, reason,
	)
	if err != nil {
		s.db.log.Error().Err(err).Str("phone", phone).Msg("failed to record caller memory")
	}
}
