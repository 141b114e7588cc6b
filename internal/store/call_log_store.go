package store

import (
	"time"

	"github.com/voxlane/frontdesk/internal/domain"
)

// CallLogStore persists the record of finished calls, keeping at most
// `retention` rows per tenant. Oldest rows are evicted on insert.
type CallLogStore struct {
	db        *DB
	retention int
}

// NewCallLogStore creates a call log store using the given database.
func NewCallLogStore(db *DB, retention int) *CallLogStore {
	return &CallLogStore{db: db, retention: retention}
}

// Append records a finished call and trims the tenant's log to the
// retention cap.
func (s *CallLogStore) Append(entry domain.CallLogEntry) {
	_, err := s.db.sql.Exec(
		`INSERT INTO call_log (call_sid, tenant_id, from_num, to_num, started_at, ended_at, duration, outcome, category)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.CallSID, entry.TenantID, entry.From, entry.To,
		entry.StartedAt.Format(time.DateTime), entry.EndedAt.Format(time.DateTime),
		entry.Duration, entry.Outcome, entry.Category,
	)
	if err != nil {
		s.db.log.Error().Err(err).Str("call", entry.CallSID).Msg("failed to append call log")
		return
	}

	if s.retention > 0 {
		_, _ = s.db.sql.Exec(
			`DELETE FROM call_log WHERE tenant_id = ? AND id NOT IN (
				SELECT id FROM call_log WHERE tenant_id = ? ORDER BY id DESC LIMIT ?
			)`, entry.TenantID, entry.TenantID, s.retention,
		)
	}
}

// Recent returns up to limit entries for a tenant, newest first.
func (s *CallLogStore) Recent(tenantID string, limit int) []domain.CallLogEntry {
	rows, err := s.db.sql.Query(
		`SELECT call_sid, tenant_id, from_num, to_num, started_at, ended_at, duration, outcome, category
		 FROM call_log WHERE tenant_id = ? ORDER BY id DESC LIMIT ?`, tenantID, limit,
	)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []domain.CallLogEntry
	for rows.Next() {
		var e domain.CallLogEntry
		var startedAt, endedAt string
		if err := rows.Scan(&e.CallSID, &e.TenantID, &e.From, &e.To, &startedAt, &endedAt, &e.Duration, &e.Outcome, &e.Category); err != nil {
			continue
		}
		e.StartedAt, _ = time.Parse(time.DateTime, startedAt)
		e.EndedAt, _ = time.Parse(time.DateTime, endedAt)
		out = append(out, e)
	}
	return out
}
