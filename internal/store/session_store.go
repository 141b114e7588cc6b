package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/voxlane/frontdesk/internal/domain"
)

// SMSSessionStore persists text-message conversations so context survives
// restarts. Voice sessions live only in memory for the duration of a call;
// SMS threads can span days.
type SMSSessionStore struct {
	db *DB
}

// NewSMSSessionStore creates an SMS session store using the given database.
func NewSMSSessionStore(db *DB) *SMSSessionStore {
	return &SMSSessionStore{db: db}
}

// GetOrCreate finds an existing conversation for (tenant, phone) or starts
// a new one. The phone number is normalized before keying.
func (s *SMSSessionStore) GetOrCreate(tenantID, phone string) *domain.SMSSession {
	phone = domain.NormalizePhone(phone)

	var sess domain.SMSSession
	var createdAt, updatedAt string
	err := s.db.sql.QueryRow(
		`SELECT id, tenant_id, phone, created_at, updated_at
		 FROM sms_sessions WHERE tenant_id = ? AND phone = ?`, tenantID, phone,
	).Scan(&sess.ID, &sess.TenantID, &sess.Phone, &createdAt, &updatedAt)

	if err == nil {
		sess.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
		sess.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
		sess.Turns = s.loadTurns(sess.ID)
		return &sess
	}

	sess = domain.SMSSession{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Phone:     phone,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	_, err = s.db.sql.Exec(
		`INSERT INTO sms_sessions (id, tenant_id, phone, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.ID, tenantID, phone,
		sess.CreatedAt.Format(time.DateTime), sess.UpdatedAt.Format(time.DateTime),
	)
	if err != nil {
		s.db.log.Error().Err(err).Str("phone", phone).Msg("failed to create sms session")
	}

	return &sess
}

// Append adds a turn to a conversation.
func (s *SMSSessionStore) Append(sessionID string, turn domain.Turn) {
	ts := turn.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := s.db.sql.Exec(
		`INSERT INTO sms_turns (session_id, role, content, timestamp)
		 VALUES (?, ?, ?, ?)`,
		sessionID, turn.Role, turn.Content, ts.Format(time.DateTime),
	)
	if err != nil {
		s.db.log.Error().Err(err).Str("session", sessionID).Msg("failed to append sms turn")
		return
	}

	_, _ = s.db.sql.Exec(
		`UPDATE sms_sessions SET updated_at = ? WHERE id = ?`,
		time.Now().Format(time.DateTime), sessionID,
	)
}

// loadTurns loads the full turn history for a conversation.
func (s *SMSSessionStore) loadTurns(sessionID string) []domain.Turn {
	rows, err := s.db.sql.Query(
		`SELECT role, content, timestamp
		 FROM sms_turns WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var turns []domain.Turn
	for rows.Next() {
		var t domain.Turn
		var ts string
		if err := rows.Scan(&t.Role, &t.Content, &ts); err != nil {
			continue
		}
		t.Timestamp, _ = time.Parse(time.DateTime, ts)
		turns = append(turns, t)
	}
	return turns
}
