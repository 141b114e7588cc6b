package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/voxlane/frontdesk/internal/domain"
)

// MessageStore persists messages callers leave for the business.
type MessageStore struct {
	db *DB
}

// NewMessageStore creates a message store using the given database.
func NewMessageStore(db *DB) *MessageStore {
	return &MessageStore{db: db}
}

// Create inserts a new message. A missing ID is filled in; status defaults
// to unread and urgency to normal.
func (s *MessageStore) Create(msg *domain.TextMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Status == "" {
		msg.Status = "unread"
	}
	if msg.Urgency == "" {
		msg.Urgency = "normal"
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	_, err := s.db.sql.Exec(
		`INSERT INTO messages (id, tenant_id, caller_name, phone, body, urgency, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.TenantID, msg.CallerName, msg.Phone, msg.Body,
		msg.Urgency, msg.Status, msg.CreatedAt.Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

// List returns a tenant's messages, newest first.
func (s *MessageStore) List(tenantID string) []domain.TextMessage {
	rows, err := s.db.sql.Query(
		`SELECT id, tenant_id, caller_name, phone, body, urgency, status, created_at
		 FROM messages WHERE tenant_id = ? ORDER BY created_at DESC, id`, tenantID,
	)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []domain.TextMessage
	for rows.Next() {
		var m domain.TextMessage
		var createdAt string
		if err := rows.Scan(&m.ID, &m.TenantID, &m.CallerName, &m.Phone, &m.Body, &m.Urgency, &m.Status, &createdAt); err != nil {
			continue
		}
		m.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
		out = append(out, m)
	}
	return out
}

// MarkRead flips a message to read. Returns false if the message does not
// exist.
func (s *MessageStore) MarkRead(id string) bool {
	res, err := s.db.sql.Exec(`UPDATE messages SET status = 'read' WHERE id = ?`, id)
	if err != nil {
		s.db.log.Error().Err(err).Str("id", id).Msg("failed to mark message read")
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}
