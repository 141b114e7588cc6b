package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create caller memory and call log",
		SQL: `
			CREATE TABLE caller_memory (
				tenant_id    TEXT NOT NULL,
				phone        TEXT NOT NULL,
				name         TEXT NOT NULL DEFAULT '',
				call_count   INTEGER NOT NULL DEFAULT 0,
				last_call_at TEXT NOT NULL DEFAULT (datetime('now')),
				last_reason  TEXT NOT NULL DEFAULT '',
				PRIMARY KEY (tenant_id, phone)
			);

			CREATE TABLE call_log (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				call_sid   TEXT NOT NULL,
				tenant_id  TEXT NOT NULL,
				from_num   TEXT NOT NULL,
				to_num     TEXT NOT NULL,
				started_at TEXT NOT NULL,
				ended_at   TEXT NOT NULL,
				duration   INTEGER NOT NULL DEFAULT 0,
				outcome    TEXT NOT NULL,
				category   TEXT NOT NULL DEFAULT ''
			);

			CREATE INDEX idx_call_log_tenant ON call_log (tenant_id, id);
		`,
	},
	{
		Version: 2,
		Name:    "create appointments and booked slots",
		SQL: `
			CREATE TABLE appointments (
				id         TEXT PRIMARY KEY,
				tenant_id  TEXT NOT NULL,
				name       TEXT NOT NULL,
				email      TEXT NOT NULL DEFAULT '',
				phone      TEXT NOT NULL DEFAULT '',
				date       TEXT NOT NULL,
				time       TEXT NOT NULL,
				reason     TEXT NOT NULL DEFAULT '',
				status     TEXT NOT NULL DEFAULT 'pending',
				source     TEXT NOT NULL DEFAULT 'phone',
				created_at TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_appointments_tenant ON appointments (tenant_id, date, time);

			CREATE TABLE booked_slots (
				tenant_id      TEXT NOT NULL,
				date           TEXT NOT NULL,
				time           TEXT NOT NULL,
				appointment_id TEXT NOT NULL DEFAULT '',
				duration_min   INTEGER NOT NULL DEFAULT 30,
				PRIMARY KEY (tenant_id, date, time)
			);
		`,
	},
	{
		Version: 3,
		Name:    "create messages and sms sessions",
		SQL: `
			CREATE TABLE messages (
				id          TEXT PRIMARY KEY,
				tenant_id   TEXT NOT NULL,
				caller_name TEXT NOT NULL DEFAULT '',
				phone       TEXT NOT NULL DEFAULT '',
				body        TEXT NOT NULL,
				urgency     TEXT NOT NULL DEFAULT 'normal',
				status      TEXT NOT NULL DEFAULT 'unread',
				created_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_messages_tenant ON messages (tenant_id, created_at);

			CREATE TABLE sms_sessions (
				id         TEXT PRIMARY KEY,
				tenant_id  TEXT NOT NULL,
				phone      TEXT NOT NULL,
				created_at TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE UNIQUE INDEX idx_sms_sessions_key ON sms_sessions (tenant_id, phone);

			CREATE TABLE sms_turns (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				session_id TEXT NOT NULL REFERENCES sms_sessions(id) ON DELETE CASCADE,
				role       TEXT NOT NULL,
				content    TEXT NOT NULL,
				timestamp  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_sms_turns_session ON sms_turns (session_id, id);
		`,
	},
}
