package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlane/frontdesk/internal/domain"
	"github.com/voxlane/frontdesk/internal/logging"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	log := logging.New(nil, "silent")
	db, err := Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// --- DB/Migration tests ---

func TestOpen_InMemory(t *testing.T) {
	db := testDB(t)
	assert.NotNil(t, db)
	assert.NotNil(t, db.SQL())
}

func TestMigrations_Applied(t *testing.T) {
	db := testDB(t)

	var count int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestMigrations_Idempotent(t *testing.T) {
	db := testDB(t)

	// Running migrate again should be a no-op
	err := db.migrate()
	require.NoError(t, err)

	var count int
	err = db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestSchema_TablesExist(t *testing.T) {
	db := testDB(t)

	tables := []string{"caller_memory", "call_log", "appointments", "booked_slots", "messages", "sms_sessions", "sms_turns"}
	for _, table := range tables {
		var name string
		err := db.sql.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

// --- Caller memory tests ---

func TestCallerMemory_UnknownCaller(t *testing.T) {
	s := NewCallerMemoryStore(testDB(t))
	assert.Nil(t, s.Get("dental", "+15551234567"))
}

func TestCallerMemory_RecordAndGet(t *testing.T) {
	s := NewCallerMemoryStore(testDB(t))

	s.Record("dental", "+1 (555) 123-4567", "John", "cleaning")

	mem := s.Get("dental", "15551234567")
	require.NotNil(t, mem)
	assert.Equal(t, "John", mem.Name)
	assert.Equal(t, 1, mem.CallCount)
	assert.Equal(t, "cleaning", mem.LastReason)
}

func TestCallerMemory_CallCountGrows(t *testing.T) {
	s := NewCallerMemoryStore(testDB(t))

	s.Record("dental", "15551234567", "John", "cleaning")
	s.Record("dental", "15551234567", "", "")
	s.Record("dental", "15551234567", "", "filling")

	mem := s.Get("dental", "15551234567")
	require.NotNil(t, mem)
	assert.Equal(t, 3, mem.CallCount)
	// Empty name does not erase the known one.
	assert.Equal(t, "John", mem.Name)
	assert.Equal(t, "filling", mem.LastReason)
}

func TestCallerMemory_TenantIsolation(t *testing.T) {
	s := NewCallerMemoryStore(testDB(t))

	s.Record("dental", "15551234567", "John", "")
	assert.Nil(t, s.Get("salon", "15551234567"))
}

// --- Booking tests ---

func TestBooking_CreateAndGet(t *testing.T) {
	s := NewBookingStore(testDB(t))

	appt := &domain.Appointment{
		TenantID: "dental",
		Name:     "John Doe",
		Phone:    "15551234567",
		Date:     "2026-09-02",
		Time:     "14:00",
		Reason:   "cleaning",
		Source:   "phone",
	}
	require.NoError(t, s.Create(appt))
	require.NotEmpty(t, appt.ID)

	got := s.Get(appt.ID)
	require.NotNil(t, got)
	assert.Equal(t, "John Doe", got.Name)
	assert.Equal(t, domain.AppointmentPending, got.Status)
}

func TestBooking_SetStatus(t *testing.T) {
	s := NewBookingStore(testDB(t))

	appt := &domain.Appointment{TenantID: "dental", Name: "A", Date: "2026-09-02", Time: "14:00"}
	require.NoError(t, s.Create(appt))

	assert.True(t, s.SetStatus(appt.ID, domain.AppointmentAccepted))
	assert.Equal(t, domain.AppointmentAccepted, s.Get(appt.ID).Status)

	assert.False(t, s.SetStatus("missing", domain.AppointmentRejected))
}

func TestBooking_ListNewestFirst(t *testing.T) {
	s := NewBookingStore(testDB(t))

	first := &domain.Appointment{TenantID: "dental", Name: "A", Date: "2026-09-02", Time: "09:00", CreatedAt: time.Now().Add(-time.Hour)}
	second := &domain.Appointment{TenantID: "dental", Name: "B", Date: "2026-09-02", Time: "10:00", CreatedAt: time.Now()}
	require.NoError(t, s.Create(first))
	require.NoError(t, s.Create(second))

	list := s.List("dental")
	require.Len(t, list, 2)
	assert.Equal(t, "B", list[0].Name)
}

func TestSlots_SaveAndLoad(t *testing.T) {
	s := NewBookingStore(testDB(t))

	slots := []domain.SlotReservation{
		{TenantID: "dental", Date: "2026-09-02", Time: "14:00", AppointmentID: "a1", DurationMin: 30},
		{TenantID: "dental", Date: "2026-09-02", Time: "15:00", AppointmentID: "a2", DurationMin: 30},
	}
	require.NoError(t, s.SaveSlots("dental", slots))

	loaded, err := s.LoadSlots()
	require.NoError(t, err)
	assert.Len(t, loaded["dental"], 2)

	// Save replaces the snapshot, not appends.
	require.NoError(t, s.SaveSlots("dental", slots[:1]))
	loaded, err = s.LoadSlots()
	require.NoError(t, err)
	assert.Len(t, loaded["dental"], 1)
	assert.Equal(t, "a1", loaded["dental"][0].AppointmentID)
}

// --- Call log tests ---

func TestCallLog_AppendAndRecent(t *testing.T) {
	s := NewCallLogStore(testDB(t), 100)

	s.Append(domain.CallLogEntry{
		CallSID: "CA1", TenantID: "dental", From: "15551234567", To: "15559990000",
		StartedAt: time.Now().Add(-time.Minute), EndedAt: time.Now(),
		Duration: 60, Outcome: domain.OutcomeAnswered,
	})

	recent := s.Recent("dental", 10)
	require.Len(t, recent, 1)
	assert.Equal(t, "CA1", recent[0].CallSID)
	assert.Equal(t, domain.OutcomeAnswered, recent[0].Outcome)
}

func TestCallLog_RetentionEvictsOldest(t *testing.T) {
	s := NewCallLogStore(testDB(t), 3)

	for i := 0; i < 5; i++ {
		s.Append(domain.CallLogEntry{
			CallSID: "CA" + string(rune('0'+i)), TenantID: "dental",
			From: "1555", To: "1999",
			StartedAt: time.Now(), EndedAt: time.Now(),
			Outcome: domain.OutcomeAnswered,
		})
	}

	recent := s.Recent("dental", 10)
	require.Len(t, recent, 3)
	assert.Equal(t, "CA4", recent[0].CallSID)
	assert.Equal(t, "CA2", recent[2].CallSID)
}

// --- Message tests ---

func TestMessages_CreateAndList(t *testing.T) {
	s := NewMessageStore(testDB(t))

	msg := &domain.TextMessage{TenantID: "dental", CallerName: "Jane", Phone: "1555", Body: "please call back"}
	require.NoError(t, s.Create(msg))

	list := s.List("dental")
	require.Len(t, list, 1)
	assert.Equal(t, "unread", list[0].Status)
	assert.Equal(t, "normal", list[0].Urgency)

	assert.True(t, s.MarkRead(msg.ID))
	assert.Equal(t, "read", s.List("dental")[0].Status)
	assert.False(t, s.MarkRead("missing"))
}

// --- SMS session tests ---

func TestSMSSession_GetOrCreate(t *testing.T) {
	s := NewSMSSessionStore(testDB(t))

	sess := s.GetOrCreate("dental", "+1 (555) 123-4567")
	require.NotNil(t, sess)
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, "15551234567", sess.Phone)

	again := s.GetOrCreate("dental", "15551234567")
	assert.Equal(t, sess.ID, again.ID)
}

func TestSMSSession_TurnsPersist(t *testing.T) {
	s := NewSMSSessionStore(testDB(t))

	sess := s.GetOrCreate("dental", "15551234567")
	s.Append(sess.ID, domain.Turn{Role: domain.RoleCaller, Content: "hi, do you have openings?"})
	s.Append(sess.ID, domain.Turn{Role: domain.RoleAssistant, Content: "Yes, what day works for you?"})

	reloaded := s.GetOrCreate("dental", "15551234567")
	require.Len(t, reloaded.Turns, 2)
	assert.Equal(t, domain.RoleCaller, reloaded.Turns[0].Role)
	assert.Equal(t, "Yes, what day works for you?", reloaded.Turns[1].Content)
}
