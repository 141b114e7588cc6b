package ledger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlane/frontdesk/internal/domain"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"10:30", 630, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{" 9:15 ", 555, false},
		{"24:00", 0, true},
		{"10:60", 0, true},
		{"10", 0, true},
		{"ten:30", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrBadTime, tt.in)
		} else {
			require.NoError(t, err, tt.in)
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}

func TestReserveAndConflicts(t *testing.T) {
	l := New(nil)
	require.NoError(t, l.Reserve("salon", "2025-03-15", "10:30", "appt-1", 30))

	// exact duplicate
	assert.ErrorIs(t, l.Reserve("salon", "2025-03-15", "10:30", "appt-2", 30), ErrSlotTaken)
	// overlap from within
	assert.ErrorIs(t, l.Reserve("salon", "2025-03-15", "10:45", "appt-3", 30), ErrSlotTaken)
	// overlap from before
	assert.ErrorIs(t, l.Reserve("salon", "2025-03-15", "10:15", "appt-4", 30), ErrSlotTaken)

	// touching endpoints do not conflict (half-open intervals)
	require.NoError(t, l.Reserve("salon", "2025-03-15", "11:00", "appt-5", 30))
	require.NoError(t, l.Reserve("salon", "2025-03-15", "10:00", "appt-6", 30))

	// other date, other tenant: independent
	require.NoError(t, l.Reserve("salon", "2025-03-16", "10:30", "appt-7", 30))
	require.NoError(t, l.Reserve("clinic", "2025-03-15", "10:30", "appt-8", 30))
}

func TestIsAvailable(t *testing.T) {
	l := New(nil)
	require.NoError(t, l.Reserve("salon", "2025-03-15", "10:30", "appt-1", 30))

	ok, err := l.IsAvailable("salon", "2025-03-15", "10:45", 30)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.IsAvailable("salon", "2025-03-15", "11:00", 30)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReserveReleaseRoundTrip(t *testing.T) {
	l := New(nil)
	require.NoError(t, l.Reserve("salon", "2025-03-15", "10:30", "appt-1", 30))

	l.Release("salon", "appt-1")

	ok, err := l.IsAvailable("salon", "2025-03-15", "10:30", 30)
	require.NoError(t, err)
	assert.True(t, ok)

	// releasing again is a no-op
	l.Release("salon", "appt-1")
}

func TestMalformedTimeRejected(t *testing.T) {
	l := New(nil)
	err := l.Reserve("salon", "2025-03-15", "half past ten", "appt-1", 30)
	assert.ErrorIs(t, err, ErrBadTime)

	_, err = l.IsAvailable("salon", "2025-03-15", "25:99", 30)
	assert.ErrorIs(t, err, ErrBadTime)
}

func TestConcurrentReserveSingleWinner(t *testing.T) {
	l := New(nil)
	const n = 16
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = l.Reserve("salon", "2025-03-15", "10:30", "appt", 30)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrSlotTaken)
		}
	}
	assert.Equal(t, 1, wins)
}

type memPersister struct {
	mu    sync.Mutex
	saved map[string][]domain.SlotReservation
}

func (m *memPersister) SaveSlots(tenantID string, slots []domain.SlotReservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		m.saved = map[string][]domain.SlotReservation{}
	}
	m.saved[tenantID] = slots
	return nil
}

func TestPersistCalledOnMutation(t *testing.T) {
	p := &memPersister{}
	l := New(p)
	require.NoError(t, l.Reserve("salon", "2025-03-15", "10:30", "appt-1", 30))
	require.Len(t, p.saved["salon"], 1)

	l.Release("salon", "appt-1")
	assert.Empty(t, p.saved["salon"])
}

type journalPersister struct {
	mu        sync.Mutex
	snapshots [][]domain.SlotReservation
}

func (j *journalPersister) SaveSlots(_ string, slots []domain.SlotReservation) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.snapshots = append(j.snapshots, slots)
	return nil
}

func TestPersistSnapshotsArriveInMutationOrder(t *testing.T) {
	p := &journalPersister{}
	l := New(p)

	const n = 12
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "appt-" + string(rune('a'+i))
			if l.Reserve("salon", "2025-03-15", "10:30", id, 30) == nil {
				l.Release("salon", id)
			}
		}(i)
	}
	wg.Wait()

	// Every mutation snapshotted under the tenant lock: each save differs
	// from its predecessor by exactly one reservation, and the last one
	// matches the ledger's final state.
	require.NotEmpty(t, p.snapshots)
	prev := 0
	for _, snap := range p.snapshots {
		diff := len(snap) - prev
		assert.True(t, diff == 1 || diff == -1, "snapshot jumped from %d to %d entries", prev, len(snap))
		prev = len(snap)
	}
	assert.Len(t, p.snapshots[len(p.snapshots)-1], len(l.Booked("salon", "")))
}

func TestHydrate(t *testing.T) {
	l := New(nil)
	l.Hydrate("salon", []domain.SlotReservation{
		{TenantID: "salon", Date: "2025-03-15", Time: "10:30", AppointmentID: "a1", DurationMin: 30},
	})
	ok, err := l.IsAvailable("salon", "2025-03-15", "10:30", 30)
	require.NoError(t, err)
	assert.False(t, ok)

	got := l.Booked("salon", "2025-03-15")
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].AppointmentID)
}
