package call

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlane/frontdesk/internal/domain"
)

func TestRegistryCreateAndGet(t *testing.T) {
	r := NewRegistry()

	sess := r.Create("CA1", "+15550001111", "+15559990000", "dental")
	require.NotNil(t, sess)
	assert.Equal(t, "CA1", sess.CallSID)
	assert.Equal(t, domain.StateGreeting, sess.State)
	assert.False(t, sess.StartedAt.IsZero())

	assert.Same(t, sess, r.Get("CA1"))
	assert.Nil(t, r.Get("CA2"))
	assert.Equal(t, 1, r.Len())
}

func TestRegistryCreateIsIdempotent(t *testing.T) {
	r := NewRegistry()

	first := r.Create("CA1", "+15550001111", "+15559990000", "dental")
	second := r.Create("CA1", "+15550001111", "+15559990000", "dental")
	assert.Same(t, first, second)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryRemoveOnce(t *testing.T) {
	r := NewRegistry()
	r.Create("CA1", "+15550001111", "+15559990000", "dental")

	sess := r.Remove("CA1")
	require.NotNil(t, sess)
	assert.Nil(t, r.Remove("CA1"))
	assert.Nil(t, r.Get("CA1"))
}

func TestRegistryRemoveConcurrentSingleWinner(t *testing.T) {
	r := NewRegistry()
	r.Create("CA1", "+15550001111", "+15559990000", "dental")

	const workers = 16
	var wg sync.WaitGroup
	wins := make(chan *domain.CallSession, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s := r.Remove("CA1"); s != nil {
				wins <- s
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count)
}

func TestRegistryActiveSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Create("CA1", "+15550001111", "+15559990000", "dental")
	r.Create("CA2", "+15550002222", "+15559990000", "dental")

	active := r.Active()
	assert.Len(t, active, 2)
}
