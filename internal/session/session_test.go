package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestStartGetSaveDelete(t *testing.T) {
	t.Parallel()

	s := NewStore(time.Hour)
	started := s.Start(1, "collecting")
	require.NotEqual(t, uuid.Nil, started.FlowID)

	started.Fields["appreciate"] = "clean"
	got, ok := s.Get(1)
	require.True(t, ok)
	require.Empty(t, got.Fields, "callers must not share the stored map")

	got.Fields["appreciate"] = "clean"
	got.State = "next"
	s.Save(got)

	again, ok := s.Get(1)
	require.True(t, ok)
	require.Equal(t, "next", again.State)
	require.Equal(t, "clean", again.Fields["appreciate"])
	require.Equal(t, started.FlowID, again.FlowID)

	restarted := s.Start(1, "collecting")
	require.NotEqual(t, started.FlowID, restarted.FlowID)
	require.Empty(t, restarted.Fields)

	s.Delete(1)
	_, ok = s.Get(1)
	require.False(t, ok)
}

func TestExpiryAndSweep(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewStore(10*time.Minute, WithClock(clock.Now))

	s.Start(1, StateChatting)
	s.Start(2, StatePendingBroadcast)

	clock.Advance(6 * time.Minute)
	sess, ok := s.Get(2)
	require.True(t, ok)
	s.Save(sess)

	clock.Advance(6 * time.Minute)
	_, ok = s.Get(1)
	require.False(t, ok, "idle session expires lazily")

	s.Start(3, StateChatting)
	clock.Advance(11 * time.Minute)
	require.Equal(t, 2, s.Sweep())
	require.Zero(t, s.Len())
}

func TestZeroTTLNeverExpires(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Now()}
	s := NewStore(0, WithClock(clock.Now))
	s.Start(1, StateChatting)
	clock.Advance(1000 * time.Hour)

	require.Zero(t, s.Sweep())
	_, ok := s.Get(1)
	require.True(t, ok)
}

func TestLockSerialisesSameIdentity(t *testing.T) {
	t.Parallel()

	s := NewStore(time.Hour)
	var inside, maxInside int32
	var wg sync.WaitGroup

	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := s.Lock(7)
			defer unlock()

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), maxInside)
	s.mu.Lock()
	require.Empty(t, s.locks, "released locks are dropped")
	s.mu.Unlock()
}
