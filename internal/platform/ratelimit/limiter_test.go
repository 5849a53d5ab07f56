package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(rate time.Duration) (*Limiter, *clock) {
	c := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(rate)
	l.now = c.now
	return l, c
}

func TestAllow(t *testing.T) {
	l, c := newTestLimiter(time.Second)

	require.True(t, l.Allow("a"))
	require.False(t, l.Allow("a"))
	require.True(t, l.Allow("b"))

	c.advance(time.Second)
	require.True(t, l.Allow("a"))
}

func TestAllow_ZeroRate(t *testing.T) {
	l, _ := newTestLimiter(0)
	for i := 0; i < 5; i++ {
		require.True(t, l.Allow("a"))
	}
}

func TestAcquire_OneInFlight(t *testing.T) {
	l, c := newTestLimiter(0)

	release, err := l.Acquire("a")
	require.NoError(t, err)

	_, err = l.Acquire("a")
	require.ErrorIs(t, err, ErrBusy, "second request while first is in flight")

	_, err = l.Acquire("b")
	require.NoError(t, err, "other clients are independent")

	release()
	release()
	c.advance(time.Millisecond)
	_, err = l.Acquire("a")
	require.NoError(t, err)
}

func TestAcquire_RespectsInterval(t *testing.T) {
	l, c := newTestLimiter(2 * time.Second)

	release, err := l.Acquire("a")
	require.NoError(t, err)
	release()

	_, err = l.Acquire("a")
	require.ErrorIs(t, err, ErrTooSoon)

	c.advance(2 * time.Second)
	_, err = l.Acquire("a")
	require.NoError(t, err)
}

func TestPrune(t *testing.T) {
	l, c := newTestLimiter(time.Second)

	require.True(t, l.Allow("old"))
	busyRelease, err := l.Acquire("busy")
	require.NoError(t, err)
	c.advance(15 * time.Minute)
	require.True(t, l.Allow("fresh"))

	require.Equal(t, 1, l.Prune(10*time.Minute))
	require.Equal(t, 2, l.Len())

	busyRelease()
	require.Equal(t, 1, l.Prune(10*time.Minute))
	require.Equal(t, 1, l.Len())
}

func TestAcquire_Concurrent(t *testing.T) {
	l := New(0)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Acquire("same"); err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, admitted)
}
