package bump

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGateFirstRequestAlwaysAccepted(t *testing.T) {
	g := NewGate(time.Hour)
	g.Clock = fixedClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	accepted, wait := g.Accept()
	require.True(t, accepted)
	require.Zero(t, wait)
}

func TestGateCooldownScenario(t *testing.T) {
	// bump_cooldown=3600: accept at t=0, reject at t=1800, accept at t=3601.
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start

	g := NewGate(3600 * time.Second)
	g.Clock = func() time.Time { return now }

	accepted, _ := g.Accept()
	require.True(t, accepted)
	require.Equal(t, start, g.LastAccepted())

	now = start.Add(1800 * time.Second)
	accepted, wait := g.Accept()
	require.False(t, accepted)
	require.Equal(t, 1800*time.Second, wait)
	require.Equal(t, start, g.LastAccepted(), "rejection must not advance lastAccepted")

	now = start.Add(3601 * time.Second)
	accepted, _ = g.Accept()
	require.True(t, accepted)
	require.Equal(t, now, g.LastAccepted())
}

func TestGateZeroIntervalAlwaysAccepts(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	g := NewGate(0)
	g.Clock = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		accepted, _ := g.Accept()
		require.True(t, accepted)
	}
}

func TestGateLastAcceptedMonotonic(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start

	g := NewGate(time.Second)
	g.Clock = func() time.Time { return now }

	var prev time.Time
	for i := 0; i < 10; i++ {
		now = now.Add(time.Duration(i) * time.Second)
		g.Accept()
		last := g.LastAccepted()
		require.False(t, last.Before(prev))
		prev = last
	}
}

func TestGateSingleWinnerUnderConcurrency(t *testing.T) {
	g := NewGate(time.Hour)
	g.Clock = fixedClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	const n = 32
	var wg sync.WaitGroup
	results := make(chan bool, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			accepted, _ := g.Accept()
			results <- accepted
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for accepted := range results {
		if accepted {
			wins++
		}
	}
	require.Equal(t, 1, wins)
}

func TestGateRemaining(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start

	g := NewGate(time.Minute)
	g.Clock = func() time.Time { return now }

	require.Zero(t, g.Remaining(), "open before any bump")

	g.Accept()
	now = start.Add(40 * time.Second)
	require.Equal(t, 20*time.Second, g.Remaining())

	now = start.Add(2 * time.Minute)
	require.Zero(t, g.Remaining())
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
