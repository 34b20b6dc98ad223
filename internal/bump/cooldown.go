package bump

import (
	"sync"
	"time"
)

// Gate enforces the minimum interval between two accepted bumps. All inbound
// requests funnel through a single Gate; the mutex serializes concurrent
// arrivals so exactly one of two same-instant requests wins.
type Gate struct {
	mu           sync.Mutex
	interval     time.Duration
	lastAccepted time.Time

	// Clock returns the current time; overridable in tests.
	Clock func() time.Time
}

// NewGate creates a cooldown gate. A non-positive interval disables the
// cooldown entirely (every request is accepted).
func NewGate(interval time.Duration) *Gate {
	if interval < 0 {
		interval = 0
	}
	return &Gate{interval: interval}
}

// Accept reports whether a bump arriving now clears the cooldown. On accept
// it advances the last-accepted timestamp; on reject it leaves state
// untouched and returns the remaining wait. The zero lastAccepted sentinel
// lets the very first request through unconditionally.
func (g *Gate) Accept() (bool, time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if g.interval == 0 || g.lastAccepted.IsZero() || now.Sub(g.lastAccepted) >= g.interval {
		g.lastAccepted = now
		return true, 0
	}

	return false, g.interval - now.Sub(g.lastAccepted)
}

// Remaining returns the wait until the next bump would be accepted, without
// mutating state. Zero means the gate is open.
func (g *Gate) Remaining() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.interval == 0 || g.lastAccepted.IsZero() {
		return 0
	}
	remaining := g.interval - g.now().Sub(g.lastAccepted)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// LastAccepted returns the timestamp of the last accepted bump; zero when no
// bump has been accepted yet.
func (g *Gate) LastAccepted() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastAccepted
}

// Interval returns the configured cooldown interval.
func (g *Gate) Interval() time.Duration {
	return g.interval
}

func (g *Gate) now() time.Time {
	if g.Clock != nil {
		return g.Clock()
	}
	return time.Now().UTC()
}
