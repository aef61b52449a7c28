package engine

import "time"

// Cooldown is the dedup guard. It remembers the last firing instant per
// alarm id and denies a repeat inside the cooldown window, so an alarm that
// stays due for its whole matching minute fires once instead of once per
// tick. Entries are never removed; ids that fall out of future snapshots go
// stale harmlessly.
//
// Cooldown is not safe for concurrent use on its own; the engine serializes
// access under its mutex.
type Cooldown struct {
	// window is the minimum time before the same id may fire again.
	window time.Duration
	// lastFired maps alarm id to the most recent granted firing instant.
	lastFired map[string]time.Time
}

// NewCooldown creates a guard with a pre-initialized table.
func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{
		window:    window,
		lastFired: make(map[string]time.Time),
	}
}

// ShouldFire reports whether id may fire at instant now: either no firing is
// recorded for it, or the window has fully elapsed since the last one. The
// check never mutates state; recording is the caller's explicit step, so a
// denied check leaves no trace.
func (c *Cooldown) ShouldFire(id string, now time.Time) bool {
	last, ok := c.lastFired[id]
	if !ok {
		return true
	}

	return now.Sub(last) > c.window
}

// Record stores now as the latest granted firing instant for id.
func (c *Cooldown) Record(id string, now time.Time) {
	c.lastFired[id] = now
}

// Len returns the number of ids with a recorded firing (for testing).
func (c *Cooldown) Len() int {
	return len(c.lastFired)
}
