// Package gate implements the free-tier search cooldown. It is a UX
// throttle, not an access-control mechanism: the session's stored timestamp
// is the only input and clearing it resets the gate.
package gate

import "time"

// DefaultCooldown is the rolling window during which the free tier may not
// perform another search.
const DefaultCooldown = 24 * time.Hour

// Info is the gate's advisory state for a session.
type Info struct {
	Locked    bool          `json:"locked"`
	Remaining time.Duration `json:"-"`
}

// RemainingMs exposes the remaining lock time in milliseconds for the
// produced interface.
func (i Info) RemainingMs() int64 {
	return i.Remaining.Milliseconds()
}

// Status computes the gate state from the last recorded search time. A zero
// last time means no search has been recorded and the gate is open.
// Remaining is never negative.
func Status(last, now time.Time, cooldown time.Duration) Info {
	if last.IsZero() {
		return Info{}
	}
	remaining := cooldown - now.Sub(last)
	if remaining <= 0 {
		return Info{}
	}
	return Info{Locked: true, Remaining: remaining}
}
