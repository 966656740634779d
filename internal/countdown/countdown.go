// Package countdown implements the auto-reveal timer as a cancellable task
// with explicit handles. The owner drives it with ticks; a tick carrying a
// superseded handle, or arriving after the card changed, is reported stale
// and must be ignored.
package countdown

import (
	"math"
	"time"

	"github.com/kingrea/shunkan/internal/phrase"
)

// Handle identifies one armed countdown. The zero handle is never issued.
type Handle uint64

// Outcome is the result of delivering a tick.
type Outcome int

const (
	// Pending means the countdown is still running.
	Pending Outcome = iota
	// Expired means the deadline passed and the card should be revealed.
	Expired
	// Stale means the tick belongs to a cancelled or superseded countdown.
	Stale
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Expired:
		return "expired"
	default:
		return "stale"
	}
}

// Countdown holds at most one outstanding task.
type Countdown struct {
	next     Handle
	active   Handle
	target   phrase.ID
	deadline time.Time
}

// Arm cancels any outstanding countdown and starts a new one for target.
func (c *Countdown) Arm(target phrase.ID, seconds int, now time.Time) Handle {
	c.Cancel()
	if seconds < 1 {
		seconds = 1
	}
	c.next++
	c.active = c.next
	c.target = target
	c.deadline = now.Add(time.Duration(seconds) * time.Second)
	return c.active
}

// Cancel drops the outstanding countdown, if any.
func (c *Countdown) Cancel() {
	c.active = 0
	c.target = ""
	c.deadline = time.Time{}
}

// Outstanding returns the live handle.
func (c *Countdown) Outstanding() (Handle, bool) {
	return c.active, c.active != 0
}

// Remaining returns whole seconds left, rounded up, or 0 when idle.
func (c *Countdown) Remaining(now time.Time) int {
	if c.active == 0 {
		return 0
	}
	left := c.deadline.Sub(now).Seconds()
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left))
}

// Tick delivers a timer tick for h. current is the card on screen; the tick
// only acts when it still matches the armed target.
func (c *Countdown) Tick(h Handle, current phrase.ID, now time.Time) (int, Outcome) {
	if h == 0 || h != c.active {
		return 0, Stale
	}
	if current != c.target {
		c.Cancel()
		return 0, Stale
	}
	remaining := c.Remaining(now)
	if remaining == 0 {
		c.Cancel()
		return 0, Expired
	}
	return remaining, Pending
}
