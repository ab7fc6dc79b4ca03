// Package wake suspends the sampling loop between cycles and reports why
// it woke up.
package wake

import "time"

// Reason tags why a cycle is running.
type Reason int

const (
	// TimerExpiry means the periodic report interval elapsed.
	TimerExpiry Reason = iota
	// AsyncInterrupt means a pin change was latched during sleep.
	AsyncInterrupt
)

func (r Reason) String() string {
	if r == AsyncInterrupt {
		return "interrupt"
	}
	return "timer"
}

// Controller blocks the sampling loop until the report timer expires or a
// pin change is latched.
//
// Wake is the only entry point for gpio event handlers and must stay the
// only thing a handler does. The latch is a one slot channel: a wake
// arriving while the loop is processing a cycle is held, not dropped, and
// is consumed by the next SleepUntilWake. The loop therefore never shares
// line state with a handler mid cycle.
type Controller struct {
	interval time.Duration
	timer    *time.Timer
	latch    chan struct{}
}

// New creates a controller with the given report interval.
func New(interval time.Duration) *Controller {
	return &Controller{
		interval: interval,
		timer:    time.NewTimer(interval),
		latch:    make(chan struct{}, 1),
	}
}

// Wake latches an asynchronous wake request. It never blocks and may be
// called from any goroutine, including gpio event handlers.
func (c *Controller) Wake() {
	select {
	case c.latch <- struct{}{}:
	default:
	}
}

// SleepUntilWake blocks until the report timer expires or a wake is
// latched. A pending wake wins over a simultaneously expired timer, so an
// edge that arrived while the previous cycle was running is handled before
// the next periodic report.
func (c *Controller) SleepUntilWake() Reason {
	select {
	case <-c.latch:
		return AsyncInterrupt
	default:
	}

	select {
	case <-c.latch:
		return AsyncInterrupt
	case <-c.timer.C:
		return TimerExpiry
	}
}

// Rearm schedules the next timer wake. Call it only after the cycle's
// state updates and publishes are committed; a wake latched in the
// meantime stays pending.
func (c *Controller) Rearm() {
	if !c.timer.Stop() {
		select {
		case <-c.timer.C:
		default:
		}
	}
	c.timer.Reset(c.interval)
}
