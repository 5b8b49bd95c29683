package logic

import "time"

// Options configures a Controller. Zero values select the firmware defaults.
type Options struct {
	Hours, Minutes, Seconds int
	Pack                    PackFunc
	DebounceThreshold       int
	DebounceInterval        time.Duration
	SleepAfter              int
}

// Controller ties the clock, the button state machine and the power state
// machine together. It is not safe for concurrent use; the display loop owns
// it and feeds it ticks and edges as messages.
type Controller struct {
	clock    *Clock
	debounce *Debouncer
	power    *Power
	counts   EventCounts
}

// NewController creates a controller in the ACTIVE phase.
func NewController(opts Options) *Controller {
	return &Controller{
		clock:    NewClock(opts.Hours, opts.Minutes, opts.Seconds, opts.Pack),
		debounce: NewDebouncer(opts.DebounceThreshold, opts.DebounceInterval),
		power:    NewPower(opts.SleepAfter),
	}
}

// Tick handles one real-time tick: the clock advances and the inactivity
// counter grows. Ticks never produce events.
func (c *Controller) Tick() {
	c.clock.Tick()
	c.power.Tick()
}

// Edge handles a pin-change notification. Each line is checked in turn and
// an accepted edge restarts the debounce window, so at most one line is
// accepted per notification.
func (c *Controller) Edge(levels Levels, now time.Time) []Event {
	var events []Event

	if !levels.Hours && c.debounce.Ready(now) {
		c.clock.AdjustHours()
		c.debounce.Accept(now)
		c.counts.HoursUp++
		events = append(events, c.event(EventHoursUp, now))
	}

	if !levels.Minutes && c.debounce.Ready(now) {
		c.clock.AdjustMinutes()
		c.debounce.Accept(now)
		c.counts.MinutesUp++
		events = append(events, c.event(EventMinutesUp, now))
	}

	if !levels.Wake && c.debounce.Ready(now) {
		c.power.Reset()
		c.debounce.Accept(now)
		c.counts.Wakes++
		events = append(events, c.event(EventWake, now))
	}

	return events
}

// Pass records one display loop pass.
func (c *Controller) Pass() {
	c.debounce.Pass()
}

// ShouldSleep reports whether the inactivity limit has been reached.
func (c *Controller) ShouldSleep() bool {
	return c.power.Due()
}

// EnterSleep prepares for suspending: the debouncer is armed so the next
// wake press is accepted at once. It is called before every suspend; an
// event is returned only on the transition from ACTIVE.
func (c *Controller) EnterSleep(now time.Time) *Event {
	c.debounce.Arm()
	if !c.power.set(PhaseSleeping) {
		return nil
	}
	c.counts.Sleeps++
	e := c.event(EventSleep, now)
	return &e
}

// Resume marks the clock ACTIVE again. An event is returned only on the
// transition from SLEEPING.
func (c *Controller) Resume(now time.Time) *Event {
	if !c.power.set(PhaseActive) {
		return nil
	}
	e := c.event(EventActive, now)
	return &e
}

// Phase returns the current power phase.
func (c *Controller) Phase() Phase {
	return c.power.Phase()
}

// Sequence returns the LED sequence to display.
func (c *Controller) Sequence() Sequence {
	return c.clock.Sequence()
}

// State returns a copy of the controller state.
func (c *Controller) State() State {
	h, m, s := c.clock.Time()
	return State{
		Hours:      h,
		Minutes:    m,
		Seconds:    s,
		Phase:      c.power.Phase(),
		Inactivity: c.power.Inactivity(),
		Debounce:   c.debounce.Count(),
		Sequence:   c.clock.Sequence(),
		Refreshes:  c.clock.Refreshes(),
		Counts:     c.counts,
	}
}

func (c *Controller) event(t EventType, now time.Time) Event {
	h, m, s := c.clock.Time()
	return Event{
		Timestamp: now,
		Type:      t,
		Hours:     h,
		Minutes:   m,
		Seconds:   s,
		Phase:     c.power.Phase(),
	}
}
