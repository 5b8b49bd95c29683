// Package logic contains the pure firmware core of the binary clock.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Fixed firmware thresholds.
const (
	// DebounceThreshold is the number of display loop passes that must elapse
	// after an accepted input before the next one is accepted.
	DebounceThreshold = 10

	// SleepAfter is the number of ticks without a wake press before the
	// display goes to sleep.
	SleepAfter = 25

	// IdlePattern keeps only port bit 0 high, the pull-up on the hours button
	// input; no LED is lit.
	IdlePattern byte = 0x01
)

// Phase is the power phase of the clock.
type Phase string

const (
	PhaseActive   Phase = "ACTIVE"
	PhaseSleeping Phase = "SLEEPING"
)

// EventType identifies something the core did that observers may care about.
type EventType string

const (
	EventHoursUp   EventType = "HOURS_UP"
	EventMinutesUp EventType = "MINUTES_UP"
	EventWake      EventType = "WAKE"
	EventSleep     EventType = "SLEEP"
	EventActive    EventType = "ACTIVE"
)

// Event is emitted by the Controller when an input is accepted or the power
// phase changes.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Hours     int
	Minutes   int
	Seconds   int
	Phase     Phase
}

// Levels is one sample of the three button lines.
// The lines are active-low: true means the line is high (button released).
type Levels struct {
	Hours   bool
	Minutes bool
	Wake    bool
}

// Released is the idle state of all three lines.
var Released = Levels{Hours: true, Minutes: true, Wake: true}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	HoursUp   int
	MinutesUp int
	Wakes     int
	Sleeps    int
}

// State is a point-in-time copy of the core's state.
type State struct {
	Hours      int
	Minutes    int
	Seconds    int
	Phase      Phase
	Inactivity int
	Debounce   int
	Sequence   Sequence
	Refreshes  int
	Counts     EventCounts
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
}
