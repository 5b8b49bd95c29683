package logic

import "time"

// Debouncer decides whether a button edge may be accepted.
//
// By default it counts display loop passes since the last accepted edge and
// accepts once threshold passes have elapsed. With a non-zero interval it
// measures wall time since the last accepted edge instead, which does not
// depend on how long a display pass takes.
type Debouncer struct {
	threshold int
	interval  time.Duration

	count    int
	accepted time.Time
}

// NewDebouncer creates a debouncer. A threshold <= 0 uses DebounceThreshold.
// The two policies start differently: counting passes starts at zero, so the
// first edge needs threshold passes, while an interval debouncer has no
// accepted edge yet and accepts the first one immediately.
func NewDebouncer(threshold int, interval time.Duration) *Debouncer {
	if threshold <= 0 {
		threshold = DebounceThreshold
	}
	return &Debouncer{threshold: threshold, interval: interval}
}

// Pass records one display loop pass.
func (d *Debouncer) Pass() {
	d.count++
}

// Ready reports whether an edge seen at now would be accepted.
func (d *Debouncer) Ready(now time.Time) bool {
	if d.interval > 0 {
		return d.accepted.IsZero() || now.Sub(d.accepted) >= d.interval
	}
	return d.count >= d.threshold
}

// Accept restarts the debounce window at now.
func (d *Debouncer) Accept(now time.Time) {
	d.count = 0
	d.accepted = now
}

// Arm makes the next edge acceptable immediately.
func (d *Debouncer) Arm() {
	d.count = d.threshold
	d.accepted = time.Time{}
}

// Count returns the number of passes since the last accepted edge.
func (d *Debouncer) Count() int {
	return d.count
}
