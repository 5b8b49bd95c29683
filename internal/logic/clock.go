package logic

// Clock holds the time of day and the LED sequence that displays it.
type Clock struct {
	hours   int
	minutes int
	seconds int

	pack      PackFunc
	seq       Sequence
	refreshes int
}

// NewClock creates a clock at the given time. A nil pack uses PackXOR.
func NewClock(hours, minutes, seconds int, pack PackFunc) *Clock {
	if pack == nil {
		pack = PackXOR
	}
	c := &Clock{
		hours:   hours,
		minutes: minutes,
		seconds: seconds,
		pack:    pack,
	}
	c.refresh()
	return c
}

func (c *Clock) refresh() {
	c.seq = EncodeWord(c.pack(c.hours, c.minutes))
	c.refreshes++
}

// Tick advances the clock by one second. Every carry is checked on every call,
// so values pushed out of range by the adjust path wrap on the next tick.
// Returns true if the displayed minutes or hours changed.
func (c *Clock) Tick() bool {
	c.seconds++

	carried := false
	if c.seconds >= 60 {
		c.seconds = 0
		c.minutes++
		carried = true
	}
	if c.minutes >= 60 {
		c.minutes = 0
		c.hours++
		carried = true
	}
	if c.hours >= 24 {
		c.hours = 0
		carried = true
	}

	if carried {
		c.refresh()
	}
	return carried
}

// AdjustHours increments the hours without wrapping; the next Tick wraps.
func (c *Clock) AdjustHours() {
	c.hours++
	c.refresh()
}

// AdjustMinutes increments the minutes without carrying into the hours; the
// next Tick carries.
func (c *Clock) AdjustMinutes() {
	c.minutes++
	c.refresh()
}

// Time returns the current hours, minutes and seconds.
func (c *Clock) Time() (int, int, int) {
	return c.hours, c.minutes, c.seconds
}

// Sequence returns a copy of the current LED sequence.
func (c *Clock) Sequence() Sequence {
	return c.seq
}

// Refreshes returns how many times the sequence has been regenerated,
// including once at construction.
func (c *Clock) Refreshes() int {
	return c.refreshes
}
