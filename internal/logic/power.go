package logic

// Power tracks inactivity and the current power phase.
type Power struct {
	sleepAfter int
	inactivity int
	phase      Phase
}

// NewPower creates a power state machine in the ACTIVE phase. A sleepAfter
// <= 0 uses SleepAfter.
func NewPower(sleepAfter int) *Power {
	if sleepAfter <= 0 {
		sleepAfter = SleepAfter
	}
	return &Power{sleepAfter: sleepAfter, phase: PhaseActive}
}

// Tick counts one second of inactivity. It keeps counting while asleep.
func (p *Power) Tick() {
	p.inactivity++
}

// Reset clears the inactivity counter.
func (p *Power) Reset() {
	p.inactivity = 0
}

// Due reports whether the inactivity limit has been reached.
func (p *Power) Due() bool {
	return p.inactivity >= p.sleepAfter
}

// Phase returns the current power phase.
func (p *Power) Phase() Phase {
	return p.phase
}

// Inactivity returns the number of ticks since the last reset.
func (p *Power) Inactivity() int {
	return p.inactivity
}

// set changes the phase and reports whether it changed.
func (p *Power) set(phase Phase) bool {
	if p.phase == phase {
		return false
	}
	p.phase = phase
	return true
}
