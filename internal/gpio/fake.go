package gpio

import (
	"sync"

	"github.com/sweeney/binary-clock/internal/logic"
)

// FakeDisplay is a test double that records every pattern written. Its
// history grows without limit; the daemon's fake backend uses DryRunDisplay.
type FakeDisplay struct {
	mu     sync.Mutex
	writes []byte
	closed bool

	// WriteError, if set, will be returned by Write()
	WriteError error
}

// NewFakeDisplay creates an empty FakeDisplay.
func NewFakeDisplay() *FakeDisplay {
	return &FakeDisplay{}
}

// Write records the pattern.
func (f *FakeDisplay) Write(pattern byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteError != nil {
		return f.WriteError
	}
	f.writes = append(f.writes, pattern)
	return nil
}

// Writes returns a copy of all recorded patterns.
func (f *FakeDisplay) Writes() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.writes...)
}

// Last returns the most recent pattern, or false if nothing was written.
func (f *FakeDisplay) Last() (byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.writes) == 0 {
		return 0, false
	}
	return f.writes[len(f.writes)-1], true
}

// Reset forgets recorded patterns.
func (f *FakeDisplay) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = nil
}

// Close marks the display as closed.
func (f *FakeDisplay) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Closed reports whether Close was called.
func (f *FakeDisplay) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// FakeButtons is a test double whose lines are set by the test.
type FakeButtons struct {
	mu     sync.Mutex
	levels logic.Levels
	edges  chan logic.Levels
	closed bool

	// LevelsError, if set, will be returned by Levels()
	LevelsError error
}

// NewFakeButtons creates FakeButtons with all lines released.
func NewFakeButtons() *FakeButtons {
	return &FakeButtons{
		levels: logic.Released,
		edges:  make(chan logic.Levels, 64),
	}
}

// Set changes the line levels and delivers an edge notification.
func (f *FakeButtons) Set(lv logic.Levels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.levels = lv
	f.edges <- lv
}

// Press delivers a press edge followed by a release edge.
func (f *FakeButtons) Press(pressed logic.Levels) {
	f.Set(pressed)
	f.Set(logic.Released)
}

// Edges returns the notification channel.
func (f *FakeButtons) Edges() <-chan logic.Levels {
	return f.edges
}

// Levels returns the current line levels.
func (f *FakeButtons) Levels() (logic.Levels, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.LevelsError != nil {
		return logic.Levels{}, f.LevelsError
	}
	return f.levels, nil
}

// Close closes the notification channel.
func (f *FakeButtons) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.edges)
	}
	return nil
}
