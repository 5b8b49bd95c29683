package gpio

import (
	"sync"

	"github.com/sweeney/binary-clock/internal/logic"
)

// DryRunDisplay stands in for the matrix when no hardware is attached. It
// keeps only the current pattern and a write count, so its size is fixed no
// matter how long the display loop runs.
type DryRunDisplay struct {
	mu      sync.Mutex
	pattern byte
	writes  uint64
	closed  bool
}

// NewDryRunDisplay creates a DryRunDisplay showing the idle pattern.
func NewDryRunDisplay() *DryRunDisplay {
	return &DryRunDisplay{pattern: logic.IdlePattern}
}

// Write replaces the current pattern.
func (d *DryRunDisplay) Write(pattern byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pattern = pattern
	d.writes++
	return nil
}

// Pattern returns the pattern currently on the lines.
func (d *DryRunDisplay) Pattern() byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pattern
}

// Count returns the number of writes since creation.
func (d *DryRunDisplay) Count() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes
}

// Close marks the display as closed.
func (d *DryRunDisplay) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}
