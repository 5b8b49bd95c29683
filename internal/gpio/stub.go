//go:build !linux

package gpio

import (
	"errors"
	"time"

	"github.com/sweeney/binary-clock/internal/logic"
)

var errUnsupported = errors.New("gpio: character device not supported on this platform (requires Linux)")

// ChipDisplay is not available on non-Linux platforms.
type ChipDisplay struct{}

// NewChipDisplay returns an error on non-Linux platforms.
func NewChipDisplay(string, Pins) (*ChipDisplay, error) {
	return nil, errUnsupported
}

// Write is not implemented on non-Linux platforms.
func (d *ChipDisplay) Write(byte) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (d *ChipDisplay) Close() error {
	return nil
}

// ChipButtons is not available on non-Linux platforms.
type ChipButtons struct{}

// NewChipButtons returns an error on non-Linux platforms.
func NewChipButtons(string, Pins, time.Duration) (*ChipButtons, error) {
	return nil, errUnsupported
}

// Edges returns nil on non-Linux platforms.
func (b *ChipButtons) Edges() <-chan logic.Levels {
	return nil
}

// Levels is not implemented on non-Linux platforms.
func (b *ChipButtons) Levels() (logic.Levels, error) {
	return logic.Levels{}, errUnsupported
}

// Dropped always returns 0 on non-Linux platforms.
func (b *ChipButtons) Dropped() int {
	return 0
}

// Close is not implemented on non-Linux platforms.
func (b *ChipButtons) Close() error {
	return nil
}
