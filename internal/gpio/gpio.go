// Package gpio drives the LED matrix and reads the three buttons.
// The real implementations use the Linux GPIO character device or periph.io.
// The fake implementations allow testing without hardware.
package gpio

import (
	"fmt"

	"github.com/sweeney/binary-clock/internal/logic"
)

// Display drives the eight LED matrix lines.
type Display interface {
	// Write drives all lines at once. Bit i of pattern sets line i high.
	Write(pattern byte) error

	// Close releases GPIO resources.
	Close() error
}

// Buttons reports level changes on the hours, minutes and wake lines.
type Buttons interface {
	// Edges delivers a sample of all three lines whenever any of them changes.
	// The channel is closed by Close.
	Edges() <-chan logic.Levels

	// Levels samples the lines now.
	Levels() (logic.Levels, error)

	// Close releases GPIO resources.
	Close() error
}

// Pins maps matrix lines and buttons to GPIO offsets (BCM numbering).
type Pins struct {
	// Display[i] is driven by bit i of a pattern; -1 leaves the bit unconnected.
	Display []int
	Hours   int
	Minutes int
	Wake    int
}

// outputs returns the connected display offsets and the pattern bit each one
// follows.
func (p Pins) outputs() (offsets []int, bits []uint) {
	for i, off := range p.Display {
		if off < 0 {
			continue
		}
		offsets = append(offsets, off)
		bits = append(bits, uint(i))
	}
	return offsets, bits
}

// values expands a pattern into one level per connected line.
func values(pattern byte, bits []uint) []int {
	vv := make([]int, len(bits))
	for i, b := range bits {
		vv[i] = int(pattern>>b) & 1
	}
	return vv
}

// levels converts raw hours/minutes/wake line values into Levels.
func levels(raw []int) (logic.Levels, error) {
	if len(raw) != 3 {
		return logic.Levels{}, fmt.Errorf("expected 3 button values, got %d", len(raw))
	}
	return logic.Levels{
		Hours:   raw[0] != 0,
		Minutes: raw[1] != 0,
		Wake:    raw[2] != 0,
	}, nil
}

// lineTracker follows the three button levels from edge events, so a sample
// can be built without reading the lines.
type lineTracker struct {
	offsets [3]int
	raw     [3]int
}

// newLineTracker starts with every line released (pulled up).
func newLineTracker(pins Pins) lineTracker {
	return lineTracker{
		offsets: [3]int{pins.Hours, pins.Minutes, pins.Wake},
		raw:     [3]int{1, 1, 1},
	}
}

// set records the level of the line at offset and returns the resulting
// sample. It returns false for an offset that is not a button.
func (lt *lineTracker) set(offset int, high bool) (logic.Levels, bool) {
	for i, off := range lt.offsets {
		if off != offset {
			continue
		}
		lt.raw[i] = 0
		if high {
			lt.raw[i] = 1
		}
		lv, _ := levels(lt.raw[:])
		return lv, true
	}
	return logic.Levels{}, false
}

// reset replaces all three levels with a fresh read.
func (lt *lineTracker) reset(raw []int) {
	copy(lt.raw[:], raw)
}
