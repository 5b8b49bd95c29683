//go:build linux

package gpio

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/binary-clock/internal/logic"
)

var _ Buttons = (*ChipButtons)(nil)

// An edge can arrive on the watcher goroutine before the line request has
// returned; it must still produce a sample.
func TestChipButtonsHandleBeforeLinesSet(t *testing.T) {
	c := qt.New(t)

	b := &ChipButtons{
		edges:   make(chan logic.Levels, 1),
		tracker: newLineTracker(Pins{Hours: 26, Minutes: 16, Wake: 20}),
	}

	b.handle(gpiocdev.LineEvent{Offset: 26, Type: gpiocdev.LineEventFallingEdge})

	select {
	case lv := <-b.edges:
		c.Assert(lv, qt.Equals, logic.Levels{Hours: false, Minutes: true, Wake: true})
	default:
		c.Fatal("expected a sample for the early edge")
	}
	c.Assert(b.Dropped(), qt.Equals, 0)
}

func TestChipButtonsHandleDropsWhenFull(t *testing.T) {
	c := qt.New(t)

	b := &ChipButtons{
		edges:   make(chan logic.Levels, 1),
		tracker: newLineTracker(Pins{Hours: 26, Minutes: 16, Wake: 20}),
	}

	b.handle(gpiocdev.LineEvent{Offset: 16, Type: gpiocdev.LineEventFallingEdge})
	b.handle(gpiocdev.LineEvent{Offset: 16, Type: gpiocdev.LineEventRisingEdge})
	b.handle(gpiocdev.LineEvent{Offset: 99, Type: gpiocdev.LineEventRisingEdge})

	c.Assert(b.Dropped(), qt.Equals, 1)
	c.Assert(<-b.edges, qt.Equals, logic.Levels{Hours: true, Minutes: false, Wake: true})
}

func TestChipButtonsLevelsWithoutLines(t *testing.T) {
	c := qt.New(t)

	b := &ChipButtons{}
	_, err := b.Levels()
	c.Assert(err, qt.ErrorMatches, "button lines not requested")
}
