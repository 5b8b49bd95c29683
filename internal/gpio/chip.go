//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/binary-clock/internal/logic"
)

const consumer = "binary-clock"

// ChipDisplay drives the matrix through the Linux GPIO character device.
type ChipDisplay struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
	bits  []uint
}

// NewChipDisplay requests the connected display lines as outputs, initially
// driving the idle pattern.
func NewChipDisplay(chipName string, pins Pins) (*ChipDisplay, error) {
	offsets, bits := pins.outputs()
	if len(offsets) == 0 {
		return nil, fmt.Errorf("no display lines connected")
	}

	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	lines, err := chip.RequestLines(offsets, gpiocdev.AsOutput(values(logic.IdlePattern, bits)...))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request display lines %v: %w", offsets, err)
	}

	return &ChipDisplay{chip: chip, lines: lines, bits: bits}, nil
}

// Write drives all connected lines in one request.
func (d *ChipDisplay) Write(pattern byte) error {
	if err := d.lines.SetValues(values(pattern, d.bits)); err != nil {
		return fmt.Errorf("set display lines: %w", err)
	}
	return nil
}

// Close releases GPIO resources.
// Reconfigures the lines to input with pull-down (matching Pi boot defaults)
// before closing so no LED is left driven.
func (d *ChipDisplay) Close() error {
	var errs []error

	if d.lines != nil {
		if err := d.lines.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure display lines: %w", err))
		}
		if err := d.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close display lines: %w", err))
		}
	}
	if d.chip != nil {
		if err := d.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// ChipButtons watches the button lines through the Linux GPIO character
// device. The kernel reports both edges; each event updates the tracked
// level of its line and posts a sample of all three.
type ChipButtons struct {
	chip  *gpiocdev.Chip
	edges chan logic.Levels

	mu      sync.Mutex
	lines   *gpiocdev.Lines
	tracker lineTracker
	closed  bool
	dropped int
}

// NewChipButtons requests the hours, minutes and wake lines as pulled-up
// inputs. A non-zero debounce asks the kernel to filter bounces as well.
func NewChipButtons(chipName string, pins Pins, debounce time.Duration) (*ChipButtons, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	b := &ChipButtons{
		chip:    chip,
		edges:   make(chan logic.Levels, 16),
		tracker: newLineTracker(pins),
	}

	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(b.handle),
	}
	if debounce > 0 {
		opts = append(opts, gpiocdev.WithDebounce(debounce))
	}

	offsets := []int{pins.Hours, pins.Minutes, pins.Wake}
	lines, err := chip.RequestLines(offsets, opts...)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request button lines %v: %w", offsets, err)
	}

	// Edges may already have been handled; a fresh read is at least as new.
	raw := make([]int, 3)
	readErr := lines.Values(raw)

	b.mu.Lock()
	b.lines = lines
	if readErr == nil {
		b.tracker.reset(raw)
	}
	b.mu.Unlock()

	return b, nil
}

// handle runs on the gpiocdev watcher goroutine, possibly before
// RequestLines has returned. It builds the sample from the event alone.
func (b *ChipButtons) handle(evt gpiocdev.LineEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	lv, ok := b.tracker.set(evt.Offset, evt.Type == gpiocdev.LineEventRisingEdge)
	if !ok {
		return
	}
	select {
	case b.edges <- lv:
	default:
		b.dropped++
	}
}

// Edges delivers a sample after every edge on any button line.
func (b *ChipButtons) Edges() <-chan logic.Levels {
	return b.edges
}

// Levels samples all three lines.
func (b *ChipButtons) Levels() (logic.Levels, error) {
	b.mu.Lock()
	lines := b.lines
	b.mu.Unlock()

	raw := make([]int, 3)
	if lines == nil {
		return logic.Levels{}, fmt.Errorf("button lines not requested")
	}
	if err := lines.Values(raw); err != nil {
		return logic.Levels{}, fmt.Errorf("read button lines: %w", err)
	}
	return levels(raw)
}

// Dropped returns the number of edges discarded because the consumer fell
// behind.
func (b *ChipButtons) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Close releases GPIO resources and closes the Edges channel.
func (b *ChipButtons) Close() error {
	var errs []error

	b.mu.Lock()
	lines := b.lines
	b.mu.Unlock()

	if lines != nil {
		if err := lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button lines: %w", err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.edges)
	}
	b.mu.Unlock()

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
