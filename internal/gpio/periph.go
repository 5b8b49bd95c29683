package gpio

import (
	"fmt"
	"sync"
	"time"

	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/sweeney/binary-clock/internal/logic"
)

// edgePoll bounds how long a watcher blocks before checking for Close.
const edgePoll = 100 * time.Millisecond

var initOnce struct {
	sync.Once
	err error
}

func initHost() error {
	initOnce.Do(func() {
		if _, err := host.Init(); err != nil {
			initOnce.err = fmt.Errorf("init periph.io: %w", err)
		}
	})
	return initOnce.err
}

func pinByOffset(offset int) (pgpio.PinIO, error) {
	name := fmt.Sprintf("GPIO%d", offset)
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("no gpio pin %s", name)
	}
	return p, nil
}

// PeriphDisplay drives the matrix through periph.io.
type PeriphDisplay struct {
	pins []pgpio.PinIO
	bits []uint
}

// NewPeriphDisplay looks up the connected display pins and drives the idle
// pattern.
func NewPeriphDisplay(pins Pins) (*PeriphDisplay, error) {
	if err := initHost(); err != nil {
		return nil, err
	}

	offsets, bits := pins.outputs()
	if len(offsets) == 0 {
		return nil, fmt.Errorf("no display lines connected")
	}

	d := &PeriphDisplay{bits: bits}
	for _, off := range offsets {
		p, err := pinByOffset(off)
		if err != nil {
			return nil, err
		}
		d.pins = append(d.pins, p)
	}

	if err := d.Write(logic.IdlePattern); err != nil {
		return nil, err
	}
	return d, nil
}

// Write drives each connected pin in turn.
func (d *PeriphDisplay) Write(pattern byte) error {
	for i, v := range values(pattern, d.bits) {
		if err := d.pins[i].Out(pgpio.Level(v == 1)); err != nil {
			return fmt.Errorf("set %s: %w", d.pins[i], err)
		}
	}
	return nil
}

// Close returns the pins to pulled-down inputs.
func (d *PeriphDisplay) Close() error {
	var errs []error
	for _, p := range d.pins {
		if err := p.In(pgpio.PullDown, pgpio.NoEdge); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", p, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// PeriphButtons watches the button pins through periph.io. One goroutine per
// pin waits for edges and publishes a sample of all three.
type PeriphButtons struct {
	pins  [3]pgpio.PinIO
	edges chan logic.Levels
	done  chan struct{}
	wg    sync.WaitGroup

	mu      sync.Mutex
	dropped int
	closed  bool
}

// NewPeriphButtons configures the hours, minutes and wake pins as pulled-up
// inputs reporting both edges, and starts watching them.
func NewPeriphButtons(pins Pins) (*PeriphButtons, error) {
	if err := initHost(); err != nil {
		return nil, err
	}

	b := &PeriphButtons{
		edges: make(chan logic.Levels, 16),
		done:  make(chan struct{}),
	}
	for i, off := range []int{pins.Hours, pins.Minutes, pins.Wake} {
		p, err := pinByOffset(off)
		if err != nil {
			return nil, err
		}
		if err := p.In(pgpio.PullUp, pgpio.BothEdges); err != nil {
			return nil, fmt.Errorf("configure %s: %w", p, err)
		}
		b.pins[i] = p
	}

	for _, p := range b.pins {
		b.wg.Add(1)
		go b.watch(p)
	}
	return b, nil
}

func (b *PeriphButtons) watch(p pgpio.PinIO) {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		default:
		}
		if !p.WaitForEdge(edgePoll) {
			continue
		}
		lv, _ := b.Levels()
		select {
		case b.edges <- lv:
		default:
			b.mu.Lock()
			b.dropped++
			b.mu.Unlock()
		}
	}
}

// Edges delivers a sample after every edge on any button pin.
func (b *PeriphButtons) Edges() <-chan logic.Levels {
	return b.edges
}

// Levels samples all three pins.
func (b *PeriphButtons) Levels() (logic.Levels, error) {
	raw := make([]int, len(b.pins))
	for i, p := range b.pins {
		if p.Read() == pgpio.High {
			raw[i] = 1
		}
	}
	return levels(raw)
}

// Dropped returns the number of edges discarded because the consumer fell
// behind.
func (b *PeriphButtons) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Close stops the watchers and closes the Edges channel.
func (b *PeriphButtons) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	close(b.done)
	b.wg.Wait()
	close(b.edges)

	var errs []error
	for _, p := range b.pins {
		if err := p.In(pgpio.PullDown, pgpio.NoEdge); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", p, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
