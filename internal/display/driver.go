// Package display runs the LED multiplexing loop. It owns the controller and
// feeds it ticks and button edges as messages between passes.
package display

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sweeney/binary-clock/internal/gpio"
	"github.com/sweeney/binary-clock/internal/logger"
	"github.com/sweeney/binary-clock/internal/logic"
)

var (
	passesCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "binary_clock_display_passes_total",
		Help: "count of full passes over the LED sequence",
	})

	suspendsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "binary_clock_suspends_total",
		Help: "count of times the display loop blocked waiting for a tick or button",
	})

	droppedEventsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "binary_clock_dropped_events_total",
		Help: "count of events not delivered because the notification channel was full",
	})
)

// Observer receives a state snapshot after every applied message.
type Observer interface {
	Observe(logic.State)
}

// Options configures a Driver.
type Options struct {
	// Hold is how long each pattern stays on the lines.
	Hold time.Duration

	// Notify, if set, receives every event. Sends never block; events that
	// do not fit are dropped.
	Notify chan<- logic.Event

	// Observer, if set, is called after every applied message.
	Observer Observer

	Logger *logger.Logger

	// Now and Sleep default to time.Now and time.Sleep.
	Now   func() time.Time
	Sleep func(time.Duration)
}

// Driver is the display loop.
type Driver struct {
	ctrl    *logic.Controller
	display gpio.Display
	ticks   <-chan time.Time
	edges   <-chan logic.Levels

	hold     time.Duration
	notify   chan<- logic.Event
	observer Observer
	log      *logger.Logger
	now      func() time.Time
	sleep    func(time.Duration)
}

// New creates a Driver. The controller must not be used by anything else
// while Run is executing.
func New(ctrl *logic.Controller, display gpio.Display, ticks <-chan time.Time, edges <-chan logic.Levels, opts Options) *Driver {
	d := &Driver{
		ctrl:     ctrl,
		display:  display,
		ticks:    ticks,
		edges:    edges,
		hold:     opts.Hold,
		notify:   opts.Notify,
		observer: opts.Observer,
		log:      opts.Logger,
		now:      opts.Now,
		sleep:    opts.Sleep,
	}
	if d.log == nil {
		d.log = logger.Nop()
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.sleep == nil {
		d.sleep = time.Sleep
	}
	return d
}

// Run multiplexes the LED sequence until ctx is cancelled or the display
// fails. The idle pattern is written on the way out.
func (d *Driver) Run(ctx context.Context) (err error) {
	defer func() {
		if werr := d.display.Write(logic.IdlePattern); werr != nil {
			d.log.Warnw("failed to blank display", "error", werr)
			if err == nil {
				err = fmt.Errorf("blank display: %w", werr)
			}
		}
	}()

	d.observe()
	for {
		if ctx.Err() != nil {
			return nil
		}
		d.drain()

		if d.ctrl.ShouldSleep() {
			if !d.suspend(ctx) {
				return nil
			}
			continue
		}

		if e := d.ctrl.Resume(d.now()); e != nil {
			d.log.Infow("display active", "time", clockString(e))
			d.emit(*e)
			d.observe()
		}
		if err := d.pass(); err != nil {
			return err
		}
	}
}

// pass emits the current sequence once.
func (d *Driver) pass() error {
	d.ctrl.Pass()
	passesCounter.Inc()

	seq := d.ctrl.Sequence()
	if seq.Len() == 0 {
		return d.show(logic.IdlePattern)
	}
	for _, p := range seq.Patterns() {
		if err := d.show(p); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) show(pattern byte) error {
	if err := d.display.Write(pattern); err != nil {
		return fmt.Errorf("write pattern %#02x: %w", pattern, err)
	}
	if d.hold > 0 {
		d.sleep(d.hold)
	}
	return nil
}

// suspend blanks the display and blocks until one message arrives. It
// returns false if ctx was cancelled first.
func (d *Driver) suspend(ctx context.Context) bool {
	if e := d.ctrl.EnterSleep(d.now()); e != nil {
		d.log.Infow("display sleeping", "time", clockString(e), "inactivity", d.ctrl.State().Inactivity)
		d.emit(*e)
		d.observe()
	}
	if err := d.display.Write(logic.IdlePattern); err != nil {
		d.log.Warnw("failed to blank display", "error", err)
	}
	suspendsCounter.Inc()

	select {
	case <-ctx.Done():
		return false
	case t, ok := <-d.ticks:
		if !ok {
			d.ticks = nil
			return true
		}
		d.applyTick(t)
	case lv, ok := <-d.edges:
		if !ok {
			d.edges = nil
			return true
		}
		d.applyEdge(lv)
	}
	return true
}

// drain applies every pending message without blocking.
func (d *Driver) drain() {
	for {
		select {
		case t, ok := <-d.ticks:
			if !ok {
				d.ticks = nil
				continue
			}
			d.applyTick(t)
		case lv, ok := <-d.edges:
			if !ok {
				d.edges = nil
				continue
			}
			d.applyEdge(lv)
		default:
			return
		}
	}
}

func (d *Driver) applyTick(time.Time) {
	d.ctrl.Tick()
	d.observe()
}

func (d *Driver) applyEdge(lv logic.Levels) {
	for _, e := range d.ctrl.Edge(lv, d.now()) {
		d.log.Infow("button accepted", "event", e.Type, "time", clockString(&e))
		d.emit(e)
	}
	d.observe()
}

func (d *Driver) emit(e logic.Event) {
	if d.notify == nil {
		return
	}
	select {
	case d.notify <- e:
	default:
		droppedEventsCounter.Inc()
		d.log.Warnw("event dropped", "event", e.Type)
	}
}

func (d *Driver) observe() {
	if d.observer != nil {
		d.observer.Observe(d.ctrl.State())
	}
}

func clockString(e *logic.Event) string {
	return fmt.Sprintf("%02d:%02d:%02d", e.Hours, e.Minutes, e.Seconds)
}
