package internal

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sweeney/binary-clock/internal/display"
	"github.com/sweeney/binary-clock/internal/gpio"
	"github.com/sweeney/binary-clock/internal/logic"
	"github.com/sweeney/binary-clock/internal/mqtt"
	"github.com/sweeney/binary-clock/internal/status"
)

var startTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// flow wires the display loop to fakes the same way the daemon does.
type flow struct {
	buttons   *gpio.FakeButtons
	disp      *gpio.FakeDisplay
	publisher *mqtt.FakePublisher
	tracker   *status.Tracker
	ticks     chan time.Time
	notify    chan logic.Event
	done      chan error
}

func startFlow(t *testing.T, ctrl *logic.Controller) *flow {
	t.Helper()
	f := &flow{
		buttons:   gpio.NewFakeButtons(),
		disp:      gpio.NewFakeDisplay(),
		publisher: mqtt.NewFakePublisher(),
		tracker:   status.NewTracker(startTime, status.Config{Broker: "tcp://localhost:1883", Packing: "xor"}),
		ticks:     make(chan time.Time),
		notify:    make(chan logic.Event, 64),
		done:      make(chan error, 1),
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := display.New(ctrl, f.disp, f.ticks, f.buttons.Edges(), display.Options{
		Hold:     10 * time.Microsecond,
		Notify:   f.notify,
		Observer: f.tracker,
		Now:      func() time.Time { return startTime },
	})
	go func() {
		f.done <- d.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-f.done:
			if err != nil {
				t.Errorf("display loop: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("timeout waiting for display loop")
		}
	})
	return f
}

// next waits for the next event and forwards it to the publisher.
func (f *flow) next(t *testing.T) logic.Event {
	t.Helper()
	select {
	case e := <-f.notify:
		if err := f.publisher.Publish(e); err != nil {
			t.Fatalf("publish error: %v", err)
		}
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
	return logic.Event{}
}

// waitPasses blocks until the loop has written at least n more patterns.
func (f *flow) waitPasses(t *testing.T, n int) {
	t.Helper()
	target := len(f.disp.Writes()) + n
	deadline := time.Now().Add(2 * time.Second)
	for len(f.disp.Writes()) < target {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for display writes")
		}
		time.Sleep(time.Millisecond)
	}
}

// TestIntegrationFullFlow drives the clock through adjust, sleep and wake
// using fakes, from button lines to MQTT payloads and the status JSON.
func TestIntegrationFullFlow(t *testing.T) {
	ctrl := logic.NewController(logic.Options{Hours: 3, Minutes: 16, DebounceThreshold: 2, SleepAfter: 3})
	f := startFlow(t, ctrl)

	// Let the debouncer fill before pressing.
	f.waitPasses(t, 12)
	f.buttons.Press(logic.Levels{Hours: false, Minutes: true, Wake: true})

	e := f.next(t)
	if e.Type != logic.EventHoursUp || e.Hours != 4 || e.Minutes != 16 {
		t.Fatalf("expected HOURS_UP to 04:16, got %+v", e)
	}

	for i := 0; i < 3; i++ {
		f.ticks <- startTime
	}
	e = f.next(t)
	if e.Type != logic.EventSleep || e.Seconds != 3 {
		t.Fatalf("expected SLEEP at 04:16:03, got %+v", e)
	}

	// Sleep forces the debouncer, so no passes are needed.
	f.buttons.Press(logic.Levels{Hours: true, Minutes: true, Wake: false})
	if e = f.next(t); e.Type != logic.EventWake {
		t.Fatalf("expected WAKE, got %+v", e)
	}
	if e = f.next(t); e.Type != logic.EventActive {
		t.Fatalf("expected ACTIVE, got %+v", e)
	}

	// The display is multiplexing 04:16 again.
	f.waitPasses(t, 4)
	writes := f.disp.Writes()
	last := writes[len(writes)-2:]
	want := logic.Encode(4, 16).Patterns()
	if !(last[0] == want[0] && last[1] == want[1]) && !(last[0] == want[1] && last[1] == want[0]) {
		t.Errorf("expected patterns %x on the display, got %x", want, last)
	}

	if len(f.publisher.Events) != 4 {
		t.Fatalf("expected 4 published events, got %d", len(f.publisher.Events))
	}

	var payload mqtt.Payload
	if err := json.Unmarshal(f.publisher.Payloads[1], &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if payload.Clock.Event != "SLEEP" || payload.Clock.Time != "04:16:03" || payload.Clock.Phase != "SLEEPING" {
		t.Errorf("unexpected SLEEP payload %+v", payload.Clock)
	}
	if payload.Clock.Timestamp != "2026-01-01T12:00:00Z" {
		t.Errorf("unexpected timestamp %s", payload.Clock.Timestamp)
	}

	var st status.StatusJSON
	if err := json.Unmarshal(status.FormatJSON(f.tracker.Snapshot()), &st); err != nil {
		t.Fatalf("invalid status JSON: %v", err)
	}
	s := st.Status
	if s.Phase != "ACTIVE" || s.Time != "04:16:03" {
		t.Errorf("expected ACTIVE at 04:16:03, got %s at %s", s.Phase, s.Time)
	}
	if s.Counts.HoursUp != 1 || s.Counts.Wakes != 1 || s.Counts.Sleeps != 1 {
		t.Errorf("unexpected counts %+v", s.Counts)
	}
	if len(s.Lit) != 2 || s.Lit[0] != 4 || s.Lit[1] != 8 {
		t.Errorf("expected D4 and D8 lit, got %v", s.Lit)
	}
	if s.Inactivity != 0 {
		t.Errorf("expected inactivity cleared by wake, got %d", s.Inactivity)
	}
}

// TestIntegrationMidnightBlank checks that an empty sequence leaves only the
// idle pattern on the lines.
func TestIntegrationMidnightBlank(t *testing.T) {
	ctrl := logic.NewController(logic.Options{Hours: 23, Minutes: 59, Seconds: 59})
	f := startFlow(t, ctrl)

	f.waitPasses(t, 5)
	f.ticks <- startTime
	f.waitPasses(t, 1)
	f.waitPasses(t, 5)

	writes := f.disp.Writes()
	for _, p := range writes[len(writes)-5:] {
		if p != logic.IdlePattern {
			t.Fatalf("expected only the idle pattern after midnight, got %#02x", p)
		}
	}

	var st status.StatusJSON
	if err := json.Unmarshal(status.FormatJSON(f.tracker.Snapshot()), &st); err != nil {
		t.Fatalf("invalid status JSON: %v", err)
	}
	if st.Status.Time != "00:00:00" || len(st.Status.Sequence) != 0 {
		t.Errorf("expected blank midnight status, got %s %v", st.Status.Time, st.Status.Sequence)
	}
}
