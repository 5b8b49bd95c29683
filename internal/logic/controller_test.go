package logic

import (
	"testing"
	"time"
)

var testNow = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func press(hours, minutes, wake bool) Levels {
	return Levels{Hours: !hours, Minutes: !minutes, Wake: !wake}
}

func newTestController() *Controller {
	return NewController(Options{Hours: 3, Minutes: 16})
}

func passes(c *Controller, n int) {
	for i := 0; i < n; i++ {
		c.Pass()
	}
}

func TestNewControllerDefaults(t *testing.T) {
	c := newTestController()
	st := c.State()

	if st.Phase != PhaseActive {
		t.Errorf("expected ACTIVE, got %s", st.Phase)
	}
	if st.Hours != 3 || st.Minutes != 16 || st.Seconds != 0 {
		t.Errorf("expected 03:16:00, got %02d:%02d:%02d", st.Hours, st.Minutes, st.Seconds)
	}
	if st.Debounce != 0 || st.Inactivity != 0 {
		t.Errorf("expected zero counters, got debounce=%d inactivity=%d", st.Debounce, st.Inactivity)
	}
	if st.Sequence != Encode(3, 16) {
		t.Errorf("unexpected sequence %v", st.Sequence)
	}
}

func TestEdgeRejectedBeforeThreshold(t *testing.T) {
	c := newTestController()
	passes(c, DebounceThreshold-1)

	events := c.Edge(press(true, false, false), testNow)
	if len(events) != 0 {
		t.Fatalf("expected edge rejected at %d passes, got %v", DebounceThreshold-1, events)
	}
	if c.State().Hours != 3 {
		t.Errorf("hours changed by rejected edge: %d", c.State().Hours)
	}
}

func TestHoursEdgeAccepted(t *testing.T) {
	c := newTestController()
	passes(c, DebounceThreshold)

	events := c.Edge(press(true, false, false), testNow)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Type != EventHoursUp {
		t.Errorf("expected HOURS_UP, got %s", e.Type)
	}
	if e.Hours != 4 || e.Minutes != 16 {
		t.Errorf("expected event at 04:16, got %02d:%02d", e.Hours, e.Minutes)
	}
	if !e.Timestamp.Equal(testNow) {
		t.Errorf("unexpected timestamp %v", e.Timestamp)
	}

	st := c.State()
	if st.Debounce != 0 {
		t.Errorf("expected debounce reset, got %d", st.Debounce)
	}
	if st.Sequence != Encode(4, 16) {
		t.Errorf("expected sequence refreshed, got %v", st.Sequence)
	}
	if st.Counts.HoursUp != 1 {
		t.Errorf("expected HoursUp=1, got %d", st.Counts.HoursUp)
	}
}

func TestMinutesEdgeAccepted(t *testing.T) {
	c := newTestController()
	passes(c, DebounceThreshold)

	events := c.Edge(press(false, true, false), testNow)
	if len(events) != 1 || events[0].Type != EventMinutesUp {
		t.Fatalf("expected MINUTES_UP, got %v", events)
	}
	if c.State().Minutes != 17 {
		t.Errorf("expected minutes=17, got %d", c.State().Minutes)
	}
}

func TestSecondEdgeWithinWindowIgnored(t *testing.T) {
	c := newTestController()
	passes(c, DebounceThreshold)
	c.Edge(press(true, false, false), testNow)

	passes(c, DebounceThreshold-1)
	if events := c.Edge(press(true, false, false), testNow); len(events) != 0 {
		t.Errorf("expected bounce ignored, got %v", events)
	}

	c.Pass()
	if events := c.Edge(press(true, false, false), testNow); len(events) != 1 {
		t.Errorf("expected edge accepted after window, got %v", events)
	}
	if c.State().Hours != 5 {
		t.Errorf("expected hours=5, got %d", c.State().Hours)
	}
}

func TestReleaseEdgeIgnored(t *testing.T) {
	c := newTestController()
	passes(c, DebounceThreshold)

	if events := c.Edge(Released, testNow); len(events) != 0 {
		t.Errorf("expected no events for released lines, got %v", events)
	}
	if c.State().Debounce != DebounceThreshold {
		t.Errorf("release must not reset debounce, got %d", c.State().Debounce)
	}
}

func TestOneLinePerNotification(t *testing.T) {
	c := newTestController()
	passes(c, DebounceThreshold)

	events := c.Edge(press(true, true, true), testNow)
	if len(events) != 1 {
		t.Fatalf("expected only the first line accepted, got %v", events)
	}
	if events[0].Type != EventHoursUp {
		t.Errorf("expected hours checked first, got %s", events[0].Type)
	}
	st := c.State()
	if st.Minutes != 16 {
		t.Errorf("minutes must not change, got %d", st.Minutes)
	}
}

func TestWakeResetsInactivity(t *testing.T) {
	c := newTestController()
	for i := 0; i < 10; i++ {
		c.Tick()
	}
	passes(c, DebounceThreshold)

	events := c.Edge(press(false, false, true), testNow)
	if len(events) != 1 || events[0].Type != EventWake {
		t.Fatalf("expected WAKE, got %v", events)
	}
	st := c.State()
	if st.Inactivity != 0 {
		t.Errorf("expected inactivity reset, got %d", st.Inactivity)
	}
	if st.Hours != 3 || st.Minutes != 16 {
		t.Errorf("wake must not change the time, got %02d:%02d", st.Hours, st.Minutes)
	}
}

func TestAdjustDoesNotResetInactivity(t *testing.T) {
	c := newTestController()
	for i := 0; i < 10; i++ {
		c.Tick()
	}
	passes(c, DebounceThreshold)
	c.Edge(press(true, false, false), testNow)

	if got := c.State().Inactivity; got != 10 {
		t.Errorf("expected inactivity=10, got %d", got)
	}
}

func TestSleepAfterInactivity(t *testing.T) {
	c := newTestController()

	for i := 1; i < SleepAfter; i++ {
		c.Tick()
		if c.ShouldSleep() {
			t.Fatalf("unexpected sleep after %d ticks", i)
		}
	}
	c.Tick()
	if !c.ShouldSleep() {
		t.Fatalf("expected sleep after %d ticks", SleepAfter)
	}

	e := c.EnterSleep(testNow)
	if e == nil || e.Type != EventSleep {
		t.Fatalf("expected SLEEP event, got %v", e)
	}
	if e.Phase != PhaseSleeping {
		t.Errorf("expected event phase SLEEPING, got %s", e.Phase)
	}
	st := c.State()
	if st.Debounce != DebounceThreshold {
		t.Errorf("expected debounce forced to %d, got %d", DebounceThreshold, st.Debounce)
	}
	if st.Counts.Sleeps != 1 {
		t.Errorf("expected Sleeps=1, got %d", st.Counts.Sleeps)
	}
}

func TestEnterSleepAgainNoEvent(t *testing.T) {
	c := newTestController()
	c.EnterSleep(testNow)

	if e := c.EnterSleep(testNow); e != nil {
		t.Errorf("expected no event while already sleeping, got %v", e)
	}
	if c.State().Counts.Sleeps != 1 {
		t.Errorf("expected Sleeps=1, got %d", c.State().Counts.Sleeps)
	}
}

func TestWakeAcceptedImmediatelyAfterSleep(t *testing.T) {
	c := newTestController()
	passes(c, DebounceThreshold)
	c.Edge(press(true, false, false), testNow) // debounce now 0
	for i := 0; i < SleepAfter; i++ {
		c.Tick()
	}
	c.EnterSleep(testNow)

	events := c.Edge(press(false, false, true), testNow)
	if len(events) != 1 || events[0].Type != EventWake {
		t.Fatalf("expected wake accepted without passes, got %v", events)
	}
	if c.ShouldSleep() {
		t.Error("expected inactivity cleared by wake")
	}

	r := c.Resume(testNow)
	if r == nil || r.Type != EventActive {
		t.Fatalf("expected ACTIVE event, got %v", r)
	}
	if c.Phase() != PhaseActive {
		t.Errorf("expected ACTIVE, got %s", c.Phase())
	}
	if again := c.Resume(testNow); again != nil {
		t.Errorf("expected no event when already active, got %v", again)
	}
}

func TestAdjustWhileSleepingKeepsSleeping(t *testing.T) {
	c := newTestController()
	for i := 0; i < SleepAfter; i++ {
		c.Tick()
	}
	c.EnterSleep(testNow)

	events := c.Edge(press(true, false, false), testNow)
	if len(events) != 1 || events[0].Type != EventHoursUp {
		t.Fatalf("expected HOURS_UP while sleeping, got %v", events)
	}
	if !c.ShouldSleep() {
		t.Error("adjusting hours must not wake the clock")
	}
}

func TestTicksWhileSleepingAdvanceClock(t *testing.T) {
	c := newTestController()
	for i := 0; i < SleepAfter; i++ {
		c.Tick()
	}
	c.EnterSleep(testNow)
	for i := 0; i < 60; i++ {
		c.Tick()
	}

	st := c.State()
	if st.Minutes != 17 {
		t.Errorf("expected the clock to keep time while sleeping, got minutes=%d", st.Minutes)
	}
	if st.Inactivity != SleepAfter+60 {
		t.Errorf("expected inactivity to keep counting, got %d", st.Inactivity)
	}
}

func TestDebounceIntervalPolicy(t *testing.T) {
	c := NewController(Options{Hours: 3, Minutes: 16, DebounceInterval: 50 * time.Millisecond})

	if events := c.Edge(press(true, false, false), testNow); len(events) != 1 {
		t.Fatalf("expected first edge accepted, got %v", events)
	}

	// Passes do not matter with an interval.
	passes(c, 100)
	if events := c.Edge(press(true, false, false), testNow.Add(49*time.Millisecond)); len(events) != 0 {
		t.Errorf("expected edge within interval ignored, got %v", events)
	}
	if events := c.Edge(press(true, false, false), testNow.Add(50*time.Millisecond)); len(events) != 1 {
		t.Errorf("expected edge at interval accepted, got %v", events)
	}
}

func TestCustomThresholds(t *testing.T) {
	c := NewController(Options{DebounceThreshold: 2, SleepAfter: 3})

	passes(c, 2)
	if events := c.Edge(press(false, true, false), testNow); len(events) != 1 {
		t.Errorf("expected edge accepted at custom threshold, got %v", events)
	}

	c.Tick()
	c.Tick()
	if c.ShouldSleep() {
		t.Error("unexpected sleep after 2 ticks")
	}
	c.Tick()
	if !c.ShouldSleep() {
		t.Error("expected sleep after 3 ticks")
	}
}
