package logic

import "testing"

func TestNewClockEncodesStartTime(t *testing.T) {
	c := NewClock(3, 16, 0, nil)

	if c.Sequence() != Encode(3, 16) {
		t.Errorf("expected sequence for 03:16, got %v", c.Sequence())
	}
	if c.Refreshes() != 1 {
		t.Errorf("expected 1 refresh after construction, got %d", c.Refreshes())
	}
}

func TestTickWithinMinute(t *testing.T) {
	c := NewClock(3, 16, 0, nil)

	for i := 1; i < 60; i++ {
		if c.Tick() {
			t.Fatalf("tick %d: unexpected carry", i)
		}
	}
	h, m, s := c.Time()
	if h != 3 || m != 16 || s != 59 {
		t.Errorf("expected 03:16:59, got %02d:%02d:%02d", h, m, s)
	}
	if c.Refreshes() != 1 {
		t.Errorf("expected no refresh within a minute, got %d", c.Refreshes())
	}
}

func TestSixtyTicksRollMinuteOnce(t *testing.T) {
	c := NewClock(3, 16, 0, nil)

	carries := 0
	for i := 0; i < 60; i++ {
		if c.Tick() {
			carries++
		}
	}

	h, m, s := c.Time()
	if h != 3 || m != 17 || s != 0 {
		t.Errorf("expected 03:17:00, got %02d:%02d:%02d", h, m, s)
	}
	if carries != 1 {
		t.Errorf("expected 1 carry, got %d", carries)
	}
	if c.Refreshes() != 2 {
		t.Errorf("expected sequence refreshed exactly once, got %d refreshes", c.Refreshes()-1)
	}
	if c.Sequence() != Encode(3, 17) {
		t.Errorf("expected sequence for 03:17, got %v", c.Sequence())
	}
}

func TestTickFullRollover(t *testing.T) {
	c := NewClock(23, 59, 59, nil)

	if !c.Tick() {
		t.Error("expected carry at midnight")
	}

	h, m, s := c.Time()
	if h != 0 || m != 0 || s != 0 {
		t.Errorf("expected 00:00:00, got %02d:%02d:%02d", h, m, s)
	}
	if c.Sequence().Len() != 0 {
		t.Errorf("expected empty sequence at midnight, got %v", c.Sequence())
	}
}

func TestTickHourRollover(t *testing.T) {
	c := NewClock(9, 59, 59, nil)
	c.Tick()

	h, m, s := c.Time()
	if h != 10 || m != 0 || s != 0 {
		t.Errorf("expected 10:00:00, got %02d:%02d:%02d", h, m, s)
	}
}

func TestAdjustHoursRefreshes(t *testing.T) {
	c := NewClock(3, 16, 30, nil)
	c.AdjustHours()

	h, m, s := c.Time()
	if h != 4 || m != 16 || s != 30 {
		t.Errorf("expected 04:16:30, got %02d:%02d:%02d", h, m, s)
	}
	if c.Sequence() != Encode(4, 16) {
		t.Errorf("expected sequence for 04:16, got %v", c.Sequence())
	}
	if c.Refreshes() != 2 {
		t.Errorf("expected 2 refreshes, got %d", c.Refreshes())
	}
}

func TestAdjustMinutesRefreshes(t *testing.T) {
	c := NewClock(3, 16, 30, nil)
	c.AdjustMinutes()

	h, m, _ := c.Time()
	if h != 3 || m != 17 {
		t.Errorf("expected 03:17, got %02d:%02d", h, m)
	}
	if c.Sequence() != Encode(3, 17) {
		t.Errorf("expected sequence for 03:17, got %v", c.Sequence())
	}
}

func TestAdjustHoursWrapsOnNextTick(t *testing.T) {
	c := NewClock(23, 10, 0, nil)
	c.AdjustHours()

	h, _, _ := c.Time()
	if h != 24 {
		t.Fatalf("expected adjust path not to wrap, got hours=%d", h)
	}

	if !c.Tick() {
		t.Error("expected wrap to count as a carry")
	}
	h, m, s := c.Time()
	if h != 0 || m != 10 || s != 1 {
		t.Errorf("expected 00:10:01, got %02d:%02d:%02d", h, m, s)
	}
	if c.Sequence() != Encode(0, 10) {
		t.Errorf("expected sequence refreshed after wrap, got %v", c.Sequence())
	}
}

func TestAdjustMinutesCarriesOnNextTick(t *testing.T) {
	c := NewClock(5, 59, 0, nil)
	c.AdjustMinutes()

	_, m, _ := c.Time()
	if m != 60 {
		t.Fatalf("expected adjust path not to carry, got minutes=%d", m)
	}

	c.Tick()
	h, m, s := c.Time()
	if h != 6 || m != 0 || s != 1 {
		t.Errorf("expected 06:00:01, got %02d:%02d:%02d", h, m, s)
	}
	if c.Sequence() != Encode(6, 0) {
		t.Errorf("expected sequence for 06:00, got %v", c.Sequence())
	}
}

func TestTickCascadesFromCorruptState(t *testing.T) {
	// Minutes forced to 60 and hours to 23 with seconds about to roll:
	// one tick carries through all three counters.
	c := NewClock(23, 59, 59, nil)
	c.AdjustMinutes() // 23:60:59
	c.Tick()

	h, m, s := c.Time()
	if h != 0 || m != 0 || s != 0 {
		t.Errorf("expected 00:00:00, got %02d:%02d:%02d", h, m, s)
	}
}

func TestClockUsesPackFunc(t *testing.T) {
	c := NewClock(1, 64, 0, PackOR)
	if c.Sequence() != EncodeWord(PackOR(1, 64)) {
		t.Errorf("expected OR packing, got %v", c.Sequence())
	}

	x := NewClock(1, 64, 0, PackXOR)
	if x.Sequence().Len() != 0 {
		t.Errorf("expected XOR packing to cancel, got %v", x.Sequence())
	}
}
