package sim

import "testing"

func TestFrameClockAcceptsTypicalFrame(t *testing.T) {
	fc := NewFrameClock(DefaultFrameClockConfig(), 1000)

	dt, ok := fc.Accept(1016)
	if !ok {
		t.Fatal("16ms frame rejected")
	}
	if dt != 0.16 {
		t.Errorf("dt = %f, want 0.16", dt)
	}
}

func TestFrameClockRejectsShortFrameWithoutAdvancing(t *testing.T) {
	fc := NewFrameClock(DefaultFrameClockConfig(), 1000)

	if _, ok := fc.Accept(1016); !ok {
		t.Fatal("setup frame rejected")
	}

	// 5ms later: below the 14ms minimum.
	if dt, ok := fc.Accept(1021); ok {
		t.Fatalf("5ms frame accepted with dt=%f", dt)
	}

	// 14ms after the last accepted frame: the rejection must not have moved
	// the reference point, so this is exactly at the minimum and accepted.
	dt, ok := fc.Accept(1030)
	if !ok {
		t.Fatal("14ms frame rejected; rejection advanced the clock")
	}
	if dt != 0.14 {
		t.Errorf("dt = %f, want 0.14", dt)
	}
}

func TestFrameClockClampsStalledFrame(t *testing.T) {
	fc := NewFrameClock(DefaultFrameClockConfig(), 1000)

	// A 1000ms stall (tab suspend) is clamped to the typical frame, not
	// returned as dt=10.
	dt, ok := fc.Accept(2000)
	if !ok {
		t.Fatal("stalled frame rejected")
	}
	if dt != 0.16 {
		t.Errorf("clamped dt = %f, want 0.16", dt)
	}

	// The clock advanced to the stall's arrival time.
	dt, ok = fc.Accept(2016)
	if !ok || dt != 0.16 {
		t.Errorf("post-stall frame: dt=%f ok=%v, want 0.16 true", dt, ok)
	}
}

func TestFrameClockBoundaries(t *testing.T) {
	cfg := DefaultFrameClockConfig()

	// Exactly the maximum is returned unclamped.
	fc := NewFrameClock(cfg, 0)
	dt, ok := fc.Accept(cfg.MaxFrameMillis)
	if !ok || dt != 0.50 {
		t.Errorf("elapsed=max: dt=%f ok=%v, want 0.50 true", dt, ok)
	}

	// One past the maximum clamps.
	fc = NewFrameClock(cfg, 0)
	dt, ok = fc.Accept(cfg.MaxFrameMillis + 1)
	if !ok || dt != 0.16 {
		t.Errorf("elapsed=max+1: dt=%f ok=%v, want 0.16 true", dt, ok)
	}

	// One below the minimum rejects.
	fc = NewFrameClock(cfg, 0)
	if _, ok := fc.Accept(cfg.MinFrameMillis - 1); ok {
		t.Error("elapsed=min-1 accepted")
	}
}

func TestFrameClockCustomDivisor(t *testing.T) {
	cfg := FrameClockConfig{
		MinFrameMillis:     10,
		MaxFrameMillis:     40,
		TypicalFrameMillis: 20,
		TimeDivisor:        1000,
	}
	fc := NewFrameClock(cfg, 0)

	dt, ok := fc.Accept(30)
	if !ok || dt != 0.03 {
		t.Errorf("dt = %f ok=%v, want 0.03 true", dt, ok)
	}

	dt, ok = fc.Accept(30 + 41)
	if !ok || dt != 0.02 {
		t.Errorf("clamped dt = %f ok=%v, want typical/divisor = 0.02 true", dt, ok)
	}
}
