package chunk

import (
	"testing"

	"rfr/internal/schema"
)

// TestIntervalClockOneSecondRotation exercises scenario S2: a one-second
// interval duration rotates on whole-second boundaries regardless of the
// microsecond offset within the second.
func TestIntervalClockOneSecondRotation(t *testing.T) {
	clock, err := NewIntervalClockSeconds(1)
	if err != nil {
		t.Fatalf("NewIntervalClockSeconds: %v", err)
	}

	early := mustTS(1700000000, 0)
	late := mustTS(1700000000, 999_999)
	next := mustTS(1700000001, 0)

	ivEarly := clock.IntervalFor(early)
	ivLate := clock.IntervalFor(late)
	ivNext := clock.IntervalFor(next)

	if ivEarly != ivLate {
		t.Fatalf("expected timestamps within the same second to share an interval: %+v vs %+v", ivEarly, ivLate)
	}
	if ivEarly == ivNext {
		t.Fatalf("expected the next second to land in a different interval")
	}
	if !ivEarly.Contains(early) || !ivEarly.Contains(late) {
		t.Fatalf("interval does not contain its own timestamps")
	}
	if ivEarly.Contains(next) {
		t.Fatalf("half-open interval must not contain the timestamp exactly at its end")
	}
}

// TestIntervalClockSubSecondRotation exercises scenario S3: a 250,000
// microsecond duration (evenly dividing 1,000,000) produces four intervals
// per second, and a timestamp's ChunkTimestamp is computed relative to the
// sub-interval it falls in, not the whole second.
func TestIntervalClockSubSecondRotation(t *testing.T) {
	clock, err := NewIntervalClockMicros(250_000)
	if err != nil {
		t.Fatalf("NewIntervalClockMicros: %v", err)
	}

	ts := mustTS(1700000000, 600_000)
	iv := clock.IntervalFor(ts)

	if iv.BaseTime != 1700000000 {
		t.Fatalf("BaseTime = %d, want 1700000000", iv.BaseTime)
	}
	if iv.StartTime != 500_000 || iv.EndTime != 750_000 {
		t.Fatalf("interval = [%d, %d), want [500000, 750000)", iv.StartTime, iv.EndTime)
	}
	if got := iv.ChunkTimestampFor(ts); got != schema.ChunkTimestamp(100_000) {
		t.Fatalf("ChunkTimestampFor = %d, want 100000", got)
	}
}

func TestIntervalClockRejectsNonDivisor(t *testing.T) {
	if _, err := NewIntervalClockMicros(300_000); err == nil {
		t.Fatal("expected error: 300000 does not evenly divide 1000000")
	}
}

func TestIntervalClockRejectsZero(t *testing.T) {
	if _, err := NewIntervalClockSeconds(0); err == nil {
		t.Fatal("expected error for zero duration")
	}
	if _, err := NewIntervalClockMicros(0); err == nil {
		t.Fatal("expected error for zero duration")
	}
}

// TestIntervalCoverage checks the coverage property (testable property 2):
// every timestamp in a dense run lands in exactly one interval, and
// consecutive intervals tile without gaps or overlaps.
func TestIntervalCoverage(t *testing.T) {
	clock, err := NewIntervalClockMicros(250_000)
	if err != nil {
		t.Fatalf("NewIntervalClockMicros: %v", err)
	}
	var prev *ChunkInterval
	for micros := uint32(0); micros < 1_000_000; micros += 37_000 {
		ts := mustTS(1700000000, micros)
		iv := clock.IntervalFor(ts)
		if !iv.Contains(ts) {
			t.Fatalf("interval %+v does not contain its own timestamp at %d micros", iv, micros)
		}
		if prev != nil && *prev != iv && prev.BaseTime == iv.BaseTime {
			if prev.EndTime != iv.StartTime {
				t.Fatalf("gap or overlap between consecutive intervals: %+v then %+v", *prev, iv)
			}
		}
		prev = &iv
	}
}
