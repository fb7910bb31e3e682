package chunk

import (
	"errors"

	"rfr/internal/schema"
)

// ErrInvalidIntervalDuration is returned when constructing an IntervalClock
// with a duration that is neither an integer number of seconds nor a
// microsecond count dividing 1,000,000 evenly.
var ErrInvalidIntervalDuration = errors.New("chunk: interval duration must be an integer second count or evenly divide 1s")

// IntervalClock maps a wall-clock timestamp to the ChunkInterval it belongs
// to, given a fixed interval duration (§4.7). It is the engine's only
// shared, lock-free-read piece of global state: every record() call reads
// it without synchronization.
type IntervalClock struct {
	// durationSecs holds the duration when it is a whole number of seconds
	// (durationSecs >= 1); durationMicros holds it when it is a sub-second
	// fraction that evenly divides 1_000_000. Exactly one is non-zero.
	durationSecs   uint64
	durationMicros uint64
}

// NewIntervalClockSeconds builds a clock whose intervals are secs seconds
// long. secs must be at least 1.
func NewIntervalClockSeconds(secs uint64) (IntervalClock, error) {
	if secs < 1 {
		return IntervalClock{}, ErrInvalidIntervalDuration
	}
	return IntervalClock{durationSecs: secs}, nil
}

// NewIntervalClockMicros builds a clock whose intervals are micros
// microseconds long. micros must be less than 1_000_000 and divide it
// evenly; whole-second durations use NewIntervalClockSeconds.
func NewIntervalClockMicros(micros uint64) (IntervalClock, error) {
	if micros == 0 || micros >= 1_000_000 || 1_000_000%micros != 0 {
		return IntervalClock{}, ErrInvalidIntervalDuration
	}
	return IntervalClock{durationMicros: micros}, nil
}

// IntervalFor computes the half-open ChunkInterval containing ts, per the
// two-branch rule of §4.7.
func (c IntervalClock) IntervalFor(ts schema.AbsTimestamp) ChunkInterval {
	if c.durationSecs > 0 {
		d := c.durationSecs
		base := ts.Secs - ts.Secs%d
		return ChunkInterval{
			BaseTime:  base,
			StartTime: 0,
			EndTime:   d * 1_000_000,
		}
	}
	d := c.durationMicros
	k := uint64(ts.SubsecMicros) / d
	return ChunkInterval{
		BaseTime:  ts.Secs,
		StartTime: k * d,
		EndTime:   (k + 1) * d,
	}
}
