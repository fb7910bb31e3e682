package schema

import (
	"errors"
	"time"

	"rfr/internal/codec"
)

// ErrInvalidSubsecMicros is returned when constructing an AbsTimestamp with
// a subsecond component of 1,000,000 or more.
var ErrInvalidSubsecMicros = errors.New("schema: subsec_micros must be < 1_000_000")

// AbsTimestamp is an absolute wall-clock timestamp since the Unix epoch,
// carried as whole seconds plus a microsecond remainder.
type AbsTimestamp struct {
	Secs         uint64
	SubsecMicros uint32
}

// NewAbsTimestamp validates subsecMicros and constructs an AbsTimestamp.
func NewAbsTimestamp(secs uint64, subsecMicros uint32) (AbsTimestamp, error) {
	if subsecMicros >= 1_000_000 {
		return AbsTimestamp{}, ErrInvalidSubsecMicros
	}
	return AbsTimestamp{Secs: secs, SubsecMicros: subsecMicros}, nil
}

// AbsTimestampFromTime converts a time.Time to an AbsTimestamp, truncating
// to microsecond precision.
func AbsTimestampFromTime(t time.Time) AbsTimestamp {
	u := t.UnixMicro()
	if u < 0 {
		u = 0
	}
	return AbsTimestamp{
		Secs:         uint64(u) / 1_000_000,
		SubsecMicros: uint32(uint64(u) % 1_000_000),
	}
}

// Time converts back to a time.Time (UTC).
func (t AbsTimestamp) Time() time.Time {
	return time.UnixMicro(int64(t.Secs)*1_000_000 + int64(t.SubsecMicros)).UTC()
}

func (t AbsTimestamp) Encode(buf []byte) []byte {
	buf = codec.AppendUvarint(buf, t.Secs)
	buf = codec.AppendUvarint(buf, uint64(t.SubsecMicros))
	return buf
}

func DecodeAbsTimestamp(buf []byte) (AbsTimestamp, int, error) {
	secs, n1, err := codec.ConsumeUvarint(buf)
	if err != nil {
		return AbsTimestamp{}, 0, err
	}
	sub, n2, err := codec.ConsumeUvarint(buf[n1:])
	if err != nil {
		return AbsTimestamp{}, 0, err
	}
	return AbsTimestamp{Secs: secs, SubsecMicros: uint32(sub)}, n1 + n2, nil
}

// AbsTimestampSecs is an AbsTimestamp with the microsecond component
// dropped; used as a chunk's base time.
type AbsTimestampSecs struct {
	Secs uint64
}

func (t AbsTimestampSecs) Encode(buf []byte) []byte {
	return codec.AppendUvarint(buf, t.Secs)
}

func DecodeAbsTimestampSecs(buf []byte) (AbsTimestampSecs, int, error) {
	v, n, err := codec.ConsumeUvarint(buf)
	return AbsTimestampSecs{Secs: v}, n, err
}

// ChunkTimestamp is an unsigned offset in microseconds from the start of a
// chunk's interval (its base time plus StartTime). By construction it is
// below the interval's length.
type ChunkTimestamp uint64

func (t ChunkTimestamp) Encode(buf []byte) []byte {
	return codec.AppendUvarint(buf, uint64(t))
}

func DecodeChunkTimestamp(buf []byte) (ChunkTimestamp, int, error) {
	v, n, err := codec.ConsumeUvarint(buf)
	return ChunkTimestamp(v), n, err
}
