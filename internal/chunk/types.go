// Package chunk implements the chunked storage container: fixed time-interval
// files holding per-sequence object tables and records, plus the recording
// engine that produces them and the registry/retention policies around them.
package chunk

import (
	"errors"
	"fmt"
	"time"

	"rfr/internal/codec"
	"rfr/internal/format"
	"rfr/internal/schema"
)

var (
	ErrRecordOutsideInterval = errors.New("chunk: record timestamp outside interval")
	ErrSequenceNotOrdered    = errors.New("chunk: sequence records not in non-decreasing order")
	ErrEnvelopeMismatch      = errors.New("chunk: header earliest/latest does not match records")
)

// ChunkInterval is the half-open wall-clock interval `[start, end)` a chunk
// covers, expressed relative to a whole-second base_time (§3.7).
type ChunkInterval struct {
	BaseTime  uint64 // Unix seconds, always on a whole-second boundary.
	StartTime uint64 // microseconds since BaseTime
	EndTime   uint64 // microseconds since BaseTime, exclusive
}

// relMicros returns ts expressed as microseconds relative to iv.BaseTime.
// Negative results mean ts is before BaseTime.
func (iv ChunkInterval) relMicros(ts schema.AbsTimestamp) int64 {
	return (int64(ts.Secs)-int64(iv.BaseTime))*1_000_000 + int64(ts.SubsecMicros)
}

// Contains reports whether the absolute timestamp ts falls in [start, end).
func (iv ChunkInterval) Contains(ts schema.AbsTimestamp) bool {
	rel := iv.relMicros(ts)
	return rel >= int64(iv.StartTime) && rel < int64(iv.EndTime)
}

// ChunkTimestampFor converts an absolute timestamp known to lie within iv
// into the chunk-relative ChunkTimestamp stored on each record.
func (iv ChunkInterval) ChunkTimestampFor(ts schema.AbsTimestamp) schema.ChunkTimestamp {
	return schema.ChunkTimestamp(iv.relMicros(ts) - int64(iv.StartTime))
}

func (iv ChunkInterval) Encode(buf []byte) []byte {
	buf = codec.AppendUvarint(buf, iv.BaseTime)
	buf = codec.AppendUvarint(buf, iv.StartTime)
	buf = codec.AppendUvarint(buf, iv.EndTime)
	return buf
}

func DecodeChunkInterval(buf []byte) (ChunkInterval, int, error) {
	base, n1, err := codec.ConsumeUvarint(buf)
	if err != nil {
		return ChunkInterval{}, 0, err
	}
	start, n2, err := codec.ConsumeUvarint(buf[n1:])
	if err != nil {
		return ChunkInterval{}, 0, err
	}
	end, n3, err := codec.ConsumeUvarint(buf[n1+n2:])
	if err != nil {
		return ChunkInterval{}, 0, err
	}
	return ChunkInterval{BaseTime: base, StartTime: start, EndTime: end}, n1 + n2 + n3, nil
}

// Path derives the recording-relative chunk file path for this interval,
// per §4.5: `<YYYY>-<MM>/<DD>-<HH>/chunk-<mm>-<ss>.rfr`, zero-padded.
func (iv ChunkInterval) Path() string {
	t := time.Unix(int64(iv.BaseTime), 0).UTC().Add(time.Duration(iv.StartTime) * time.Microsecond)
	return fmt.Sprintf("%04d-%02d/%02d-%02d/chunk-%02d-%02d.rfr",
		t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
}

// ChunkHeader is a chunk's metadata envelope (§3.7), encoded as varints.
type ChunkHeader struct {
	Interval ChunkInterval
	Earliest schema.ChunkTimestamp
	Latest   schema.ChunkTimestamp
}

func (h ChunkHeader) Encode(buf []byte) []byte {
	buf = h.Interval.Encode(buf)
	buf = h.Earliest.Encode(buf)
	buf = h.Latest.Encode(buf)
	return buf
}

func DecodeChunkHeader(buf []byte) (ChunkHeader, int, error) {
	iv, n1, err := DecodeChunkInterval(buf)
	if err != nil {
		return ChunkHeader{}, 0, err
	}
	earliest, n2, err := schema.DecodeChunkTimestamp(buf[n1:])
	if err != nil {
		return ChunkHeader{}, 0, err
	}
	latest, n3, err := schema.DecodeChunkTimestamp(buf[n1+n2:])
	if err != nil {
		return ChunkHeader{}, 0, err
	}
	return ChunkHeader{Interval: iv, Earliest: earliest, Latest: latest}, n1 + n2 + n3, nil
}

// SeqChunkHeader identifies one sequence's contribution to a chunk and the
// timestamp bounds of its records (§3.7).
type SeqChunkHeader struct {
	SeqID    schema.SeqID
	Earliest schema.ChunkTimestamp
	Latest   schema.ChunkTimestamp
}

func (h SeqChunkHeader) Encode(buf []byte) []byte {
	buf = schema.EncodeSeqID(buf, h.SeqID)
	buf = h.Earliest.Encode(buf)
	buf = h.Latest.Encode(buf)
	return buf
}

func DecodeSeqChunkHeader(buf []byte) (SeqChunkHeader, int, error) {
	seqID, n1, err := schema.DecodeSeqID(buf)
	if err != nil {
		return SeqChunkHeader{}, 0, err
	}
	earliest, n2, err := schema.DecodeChunkTimestamp(buf[n1:])
	if err != nil {
		return SeqChunkHeader{}, 0, err
	}
	latest, n3, err := schema.DecodeChunkTimestamp(buf[n1+n2:])
	if err != nil {
		return SeqChunkHeader{}, 0, err
	}
	return SeqChunkHeader{SeqID: seqID, Earliest: earliest, Latest: latest}, n1 + n2 + n3, nil
}

// SeqChunk is one sequence's object table and ordered records within a
// single chunk interval (§3.7). Invariant: Records are in non-decreasing
// timestamp order, and Header.Earliest/Latest equal their min/max.
type SeqChunk struct {
	Header  SeqChunkHeader
	Objects []schema.Object
	Records []schema.Record
}

// Validate checks the SeqChunk invariants (testable property 3).
func (c SeqChunk) Validate() error {
	if len(c.Records) == 0 {
		return nil
	}
	prev := c.Records[0].Meta.Timestamp
	earliest, latest := prev, prev
	for _, r := range c.Records[1:] {
		if r.Meta.Timestamp < prev {
			return ErrSequenceNotOrdered
		}
		prev = r.Meta.Timestamp
		if r.Meta.Timestamp < earliest {
			earliest = r.Meta.Timestamp
		}
		if r.Meta.Timestamp > latest {
			latest = r.Meta.Timestamp
		}
	}
	if c.Header.Earliest != earliest || c.Header.Latest != latest {
		return ErrEnvelopeMismatch
	}
	return nil
}

func (c SeqChunk) Encode(buf []byte) []byte {
	buf = c.Header.Encode(buf)
	buf = codec.AppendSeq(buf, c.Objects, func(b []byte, v schema.Object) []byte { return v.Encode(b) })
	buf = codec.AppendSeq(buf, c.Records, func(b []byte, v schema.Record) []byte { return v.Encode(b) })
	return buf
}

func DecodeSeqChunk(buf []byte) (SeqChunk, int, error) {
	header, n1, err := DecodeSeqChunkHeader(buf)
	if err != nil {
		return SeqChunk{}, 0, err
	}
	off := n1
	objects, n2, err := codec.ConsumeSeq(buf[off:], schema.DecodeObject)
	if err != nil {
		return SeqChunk{}, 0, err
	}
	off += n2
	records, n3, err := codec.ConsumeSeq(buf[off:], schema.DecodeRecord)
	if err != nil {
		return SeqChunk{}, 0, err
	}
	off += n3
	return SeqChunk{Header: header, Objects: objects, Records: records}, off, nil
}

// Chunk is the fully self-contained file unit: a format identifier, a
// header describing the covered interval, and one SeqChunk per contributing
// sequence (§3.7).
type Chunk struct {
	FormatIdentifier format.Identifier
	Header           ChunkHeader
	SeqChunks        []SeqChunk
}

// Validate checks the Chunk invariants (testable properties 2 and 4): every
// record in every sequence lies within the chunk's interval (its
// ChunkTimestamp, which ChunkTimestampFor measures from StartTime, is below
// EndTime-StartTime), and the header's earliest/latest equal the min/max
// over all sub-chunk envelopes.
func (c Chunk) Validate() error {
	if len(c.SeqChunks) == 0 {
		return nil
	}
	var earliest, latest schema.ChunkTimestamp
	first := true
	span := c.Header.Interval.EndTime - c.Header.Interval.StartTime
	for _, sc := range c.SeqChunks {
		if err := sc.Validate(); err != nil {
			return err
		}
		for _, r := range sc.Records {
			if uint64(r.Meta.Timestamp) >= span {
				return ErrRecordOutsideInterval
			}
		}
		if len(sc.Records) == 0 {
			continue
		}
		if first {
			earliest, latest = sc.Header.Earliest, sc.Header.Latest
			first = false
			continue
		}
		if sc.Header.Earliest < earliest {
			earliest = sc.Header.Earliest
		}
		if sc.Header.Latest > latest {
			latest = sc.Header.Latest
		}
	}
	if !first && (c.Header.Earliest != earliest || c.Header.Latest != latest) {
		return ErrEnvelopeMismatch
	}
	return nil
}

func (c Chunk) Encode(buf []byte) []byte {
	buf = c.FormatIdentifier.Encode(buf)
	buf = c.Header.Encode(buf)
	buf = codec.AppendSeq(buf, c.SeqChunks, func(b []byte, v SeqChunk) []byte { return v.Encode(b) })
	return buf
}

func DecodeChunk(buf []byte) (Chunk, int, error) {
	id, n1, err := format.DecodeAndValidate(buf, format.VariantChunk, 1)
	if err != nil {
		return Chunk{}, 0, err
	}
	off := n1
	header, n2, err := DecodeChunkHeader(buf[off:])
	if err != nil {
		return Chunk{}, 0, err
	}
	off += n2
	seqChunks, n3, err := codec.ConsumeSeq(buf[off:], DecodeSeqChunk)
	if err != nil {
		return Chunk{}, 0, err
	}
	off += n3
	return Chunk{FormatIdentifier: id, Header: header, SeqChunks: seqChunks}, off, nil
}

// ChunkMeta summarizes a sealed chunk for listing, retention, and directory
// enumeration. DirWriter.ListChunks fills it by decoding each chunk file.
type ChunkMeta struct {
	Interval    ChunkInterval
	Path        string
	Bytes       int64
	RecordCount int64
	Sealed      bool
}

// WallClockEnd returns the absolute wall-clock time the chunk's interval ends,
// used by wall-clock-based retention policies.
func (m ChunkMeta) WallClockEnd() time.Time {
	return time.Unix(int64(m.Interval.BaseTime), 0).UTC().Add(time.Duration(m.Interval.EndTime) * time.Microsecond)
}
