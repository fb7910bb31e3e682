package chunk

import (
	"testing"

	"rfr/internal/format"
	"rfr/internal/schema"
)

func mustTS(secs uint64, micros uint32) schema.AbsTimestamp {
	ts, err := schema.NewAbsTimestamp(secs, micros)
	if err != nil {
		panic(err)
	}
	return ts
}

func TestChunkIntervalEncodeDecodeRoundTrip(t *testing.T) {
	iv := ChunkInterval{BaseTime: 1700000000, StartTime: 0, EndTime: 1_000_000}
	buf := iv.Encode(nil)
	got, n, err := DecodeChunkInterval(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d, want %d", n, len(buf))
	}
	if got != iv {
		t.Fatalf("got %+v, want %+v", got, iv)
	}
}

func TestChunkIntervalContainsAndTimestampFor(t *testing.T) {
	iv := ChunkInterval{BaseTime: 1700000000, StartTime: 0, EndTime: 1_000_000}
	ts := mustTS(1700000000, 500_000)
	if !iv.Contains(ts) {
		t.Fatalf("expected interval to contain ts")
	}
	if got := iv.ChunkTimestampFor(ts); got != schema.ChunkTimestamp(500_000) {
		t.Fatalf("ChunkTimestampFor = %d, want 500000", got)
	}

	outside := mustTS(1700000001, 0)
	if iv.Contains(outside) {
		t.Fatalf("did not expect interval to contain ts at exactly the exclusive end")
	}
}

func TestChunkIntervalPath(t *testing.T) {
	iv := ChunkInterval{BaseTime: 1700000000, StartTime: 0, EndTime: 1_000_000}
	p := iv.Path()
	if len(p) == 0 {
		t.Fatal("expected non-empty path")
	}
}

func seqChunkFixture(seqID schema.SeqID, timestamps ...schema.ChunkTimestamp) SeqChunk {
	records := make([]schema.Record, len(timestamps))
	for i, ts := range timestamps {
		records[i] = schema.Record{
			Meta: schema.RecordMeta{Timestamp: ts},
			Data: schema.NewRecordNewTask(schema.InstrumentationID(i + 1)),
		}
	}
	earliest, latest := timestamps[0], timestamps[0]
	for _, ts := range timestamps {
		if ts < earliest {
			earliest = ts
		}
		if ts > latest {
			latest = ts
		}
	}
	return SeqChunk{
		Header:  SeqChunkHeader{SeqID: seqID, Earliest: earliest, Latest: latest},
		Records: records,
	}
}

func TestSeqChunkValidateOrdered(t *testing.T) {
	sc := seqChunkFixture(1, 0, 10, 20)
	if err := sc.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestSeqChunkValidateRejectsOutOfOrder(t *testing.T) {
	sc := seqChunkFixture(1, 0, 20, 10)
	sc.Header.Earliest, sc.Header.Latest = 0, 20
	if err := sc.Validate(); err == nil {
		t.Fatal("expected ErrSequenceNotOrdered")
	}
}

func TestSeqChunkEncodeDecodeRoundTrip(t *testing.T) {
	sc := seqChunkFixture(7, 0, 100)
	sc.Objects = []schema.Object{schema.NewObjectTask(schema.Task{IID: 1})}
	buf := sc.Encode(nil)
	got, n, err := DecodeSeqChunk(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d, want %d", n, len(buf))
	}
	if got.Header != sc.Header {
		t.Fatalf("header mismatch: got %+v, want %+v", got.Header, sc.Header)
	}
	if len(got.Records) != len(sc.Records) || len(got.Objects) != len(sc.Objects) {
		t.Fatalf("shape mismatch: got %+v", got)
	}
}

func TestChunkValidateCoverageAndEnvelope(t *testing.T) {
	iv := ChunkInterval{BaseTime: 1700000000, StartTime: 0, EndTime: 1_000_000}
	sc1 := seqChunkFixture(1, 0, 100)
	sc2 := seqChunkFixture(2, 50, 900_000)
	c := Chunk{
		Header:    ChunkHeader{Interval: iv, Earliest: 0, Latest: 900_000},
		SeqChunks: []SeqChunk{sc1, sc2},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestChunkValidateRejectsRecordOutsideInterval(t *testing.T) {
	iv := ChunkInterval{BaseTime: 1700000000, StartTime: 0, EndTime: 1_000}
	sc := seqChunkFixture(1, 0, 2_000)
	c := Chunk{Header: ChunkHeader{Interval: iv, Earliest: 0, Latest: 2_000}, SeqChunks: []SeqChunk{sc}}
	if err := c.Validate(); err != ErrRecordOutsideInterval {
		t.Fatalf("got %v, want ErrRecordOutsideInterval", err)
	}
}

func TestChunkEncodeDecodeRoundTrip(t *testing.T) {
	iv := ChunkInterval{BaseTime: 1700000000, StartTime: 0, EndTime: 1_000_000}
	sc := seqChunkFixture(3, 0, 100, 200)
	c := Chunk{
		FormatIdentifier: format.Identifier{Variant: format.VariantChunk, Major: 1},
		Header:           ChunkHeader{Interval: iv, Earliest: 0, Latest: 200},
		SeqChunks:        []SeqChunk{sc},
	}
	buf := c.Encode(nil)
	got, n, err := DecodeChunk(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d, want %d", n, len(buf))
	}
	if got.Header.Interval != c.Header.Interval {
		t.Fatalf("interval mismatch: got %+v", got.Header.Interval)
	}
	if len(got.SeqChunks) != 1 {
		t.Fatalf("got %d seq chunks, want 1", len(got.SeqChunks))
	}
}

func TestChunkMetaWallClockEnd(t *testing.T) {
	m := ChunkMeta{Interval: ChunkInterval{BaseTime: 1700000000, StartTime: 0, EndTime: 1_000_000}}
	end := m.WallClockEnd()
	if end.Unix() != 1700000001 {
		t.Fatalf("WallClockEnd = %v, want 1700000001", end.Unix())
	}
}
