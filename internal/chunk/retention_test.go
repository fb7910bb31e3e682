package chunk

import (
	"testing"
	"time"
)

func chunkMetaAt(path string, endSecs int64, bytes int64) ChunkMeta {
	return ChunkMeta{
		Interval: ChunkInterval{BaseTime: uint64(endSecs - 1), StartTime: 0, EndTime: 1_000_000},
		Path:     path,
		Bytes:    bytes,
	}
}

func TestTTLRetentionPolicy(t *testing.T) {
	now := time.Unix(1_700_001_000, 0).UTC()
	state := RecordingState{
		Now: now,
		Chunks: []ChunkMeta{
			chunkMetaAt("old", 1_699_990_000, 100),
			chunkMetaAt("new", 1_700_000_999, 100),
		},
	}
	p := NewTTLRetentionPolicy(time.Hour)
	got := p.Apply(state)
	if len(got) != 1 || got[0] != "old" {
		t.Fatalf("got %v, want [old]", got)
	}
}

func TestTTLRetentionPolicyDisabled(t *testing.T) {
	p := NewTTLRetentionPolicy(0)
	if got := p.Apply(RecordingState{Chunks: []ChunkMeta{chunkMetaAt("a", 0, 1)}}); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}

func TestSizeRetentionPolicyKeepsNewest(t *testing.T) {
	state := RecordingState{
		Chunks: []ChunkMeta{
			chunkMetaAt("oldest", 1, 50),
			chunkMetaAt("middle", 2, 50),
			chunkMetaAt("newest", 3, 50),
		},
	}
	p := NewSizeRetentionPolicy(80)
	got := p.Apply(state)
	if len(got) != 2 || got[0] != "oldest" || got[1] != "middle" {
		t.Fatalf("got %v, want [oldest middle]", got)
	}
}

func TestCountRetentionPolicy(t *testing.T) {
	state := RecordingState{
		Chunks: []ChunkMeta{
			chunkMetaAt("a", 1, 10),
			chunkMetaAt("b", 2, 10),
			chunkMetaAt("c", 3, 10),
		},
	}
	p := NewCountRetentionPolicy(1)
	got := p.Apply(state)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("got %v, want [a b]", got)
	}
}

func TestCountRetentionPolicyUnderLimit(t *testing.T) {
	p := NewCountRetentionPolicy(10)
	got := p.Apply(RecordingState{Chunks: []ChunkMeta{chunkMetaAt("a", 1, 10)}})
	if got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}

func TestCompositeRetentionPolicyUnion(t *testing.T) {
	now := time.Unix(1_700_010_000, 0).UTC()
	state := RecordingState{
		Now: now,
		Chunks: []ChunkMeta{
			chunkMetaAt("too-old", 1_699_990_000, 10),  // selected by TTL, fits the size budget
			chunkMetaAt("too-big", 1_700_009_999, 1000), // recent, but blown size budget
		},
	}
	composite := NewCompositeRetentionPolicy(
		NewTTLRetentionPolicy(time.Hour),
		NewSizeRetentionPolicy(500),
	)
	got := composite.Apply(state)
	if len(got) != 2 {
		t.Fatalf("got %v, want both chunks selected by the union of TTL and size policies", got)
	}
}

func TestNeverRetainPolicy(t *testing.T) {
	p := NeverRetainPolicy{}
	got := p.Apply(RecordingState{Chunks: []ChunkMeta{chunkMetaAt("a", 1, 10)}})
	if got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}
