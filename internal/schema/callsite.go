package schema

import "rfr/internal/codec"

// Level is a callsite severity, matching the conventional trace/debug/info/
// warn/error ladder.
type Level uint8

const (
	LevelTrace Level = 10
	LevelDebug Level = 20
	LevelInfo  Level = 30
	LevelWarn  Level = 40
	LevelError Level = 50
)

// Kind distinguishes event callsites from span callsites.
type Kind uint8

const (
	KindUnknown Kind = 0
	KindEvent   Kind = 1
	KindSpan    Kind = 2
)

// Callsite carries compile-time-constant metadata for a single
// source-emission location. Within a recording, a given CallsiteID is
// written at most once (§3.3).
type Callsite struct {
	CallsiteID      CallsiteID
	Level           Level
	Kind            Kind
	ConstFields     []FieldEntry
	ConstFieldNames []string
}

func (c Callsite) Encode(buf []byte) []byte {
	buf = EncodeCallsiteID(buf, c.CallsiteID)
	buf = codec.AppendUvarint(buf, uint64(c.Level))
	buf = codec.AppendUvarint(buf, uint64(c.Kind))
	buf = codec.AppendSeq(buf, c.ConstFields, func(b []byte, v FieldEntry) []byte { return v.Encode(b) })
	buf = codec.AppendSeq(buf, c.ConstFieldNames, codec.AppendString)
	return buf
}

func DecodeCallsite(buf []byte) (Callsite, int, error) {
	id, n1, err := DecodeCallsiteID(buf)
	if err != nil {
		return Callsite{}, 0, err
	}
	off := n1
	level, n2, err := codec.ConsumeUvarint(buf[off:])
	if err != nil {
		return Callsite{}, 0, err
	}
	off += n2
	kind, n3, err := codec.ConsumeUvarint(buf[off:])
	if err != nil {
		return Callsite{}, 0, err
	}
	off += n3
	fields, n4, err := codec.ConsumeSeq(buf[off:], DecodeFieldEntry)
	if err != nil {
		return Callsite{}, 0, err
	}
	off += n4
	names, n5, err := codec.ConsumeSeq(buf[off:], codec.ConsumeString)
	if err != nil {
		return Callsite{}, 0, err
	}
	off += n5
	return Callsite{
		CallsiteID:      id,
		Level:           Level(level),
		Kind:            Kind(kind),
		ConstFields:     fields,
		ConstFieldNames: names,
	}, off, nil
}
