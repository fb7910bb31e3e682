// Package schema derives the typed recording data model from §3 of the
// specification on top of internal/codec's wire primitives. Every type here
// is a newtype or struct with an Encode/Decode pair; no type encodes itself
// through anything but internal/codec calls, so a single contract —
// decode(encode(v)) == v — governs the whole package.
package schema

import "rfr/internal/codec"

// CallsiteID uniquely identifies a source-emission location. Stable for the
// lifetime of a recording.
type CallsiteID uint64

// InstrumentationID (iid) identifies a span-like or task-like object,
// assigned by the instrumentation source. Unique only within a recording.
type InstrumentationID uint64

// TaskID is the runtime-assigned task identifier. Not necessarily unique
// across time: the runtime may reuse an ID once a task is dropped.
type TaskID uint64

// SeqID identifies an in-order producer of records, typically one per
// thread that emits instrumentation.
type SeqID uint64

// Newtypes carry no framing of their own: encode/decode just forward to the
// inner uvarint.

func EncodeCallsiteID(buf []byte, id CallsiteID) []byte {
	return codec.AppendUvarint(buf, uint64(id))
}

func DecodeCallsiteID(buf []byte) (CallsiteID, int, error) {
	v, n, err := codec.ConsumeUvarint(buf)
	return CallsiteID(v), n, err
}

func EncodeInstrumentationID(buf []byte, id InstrumentationID) []byte {
	return codec.AppendUvarint(buf, uint64(id))
}

func DecodeInstrumentationID(buf []byte) (InstrumentationID, int, error) {
	v, n, err := codec.ConsumeUvarint(buf)
	return InstrumentationID(v), n, err
}

func EncodeTaskID(buf []byte, id TaskID) []byte {
	return codec.AppendUvarint(buf, uint64(id))
}

func DecodeTaskID(buf []byte) (TaskID, int, error) {
	v, n, err := codec.ConsumeUvarint(buf)
	return TaskID(v), n, err
}

func EncodeSeqID(buf []byte, id SeqID) []byte {
	return codec.AppendUvarint(buf, uint64(id))
}

func DecodeSeqID(buf []byte) (SeqID, int, error) {
	v, n, err := codec.ConsumeUvarint(buf)
	return SeqID(v), n, err
}
