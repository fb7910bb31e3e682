package schema

import "rfr/internal/codec"

// RecordDataTag is the discriminant of the chunked RecordData tagged union.
// These integer assignments are normative (§3.6) and must never change
// across format versions.
type RecordDataTag byte

const (
	RecordSpanNew        RecordDataTag = 0
	RecordSpanEnter      RecordDataTag = 1
	RecordSpanExit       RecordDataTag = 2
	RecordSpanClose      RecordDataTag = 3
	RecordEvent          RecordDataTag = 4
	RecordNewTask        RecordDataTag = 5
	RecordTaskPollStart  RecordDataTag = 6
	RecordTaskPollEnd    RecordDataTag = 7
	RecordTaskDrop       RecordDataTag = 8
	RecordWakerWake      RecordDataTag = 9
	RecordWakerWakeByRef RecordDataTag = 10
	RecordWakerClone     RecordDataTag = 11
	RecordWakerDrop      RecordDataTag = 12
)

// RecordData is the flat tagged union carried by every chunked record. A
// single flat union (rather than nested per-entity unions) saves one
// discriminant byte per record, per §9's design note.
type RecordData struct {
	Tag   RecordDataTag
	IID   InstrumentationID // SpanNew, SpanEnter, SpanExit, SpanClose, NewTask, TaskPollStart, TaskPollEnd, TaskDrop
	Event Event             // RecordEvent
	Waker Waker             // WakerWake, WakerWakeByRef, WakerClone, WakerDrop
}

func NewRecordSpanNew(iid InstrumentationID) RecordData {
	return RecordData{Tag: RecordSpanNew, IID: iid}
}
func NewRecordSpanEnter(iid InstrumentationID) RecordData {
	return RecordData{Tag: RecordSpanEnter, IID: iid}
}
func NewRecordSpanExit(iid InstrumentationID) RecordData {
	return RecordData{Tag: RecordSpanExit, IID: iid}
}
func NewRecordSpanClose(iid InstrumentationID) RecordData {
	return RecordData{Tag: RecordSpanClose, IID: iid}
}
func NewRecordEvent(e Event) RecordData { return RecordData{Tag: RecordEvent, Event: e} }
func NewRecordNewTask(iid InstrumentationID) RecordData {
	return RecordData{Tag: RecordNewTask, IID: iid}
}
func NewRecordTaskPollStart(iid InstrumentationID) RecordData {
	return RecordData{Tag: RecordTaskPollStart, IID: iid}
}
func NewRecordTaskPollEnd(iid InstrumentationID) RecordData {
	return RecordData{Tag: RecordTaskPollEnd, IID: iid}
}
func NewRecordTaskDrop(iid InstrumentationID) RecordData {
	return RecordData{Tag: RecordTaskDrop, IID: iid}
}
func NewRecordWakerWake(w Waker) RecordData {
	return RecordData{Tag: RecordWakerWake, Waker: w}
}
func NewRecordWakerWakeByRef(w Waker) RecordData {
	return RecordData{Tag: RecordWakerWakeByRef, Waker: w}
}
func NewRecordWakerClone(w Waker) RecordData {
	return RecordData{Tag: RecordWakerClone, Waker: w}
}
func NewRecordWakerDrop(w Waker) RecordData {
	return RecordData{Tag: RecordWakerDrop, Waker: w}
}

// ReferencedIID returns the InstrumentationID this record's payload
// references (for the object-closure invariant, testable property 6), and
// whether the payload references one at all.
func (d RecordData) ReferencedIID() (InstrumentationID, bool) {
	switch d.Tag {
	case RecordSpanNew, RecordSpanEnter, RecordSpanExit, RecordSpanClose,
		RecordNewTask, RecordTaskPollStart, RecordTaskPollEnd, RecordTaskDrop:
		return d.IID, true
	default:
		return 0, false
	}
}

func (d RecordData) Encode(buf []byte) []byte {
	buf = codec.AppendUvarint(buf, uint64(d.Tag))
	switch d.Tag {
	case RecordSpanNew, RecordSpanEnter, RecordSpanExit, RecordSpanClose,
		RecordNewTask, RecordTaskPollStart, RecordTaskPollEnd, RecordTaskDrop:
		return EncodeInstrumentationID(buf, d.IID)
	case RecordEvent:
		return d.Event.Encode(buf)
	case RecordWakerWake, RecordWakerWakeByRef, RecordWakerClone, RecordWakerDrop:
		return d.Waker.Encode(buf)
	default:
		return buf
	}
}

func DecodeRecordData(buf []byte) (RecordData, int, error) {
	tag, n1, err := codec.ConsumeUvarint(buf)
	if err != nil {
		return RecordData{}, 0, err
	}
	rest := buf[n1:]
	switch RecordDataTag(tag) {
	case RecordSpanNew, RecordSpanEnter, RecordSpanExit, RecordSpanClose,
		RecordNewTask, RecordTaskPollStart, RecordTaskPollEnd, RecordTaskDrop:
		iid, n2, err := DecodeInstrumentationID(rest)
		if err != nil {
			return RecordData{}, 0, err
		}
		return RecordData{Tag: RecordDataTag(tag), IID: iid}, n1 + n2, nil
	case RecordEvent:
		e, n2, err := DecodeEvent(rest)
		if err != nil {
			return RecordData{}, 0, err
		}
		return RecordData{Tag: RecordEvent, Event: e}, n1 + n2, nil
	case RecordWakerWake, RecordWakerWakeByRef, RecordWakerClone, RecordWakerDrop:
		w, n2, err := DecodeWaker(rest)
		if err != nil {
			return RecordData{}, 0, err
		}
		return RecordData{Tag: RecordDataTag(tag), Waker: w}, n1 + n2, nil
	default:
		return RecordData{}, 0, codec.ErrUnknownVariant(tag)
	}
}

// RecordMeta is a chunked record's metadata: just the chunk-relative
// timestamp (§3.6).
type RecordMeta struct {
	Timestamp ChunkTimestamp
}

func (m RecordMeta) Encode(buf []byte) []byte {
	return m.Timestamp.Encode(buf)
}

func DecodeRecordMeta(buf []byte) (RecordMeta, int, error) {
	ts, n, err := DecodeChunkTimestamp(buf)
	return RecordMeta{Timestamp: ts}, n, err
}

// Record pairs metadata with a discriminated payload.
type Record struct {
	Meta RecordMeta
	Data RecordData
}

func (r Record) Encode(buf []byte) []byte {
	buf = r.Meta.Encode(buf)
	return r.Data.Encode(buf)
}

func DecodeRecord(buf []byte) (Record, int, error) {
	meta, n1, err := DecodeRecordMeta(buf)
	if err != nil {
		return Record{}, 0, err
	}
	data, n2, err := DecodeRecordData(buf[n1:])
	if err != nil {
		return Record{}, 0, err
	}
	return Record{Meta: meta, Data: data}, n1 + n2, nil
}
