// Package stream implements the streaming file variant of §4.4: a single
// append-only sequence of records with absolute timestamps, terminated by
// an End record.
package stream

import (
	"rfr/internal/codec"
	"rfr/internal/schema"
)

// StreamRecordDataTag is the discriminant of the streaming RecordData
// union. Unlike the chunked union's discriminants (§3.6, normative), the
// specification leaves the streaming assignment implementation-defined;
// this is this implementation's choice (see DESIGN.md). It carries every
// chunked variant plus DeclareObject (inline object declaration) and the
// mandatory End terminator.
type StreamRecordDataTag byte

const (
	StreamEnd            StreamRecordDataTag = 0
	StreamDeclareObject  StreamRecordDataTag = 1
	StreamSpanNew        StreamRecordDataTag = 2
	StreamSpanEnter      StreamRecordDataTag = 3
	StreamSpanExit       StreamRecordDataTag = 4
	StreamSpanClose      StreamRecordDataTag = 5
	StreamEvent          StreamRecordDataTag = 6
	StreamNewTask        StreamRecordDataTag = 7
	StreamTaskPollStart  StreamRecordDataTag = 8
	StreamTaskPollEnd    StreamRecordDataTag = 9
	StreamTaskDrop       StreamRecordDataTag = 10
	StreamWakerWake      StreamRecordDataTag = 11
	StreamWakerWakeByRef StreamRecordDataTag = 12
	StreamWakerClone     StreamRecordDataTag = 13
	StreamWakerDrop      StreamRecordDataTag = 14
)

// StreamRecordData is the flat tagged union carried by every streaming
// record.
type StreamRecordData struct {
	Tag    StreamRecordDataTag
	IID    schema.InstrumentationID
	Object schema.Object
	Event  schema.Event
	Waker  schema.Waker
}

func NewStreamEnd() StreamRecordData { return StreamRecordData{Tag: StreamEnd} }

func NewStreamDeclareObject(o schema.Object) StreamRecordData {
	return StreamRecordData{Tag: StreamDeclareObject, Object: o}
}

func newStreamIID(tag StreamRecordDataTag, iid schema.InstrumentationID) StreamRecordData {
	return StreamRecordData{Tag: tag, IID: iid}
}

func NewStreamSpanNew(iid schema.InstrumentationID) StreamRecordData {
	return newStreamIID(StreamSpanNew, iid)
}
func NewStreamSpanEnter(iid schema.InstrumentationID) StreamRecordData {
	return newStreamIID(StreamSpanEnter, iid)
}
func NewStreamSpanExit(iid schema.InstrumentationID) StreamRecordData {
	return newStreamIID(StreamSpanExit, iid)
}
func NewStreamSpanClose(iid schema.InstrumentationID) StreamRecordData {
	return newStreamIID(StreamSpanClose, iid)
}
func NewStreamEvent(e schema.Event) StreamRecordData {
	return StreamRecordData{Tag: StreamEvent, Event: e}
}
func NewStreamNewTask(iid schema.InstrumentationID) StreamRecordData {
	return newStreamIID(StreamNewTask, iid)
}
func NewStreamTaskPollStart(iid schema.InstrumentationID) StreamRecordData {
	return newStreamIID(StreamTaskPollStart, iid)
}
func NewStreamTaskPollEnd(iid schema.InstrumentationID) StreamRecordData {
	return newStreamIID(StreamTaskPollEnd, iid)
}
func NewStreamTaskDrop(iid schema.InstrumentationID) StreamRecordData {
	return newStreamIID(StreamTaskDrop, iid)
}
func NewStreamWakerWake(w schema.Waker) StreamRecordData {
	return StreamRecordData{Tag: StreamWakerWake, Waker: w}
}
func NewStreamWakerWakeByRef(w schema.Waker) StreamRecordData {
	return StreamRecordData{Tag: StreamWakerWakeByRef, Waker: w}
}
func NewStreamWakerClone(w schema.Waker) StreamRecordData {
	return StreamRecordData{Tag: StreamWakerClone, Waker: w}
}
func NewStreamWakerDrop(w schema.Waker) StreamRecordData {
	return StreamRecordData{Tag: StreamWakerDrop, Waker: w}
}

func (d StreamRecordData) Encode(buf []byte) []byte {
	buf = codec.AppendUvarint(buf, uint64(d.Tag))
	switch d.Tag {
	case StreamEnd:
		return buf
	case StreamDeclareObject:
		return d.Object.Encode(buf)
	case StreamSpanNew, StreamSpanEnter, StreamSpanExit, StreamSpanClose,
		StreamNewTask, StreamTaskPollStart, StreamTaskPollEnd, StreamTaskDrop:
		return schema.EncodeInstrumentationID(buf, d.IID)
	case StreamEvent:
		return d.Event.Encode(buf)
	case StreamWakerWake, StreamWakerWakeByRef, StreamWakerClone, StreamWakerDrop:
		return d.Waker.Encode(buf)
	default:
		return buf
	}
}

func DecodeStreamRecordData(buf []byte) (StreamRecordData, int, error) {
	tag, n1, err := codec.ConsumeUvarint(buf)
	if err != nil {
		return StreamRecordData{}, 0, err
	}
	rest := buf[n1:]
	switch StreamRecordDataTag(tag) {
	case StreamEnd:
		return NewStreamEnd(), n1, nil
	case StreamDeclareObject:
		o, n2, err := schema.DecodeObject(rest)
		if err != nil {
			return StreamRecordData{}, 0, err
		}
		return NewStreamDeclareObject(o), n1 + n2, nil
	case StreamSpanNew, StreamSpanEnter, StreamSpanExit, StreamSpanClose,
		StreamNewTask, StreamTaskPollStart, StreamTaskPollEnd, StreamTaskDrop:
		iid, n2, err := schema.DecodeInstrumentationID(rest)
		if err != nil {
			return StreamRecordData{}, 0, err
		}
		return newStreamIID(StreamRecordDataTag(tag), iid), n1 + n2, nil
	case StreamEvent:
		e, n2, err := schema.DecodeEvent(rest)
		if err != nil {
			return StreamRecordData{}, 0, err
		}
		return NewStreamEvent(e), n1 + n2, nil
	case StreamWakerWake, StreamWakerWakeByRef, StreamWakerClone, StreamWakerDrop:
		w, n2, err := schema.DecodeWaker(rest)
		if err != nil {
			return StreamRecordData{}, 0, err
		}
		return StreamRecordData{Tag: StreamRecordDataTag(tag), Waker: w}, n1 + n2, nil
	default:
		return StreamRecordData{}, 0, codec.ErrUnknownVariant(tag)
	}
}

// StreamRecord pairs an absolute timestamp with a streaming payload.
type StreamRecord struct {
	Timestamp schema.AbsTimestamp
	Data      StreamRecordData
}

func (r StreamRecord) Encode(buf []byte) []byte {
	buf = r.Timestamp.Encode(buf)
	return r.Data.Encode(buf)
}

func DecodeStreamRecord(buf []byte) (StreamRecord, int, error) {
	ts, n1, err := schema.DecodeAbsTimestamp(buf)
	if err != nil {
		return StreamRecord{}, 0, err
	}
	data, n2, err := DecodeStreamRecordData(buf[n1:])
	if err != nil {
		return StreamRecord{}, 0, err
	}
	return StreamRecord{Timestamp: ts, Data: data}, n1 + n2, nil
}
