package schema

import "rfr/internal/codec"

// TaskKindTag is the discriminant of the TaskKind tagged union (§3.5).
type TaskKindTag byte

const (
	TaskKindTask     TaskKindTag = 0
	TaskKindLocal    TaskKindTag = 1
	TaskKindBlocking TaskKindTag = 2
	TaskKindBlockOn  TaskKindTag = 3
	TaskKindOther    TaskKindTag = 4
)

// TaskKind classifies the kind of asynchronous execution a Task represents.
// Other carries a free-form descriptive string.
type TaskKind struct {
	Tag   TaskKindTag
	Other string
}

func TaskKindOtherValue(s string) TaskKind { return TaskKind{Tag: TaskKindOther, Other: s} }

func (k TaskKind) Encode(buf []byte) []byte {
	buf = codec.AppendUvarint(buf, uint64(k.Tag))
	if k.Tag == TaskKindOther {
		buf = codec.AppendString(buf, k.Other)
	}
	return buf
}

func DecodeTaskKind(buf []byte) (TaskKind, int, error) {
	tag, n1, err := codec.ConsumeUvarint(buf)
	if err != nil {
		return TaskKind{}, 0, err
	}
	switch TaskKindTag(tag) {
	case TaskKindTask, TaskKindLocal, TaskKindBlocking, TaskKindBlockOn:
		return TaskKind{Tag: TaskKindTag(tag)}, n1, nil
	case TaskKindOther:
		s, n2, err := codec.ConsumeString(buf[n1:])
		if err != nil {
			return TaskKind{}, 0, err
		}
		return TaskKindOtherValue(s), n1 + n2, nil
	default:
		return TaskKind{}, 0, codec.ErrUnknownVariant(tag)
	}
}

// Task is a unit of asynchronous execution tracked by the host runtime
// (§3.5).
type Task struct {
	IID        InstrumentationID
	CallsiteID CallsiteID
	TaskID     TaskID
	TaskName   string
	TaskKind   TaskKind
	Context    *TaskID
}

func (t Task) Encode(buf []byte) []byte {
	buf = EncodeInstrumentationID(buf, t.IID)
	buf = EncodeCallsiteID(buf, t.CallsiteID)
	buf = EncodeTaskID(buf, t.TaskID)
	buf = codec.AppendString(buf, t.TaskName)
	buf = t.TaskKind.Encode(buf)
	buf = codec.AppendOption(buf, t.Context, EncodeTaskID)
	return buf
}

func DecodeTask(buf []byte) (Task, int, error) {
	iid, n1, err := DecodeInstrumentationID(buf)
	if err != nil {
		return Task{}, 0, err
	}
	off := n1
	cid, n2, err := DecodeCallsiteID(buf[off:])
	if err != nil {
		return Task{}, 0, err
	}
	off += n2
	tid, n3, err := DecodeTaskID(buf[off:])
	if err != nil {
		return Task{}, 0, err
	}
	off += n3
	name, n4, err := codec.ConsumeString(buf[off:])
	if err != nil {
		return Task{}, 0, err
	}
	off += n4
	kind, n5, err := DecodeTaskKind(buf[off:])
	if err != nil {
		return Task{}, 0, err
	}
	off += n5
	ctx, n6, err := codec.ConsumeOption(buf[off:], DecodeTaskID)
	if err != nil {
		return Task{}, 0, err
	}
	off += n6
	return Task{
		IID:        iid,
		CallsiteID: cid,
		TaskID:     tid,
		TaskName:   name,
		TaskKind:   kind,
		Context:    ctx,
	}, off, nil
}
