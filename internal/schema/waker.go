package schema

import "rfr/internal/codec"

// Waker represents an action observed against a task's wake mechanism. Used
// only inside record variants, never as a standalone object (§3.5).
type Waker struct {
	TaskID  TaskID
	Context *TaskID
}

func (w Waker) Encode(buf []byte) []byte {
	buf = EncodeTaskID(buf, w.TaskID)
	buf = codec.AppendOption(buf, w.Context, EncodeTaskID)
	return buf
}

func DecodeWaker(buf []byte) (Waker, int, error) {
	tid, n1, err := DecodeTaskID(buf)
	if err != nil {
		return Waker{}, 0, err
	}
	ctx, n2, err := codec.ConsumeOption(buf[n1:], DecodeTaskID)
	if err != nil {
		return Waker{}, 0, err
	}
	return Waker{TaskID: tid, Context: ctx}, n1 + n2, nil
}
