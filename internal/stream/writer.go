package stream

import (
	"bufio"
	"io"

	"rfr/internal/format"
	"rfr/internal/schema"
)

// FormatIdentifier is the format identifier written at the head of every
// streaming file.
var FormatIdentifier = format.Identifier{Variant: format.VariantStreaming, Major: 1, Minor: 0, Patch: 0}

// Writer appends StreamRecords to a single file, single-producer only
// (§4.4's ordering guarantee). It performs no in-memory aggregation: each
// Append call encodes the record and flushes it to the underlying writer.
type Writer struct {
	w      *bufio.Writer
	closed bool
}

// NewWriter wraps w, writing the format identifier immediately.
func NewWriter(w io.Writer) (*Writer, error) {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(FormatIdentifier.Encode(nil)); err != nil {
		return nil, err
	}
	return &Writer{w: bw}, nil
}

// Append encodes and writes one record, flushing it through to the
// underlying writer.
func (w *Writer) Append(r StreamRecord) error {
	if _, err := w.w.Write(r.Encode(nil)); err != nil {
		return err
	}
	return w.w.Flush()
}

// Close emits the terminal End record and flushes the underlying writer.
// Per §4.4, the writer is intended for single-threaded producers; Close
// must be called exactly once after the last Append.
func (w *Writer) Close(ts schema.AbsTimestamp) error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.Append(StreamRecord{Timestamp: ts, Data: NewStreamEnd()}); err != nil {
		return err
	}
	return w.w.Flush()
}
