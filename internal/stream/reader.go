package stream

import (
	"bufio"
	"errors"
	"io"

	"rfr/internal/format"
)

// ErrTruncatedRecord is reported for a truncated trailing record; records
// decoded before it remain valid (§4.4).
var ErrTruncatedRecord = errors.New("stream: truncated trailing record")

// Reader decodes StreamRecords until an End record or end-of-input.
type Reader struct {
	r   *bufio.Reader
	buf []byte
}

// OpenReader validates the leading format identifier and returns a Reader
// positioned at the first record.
func OpenReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	// The whole input is read into memory; the identifier (a Codec
	// length-prefixed string) is decoded from its head.
	all, err := io.ReadAll(br)
	if err != nil {
		return nil, err
	}
	_, n, err := format.DecodeAndValidate(all, format.VariantStreaming, 1)
	if err != nil {
		return nil, err
	}
	return &Reader{buf: all[n:]}, nil
}

// Next decodes the next record. It returns io.EOF after a StreamEnd record
// or when the input is exhausted cleanly between records. A truncated
// trailing record yields ErrTruncatedRecord and no further records should
// be requested.
func (r *Reader) Next() (StreamRecord, error) {
	if len(r.buf) == 0 {
		return StreamRecord{}, io.EOF
	}
	rec, n, err := DecodeStreamRecord(r.buf)
	if err != nil {
		r.buf = nil
		return StreamRecord{}, ErrTruncatedRecord
	}
	r.buf = r.buf[n:]
	if rec.Data.Tag == StreamEnd {
		r.buf = nil
		return rec, io.EOF
	}
	return rec, nil
}

// ReadAll decodes every record up to (but not including) the terminal End
// record, or until a truncated record is found. It never returns a
// truncation error for a cleanly-terminated stream — the records decoded
// before truncation are returned alongside it.
func ReadAll(r io.Reader) ([]StreamRecord, error) {
	reader, err := OpenReader(r)
	if err != nil {
		return nil, err
	}
	var records []StreamRecord
	for {
		rec, err := reader.Next()
		switch {
		case err == nil:
			records = append(records, rec)
		case errors.Is(err, io.EOF):
			return records, nil
		case errors.Is(err, ErrTruncatedRecord):
			return records, ErrTruncatedRecord
		default:
			return records, err
		}
	}
}
