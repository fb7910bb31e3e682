package codec

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// AppendBool appends a single-byte boolean: 0x00 false, 0x01 true.
func AppendBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}

// ConsumeBool decodes a single-byte boolean.
func ConsumeBool(buf []byte) (bool, int, error) {
	if len(buf) < 1 {
		return false, 0, ErrTruncatedInput
	}
	return buf[0] != 0, 1, nil
}

// AppendF64 appends v as little-endian IEEE-754 binary64.
func AppendF64(buf []byte, v float64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
	return append(buf, tmp[:]...)
}

// ConsumeF64 decodes a little-endian IEEE-754 binary64.
func ConsumeF64(buf []byte) (float64, int, error) {
	if len(buf) < 8 {
		return 0, 0, ErrTruncatedInput
	}
	bits := binary.LittleEndian.Uint64(buf[:8])
	return math.Float64frombits(bits), 8, nil
}

// AppendString appends a uvarint byte-length prefix followed by the raw
// UTF-8 bytes of s.
func AppendString(buf []byte, s string) []byte {
	buf = AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

// ConsumeString decodes a length-prefixed UTF-8 string.
func ConsumeString(buf []byte) (string, int, error) {
	n, nn, err := ConsumeUvarint(buf)
	if err != nil {
		return "", 0, err
	}
	rest := buf[nn:]
	if n > uint64(len(rest)) {
		return "", 0, ErrLengthExceedsRemaining
	}
	raw := rest[:n]
	if !utf8.Valid(raw) {
		return "", 0, ErrInvalidUTF8
	}
	return string(raw), nn + int(n), nil
}

// AppendSeq appends a uvarint element-count prefix followed by each
// element's encoding, produced by calling encode for every element of xs.
func AppendSeq[T any](buf []byte, xs []T, encode func([]byte, T) []byte) []byte {
	buf = AppendUvarint(buf, uint64(len(xs)))
	for _, x := range xs {
		buf = encode(buf, x)
	}
	return buf
}

// ConsumeSeq decodes a length-prefixed sequence, calling decode once per
// element. decode must return the bytes it consumed. The element count is
// bounded against the remaining input (every element is at least one byte)
// before it is used to size an allocation, so a corrupt or truncated count
// cannot force a huge preallocation.
func ConsumeSeq[T any](buf []byte, decode func([]byte) (T, int, error)) ([]T, int, error) {
	n, nn, err := ConsumeUvarint(buf)
	if err != nil {
		return nil, 0, err
	}
	rest := buf[nn:]
	if n > uint64(len(rest)) {
		return nil, 0, ErrLengthExceedsRemaining
	}
	out := make([]T, 0, n)
	total := nn
	for range n {
		x, consumed, err := decode(rest)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, x)
		rest = rest[consumed:]
		total += consumed
	}
	return out, total, nil
}

// AppendOption appends the one-byte presence tag followed by the payload
// encoding when v is non-nil.
func AppendOption[T any](buf []byte, v *T, encode func([]byte, T) []byte) []byte {
	if v == nil {
		return append(buf, 0x00)
	}
	buf = append(buf, 0x01)
	return encode(buf, *v)
}

// ConsumeOption decodes a one-byte presence tag and, if present, the payload.
func ConsumeOption[T any](buf []byte, decode func([]byte) (T, int, error)) (*T, int, error) {
	if len(buf) < 1 {
		return nil, 0, ErrTruncatedInput
	}
	switch buf[0] {
	case 0x00:
		return nil, 1, nil
	case 0x01:
		v, n, err := decode(buf[1:])
		if err != nil {
			return nil, 0, err
		}
		return &v, 1 + n, nil
	default:
		return nil, 0, ErrOptionTagOutOfRange
	}
}
