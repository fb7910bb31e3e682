// Package codec implements the variable-length postfix wire primitives that
// every recording artifact is built from: varints, strings, sequences,
// options, and tagged unions. Nothing in this package knows about any
// concrete record shape; internal/schema builds the typed model on top of it.
package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncatedInput is returned when a decode function runs out of bytes
	// before a value is complete.
	ErrTruncatedInput = errors.New("codec: truncated input")

	// ErrInvalidUTF8 is returned when a string's raw bytes are not valid UTF-8.
	ErrInvalidUTF8 = errors.New("codec: invalid utf-8")

	// ErrOverlongVarint is returned when a varint uses more continuation
	// bytes than its target width allows (10 for u64, 19 for u128).
	ErrOverlongVarint = errors.New("codec: overlong varint")

	// ErrOptionTagOutOfRange is returned when an option's presence byte is
	// neither 0x00 nor 0x01.
	ErrOptionTagOutOfRange = errors.New("codec: option tag out of range")

	// ErrLengthExceedsRemaining is returned when a length-prefixed value
	// (string or sequence) claims more bytes than remain in the input.
	ErrLengthExceedsRemaining = errors.New("codec: length exceeds remaining input")
)

// UnknownVariantError is returned when a tagged union's discriminant does not
// match any known variant for the type being decoded.
type UnknownVariantError struct {
	Tag uint64
}

func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("codec: unknown variant tag %d", e.Tag)
}

// ErrUnknownVariant returns an *UnknownVariantError carrying tag. Unlike the
// sentinel errors above, each value carries its own tag, so callers match it
// with errors.As rather than errors.Is.
func ErrUnknownVariant(tag uint64) error {
	return &UnknownVariantError{Tag: tag}
}
