package variant

import "errors"

var (
	// ErrTypeMismatch is returned by checked conversions when the source
	// value cannot be coerced to the requested kind.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrUnencodable is returned when serializing a value containing an
	// object, resource or live callable without full-object mode.
	ErrUnencodable = errors.New("unencodable value")

	// ErrNotFound is the lookup-miss signal for dictionary access.
	ErrNotFound = errors.New("key not found")
)
