package classdb

import "errors"

// ErrUnknownClass is returned when instantiating or resolving a class the
// database has never seen.
var ErrUnknownClass = errors.New("unknown class")
