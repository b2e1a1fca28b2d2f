package handle

import "errors"

// ErrInvalid is returned when resolving a handle that was never allocated
// or has already been released.
var ErrInvalid = errors.New("invalid handle")
