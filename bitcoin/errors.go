package bitcoin

import "github.com/pkg/errors"

// ErrWrongSize is returned when a byte slice or hex string does not match the
// fixed size expected by a hash type.
var ErrWrongSize = errors.New("wrong size")
