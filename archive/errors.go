package archive

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when a requested object does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnknownPayload is returned when Redis returns an unexpected type.
	ErrUnknownPayload = errors.New("unknown payload")
)
