package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrSourceUnavailable = errors.New("mail source unavailable")
	ErrGeneration        = errors.New("topic generation failed")
	ErrStore             = errors.New("result store failure")
	ErrDelivery          = errors.New("report delivery failed")
	ErrNotFound          = errors.New("not found")
)

// WrapError tags err with a sentinel kind and the failing operation
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
