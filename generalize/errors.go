package generalize

import (
	"errors"
	"fmt"
)

var (
	// ErrCanceled is returned when the context of a computation is done before it finishes.
	ErrCanceled = errors.New("refactoring canceled")
	// ErrNotComputed is returned when results are requested before a successful computation.
	ErrNotComputed = errors.New("accepted types have not been computed")
)

func canceled(cause error) error {
	return fmt.Errorf("%w: %w", ErrCanceled, cause)
}
