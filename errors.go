package spango

import (
	"errors"
	"fmt"

	"github.com/hupe1980/spango/blobstore"
)

var (
	// ErrInvalidLimit is returned when a search limit is not positive.
	ErrInvalidLimit = errors.New("limit must be positive")

	// ErrNotFound is returned when a named snapshot does not exist in the
	// blob store.
	ErrNotFound = errors.New("not found")
)

// ErrSegmentDecode indicates that a snapshot blob could not be decoded.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrSegmentDecode struct {
	Name  string
	cause error
}

func (e *ErrSegmentDecode) Error() string {
	return fmt.Sprintf("failed to decode segment %q: %v", e.Name, e.cause)
}

func (e *ErrSegmentDecode) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
