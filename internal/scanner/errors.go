package scanner

import (
	"errors"
	"fmt"
)

// ErrRootNotFound is returned when the media root is missing, is not a
// directory or cannot be read. No traversal happens in that case.
var ErrRootNotFound = errors.New("media root not found")

// FileAccessError records an entry that could not be resolved during a scan.
// It is recovered locally: the entry is left out of the result.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("cannot access %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *FileAccessError) Unwrap() error {
	return e.Err
}
