package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrVideoNotFound indicates a video ID doesn't exist
	ErrVideoNotFound = errors.New("video not found")

	// ErrInvalidInput indicates invalid request parameters
	ErrInvalidInput = errors.New("invalid input")
)

// CatalogWriteError reports a failed insert or delete transaction. The
// transaction it describes has been rolled back.
type CatalogWriteError struct {
	Op    string // "insert", "delete" or "apply"
	Count int    // number of rows the transaction tried to write
	Err   error
}

func (e *CatalogWriteError) Error() string {
	return fmt.Sprintf("catalog %s of %d rows failed: %v", e.Op, e.Count, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *CatalogWriteError) Unwrap() error {
	return e.Err
}
