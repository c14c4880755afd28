// Package catalog persists Video records and exposes the bulk operations
// used by synchronization together with the query surface used by the UI.
package catalog

import (
	"context"
	"fmt"

	"github.com/mantonx/vidindex/internal/database"
	"github.com/mantonx/vidindex/internal/types"
	"gorm.io/gorm"
)

// DefaultBatchSize is used when a store is created with a non-positive
// batch size.
const DefaultBatchSize = 500

// deleteChunkSize keeps IN lists under the bind-parameter limit of every
// supported driver.
const deleteChunkSize = 500

// Store is the catalog repository. Every bulk operation runs in its own
// transaction that commits on success and rolls back on any error.
type Store struct {
	tm        *database.TransactionManager
	batchSize int
}

// NewStore creates a new catalog store
func NewStore(db *gorm.DB, batchSize int) *Store {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Store{
		tm:        database.NewTransactionManager(db),
		batchSize: batchSize,
	}
}

// AllPaths returns a snapshot of every persisted path.
func (s *Store) AllPaths(ctx context.Context) (types.PathSet, error) {
	var paths []string
	err := s.tm.WithTransaction(ctx, func(tx *gorm.DB) error {
		return tx.Model(&database.Video{}).Pluck("path", &paths).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog paths: %w", err)
	}
	return types.NewPathSet(paths...), nil
}

// InsertMany creates all videos or none. Callers guarantee the paths are
// not yet catalogued; a uniqueness violation fails the whole batch.
func (s *Store) InsertMany(ctx context.Context, videos []database.Video) error {
	if len(videos) == 0 {
		return nil
	}

	err := s.tm.WithTransaction(ctx, func(tx *gorm.DB) error {
		return s.insert(tx, videos)
	})
	if err != nil {
		return &CatalogWriteError{Op: "insert", Count: len(videos), Err: err}
	}
	return nil
}

// DeleteByPaths removes every video whose path is in paths and returns the
// number of rows removed.
func (s *Store) DeleteByPaths(ctx context.Context, paths types.PathSet) (int64, error) {
	if paths.Len() == 0 {
		return 0, nil
	}

	var removed int64
	err := s.tm.WithTransaction(ctx, func(tx *gorm.DB) error {
		n, err := deleteByPaths(tx, paths)
		removed = n
		return err
	})
	if err != nil {
		return 0, &CatalogWriteError{Op: "delete", Count: paths.Len(), Err: err}
	}
	return removed, nil
}

// Apply inserts add and deletes remove inside a single transaction.
func (s *Store) Apply(ctx context.Context, add []database.Video, remove types.PathSet) (int64, error) {
	if len(add) == 0 && remove.Len() == 0 {
		return 0, nil
	}

	var removed int64
	err := s.tm.WithTransaction(ctx, func(tx *gorm.DB) error {
		if len(add) > 0 {
			if err := s.insert(tx, add); err != nil {
				return err
			}
		}
		n, err := deleteByPaths(tx, remove)
		removed = n
		return err
	})
	if err != nil {
		return 0, &CatalogWriteError{Op: "apply", Count: len(add) + remove.Len(), Err: err}
	}
	return removed, nil
}

func (s *Store) insert(tx *gorm.DB, videos []database.Video) error {
	return tx.CreateInBatches(&videos, s.batchSize).Error
}

func deleteByPaths(tx *gorm.DB, paths types.PathSet) (int64, error) {
	sorted := paths.Sorted()

	var removed int64
	for start := 0; start < len(sorted); start += deleteChunkSize {
		end := start + deleteChunkSize
		if end > len(sorted) {
			end = len(sorted)
		}

		result := tx.Where("path IN ?", sorted[start:end]).Delete(&database.Video{})
		if result.Error != nil {
			return removed, result.Error
		}
		removed += result.RowsAffected
	}
	return removed, nil
}
