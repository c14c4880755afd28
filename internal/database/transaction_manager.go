package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mantonx/vidindex/internal/logger"
	"gorm.io/gorm"
)

// TransactionManager hands out scoped transactions on a database.
type TransactionManager struct {
	db *gorm.DB
}

// transaction tracks one open transaction until it is committed or rolled
// back.
type transaction struct {
	tx      *gorm.DB
	started time.Time
	id      string
}

// NewTransactionManager creates a new transaction manager
func NewTransactionManager(db *gorm.DB) *TransactionManager {
	return &TransactionManager{db: db}
}

// DB returns the non-transactional handle.
func (tm *TransactionManager) DB() *gorm.DB {
	return tm.db
}

func (tm *TransactionManager) begin(ctx context.Context) (*transaction, error) {
	tx := tm.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	t := &transaction{
		tx:      tx,
		started: time.Now(),
		id:      "tx_" + uuid.NewString(),
	}

	logger.Debug("Started transaction", "tx", t.id)
	return t, nil
}

func (t *transaction) commit() error {
	if t.tx == nil {
		return fmt.Errorf("transaction %s is no longer active", t.id)
	}

	err := t.tx.Commit().Error
	t.tx = nil
	if err != nil {
		logger.Error("Failed to commit transaction", "tx", t.id, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug("Committed transaction", "tx", t.id, "duration", time.Since(t.started))
	return nil
}

func (t *transaction) rollback() error {
	if t.tx == nil {
		return fmt.Errorf("transaction %s is no longer active", t.id)
	}

	err := t.tx.Rollback().Error
	t.tx = nil
	if err != nil {
		logger.Error("Failed to rollback transaction", "tx", t.id, "error", err)
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	logger.Debug("Rolled back transaction", "tx", t.id, "duration", time.Since(t.started))
	return nil
}

func (t *transaction) active() bool {
	return t.tx != nil
}

// WithTransaction runs fn inside a transaction. The transaction is committed
// when fn returns nil and rolled back when fn returns an error or panics.
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	t, err := tm.begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			if t.active() {
				t.rollback()
			}
			panic(r)
		}
		if t.active() {
			t.rollback()
		}
	}()

	if err := fn(t.tx); err != nil {
		if rollbackErr := t.rollback(); rollbackErr != nil {
			logger.Error("Failed to rollback transaction after error", "tx", t.id, "error", rollbackErr)
		}
		return err
	}

	return t.commit()
}
