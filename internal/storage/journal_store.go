// ABOUTME: Interface definition for journal entry storage.
// ABOUTME: Defines the record store contract and the StorageError failure type.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/2389-research/memento/internal/models"
)

// ErrNotFound is wrapped by StorageError when an id has no stored entry.
var ErrNotFound = errors.New("entry not found")

// RecordStore is the persistence contract the search pipeline relies on.
type RecordStore interface {
	// Insert persists a new entry and returns its freshly assigned id.
	// The entry's ID must be zero; on success it is set to the new id.
	Insert(ctx context.Context, entry *models.Entry) (int64, error)

	// ListAll returns every stored entry in no particular order.
	ListAll(ctx context.Context) ([]*models.Entry, error)

	// Upsert replaces the stored entry with the same id. Creation time and
	// kind of the stored row are never changed.
	Upsert(ctx context.Context, entry *models.Entry) error

	// Close releases any resources held by the store.
	Close() error
}

// StorageError reports a failed persistent-store operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
