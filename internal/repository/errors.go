package repository

import (
	"errors"
	"fmt"
)

// Ledger store error conditions. Callers match them with errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrAccountNotFound      = fmt.Errorf("account %w", ErrNotFound)
	ErrUniqueViolation      = errors.New("unique constraint violation")
	ErrAccountAlreadyExists = fmt.Errorf("account already exists: %w", ErrUniqueViolation)
	ErrReferentialIntegrity = errors.New("referential integrity violation")
)

// StorageError wraps a driver or connectivity failure. It is fatal to the
// operation that produced it and is never retried.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during '%s': %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func newStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsUniqueViolation(err error) bool {
	return errors.Is(err, ErrUniqueViolation)
}

func IsReferentialIntegrity(err error) bool {
	return errors.Is(err, ErrReferentialIntegrity)
}

func IsStorageFailure(err error) bool {
	var storageErr *StorageError
	return errors.As(err, &storageErr)
}
