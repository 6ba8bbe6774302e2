package settings

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks bad user input such as an empty snapshot name.
	ErrValidation = errors.New("settings: invalid input")

	// ErrNotFound marks a snapshot name missing from the catalog.
	ErrNotFound = errors.New("settings: snapshot not found")

	// ErrStorageQuota marks a catalog write rejected for size. Usually a large
	// field was not excluded.
	ErrStorageQuota = errors.New("settings: storage quota exceeded")

	// ErrCorruptCatalog marks a stored catalog that is not a JSON object.
	ErrCorruptCatalog = errors.New("settings: stored catalog is corrupt")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("settings: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("settings: no snapshot named %q", e.Name)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

type StorageQuotaError struct {
	Name  string
	Size  int
	Cause error
}

func (e *StorageQuotaError) Error() string {
	return fmt.Sprintf("settings: saving %q (%d bytes) exceeds storage quota, the data might be too large (e.g. images)", e.Name, e.Size)
}

func (e *StorageQuotaError) Unwrap() error { return e.Cause }

func (e *StorageQuotaError) Is(target error) bool { return target == ErrStorageQuota }
