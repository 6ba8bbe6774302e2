// Package kv provides the string key-value persistence the settings catalog
// is written to. Every backend enforces a total size quota the way browser
// local storage does.
package kv

import (
	"errors"
	"fmt"
	"path/filepath"
)

var (
	ErrQuotaExceeded = errors.New("kv: quota exceeded")
	ErrUnknown       = errors.New("kv: unknown backend")
)

// Store is a synchronous string key-value store.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)
	// Set writes value under key, failing with ErrQuotaExceeded when the
	// store would grow past its quota. A failed Set leaves the old value.
	Set(key, value string) error
}

// QuotaError reports how far a write overshot the quota.
type QuotaError struct {
	Key   string
	Need  int
	Quota int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("kv: writing %q needs %d bytes, quota is %d", e.Key, e.Need, e.Quota)
}

func (e *QuotaError) Is(target error) bool { return target == ErrQuotaExceeded }

func entrySize(key, value string) int { return len(key) + len(value) }

func checkQuota(key string, need, quota int) error {
	if quota > 0 && need > quota {
		return &QuotaError{Key: key, Need: need, Quota: quota}
	}
	return nil
}

// Open returns the backend by name, rooted at dir. Quota <= 0 disables the
// size limit.
func Open(backend, dir string, quota int) (Store, error) {
	switch backend {
	case "memory", "":
		return NewMemory(quota), nil
	case "file":
		return NewFile(filepath.Join(dir, "kv"), quota)
	case "sqlite":
		return OpenSQLite(filepath.Join(dir, "settings.sqlite"), quota)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknown, backend)
}
