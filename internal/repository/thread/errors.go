// File: internal/repository/thread/errors.go
package thread

import (
	"errors"
	"fmt"
)

var (
	ErrThreadNotFound     = errors.New("thread not found")
	ErrInvalidMessage     = errors.New("invalid message")
	ErrStorageUnavailable = errors.New("thread storage unavailable")
)

// StorageError wraps a failure of the backing medium. It matches
// ErrStorageUnavailable under errors.Is.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("thread storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorageUnavailable }
