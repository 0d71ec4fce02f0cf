package history

import (
	"errors"
	"fmt"
)

var (
	// ErrPersistFailure indicates the history file could not be written.
	ErrPersistFailure = errors.New("history persist failure")
	// ErrHistoryCorrupt indicates the history file exists but cannot be decoded.
	ErrHistoryCorrupt = errors.New("history file corrupt")
)

// StoreError describes a failed history file operation.
type StoreError struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%v: %s %s: %v", e.Kind, e.Op, e.Path, e.Err)
}

func (e *StoreError) Is(target error) bool {
	return target == e.Kind
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
