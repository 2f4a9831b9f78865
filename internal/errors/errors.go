package errors

import (
	"errors"
	"fmt"
)

// Storage errors shared by the flow state and token stores
var (
	ErrNotFound     = errors.New("not found")
	ErrEmptyKey     = errors.New("key cannot be empty")
	ErrNilValue     = errors.New("value cannot be nil")
	ErrUnknownStore = errors.New("unknown store driver")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
