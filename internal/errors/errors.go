package errors

import (
	"errors"
	"fmt"
)

// Common error types for the gateway
var (
	// Authentication errors
	ErrReauthRequired = errors.New("re-authentication required")

	// ClickUp domain errors
	ErrNoClosedStatus = errors.New("closed status not found for this list")
	ErrNoOpenStatus   = errors.New("no open status found for this list")
	ErrListUnknown    = errors.New("unable to determine list for task")

	// Lookup errors
	ErrFileNotFound = errors.New("file not found in drive")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
