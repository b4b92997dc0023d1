// Package counterstore implements support for atomically incrementing and
// reading named counters held in a document store.
package counterstore

import (
	"context"

	"github.com/pkg/errors"
)

// CollectionName is the collection, table, kind or key prefix that holds the
// counter records in every backend.
const CollectionName = "visitorcounts"

var (
	// ErrStoreUnavailable is matched by every error caused by a failed store
	// round-trip.
	ErrStoreUnavailable = errors.New("counter store unavailable")

	// ErrInvalidName is returned when a counter name is empty.
	ErrInvalidName = errors.New("invalid counter name")
)

// Record is a single persisted counter.
type Record struct {
	Name  string
	Count int64
}

// Counter wraps the set of methods for incrementing and reading counters
// identified by name.
//
// Implementations delegate atomicity to the store, so two concurrent calls to
// IncrementAndGet for the same name always return two distinct consecutive
// values.
type Counter interface {
	// IncrementAndGet adds one to the named counter, creating it at zero first
	// if it does not exist, and returns the new value.
	IncrementAndGet(ctx context.Context, name string) (int64, error)
	// Get returns the current value of the named counter, or 0 if it does not
	// exist. It never creates a record.
	Get(ctx context.Context, name string) (int64, error)
	// Close releases the underlying store client.
	Close(ctx context.Context) error
}

type unavailableError struct {
	cause error
}

func (e *unavailableError) Error() string {
	return ErrStoreUnavailable.Error() + ": " + e.cause.Error()
}

func (e *unavailableError) Unwrap() error { return e.cause }

func (e *unavailableError) Is(target error) bool { return target == ErrStoreUnavailable }

// unavailable marks err as a failed store round-trip.
func unavailable(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &unavailableError{cause: errors.Wrapf(err, format, args...)}
}

// IsUnavailable reports whether err was caused by a failed store round-trip.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

func validName(name string) error {
	if len(name) == 0 {
		return ErrInvalidName
	}
	return nil
}
