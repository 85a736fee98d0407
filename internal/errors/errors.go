package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/hard75/internal/logger"
)

var (
	// ErrStorageFault marks failures of the underlying storage engine
	// (open, schema init, transaction, disk). These are fatal to the
	// operation and must be propagated.
	ErrStorageFault = errors.New("storage fault")
	// ErrNotFound is returned when an operation references a day, task,
	// todo or subtask that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInconsistentDerivedState is returned when recomputing a day's
	// status fails after its task was written. Callers reconcile by
	// re-reading from the store.
	ErrInconsistentDerivedState = errors.New("inconsistent derived day status")
	// ErrOptimisticWriteFailure is reported when a background write behind
	// an optimistic cache update could not be persisted.
	ErrOptimisticWriteFailure = errors.New("optimistic write failed")

	ErrNoActiveChallenge = errors.New("no challenge in progress")
	ErrDayLocked         = errors.New("day is locked")
	ErrDayClosed         = errors.New("day is closed")
	ErrInvalidValue      = errors.New("invalid value")
	ErrInvalidDate       = errors.New("invalid date")
)

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// StorageFault wraps err as a storage fault, keeping the original error in the chain.
func StorageFault(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorageFault, err)
}

// NotFound builds a not-found error for the given entity kind and id.
func NotFound(kind string, id any) error {
	return fmt.Errorf("%s %v: %w", kind, id, ErrNotFound)
}

// Retryable reports whether a failed write may succeed if attempted again.
// Only storage faults qualify; rule violations and missing rows never will.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDayLocked) ||
		errors.Is(err, ErrDayClosed) || errors.Is(err, ErrInvalidValue) ||
		errors.Is(err, ErrNoActiveChallenge) {
		return false
	}
	return errors.Is(err, ErrStorageFault) || errors.Is(err, ErrInconsistentDerivedState)
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		_ = logger.Close()
		os.Exit(1)
	}
}
