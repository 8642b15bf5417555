package migration

import (
	"errors"
	"fmt"
)

// Migration-specific error types for different failure scenarios
var (
	// ErrMigrationFailed indicates that a step callback returned an error
	ErrMigrationFailed = errors.New("migration step failed")

	// ErrInvalidVersion indicates a version number that cannot be used
	ErrInvalidVersion = errors.New("invalid migration version")

	// ErrInvalidDirection indicates Upgrade or Downgrade was called with
	// versions that do not match its direction
	ErrInvalidDirection = errors.New("invalid migration direction")

	// ErrMissingCallback indicates a step without a callback for the
	// direction being walked
	ErrMissingCallback = errors.New("migration step has no callback")

	// ErrHistoryWrite indicates that a history record could not be persisted
	ErrHistoryWrite = errors.New("migration history write failed")
)

// StepError wraps a failure raised while running one step.
type StepError struct {
	Version   int       // Version of the failing step
	Direction Direction // Direction the step was walked in
	Err       error     // Underlying error
}

// Error implements the error interface
func (e *StepError) Error() string {
	return fmt.Sprintf("migration step %d (%s): %v", e.Version, e.Direction, e.Err)
}

// Unwrap returns the underlying error for error unwrapping
func (e *StepError) Unwrap() error {
	return e.Err
}

// Is reports ErrMigrationFailed for every step failure, in addition to
// whatever the wrapped error matches.
func (e *StepError) Is(target error) bool {
	return target == ErrMigrationFailed
}

// NewStepError creates a new StepError
func NewStepError(version int, direction Direction, err error) *StepError {
	return &StepError{
		Version:   version,
		Direction: direction,
		Err:       err,
	}
}

// DatabaseError wraps database-related errors during migration operations
type DatabaseError struct {
	Version   int    // Version being recorded or applied (0 when not applicable)
	Query     string // SQL query that failed (if applicable)
	Operation string // Database operation (execute, query, etc.)
	Err       error  // Underlying error
}

// Error implements the error interface
func (e *DatabaseError) Error() string {
	if e.Version != 0 {
		return fmt.Sprintf("database error at version %d during %s: %v", e.Version, e.Operation, e.Err)
	}
	return fmt.Sprintf("database error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error
func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// NewDatabaseError creates a new DatabaseError
func NewDatabaseError(version int, query, operation string, err error) *DatabaseError {
	return &DatabaseError{
		Version:   version,
		Query:     query,
		Operation: operation,
		Err:       err,
	}
}

// ErrorKind maps migration errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrMissingCallback):
		return "missing_callback"
	case errors.Is(err, ErrHistoryWrite):
		return "history_write"
	case errors.Is(err, ErrInvalidVersion):
		return "invalid_version"
	case errors.Is(err, ErrInvalidDirection):
		return "invalid_direction"
	}

	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		return "database"
	}
	if errors.Is(err, ErrMigrationFailed) {
		return "step_failed"
	}
	return "unknown"
}
