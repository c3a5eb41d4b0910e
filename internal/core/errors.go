package core

import "errors"

var (
	// ErrNotFound covers both absent records and records owned by another
	// user: cross-user access must be indistinguishable from absence.
	ErrNotFound = errors.New("record not found")

	// ErrConflict signals that a write transaction could not be applied
	// because of a concurrent writer. The mutation was fully rolled back
	// and may be retried.
	ErrConflict = errors.New("concurrent write conflict")

	ErrUnauthenticated = errors.New("not authenticated")
	ErrDuplicateUser   = errors.New("email or username already registered")

	ErrEmptyTitle        = errors.New("empty title")
	ErrTitleTooLong      = errors.New("title too long (max 200 characters)")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidRecurrence = errors.New("invalid recurrence type")
	ErrInvalidPercentage = errors.New("percentage must be between 0 and 100")
	ErrInvalidPeriod     = errors.New("invalid year/month")
)
