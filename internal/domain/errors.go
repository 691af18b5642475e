package domain

import "fmt"

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// StorageError wraps an engine-level failure. Every store operation is
// idempotent or safely re-runnable, so callers may retry the whole
// operation.
type StorageError struct {
	Op  string
	Err error
}

func (e StorageError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("storage failure: %v", e.Err)
	}
	return fmt.Sprintf("storage failure in %s: %v", e.Op, e.Err)
}

func (e StorageError) Unwrap() error { return e.Err }

func (e StorageError) Is(target error) bool {
	_, ok := target.(StorageError)
	if ok {
		return true
	}
	_, ok = target.(*StorageError)
	return ok
}

// ErrStorage is the sentinel error for storage failures.
var ErrStorage = StorageError{}

// MalformedInputError marks a single bad input record. The record is
// skipped; the surrounding batch continues.
type MalformedInputError struct {
	Reason string
}

func (e MalformedInputError) Error() string {
	if e.Reason == "" {
		return "malformed input"
	}
	return fmt.Sprintf("malformed input: %s", e.Reason)
}

func (e MalformedInputError) Is(target error) bool {
	_, ok := target.(MalformedInputError)
	if ok {
		return true
	}
	_, ok = target.(*MalformedInputError)
	return ok
}

// ErrMalformedInput is the sentinel error for bad input records.
var ErrMalformedInput = MalformedInputError{}

// LimitExceededError rejects a page size above the configured ceiling
// when the unbounded opt-in is not set.
type LimitExceededError struct {
	Requested int
	Ceiling   int
}

func (e LimitExceededError) Error() string {
	return fmt.Sprintf("requested page size %d exceeds ceiling %d", e.Requested, e.Ceiling)
}

func (e LimitExceededError) Is(target error) bool {
	_, ok := target.(LimitExceededError)
	if ok {
		return true
	}
	_, ok = target.(*LimitExceededError)
	return ok
}

// ErrLimitExceeded is the sentinel error for oversized page requests.
var ErrLimitExceeded = LimitExceededError{}
