package store

import "errors"

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
	// ErrConflict is a transient optimistic-concurrency failure. RunAtomic
	// retries it and only returns it once attempts are exhausted.
	ErrConflict       = errors.New("transaction conflict")
	ErrReadAfterWrite = errors.New("read after write in transaction")
	ErrInvalidQuery   = errors.New("invalid query")
)
