package rls

import "errors"

var (
	// ErrSetContextFailed means the trust anchor could not be written to
	// the session. The unit of work must not issue scoped queries on the
	// affected connection.
	ErrSetContextFailed = errors.New("failed to set tenant context on session")

	// ErrReadContextFailed means the session variables could not be read
	// back, e.g. because the connection does not support them.
	ErrReadContextFailed = errors.New("failed to read tenant context from session")

	// ErrAcquireFailed means a connection could not be checked out of the pool.
	ErrAcquireFailed = errors.New("failed to acquire connection from pool")
)
