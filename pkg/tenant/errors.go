package tenant

import "errors"

var (
	// ErrNoIdentity is returned when no resolved identity is present in
	// the request context.
	ErrNoIdentity = errors.New("no identity in context")

	// ErrResolveFailed is returned when the upstream authentication
	// collaborator could not produce an identity for the request.
	ErrResolveFailed = errors.New("failed to resolve identity")
)
