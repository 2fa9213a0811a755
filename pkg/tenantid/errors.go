package tenantid

import "errors"

// ErrInvalidID is returned when a string does not match the tenant
// identifier grammar. Callers must treat it as fatal for the current
// operation: no database statement may be built from the rejected value.
var ErrInvalidID = errors.New("invalid tenant identifier")
