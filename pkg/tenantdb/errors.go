package tenantdb

import "errors"

var (
	// ErrUnknownEntity is returned for operations on entities that are
	// not registered. Unregistered entities fail closed rather than pass
	// through unscoped.
	ErrUnknownEntity = errors.New("entity not registered")

	// ErrUnknownScope is returned when a registered entity carries a
	// scope mode the dispatcher does not recognize.
	ErrUnknownScope = errors.New("unrecognized scope mode")

	// ErrInvalidIdentifier is returned when an entity, column or order
	// name does not satisfy the identifier grammar and therefore cannot
	// be placed into a statement.
	ErrInvalidIdentifier = errors.New("invalid sql identifier")

	// ErrUnsupportedFilter is returned for filter operators the store
	// does not implement. Unknown operators fail closed.
	ErrUnsupportedFilter = errors.New("unsupported filter expression")

	// ErrInvalidAggregation is returned for malformed aggregation specs.
	ErrInvalidAggregation = errors.New("invalid aggregation")

	// ErrNotFound is returned when find-one, find-first, update or
	// delete matched no row.
	ErrNotFound = errors.New("record not found")

	// ErrMultipleRows is returned when a singular operation (find-one,
	// update, delete) matched more than one row.
	ErrMultipleRows = errors.New("filter matched multiple records")

	// ErrDuplicateEntity is returned when an entity name is registered twice.
	ErrDuplicateEntity = errors.New("entity already registered")
)
