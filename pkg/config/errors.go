package config

import "errors"

var (
	// ErrNilPointer is returned when Load receives a nil target.
	ErrNilPointer = errors.New("config target must be a non-nil pointer")

	// ErrParsingConfig is returned when environment parsing fails,
	// e.g. a required variable is missing or a value does not convert.
	ErrParsingConfig = errors.New("failed to parse config from environment")

	// ErrLoadingEnvFile is returned when an explicitly named dotenv
	// file cannot be loaded.
	ErrLoadingEnvFile = errors.New("failed to load env file")
)
