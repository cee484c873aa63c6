package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrArtifactMissing    = errors.New("photo artifact missing from storage")
	ErrJobNotRetryable    = errors.New("job is not awaiting manual retry")
	ErrJobAlreadyRunning  = errors.New("job attempt already in flight")
	ErrRateLimited        = errors.New("too many capture requests")
)
