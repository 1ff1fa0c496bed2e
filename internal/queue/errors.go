package queue

import "errors"

var (
	// ErrDuplicateJob is returned when a source file is already queued.
	ErrDuplicateJob = errors.New("job already queued for source")
	// ErrInvalidTransition is returned when a job is not in the status an update requires.
	ErrInvalidTransition = errors.New("invalid job status transition")
	// ErrJobNotFound is returned when no job has the requested id.
	ErrJobNotFound = errors.New("job not found")
)
