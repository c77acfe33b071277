package db

import "errors"

// MaxLinkedJobs is how many jobs a single resume may target
const MaxLinkedJobs = 5

var (
	// ErrInvalidID is returned when an id is not a UUID
	ErrInvalidID = errors.New("invalid id")
	// ErrResumeNotFound is returned by writes to a resume that does not exist
	ErrResumeNotFound = errors.New("resume not found")
	// ErrJobNotFound is returned when linking a job that does not exist
	ErrJobNotFound = errors.New("job not found")
	// ErrJobLimitReached is returned when a resume already has MaxLinkedJobs jobs
	ErrJobLimitReached = errors.New("maximum number of linked jobs reached")
	// ErrJobAlreadyLinked is returned when the job is already linked to the resume
	ErrJobAlreadyLinked = errors.New("job already linked to resume")
)
