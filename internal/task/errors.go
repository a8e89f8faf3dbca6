package task

import "errors"

var (
	// ErrTaskNotFound is returned when a task ID does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidStatus is returned for a status outside 1..3.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidTask is returned when required fields are missing.
	ErrInvalidTask = errors.New("invalid task")
)
