package project

import "errors"

var (
	// ErrProjectNotFound is returned when a project ID or name does not exist.
	ErrProjectNotFound = errors.New("project not found")

	// ErrInvalidName is returned when a project name is empty or too long.
	ErrInvalidName = errors.New("invalid project name")

	// ErrInvalidDescription is returned when a description is empty or too long.
	ErrInvalidDescription = errors.New("invalid project description")
)
