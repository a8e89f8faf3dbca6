package company

import "errors"

var (
	// ErrCompanyNotFound is returned when a company ID does not exist.
	ErrCompanyNotFound = errors.New("company not found")

	// ErrInvalidName is returned when a company name is empty or too long.
	ErrInvalidName = errors.New("invalid company name")

	// ErrInvalidDomain is returned when a domain is empty or malformed.
	ErrInvalidDomain = errors.New("invalid company domain")
)
