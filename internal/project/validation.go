package project

import (
	"fmt"
	"strings"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 2000
)

// Validate validates a Project before persistence.
func Validate(p *Project) error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}

	desc := strings.TrimSpace(p.Description)
	if desc == "" {
		return fmt.Errorf("%w: description cannot be empty", ErrInvalidDescription)
	}
	if len(desc) > maxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidDescription, maxDescriptionLength)
	}
	return nil
}
