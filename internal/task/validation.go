package task

import (
	"fmt"
	"strings"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 5000
)

// Validate validates a Task before persistence. A zero status is rejected;
// callers that want the default set StatusToDo explicitly.
func Validate(t *Task) error {
	title := strings.TrimSpace(t.Title)
	if title == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidTask)
	}
	if len(title) > maxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidTask, maxTitleLength)
	}
	desc := strings.TrimSpace(t.Description)
	if desc == "" {
		return fmt.Errorf("%w: description cannot be empty", ErrInvalidTask)
	}
	if len(desc) > maxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidTask, maxDescriptionLength)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStatus, int(t.Status))
	}
	if t.AssignedTo == "" {
		return fmt.Errorf("%w: assignee is required", ErrInvalidTask)
	}
	if t.ProjectID == "" {
		return fmt.Errorf("%w: project is required", ErrInvalidTask)
	}
	return nil
}
