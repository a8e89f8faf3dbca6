package task

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status is the task's progress. Values are stored and serialised as numbers.
type Status int

const (
	StatusToDo       Status = 1
	StatusInProgress Status = 2
	StatusDone       Status = 3
)

// Valid reports whether s is one of the three defined statuses.
func (s Status) Valid() bool {
	return s >= StatusToDo && s <= StatusDone
}

func (s Status) String() string {
	switch s {
	case StatusToDo:
		return "todo"
	case StatusInProgress:
		return "in_progress"
	case StatusDone:
		return "done"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ParseStatus parses the decimal form ("1", "2", "3") used in query strings.
func ParseStatus(s string) (Status, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !Status(n).Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return Status(n), nil
}

// Task is a unit of work. AssignedTo and ProjectID are plain references.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	AssignedTo  string    `json:"assignedTo"`
	ProjectID   string    `json:"projectId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AssigneeID returns the assigned user's ID.
func (t *Task) AssigneeID() string {
	return t.AssignedTo
}

// Changes is a partial update. Zero fields leave the task unchanged.
type Changes struct {
	Title       string
	Description string
	Status      Status
	AssignedTo  string
	ProjectID   string
}

// Apply copies the non-zero fields of ch onto t.
func (t *Task) Apply(ch Changes) {
	if s := strings.TrimSpace(ch.Title); s != "" {
		t.Title = s
	}
	if s := strings.TrimSpace(ch.Description); s != "" {
		t.Description = s
	}
	if ch.Status != 0 {
		t.Status = ch.Status
	}
	if ch.AssignedTo != "" {
		t.AssignedTo = ch.AssignedTo
	}
	if ch.ProjectID != "" {
		t.ProjectID = ch.ProjectID
	}
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Status     Status
	AssignedTo string
	Limit      int
	Offset     int
}
