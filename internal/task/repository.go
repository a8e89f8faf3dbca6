package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tasklane/tasklane-core/internal/infrastructure/database"
)

// Repository defines the interface for task persistence operations.
type Repository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, id string) (*Task, error)
	// List returns one page of matching tasks, newest first, and the total
	// number of matches.
	List(ctx context.Context, filter Filter) ([]Task, int, error)
	ListByAssignee(ctx context.Context, userID string) ([]Task, error)
	Update(ctx context.Context, t *Task) error
	UpdateStatus(ctx context.Context, id string, status Status) (*Task, error)
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *database.DB
}

// NewSQLiteRepository creates a new SQLite-backed task repository.
func NewSQLiteRepository(db *database.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const columns = "id, title, description, status, assigned_to, project_id, created_at, updated_at"

// Create inserts a new task. The ID is generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, t *Task) error {
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)
	if err := Validate(t); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = "tsk-" + uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Second)
	t.CreatedAt, t.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, int(t.Status), t.AssignedTo, t.ProjectID,
		database.Timestamp(now), database.Timestamp(now),
	)
	if err != nil {
		return fmt.Errorf("inserting task %s: %w", t.ID, err)
	}
	return nil
}

// GetByID returns a single task by ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Task, error) {
	return scanTask(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM tasks WHERE id = ?`, id))
}

// List implements Repository.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) ([]Task, int, error) {
	var conditions []string
	var args []any

	if filter.Status != 0 {
		conditions = append(conditions, "status = ?")
		args = append(args, int(filter.Status))
	}
	if filter.AssignedTo != "" {
		conditions = append(conditions, "assigned_to = ?")
		args = append(args, filter.AssignedTo)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks"+where, args...).Scan(&total); err != nil { //nolint:gosec // WHERE built from parameterised conditions
		return nil, 0, fmt.Errorf("counting tasks: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	tasks, err := r.query(ctx,
		`SELECT `+columns+` FROM tasks`+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// ListByAssignee returns every task assigned to userID.
func (r *SQLiteRepository) ListByAssignee(ctx context.Context, userID string) ([]Task, error) {
	return r.query(ctx,
		`SELECT `+columns+` FROM tasks WHERE assigned_to = ? ORDER BY created_at DESC, id DESC`, userID)
}

// Update writes every mutable field.
func (r *SQLiteRepository) Update(ctx context.Context, t *Task) error {
	if err := Validate(t); err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Second)

	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, status = ?, assigned_to = ?, project_id = ?, updated_at = ?
		 WHERE id = ?`,
		t.Title, t.Description, int(t.Status), t.AssignedTo, t.ProjectID, database.Timestamp(now), t.ID)
	if err != nil {
		return fmt.Errorf("updating task %s: %w", t.ID, err)
	}
	if err := requireRow(result); err != nil {
		return err
	}
	t.UpdatedAt = now
	return nil
}

// UpdateStatus sets the status of a task and returns the updated task.
func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Task, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, int(status))
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		int(status), database.Timestamp(time.Now()), id)
	if err != nil {
		return nil, fmt.Errorf("updating task status %s: %w", id, err)
	}
	if err := requireRow(result); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a task.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	return requireRow(result)
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*Task, error) {
	var t Task
	var status int
	var createdAt, updatedAt string
	err := s.Scan(&t.ID, &t.Title, &t.Description, &status, &t.AssignedTo, &t.ProjectID, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}
	t.Status = Status(status)
	t.CreatedAt, _ = database.ParseTimestamp(createdAt) //nolint:errcheck // format is controlled
	t.UpdatedAt, _ = database.ParseTimestamp(updatedAt) //nolint:errcheck // format is controlled
	return &t, nil
}

func requireRow(result sql.Result) error {
	n, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}
