package project

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

// Repository defines the interface for project persistence operations.
type Repository interface {
	Create(ctx context.Context, p *Project) error
	GetByID(ctx context.Context, id string) (*Project, error)
	// GetByName returns the oldest project with this exact name.
	GetByName(ctx context.Context, name string) (*Project, error)
	List(ctx context.Context, limit, offset int) ([]Project, int, error)
	ListByCreator(ctx context.Context, userID string) ([]Project, error)
	Update(ctx context.Context, p *Project) error
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *database.DB
}

// NewSQLiteRepository creates a new SQLite-backed project repository.
func NewSQLiteRepository(db *database.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const columns = "id, name, description, created_by, company_id, created_at, updated_at"

// Create inserts a new project. The ID is generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, p *Project) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	if err := Validate(p); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = "prj-" + uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Second)
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.CreatedBy, nullString(p.CompanyID),
		database.Timestamp(now), database.Timestamp(now),
	)
	if err != nil {
		return fmt.Errorf("inserting project %s: %w", p.ID, err)
	}
	return nil
}

// GetByID returns a single project by ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Project, error) {
	return scanProject(r.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM projects WHERE id = ?`, id))
}

// GetByName implements Repository.
func (r *SQLiteRepository) GetByName(ctx context.Context, name string) (*Project, error) {
	return scanProject(r.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM projects WHERE name = ? ORDER BY created_at, id LIMIT 1`, name))
}

// List returns one page of projects, oldest first, and the total count.
func (r *SQLiteRepository) List(ctx context.Context, limit, offset int) ([]Project, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting projects: %w", err)
	}

	projects, err := r.query(ctx,
		`SELECT `+columns+` FROM projects ORDER BY created_at, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// ListByCreator returns every project created by userID.
func (r *SQLiteRepository) ListByCreator(ctx context.Context, userID string) ([]Project, error) {
	return r.query(ctx,
		`SELECT `+columns+` FROM projects WHERE created_by = ? ORDER BY created_at, id`, userID)
}

// Update writes name and description.
func (r *SQLiteRepository) Update(ctx context.Context, p *Project) error {
	if err := Validate(p); err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Second)

	result, err := r.db.ExecContext(ctx,
		`UPDATE projects SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.Description, database.Timestamp(now), p.ID)
	if err != nil {
		return fmt.Errorf("updating project %s: %w", p.ID, err)
	}
	if err := requireRow(result); err != nil {
		return err
	}
	p.UpdatedAt = now
	return nil
}

// Delete removes a project. Its tasks are kept.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	return requireRow(result)
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	projects := []Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (*Project, error) {
	var p Project
	var companyID sql.NullString
	var createdAt, updatedAt string
	err := s.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedBy, &companyID, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("scanning project: %w", err)
	}
	p.CompanyID = companyID.String
	p.CreatedAt, _ = database.ParseTimestamp(createdAt) //nolint:errcheck // format is controlled
	p.UpdatedAt, _ = database.ParseTimestamp(updatedAt) //nolint:errcheck // format is controlled
	return &p, nil
}

func requireRow(result sql.Result) error {
	n, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if n == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
