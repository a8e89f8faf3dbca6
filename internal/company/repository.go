package company

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tasklane/tasklane-core/internal/infrastructure/database"
)

// Repository defines the interface for company persistence operations.
type Repository interface {
	Create(ctx context.Context, c *Company) error
	GetByID(ctx context.Context, id string) (*Company, error)
	// FindOrCreate returns the company with this (name, domain) pair,
	// creating it when absent. created reports which happened.
	FindOrCreate(ctx context.Context, name, domain string) (c *Company, created bool, err error)
	List(ctx context.Context) ([]Company, error)
	Update(ctx context.Context, c *Company) error
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *database.DB
}

// NewSQLiteRepository creates a new SQLite-backed company repository.
func NewSQLiteRepository(db *database.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const columns = "id, name, domain, created_at, updated_at"

// Create inserts a new company. The ID is generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, c *Company) error {
	Normalize(c)
	if err := Validate(c); err != nil {
		return err
	}
	return insert(ctx, r.db, c)
}

// execer is satisfied by *database.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insert(ctx context.Context, db execer, c *Company) error {
	if c.ID == "" {
		c.ID = "cmp-" + uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Second)
	c.CreatedAt, c.UpdatedAt = now, now

	_, err := db.ExecContext(ctx,
		`INSERT INTO companies (`+columns+`) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Domain, database.Timestamp(now), database.Timestamp(now),
	)
	if err != nil {
		return fmt.Errorf("inserting company %s: %w", c.ID, err)
	}
	return nil
}

// GetByID returns a single company by ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Company, error) {
	return scanCompany(r.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM companies WHERE id = ?`, id))
}

// FindOrCreate implements Repository. Lookup and insert share one
// transaction so two registrations for a new company create one row.
func (r *SQLiteRepository) FindOrCreate(ctx context.Context, name, domain string) (*Company, bool, error) {
	c := &Company{Name: name, Domain: domain}
	Normalize(c)
	if err := Validate(c); err != nil {
		return nil, false, err
	}

	var created bool
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		existing, err := scanCompany(tx.QueryRowContext(ctx,
			`SELECT `+columns+` FROM companies WHERE name = ? AND domain = ? ORDER BY created_at, id LIMIT 1`,
			c.Name, c.Domain))
		switch {
		case err == nil:
			*c = *existing
			return nil
		case !errors.Is(err, ErrCompanyNotFound):
			return err
		}
		created = true
		return insert(ctx, tx, c)
	})
	if err != nil {
		return nil, false, err
	}
	return c, created, nil
}

// List returns all companies, oldest first.
func (r *SQLiteRepository) List(ctx context.Context) ([]Company, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+columns+` FROM companies ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying companies: %w", err)
	}
	defer rows.Close()

	companies := []Company{}
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating companies: %w", err)
	}
	return companies, nil
}

// Update writes name and domain.
func (r *SQLiteRepository) Update(ctx context.Context, c *Company) error {
	Normalize(c)
	if err := Validate(c); err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Second)

	result, err := r.db.ExecContext(ctx,
		`UPDATE companies SET name = ?, domain = ?, updated_at = ? WHERE id = ?`,
		c.Name, c.Domain, database.Timestamp(now), c.ID)
	if err != nil {
		return fmt.Errorf("updating company %s: %w", c.ID, err)
	}
	if err := requireRow(result); err != nil {
		return err
	}
	c.UpdatedAt = now
	return nil
}

// Delete removes a company. Users and projects referencing it are kept.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM companies WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting company %s: %w", id, err)
	}
	return requireRow(result)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCompany(s scanner) (*Company, error) {
	var c Company
	var createdAt, updatedAt string
	if err := s.Scan(&c.ID, &c.Name, &c.Domain, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("scanning company: %w", err)
	}
	c.CreatedAt, _ = database.ParseTimestamp(createdAt) //nolint:errcheck // format is controlled
	c.UpdatedAt, _ = database.ParseTimestamp(updatedAt) //nolint:errcheck // format is controlled
	return &c, nil
}

func requireRow(result sql.Result) error {
	n, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if n == 0 {
		return ErrCompanyNotFound
	}
	return nil
}
