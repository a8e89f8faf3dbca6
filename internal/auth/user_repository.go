package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tasklane/tasklane-core/internal/infrastructure/database"
)

// UserRepository persists user accounts. Email lookups are case-insensitive.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUserName(ctx context.Context, userName string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]User, int, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetCompany(ctx context.Context, id, companyID string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// SQLiteUserRepository implements UserRepository using SQLite.
type SQLiteUserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new SQLite-backed user repository.
func NewUserRepository(db *database.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

const userColumns = "id, user_name, email, password_hash, role, company_id, created_at, updated_at"

// Create inserts a new user. The ID is generated if empty.
func (r *SQLiteUserRepository) Create(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = "usr-" + uuid.NewString()
	}
	if !user.Role.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidRole, int(user.Role))
	}

	now := time.Now().UTC().Truncate(time.Second)
	user.CreatedAt, user.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.UserName, user.Email, user.PasswordHash, int(user.Role),
		nullString(user.CompanyID), database.Timestamp(now), database.Timestamp(now),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *SQLiteUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetByEmail retrieves a user by email, ignoring case.
func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email))
}

// GetByUserName retrieves the oldest user with the given display name.
// User names are not unique; task assignment resolves them this way.
func (r *SQLiteUserRepository) GetByUserName(ctx context.Context, userName string) (*User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_name = ? ORDER BY created_at, id LIMIT 1`, userName))
}

// List returns one page of users, oldest first, and the total count.
func (r *SQLiteUserRepository) List(ctx context.Context, limit, offset int) ([]User, int, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating users: %w", err)
	}
	return users, total, nil
}

// Update writes user_name, email and role. company_id is never changed here.
func (r *SQLiteUserRepository) Update(ctx context.Context, user *User) error {
	if !user.Role.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidRole, int(user.Role))
	}
	now := time.Now().UTC().Truncate(time.Second)

	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET user_name = ?, email = ?, role = ?, updated_at = ? WHERE id = ?`,
		user.UserName, user.Email, int(user.Role), database.Timestamp(now), user.ID,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("updating user: %w", err)
	}
	if err := requireRow(result); err != nil {
		return err
	}
	user.UpdatedAt = now
	return nil
}

// UpdatePassword replaces a user's password hash.
func (r *SQLiteUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, database.Timestamp(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	return requireRow(result)
}

// SetCompany assigns the user to a company.
func (r *SQLiteUserRepository) SetCompany(ctx context.Context, id, companyID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET company_id = ?, updated_at = ? WHERE id = ?`,
		nullString(companyID), database.Timestamp(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("setting user company: %w", err)
	}
	return requireRow(result)
}

// Delete removes a user. Their session row goes with it (ON DELETE CASCADE);
// projects and tasks referencing the user are left untouched.
func (r *SQLiteUserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return requireRow(result)
}

// Count returns the total number of users.
func (r *SQLiteUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*User, error) {
	var u User
	var role int
	var companyID sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(&u.ID, &u.UserName, &u.Email, &u.PasswordHash, &role,
		&companyID, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	u.Role = Role(role)
	u.CompanyID = companyID.String
	u.CreatedAt, _ = database.ParseTimestamp(createdAt) //nolint:errcheck // format is controlled
	u.UpdatedAt, _ = database.ParseTimestamp(updatedAt) //nolint:errcheck // format is controlled
	return &u, nil
}

func requireRow(result sql.Result) error {
	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
