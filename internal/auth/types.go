package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Role is a user's authorisation tier. The numeric values are stored in the
// users table and returned in JSON.
type Role int

const (
	RoleAdmin   Role = 1
	RoleManager Role = 2
	RoleMember  Role = 3
)

var roleNames = map[Role]string{
	RoleAdmin:   "admin",
	RoleManager: "manager",
	RoleMember:  "member",
}

// ParseRole maps a role name (case-insensitive) to a Role. It is the only
// place role strings are interpreted.
func ParseRole(s string) (Role, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for role, n := range roleNames {
		if n == name {
			return role, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// Valid reports whether r is one of the three defined roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) String() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// User is an account. CompanyID is empty for users outside any company.
type User struct {
	ID           string    `json:"id"`
	UserName     string    `json:"userName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialised
	Role         Role      `json:"role"`
	CompanyID    string    `json:"companyId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Session is the single live login of a user.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	TokenHash string    `json:"-"` // never serialised
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenMismatch      = errors.New("unauthorized user or token mismatch")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidRole        = errors.New("invalid role")
	ErrSessionNotFound    = errors.New("session not found")
)
