package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tasklane/tasklane-core/internal/infrastructure/logging"
)

// CredentialStore verifies email/password pairs.
type CredentialStore struct {
	users  UserRepository
	logger *logging.Logger
}

// NewCredentialStore creates a CredentialStore backed by users.
func NewCredentialStore(users UserRepository, logger *logging.Logger) *CredentialStore {
	return &CredentialStore{users: users, logger: logger}
}

// Verify returns the user whose email and password match. Unknown email and
// wrong password both yield exactly ErrInvalidCredentials, and both cost one
// password hash verification.
//
// A legacy or outdated hash is replaced after a successful match. Failing
// to store the new hash is logged and does not fail the login.
func (c *CredentialStore) Verify(ctx context.Context, email, password string) (*User, error) {
	user, err := c.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			verifyDummy(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		// A corrupt stored hash is an operator problem, not a caller one.
		c.logger.Error("stored password hash unreadable", "user_id", user.ID, "error", err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if NeedsRehash(user.PasswordHash) {
		c.rehash(ctx, user, password)
	}
	return user, nil
}

func (c *CredentialStore) rehash(ctx context.Context, user *User, password string) {
	hash, err := HashPassword(password)
	if err != nil {
		c.logger.Warn("password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	if err := c.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		c.logger.Warn("storing rehashed password failed", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = hash
	c.logger.Info("password hash upgraded to argon2id", "user_id", user.ID)
}
