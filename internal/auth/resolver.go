package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
)

// Resolver maps a presented token to the current user record.
type Resolver struct {
	tokens   *TokenIssuer
	users    UserRepository
	sessions SessionRepository
}

// NewResolver creates a Resolver.
func NewResolver(tokens *TokenIssuer, users UserRepository, sessions SessionRepository) *Resolver {
	return &Resolver{tokens: tokens, users: users, sessions: sessions}
}

// Resolve validates raw and returns the user it belongs to.
//
// Errors:
//   - ErrTokenInvalid: bad signature, algorithm, claims or expired
//   - ErrTokenMismatch: the user is gone, has no session, or the session
//     belongs to a different token (a later login or a logout)
//   - anything else: store failure
func (r *Resolver) Resolve(ctx context.Context, raw string) (*User, error) {
	claims, err := r.tokens.Validate(raw)
	if err != nil {
		return nil, err
	}

	user, err := r.users.GetByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrTokenMismatch
		}
		return nil, fmt.Errorf("resolving user: %w", err)
	}

	session, err := r.sessions.GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrTokenMismatch
		}
		return nil, fmt.Errorf("resolving session: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(session.TokenHash), []byte(HashToken(raw))) != 1 {
		return nil, ErrTokenMismatch
	}
	return user, nil
}
