package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/tasklane/tasklane-core/internal/infrastructure/logging"
)

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token  string
	User   *User
	Claims *Claims
	// Replaced is true when an older session was revoked by this login.
	Replaced bool
}

// Service ties credentials, tokens and sessions together.
type Service struct {
	credentials *CredentialStore
	tokens      *TokenIssuer
	sessions    SessionRepository
	resolver    *Resolver
	logger      *logging.Logger
}

// NewService wires the auth components around the given repositories.
func NewService(tokens *TokenIssuer, users UserRepository, sessions SessionRepository, logger *logging.Logger) *Service {
	logger = logger.With("component", "auth")
	return &Service{
		credentials: NewCredentialStore(users, logger),
		tokens:      tokens,
		sessions:    sessions,
		resolver:    NewResolver(tokens, users, sessions),
		logger:      logger,
	}
}

// Login verifies credentials, issues a token and makes it the user's only
// session.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.credentials.Verify(ctx, email, password)
	if err != nil {
		return nil, err
	}

	token, claims, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, err
	}

	replaced, err := s.sessions.Replace(ctx, &Session{
		UserID:    user.ID,
		TokenHash: HashToken(token),
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	})
	if err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}

	return &LoginResult{Token: token, User: user, Claims: claims, Replaced: replaced}, nil
}

// Logout ends the user's session. Logging out twice is not an error.
func (s *Service) Logout(ctx context.Context, user *User) error {
	if _, err := s.sessions.DeleteByUserID(ctx, user.ID); err != nil {
		return fmt.Errorf("ending session: %w", err)
	}
	return nil
}

// Authenticate resolves a raw bearer token to its user. See Resolver.Resolve.
func (s *Service) Authenticate(ctx context.Context, raw string) (*User, error) {
	return s.resolver.Resolve(ctx, raw)
}

// PurgeExpired deletes sessions that expired before now.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.tokens.now())
}

// RunSessionCleanup purges expired sessions every interval until ctx is
// cancelled. onPurge, when set, receives the number of rows removed.
func (s *Service) RunSessionCleanup(ctx context.Context, interval time.Duration, onPurge func(n int64)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				s.logger.Warn("expired session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Info("expired sessions removed", "count", n)
				if onPurge != nil {
					onPurge(n)
				}
			}
		}
	}
}
