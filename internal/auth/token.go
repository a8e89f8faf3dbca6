package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the absolute session lifetime.
const DefaultTokenTTL = 24 * time.Hour

// MinSecretLength is the shortest accepted HMAC signing secret.
const MinSecretLength = 32

// TokenConfig is built once at startup. Request code never reads the secret
// from the environment.
type TokenConfig struct {
	Secret []byte
	// TTL defaults to DefaultTokenTTL.
	TTL time.Duration
	// Now defaults to time.Now. Tests inject a fixed clock.
	Now func() time.Time
}

// Claims is the token payload. Email is the only identity claim; role and
// company are always read from the store so changes apply immediately.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer validates cfg and fills in defaults.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("token secret must be at least %d bytes", MinSecretLength)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{secret: cfg.Secret, ttl: ttl, now: now}, nil
}

// Issue signs a token for email. Every token carries a random jti, so two
// tokens issued in the same second still differ.
func (t *TokenIssuer) Issue(email string) (string, *Claims, error) {
	if email == "" {
		return "", nil, errors.New("issuing token: empty email")
	}

	// NumericDate has second precision; truncate so the returned claims match
	// what a validator will decode.
	issuedAt := t.now().UTC().Truncate(time.Second)
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(t.ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", nil, fmt.Errorf("signing token: %w", err)
	}
	return signed, claims, nil
}

// Validate checks signature, algorithm, email claim and expiry. Expiry is
// inclusive: a token is still valid at exactly its exp instant.
// Every failure wraps ErrTokenInvalid.
func (t *TokenIssuer) Validate(raw string) (*Claims, error) {
	claims := &Claims{}
	// Time-based claims are checked below; the library's check is exclusive
	// at exp.
	_, err := jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if claims.Email == "" {
		return nil, fmt.Errorf("%w: missing email", ErrTokenInvalid)
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp", ErrTokenInvalid)
	}
	if t.now().After(claims.ExpiresAt.Time) {
		return nil, fmt.Errorf("%w: expired at %s", ErrTokenInvalid, claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
	}
	return claims, nil
}

// HashToken returns the hex SHA-256 of a raw token. Only hashes are stored.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}
