package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/tasklane/tasklane-core/internal/infrastructure/config"
	"github.com/tasklane/tasklane-core/internal/infrastructure/database"
	"github.com/tasklane/tasklane-core/internal/infrastructure/logging"
	_ "github.com/tasklane/tasklane-core/migrations" // registers the schema
)

const (
	testSecret   = "test-secret-key-at-least-32-chars!"
	testPassword = "test-password"
)

// testDB opens a migrated SQLite database in a temp directory.
func testDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(context.Background(), config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "auth.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db
}

// seedTestUser inserts a user with testPassword and returns it.
func seedTestUser(t *testing.T, db *database.DB, userName, email string, role Role) *User {
	t.Helper()

	hash, err := HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	user := &User{
		UserName:     userName,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := NewUserRepository(db).Create(t.Context(), user); err != nil {
		t.Fatalf("creating test user %s: %v", userName, err)
	}
	return user
}

// fakeClock is a settable time source for token tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func testIssuer(t *testing.T, clock *fakeClock) *TokenIssuer {
	t.Helper()
	cfg := TokenConfig{Secret: []byte(testSecret)}
	if clock != nil {
		cfg.Now = clock.Now
	}
	issuer, err := NewTokenIssuer(cfg)
	if err != nil {
		t.Fatalf("NewTokenIssuer() error = %v", err)
	}
	return issuer
}

// testService wires a Service over a fresh database.
func testService(t *testing.T, clock *fakeClock) (*Service, *database.DB) {
	t.Helper()
	db := testDB(t)
	svc := NewService(testIssuer(t, clock), NewUserRepository(db), NewSessionRepository(db), logging.Discard())
	return svc, db
}
