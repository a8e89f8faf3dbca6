package auth

import (
	"context"
	"testing"

	"github.com/tasklane/tasklane-core/internal/infrastructure/logging"
)

func TestSeedAdmin_CreatesOnEmptyDB(t *testing.T) {
	db := testDB(t)
	users := NewUserRepository(db)
	ctx := context.Background()

	password, err := SeedAdmin(ctx, users, "root@acme.com", "root", logging.Discard())
	if err != nil {
		t.Fatalf("SeedAdmin() error = %v", err)
	}
	if len(password) != 2*seedPasswordBytes {
		t.Fatalf("SeedAdmin() password length = %d, want %d", len(password), 2*seedPasswordBytes)
	}

	admin, err := users.GetByEmail(ctx, "root@acme.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if admin.Role != RoleAdmin {
		t.Errorf("Role = %v, want admin", admin.Role)
	}
	if admin.UserName != "root" {
		t.Errorf("UserName = %q, want root", admin.UserName)
	}

	ok, err := VerifyPassword(password, admin.PasswordHash)
	if err != nil || !ok {
		t.Errorf("VerifyPassword() = %v, %v; generated password must verify", ok, err)
	}
}

func TestSeedAdmin_SkipsWhenUsersExist(t *testing.T) {
	db := testDB(t)
	users := NewUserRepository(db)
	ctx := context.Background()
	seedTestUser(t, db, "existing", "existing@acme.com", RoleMember)

	password, err := SeedAdmin(ctx, users, "root@acme.com", "root", logging.Discard())
	if err != nil {
		t.Fatalf("SeedAdmin() error = %v", err)
	}
	if password != "" {
		t.Error("SeedAdmin() should return empty password when users exist")
	}
	if n, _ := users.Count(ctx); n != 1 { //nolint:errcheck // asserted via n
		t.Errorf("Count() = %d, want 1", n)
	}
}
