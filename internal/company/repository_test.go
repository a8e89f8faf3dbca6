package company

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/tasklane/tasklane-core/internal/infrastructure/config"
	"github.com/tasklane/tasklane-core/internal/infrastructure/database"
	_ "github.com/tasklane/tasklane-core/migrations" // registers the schema
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(context.Background(), config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "company.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func TestCreateAndGet(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	c := &Company{Name: "  Acme ", Domain: "ACME.com"}
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if c.ID == "" {
		t.Fatal("Create() should generate an ID")
	}

	got, err := repo.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	want := &Company{ID: c.ID, Name: "Acme", Domain: "acme.com"}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(Company{}, "CreatedAt", "UpdatedAt")); diff != "" {
		t.Errorf("GetByID() mismatch (-want +got):\n%s", diff)
	}
}

func TestCreate_Validation(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	tests := []struct {
		name    string
		company Company
		wantErr error
	}{
		{"empty name", Company{Name: " ", Domain: "acme.com"}, ErrInvalidName},
		{"empty domain", Company{Name: "Acme", Domain: ""}, ErrInvalidDomain},
		{"bare label", Company{Name: "Acme", Domain: "acme"}, ErrInvalidDomain},
		{"spaces in domain", Company{Name: "Acme", Domain: "ac me.com"}, ErrInvalidDomain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.company
			if err := repo.Create(context.Background(), &c); !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFindOrCreate(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	first, created, err := repo.FindOrCreate(ctx, "Acme", "acme.com")
	if err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}
	if !created {
		t.Error("first FindOrCreate() should create")
	}

	again, created, err := repo.FindOrCreate(ctx, "Acme", "ACME.COM")
	if err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}
	if created {
		t.Error("second FindOrCreate() should find the existing company")
	}
	if again.ID != first.ID {
		t.Errorf("FindOrCreate() ID = %s, want %s", again.ID, first.ID)
	}

	// Same domain, different name is a different company.
	other, created, err := repo.FindOrCreate(ctx, "Acme Labs", "acme.com")
	if err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}
	if !created || other.ID == first.ID {
		t.Error("(name, domain) pair should identify the company")
	}
}

func TestFindOrCreate_Concurrent(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, _, err := repo.FindOrCreate(ctx, "Globex", "globex.com")
			if err != nil {
				t.Errorf("FindOrCreate() error = %v", err)
				return
			}
			ids[i] = c.ID
		}()
	}
	wg.Wait()

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 1 {
		t.Errorf("List() = %d companies, want 1", len(all))
	}
}

func TestListUpdateDelete(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	empty, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("List() on empty table = %v, want empty non-nil slice", empty)
	}

	c := &Company{Name: "Initech", Domain: "initech.com"}
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	c.Name = "Initrode"
	if err := repo.Update(ctx, c); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, err := repo.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "Initrode" {
		t.Errorf("Name = %q, want Initrode", got.Name)
	}

	if err := repo.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, c.ID); !errors.Is(err, ErrCompanyNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrCompanyNotFound", err)
	}
	if err := repo.Delete(ctx, c.ID); !errors.Is(err, ErrCompanyNotFound) {
		t.Errorf("second Delete() error = %v, want ErrCompanyNotFound", err)
	}
	if err := repo.Update(ctx, &Company{ID: "cmp-missing", Name: "X", Domain: "x.com"}); !errors.Is(err, ErrCompanyNotFound) {
		t.Errorf("Update() missing error = %v, want ErrCompanyNotFound", err)
	}
}

func TestValidateDomain(t *testing.T) {
	tests := []struct {
		domain string
		valid  bool
	}{
		{"acme.com", true},
		{"sub.acme.co.uk", true},
		{"my-company.io", true},
		{"Acme.COM", true},
		{"acme", false},
		{"-acme.com", false},
		{"acme..com", false},
		{"acme.com.", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			err := ValidateDomain(tt.domain)
			if (err == nil) != tt.valid {
				t.Errorf("ValidateDomain(%q) error = %v, valid %v", tt.domain, err, tt.valid)
			}
		})
	}
}
