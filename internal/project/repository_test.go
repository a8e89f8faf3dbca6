package project

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tasklane/tasklane-core/internal/infrastructure/config"
	"github.com/tasklane/tasklane-core/internal/infrastructure/database"
	_ "github.com/tasklane/tasklane-core/migrations" // registers the schema
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(context.Background(), config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "project.db"),
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

func mustCreate(t *testing.T, repo *SQLiteRepository, name, creator string) *Project {
	t.Helper()
	p := &Project{Name: name, Description: name + " description", CreatedBy: creator, CompanyID: "cmp-acme"}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("Create(%s) error = %v", name, err)
	}
	return p
}

func TestCreateAndGet(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	p := mustCreate(t, repo, "Website", "usr-alice")
	if p.ID == "" {
		t.Fatal("Create() should generate an ID")
	}

	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if diff := cmp.Diff(p, got); diff != "" {
		t.Errorf("GetByID() mismatch (-want +got):\n%s", diff)
	}

	byName, err := repo.GetByName(ctx, "Website")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if byName.ID != p.ID {
		t.Errorf("GetByName() ID = %s, want %s", byName.ID, p.ID)
	}

	if _, err := repo.GetByName(ctx, "website"); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("GetByName() is case-sensitive; error = %v, want ErrProjectNotFound", err)
	}
}

func TestCreate_WithoutCompany(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	p := &Project{Name: "Solo", Description: "no tenant", CreatedBy: "usr-1"}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	got, err := repo.GetByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.CompanyID != "" {
		t.Errorf("CompanyID = %q, want empty", got.CompanyID)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		project Project
		wantErr error
	}{
		{"valid", Project{Name: "A", Description: "B"}, nil},
		{"missing name", Project{Description: "B"}, ErrInvalidName},
		{"blank name", Project{Name: "   ", Description: "B"}, ErrInvalidName},
		{"missing description", Project{Name: "A"}, ErrInvalidDescription},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.project)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestListPagination(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	for _, n := range []string{"p1", "p2", "p3", "p4", "p5"} {
		mustCreate(t, repo, n, "usr-1")
	}

	tests := []struct {
		limit, offset int
		wantLen       int
	}{
		{10, 0, 5},
		{2, 0, 2},
		{2, 4, 1},
		{2, 10, 0},
	}

	for _, tt := range tests {
		got, total, err := repo.List(context.Background(), tt.limit, tt.offset)
		if err != nil {
			t.Fatalf("List(%d, %d) error = %v", tt.limit, tt.offset, err)
		}
		if total != 5 {
			t.Errorf("List(%d, %d) total = %d, want 5", tt.limit, tt.offset, total)
		}
		if len(got) != tt.wantLen {
			t.Errorf("List(%d, %d) len = %d, want %d", tt.limit, tt.offset, len(got), tt.wantLen)
		}
	}
}

func TestListByCreator(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	mustCreate(t, repo, "a1", "usr-alice")
	mustCreate(t, repo, "a2", "usr-alice")
	mustCreate(t, repo, "b1", "usr-bob")

	got, err := repo.ListByCreator(context.Background(), "usr-alice")
	if err != nil {
		t.Fatalf("ListByCreator() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListByCreator() = %d projects, want 2", len(got))
	}
	for _, p := range got {
		if p.CreatedBy != "usr-alice" {
			t.Errorf("project %s created by %s", p.ID, p.CreatedBy)
		}
	}

	none, err := repo.ListByCreator(context.Background(), "usr-nobody")
	if err != nil {
		t.Fatalf("ListByCreator() error = %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("ListByCreator() = %v, want empty non-nil slice", none)
	}
}

func TestApplyAndUpdate(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()
	p := mustCreate(t, repo, "Old", "usr-1")

	p.Apply(Changes{Name: "New"})
	if p.Description != "Old description" {
		t.Errorf("Apply() with empty description changed it to %q", p.Description)
	}
	if err := repo.Update(ctx, p); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "New" || got.Description != "Old description" {
		t.Errorf("after Update() = %q / %q", got.Name, got.Description)
	}
}

func TestDelete(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()
	p := mustCreate(t, repo, "Doomed", "usr-1")

	if err := repo.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, p.ID); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("second Delete() error = %v, want ErrProjectNotFound", err)
	}
	if err := repo.Update(ctx, p); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Update() deleted project error = %v, want ErrProjectNotFound", err)
	}
}
