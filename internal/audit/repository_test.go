package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tasklane/tasklane-core/internal/infrastructure/config"
	"github.com/tasklane/tasklane-core/internal/infrastructure/database"
	_ "github.com/tasklane/tasklane-core/migrations" // registers the schema
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(context.Background(), config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "audit.db"),
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

func TestCreateAndList(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	entries := []*AuditLog{
		{Action: ActionLogin, EntityType: "session", UserID: "usr-1", CreatedAt: base},
		{Action: ActionCreate, EntityType: "project", EntityID: "prj-1", UserID: "usr-1",
			Details: map[string]any{"name": "Website"}, CreatedAt: base.Add(time.Minute)},
		{Action: ActionStatusChange, EntityType: "task", EntityID: "tsk-1", UserID: "usr-2",
			Details: map[string]any{"status": float64(3)}, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if e.ID == "" || e.Source != "api" {
			t.Errorf("Create() defaults not applied: %+v", e)
		}
	}

	result, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 3 || result.Limit != DefaultLimit {
		t.Errorf("List() total = %d, limit = %d", result.Total, result.Limit)
	}
	if result.Logs[0].Action != ActionStatusChange {
		t.Errorf("List() first action = %q, want most recent first", result.Logs[0].Action)
	}
	if diff := cmp.Diff(map[string]any{"status": float64(3)}, result.Logs[0].Details); diff != "" {
		t.Errorf("Details mismatch (-want +got):\n%s", diff)
	}
	if !result.Logs[2].CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, want %v", result.Logs[2].CreatedAt, base)
	}
}

func TestList_Filters(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	for _, e := range []*AuditLog{
		{Action: ActionCreate, EntityType: "task", EntityID: "tsk-1", UserID: "usr-1"},
		{Action: ActionDelete, EntityType: "task", EntityID: "tsk-1", UserID: "usr-2"},
		{Action: ActionCreate, EntityType: "company", EntityID: "cmp-1", UserID: "usr-1"},
	} {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"by action", Filter{Action: ActionCreate}, 2},
		{"by entity type", Filter{EntityType: "task"}, 2},
		{"by entity id", Filter{EntityID: "cmp-1"}, 1},
		{"by user", Filter{UserID: "usr-2"}, 1},
		{"combined", Filter{Action: ActionCreate, EntityType: "task"}, 1},
		{"none", Filter{Action: ActionLogout}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if result.Total != tt.want || len(result.Logs) != tt.want {
				t.Errorf("List() = %d logs, total %d; want %d", len(result.Logs), result.Total, tt.want)
			}
		})
	}
}

func TestList_ClampsLimit(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	result, err := repo.List(context.Background(), Filter{Limit: 10000, Offset: -5})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Limit != MaxLimit || result.Offset != 0 {
		t.Errorf("List() limit/offset = %d/%d, want %d/0", result.Limit, result.Offset, MaxLimit)
	}
	if result.Logs == nil {
		t.Error("List() should return an empty slice, not nil")
	}
}
