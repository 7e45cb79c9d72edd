package audit

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/autoremote/internal/autoremote"
	"github.com/nerrad567/autoremote/internal/infrastructure/database"
	"github.com/nerrad567/autoremote/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "activity.db"),
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close() //nolint:errcheck // Test cleanup
	})

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	return db.DB
}

func TestCreate_GeneratesIDAndTimestamp(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	entry := &Entry{Type: autoremote.EventDeviceAdded, Device: "Phone"}
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if entry.ID == "" {
		t.Error("Create() did not assign an ID")
	}
	if entry.CreatedAt.IsZero() {
		t.Error("Create() did not assign CreatedAt")
	}

	result, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 1 || len(result.Entries) != 1 {
		t.Fatalf("List() total = %d, entries = %d, want 1", result.Total, len(result.Entries))
	}
	got := result.Entries[0]
	if got.ID != entry.ID || got.Type != autoremote.EventDeviceAdded || got.Device != "Phone" {
		t.Errorf("List() entry = %+v", got)
	}
	if got.Detail != nil {
		t.Errorf("Detail = %v, want nil", got.Detail)
	}
}

func TestCreate_IDsAreFullUUIDs(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		entry := &Entry{Type: autoremote.EventMessageSent, Device: "Phone"}
		if err := repo.Create(ctx, entry); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		id, ok := strings.CutPrefix(entry.ID, "act-")
		if !ok {
			t.Fatalf("ID %q lacks the act- prefix", entry.ID)
		}
		if _, err := uuid.Parse(id); err != nil {
			t.Fatalf("ID %q does not carry a full UUID: %v", entry.ID, err)
		}
		if seen[entry.ID] {
			t.Fatalf("duplicate ID %q", entry.ID)
		}
		seen[entry.ID] = true
	}
}

func TestList_FiltersAndOrder(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seed := []Entry{
		{Type: autoremote.EventDeviceAdded, Device: "Phone", CreatedAt: base},
		{Type: autoremote.EventMessageSent, Device: "Phone", CreatedAt: base.Add(time.Minute), Detail: map[string]string{"sender": "laptop"}},
		{Type: autoremote.EventDeviceAdded, Device: "Tablet", CreatedAt: base.Add(2 * time.Minute)},
		{Type: autoremote.EventMessageSent, Device: "Phone", CreatedAt: base.Add(3 * time.Minute)},
	}
	for i := range seed {
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	tests := []struct {
		name      string
		filter    Filter
		wantTotal int
		wantFirst string
	}{
		{"all newest first", Filter{}, 4, seed[3].ID},
		{"by device", Filter{Device: "Tablet"}, 1, seed[2].ID},
		{"by type", Filter{Type: autoremote.EventDeviceAdded}, 2, seed[2].ID},
		{"by device and type", Filter{Device: "Phone", Type: autoremote.EventMessageSent}, 2, seed[3].ID},
		{"no match", Filter{Device: "Ghost"}, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if result.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", result.Total, tt.wantTotal)
			}
			if tt.wantFirst == "" {
				if len(result.Entries) != 0 {
					t.Errorf("Entries = %v, want none", result.Entries)
				}
				return
			}
			if len(result.Entries) == 0 || result.Entries[0].ID != tt.wantFirst {
				t.Errorf("first entry = %+v, want ID %s", result.Entries, tt.wantFirst)
			}
		})
	}

	result, err := repo.List(ctx, Filter{Device: "Phone", Type: autoremote.EventMessageSent})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	last := result.Entries[len(result.Entries)-1]
	if last.Detail["sender"] != "laptop" {
		t.Errorf("Detail = %v, want sender=laptop", last.Detail)
	}
}

func TestList_Pagination(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		e := &Entry{Type: autoremote.EventMessageSent, Device: "Phone", CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	result, err := repo.List(ctx, Filter{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 5 || len(result.Entries) != 1 {
		t.Errorf("Total = %d, entries = %d, want 5 and 1", result.Total, len(result.Entries))
	}

	result, err = repo.List(ctx, Filter{Limit: 10000, Offset: -3})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Limit != maxLimit || result.Offset != 0 {
		t.Errorf("Limit = %d, Offset = %d, want %d and 0", result.Limit, result.Offset, maxLimit)
	}
}

func TestPublisher_StoresEvent(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	pub := NewPublisher(repo)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	err := pub.Publish(ctx, autoremote.Event{
		Type:   autoremote.EventDeviceRegistered,
		Device: "Phone",
		Time:   at,
		Detail: map[string]string{"host": "laptop", "local_ip": "192.168.1.20"},
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	result, err := repo.List(ctx, Filter{Device: "Phone"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(result.Entries))
	}
	got := result.Entries[0]
	if got.Type != autoremote.EventDeviceRegistered || !got.CreatedAt.Equal(at) {
		t.Errorf("entry = %+v", got)
	}
	if got.Detail["local_ip"] != "192.168.1.20" {
		t.Errorf("Detail = %v", got.Detail)
	}
}
