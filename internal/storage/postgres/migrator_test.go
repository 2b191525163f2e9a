package postgres

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

func TestLoadMigrations_BuildsOrderedPairs(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/migrations/0002_outbox.up.sql":   {Data: []byte("CREATE TABLE outbox_messages ()")},
		"sql/migrations/0002_outbox.down.sql": {Data: []byte("DROP TABLE outbox_messages")},
		"sql/migrations/0001_orders.up.sql":   {Data: []byte("CREATE TABLE orders ()")},
		"sql/migrations/0001_orders.down.sql": {Data: []byte("DROP TABLE orders")},
	}

	migrations, err := loadMigrations(fsys)
	if err != nil {
		t.Fatalf("load migrations: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "orders" {
		t.Fatalf("unexpected first migration: %+v", migrations[0])
	}
	if migrations[1].Version != 2 || migrations[1].Name != "outbox" {
		t.Fatalf("unexpected second migration: %+v", migrations[1])
	}
	if migrations[0].UpSQL == "" || migrations[0].DownSQL == "" {
		t.Fatal("migration must carry both up and down scripts")
	}
}

func TestLoadMigrations_RejectsIncompletePair(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/migrations/0001_orders.up.sql": {Data: []byte("CREATE TABLE orders ()")},
	}

	if _, err := loadMigrations(fsys); err == nil || !strings.Contains(err.Error(), "both up and down") {
		t.Fatalf("expected incomplete pair error, got %v", err)
	}
}

func TestLoadMigrations_RejectsBadFileName(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/migrations/orders.sql": {Data: []byte("CREATE TABLE orders ()")},
	}

	if _, err := loadMigrations(fsys); err == nil || !strings.Contains(err.Error(), "invalid migration file name") {
		t.Fatalf("expected invalid name error, got %v", err)
	}
}

func TestEmbeddedMigrations_AreComplete(t *testing.T) {
	migrations, err := loadMigrations(migrationsFS)
	if err != nil {
		t.Fatalf("load embedded migrations: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("embedded migrations must not be empty")
	}

	prev := int64(0)
	for _, m := range migrations {
		if m.Version <= prev {
			t.Fatalf("migrations must be strictly ordered, got %d after %d", m.Version, prev)
		}
		prev = m.Version
	}
}

func TestMigrateUpAndStatus_Postgres(t *testing.T) {
	store := openRawStoreForIntegrationTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := store.MigrateUp(ctx, 0); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	// Повторный прогон не должен падать на уже применённых версиях.
	if err := store.MigrateUp(ctx, 0); err != nil {
		t.Fatalf("repeated migrate up: %v", err)
	}

	version, count, err := store.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("migration status: %v", err)
	}
	if version == 0 || count == 0 {
		t.Fatalf("expected applied migrations, got version=%d count=%d", version, count)
	}
}
