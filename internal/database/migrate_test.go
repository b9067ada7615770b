package database

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
)

func TestMigrate_Success(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	version, dirty, err := Version(db)
	if err != nil {
		t.Fatalf("reading version: %v", err)
	}
	want, err := latestMigrationVersion()
	if err != nil {
		t.Fatalf("reading migration files: %v", err)
	}

	if dirty {
		t.Error("expected a clean schema")
	}
	if version != want {
		t.Errorf("expected version %d, got %d", want, version)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("first migration: %v", err)
	}

	if err := Migrate(db); err != nil {
		t.Fatalf("second migration should not fail: %v", err)
	}

	version, _, err := Version(db)
	if err != nil {
		t.Fatalf("reading version: %v", err)
	}
	want, err := latestMigrationVersion()
	if err != nil {
		t.Fatalf("reading migration files: %v", err)
	}
	if version != want {
		t.Errorf("expected version %d after double run, got %d", want, version)
	}
}

func TestVersion_BeforeMigrate(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec("CREATE TABLE schema_migrations (version uint64, dirty bool)"); err != nil {
		t.Fatalf("creating table: %v", err)
	}
	version, _, err := Version(db)
	if err != nil {
		t.Fatalf("reading version: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0, got %d", version)
	}
}

func latestMigrationVersion() (uint, error) {
	_, thisFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(thisFile), "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return 0, err
	}
	var latest uint
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".up.sql") {
			continue
		}
		prefix, _, _ := strings.Cut(e.Name(), "_")
		version, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			return 0, err
		}
		latest = max(latest, uint(version))
	}
	return latest, nil
}

func TestMigrate_CreatesAllTables(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	expectedTables := []string{
		"users", "households", "household_members", "categories", "household_settings", "api_tokens",
		"tasks", "task_occurrence_statuses", "finance_entries", "finance_series", "finance_exceptions", "shopping_items",
	}
	for _, table := range expectedTables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table '%s' not found: %v", table, err)
		}
	}
}

func TestOpen_EnablesForeignKeys(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	var enabled int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled); err != nil {
		t.Fatalf("reading pragma: %v", err)
	}
	if enabled != 1 {
		t.Errorf("expected foreign keys on, got %d", enabled)
	}
}
