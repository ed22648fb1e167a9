package migrations

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	calendarsync "github.com/goliatone/go-calendar-sync"
	_ "github.com/mattn/go-sqlite3"
)

func TestFilesystems_ReturnsPostgresAndSQLite(t *testing.T) {
	filesystems, err := Filesystems()
	if err != nil {
		t.Fatalf("filesystems: %v", err)
	}
	if len(filesystems) != 2 {
		t.Fatalf("expected 2 filesystems, got %d", len(filesystems))
	}

	var postgresFound bool
	var sqliteFound bool
	for _, entry := range filesystems {
		matches, globErr := fs.Glob(entry.FS, "*.up.sql")
		if globErr != nil {
			t.Fatalf("glob %s: %v", entry.Dialect, globErr)
		}
		if len(matches) == 0 {
			t.Fatalf("expected %s migration files, got none", entry.Dialect)
		}
		switch entry.Dialect {
		case DialectPostgres:
			postgresFound = true
		case DialectSQLite:
			sqliteFound = true
		}
	}

	if !postgresFound {
		t.Fatalf("expected postgres filesystem")
	}
	if !sqliteFound {
		t.Fatalf("expected sqlite filesystem")
	}
}

func TestRegister_UsesValidationTargets(t *testing.T) {
	var calls []string
	_, err := Register(context.Background(), func(_ context.Context, dialect string, _ string, _ fs.FS) error {
		calls = append(calls, dialect)
		return nil
	}, WithValidationTargets(DialectSQLite))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if len(calls) != 1 {
		t.Fatalf("expected 1 registration call, got %d", len(calls))
	}
	if calls[0] != DialectSQLite {
		t.Fatalf("expected sqlite registration, got %q", calls[0])
	}
}

func TestSchemaMigrationPair_ExistsForBothDialects(t *testing.T) {
	root := calendarsync.GetMigrationsFS()
	paths := []string{
		"data/sql/migrations/20250101000000_create_calendar_sync_schema.up.sql",
		"data/sql/migrations/20250101000000_create_calendar_sync_schema.down.sql",
		"data/sql/migrations/sqlite/20250101000000_create_calendar_sync_schema.up.sql",
		"data/sql/migrations/sqlite/20250101000000_create_calendar_sync_schema.down.sql",
	}
	for _, migrationPath := range paths {
		content, err := fs.ReadFile(root, migrationPath)
		if err != nil {
			t.Fatalf("read migration %s: %v", migrationPath, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			t.Fatalf("expected migration %s to have SQL content", migrationPath)
		}
	}
}

func TestSQLiteSchemaMigration_EnforcesUpsertKeys(t *testing.T) {
	db, err := sql.Open("sqlite3", "file:migrations-calendar-schema?mode=memory&cache=shared&_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()

	root := calendarsync.GetMigrationsFS()
	sqliteMigrations, err := fs.Sub(root, "data/sql/migrations/sqlite")
	if err != nil {
		t.Fatalf("resolve sqlite migrations: %v", err)
	}
	if err := execSQLMigration(context.Background(), db, sqliteMigrations, "20250101000000_create_calendar_sync_schema.up.sql"); err != nil {
		t.Fatalf("apply schema migration: %v", err)
	}

	ctx := context.Background()
	if _, err := db.ExecContext(
		ctx,
		`INSERT INTO calendar_integrations (id, user_id, workspace_id, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		"int-1", "usr-1", "ws-1", "pending", "2026-01-01T00:00:00Z", "2026-01-01T00:00:00Z",
	); err != nil {
		t.Fatalf("insert integration: %v", err)
	}

	insertState := `
		INSERT INTO calendar_sync_state (id, integration_id, calendar_id, sync_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := db.ExecContext(ctx, insertState, "st-1", "int-1", "primary", "tok-1", "2026-01-01T00:00:00Z", "2026-01-01T00:00:00Z"); err != nil {
		t.Fatalf("insert sync state: %v", err)
	}
	if _, err := db.ExecContext(ctx, insertState, "st-2", "int-1", "primary", "tok-2", "2026-01-01T00:00:00Z", "2026-01-01T00:00:00Z"); err == nil {
		t.Fatalf("expected unique (integration_id, calendar_id) violation")
	}

	insertEvent := `
		INSERT INTO calendar_events (id, integration_id, calendar_id, provider_event_id, title, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := db.ExecContext(ctx, insertEvent, "evt-1", "int-1", "primary", "gev-1", "First", "confirmed", "2026-01-01T00:00:00Z", "2026-01-01T00:00:00Z"); err != nil {
		t.Fatalf("insert event: %v", err)
	}
	if _, err := db.ExecContext(ctx, insertEvent, "evt-2", "int-1", "primary", "gev-1", "Duplicate", "confirmed", "2026-01-01T00:00:00Z", "2026-01-01T00:00:00Z"); err == nil {
		t.Fatalf("expected unique (integration_id, provider_event_id) violation")
	}

	insertCredential := `
		INSERT INTO calendar_credentials (id, integration_id, access_token, refresh_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := db.ExecContext(ctx, insertCredential, "cred-1", "int-1", "at-1", "rt-1", "2026-01-01T00:00:00Z", "2026-01-01T00:00:00Z"); err != nil {
		t.Fatalf("insert credential: %v", err)
	}
	if _, err := db.ExecContext(ctx, insertCredential, "cred-2", "int-1", "at-2", "rt-2", "2026-01-01T00:00:00Z", "2026-01-01T00:00:00Z"); err == nil {
		t.Fatalf("expected unique credential per integration violation")
	}
}

func execSQLMigration(ctx context.Context, db *sql.DB, fsys fs.FS, filename string) error {
	content, err := fs.ReadFile(fsys, filepath.Clean(filename))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, string(content))
	return err
}
