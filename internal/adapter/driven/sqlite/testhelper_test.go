package sqlite

import (
	"fmt"
	"net/url"
	"testing"
)

// setupTestDB opens a named in-memory database wired like production:
// one writer connection, a reader pool, migrations applied. cache=shared
// lets both pools see the same database; the test name keys it so
// parallel tests stay isolated, percent-encoded so it cannot be read as
// extra DSN query parameters. WAL does not apply in memory, so that
// pragma is omitted.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	name := url.PathEscape(t.Name())
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)",
		name,
	)

	writer, err := openPool(dsn, 1)
	if err != nil {
		t.Fatalf("open test writer: %v", err)
	}

	reader, err := openPool(dsn, 4)
	if err != nil {
		_ = writer.Close()
		t.Fatalf("open test reader: %v", err)
	}

	db := &DB{Writer: writer, Reader: reader, path: dsn}

	if err := RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}
