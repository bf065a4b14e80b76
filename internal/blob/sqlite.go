package blob

import (
	"cmp"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DBFile is the database file name created in the data directory.
const DBFile = "profilechat.db"

// SQLite stores blobs as rows keyed by path in a single database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) DBFile in dataDir and applies pending schema
// migrations. Pass ":memory:" for an in-memory database.
func OpenSQLite(dataDir string) (*SQLite, error) {
	dsn := ":memory:"
	if dataDir != ":memory:" {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = "file:" + filepath.Join(dataDir, DBFile) +
			"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dsn, err)
	}
	// One connection: ":memory:" would otherwise give each connection its own database.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating blob schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type migration struct {
	version int
	file    string
}

// pendingMigrations lists embedded migrations whose version is not recorded
// in blob_schema, oldest first.
func (s *SQLite) pendingMigrations() ([]migration, error) {
	applied, err := s.AppliedMigrations()
	if err != nil {
		return nil, err
	}

	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	var pending []migration
	for _, f := range files {
		var v int
		if _, err := fmt.Sscanf(path.Base(f), "%d_", &v); err != nil {
			return nil, fmt.Errorf("migration %s has no numeric prefix: %w", f, err)
		}
		if !slices.Contains(applied, v) {
			pending = append(pending, migration{version: v, file: f})
		}
	}
	slices.SortFunc(pending, func(a, b migration) int { return cmp.Compare(a.version, b.version) })
	return pending, nil
}

func (s *SQLite) migrate() error {
	const ddl = `CREATE TABLE IF NOT EXISTS blob_schema (
		version    INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}

	pending, err := s.pendingMigrations()
	if err != nil {
		return err
	}
	for _, m := range pending {
		if err := s.apply(m); err != nil {
			return fmt.Errorf("%s: %w", m.file, err)
		}
	}
	return nil
}

// apply runs one migration and records it in the same transaction.
func (s *SQLite) apply(m migration) (err error) {
	body, err := migrations.ReadFile(m.file)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.Exec(string(body)); err != nil {
		return err
	}
	if _, err = tx.Exec(`INSERT INTO blob_schema (version, applied_at) VALUES (?, ?)`,
		m.version, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return tx.Commit()
}

// AppliedMigrations returns the recorded schema versions in ascending order.
func (s *SQLite) AppliedMigrations() ([]int, error) {
	return queryColumn[int](s.db, `SELECT version FROM blob_schema ORDER BY version`)
}

// queryColumn scans the single column of every row returned by query.
func queryColumn[T any](db *sql.DB, query string, args ...any) ([]T, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var v T
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLite) Read(key string) (string, error) {
	clean, err := CleanKey(key)
	if err != nil {
		return "", fmt.Errorf("%q: %w", key, err)
	}
	var content string
	err = s.db.QueryRow(`SELECT content FROM blobs WHERE key = ?`, clean).Scan(&content)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", ErrNotFound
	case err != nil:
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return content, nil
}

const (
	replaceContent = `content = excluded.content`
	appendContent  = `content = blobs.content || excluded.content`
)

// upsert inserts key or updates it with onConflict.
func (s *SQLite) upsert(key, content, onConflict string) error {
	clean, err := CleanKey(key)
	if err != nil {
		return fmt.Errorf("%q: %w", key, err)
	}
	_, err = s.db.Exec(`INSERT INTO blobs (key, dir, content, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET `+onConflict+`, updated_at = excluded.updated_at`,
		clean, path.Dir(clean), content, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Write(key, content string) error {
	return s.upsert(key, content, replaceContent)
}

// Append concatenates in a single statement, so concurrent appends never
// lose data.
func (s *SQLite) Append(key, content string) error {
	return s.upsert(key, content, appendContent)
}

func (s *SQLite) Exists(key string) (bool, error) {
	clean, err := CleanKey(key)
	if err != nil {
		return false, fmt.Errorf("%q: %w", key, err)
	}
	var found bool
	if err := s.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM blobs WHERE key = ?)`, clean).Scan(&found); err != nil {
		return false, fmt.Errorf("checking %s: %w", key, err)
	}
	return found, nil
}

// MkdirAll only validates dir; directories are implied by key prefixes.
func (s *SQLite) MkdirAll(dir string) error {
	if _, err := CleanKey(dir); err != nil {
		return fmt.Errorf("%q: %w", dir, err)
	}
	return nil
}

func (s *SQLite) List(dir string) ([]string, error) {
	clean, err := CleanKey(dir)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", dir, err)
	}
	keys, err := queryColumn[string](s.db, `SELECT key FROM blobs WHERE dir = ? ORDER BY key`, clean)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	return keys, nil
}
