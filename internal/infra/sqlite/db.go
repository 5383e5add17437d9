// Package sqlite provides SQLite-based persistent storage for Kidzy.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DefaultMaxSnapshotBytes is the storage capacity for one encoded snapshot.
const DefaultMaxSnapshotBytes = 5 << 20

// Options tunes an opened database.
type Options struct {
	// MaxSnapshotBytes caps the encoded snapshot. Zero means the default,
	// negative disables the cap.
	MaxSnapshotBytes int
	Logger           *slog.Logger
}

// DB wraps a SQLite connection with WAL mode and migrations.
// It implements domain.SnapshotGateway and domain.LockoutStore.
type DB struct {
	db       *sql.DB
	path     string
	maxBytes int
	log      *slog.Logger
}

// Open creates or opens the SQLite database at dir/state.db and brings the
// schema up to date.
func Open(dir string, opts Options) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "state.db")
	if err := runMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	dsn := "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	maxBytes := opts.MaxSnapshotBytes
	if maxBytes == 0 {
		maxBytes = DefaultMaxSnapshotBytes
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &DB{db: db, path: dbPath, maxBytes: maxBytes, log: log.With("component", "sqlite")}, nil
}

// runMigrations applies the embedded migrations on a separate connection;
// closing the migrator closes that connection.
func runMigrations(dbPath string) error {
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := migratesqlite.WithInstance(migrateDB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Path returns the database file location.
func (d *DB) Path() string { return d.path }
