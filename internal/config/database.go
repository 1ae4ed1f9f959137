package config

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/hashicorp/go-multierror"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// MemoryDatabase is the path that opens a private in-memory database.
const MemoryDatabase = ":memory:"

// Database holds database connection and configuration
type Database struct {
	*sql.DB
	path   string
	logger *logrus.Logger
}

// NewDatabase opens the SQLite database at path, creating the file if it
// does not exist.
func NewDatabase(path string, logger *logrus.Logger) (*Database, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path is empty")
	}

	db, err := sql.Open("sqlite3", dataSourceName(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to :memory: is a separate database, so the pool must
	// never grow past one or be recycled.
	if path == MemoryDatabase {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.WithField("path", path).Info("Database connection established successfully")

	return &Database{
		DB:     db,
		path:   path,
		logger: logger,
	}, nil
}

// dataSourceName adds the connection options used for file databases: WAL
// so readers do not block the writer, and a busy timeout so concurrent
// writers wait instead of failing with SQLITE_BUSY.
func dataSourceName(path string) string {
	if path == MemoryDatabase || strings.Contains(path, "?") {
		return path
	}
	return "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
}

// Path returns the path the database was opened with.
func (d *Database) Path() string {
	return d.path
}

// Migrate brings the schema up to date. Running it against an up-to-date
// database is a no-op.
func (d *Database) Migrate() error {
	m, err := d.newMigrate()
	if err != nil {
		return err
	}
	// m.Close would close the shared *sql.DB, which the caller owns.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, err := d.MigrationStatus()
	if err != nil {
		return err
	}
	d.logger.WithField("schema_version", version).Info("Database migrations completed successfully")
	return nil
}

// MigrationStatus reports the applied schema version. A database that has
// never been migrated reports version 0.
func (d *Database) MigrationStatus() (version uint, dirty bool, err error) {
	m, err := d.newMigrate()
	if err != nil {
		return 0, false, err
	}

	version, dirty, err = m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, dirty, nil
}

func (d *Database) newMigrate() (*migrate.Migrate, error) {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(d.DB, &sqlite3.Config{})
	if err != nil {
		source.Close()
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		source.Close()
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, nil
}

// Close checkpoints the write-ahead log of file databases and closes the
// connection pool.
func (d *Database) Close() error {
	if d.DB == nil {
		return nil
	}

	var result *multierror.Error
	if d.path != MemoryDatabase {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := d.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to checkpoint database: %w", err))
		}
	}
	if err := d.DB.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to close database: %w", err))
	}
	return result.ErrorOrNil()
}
