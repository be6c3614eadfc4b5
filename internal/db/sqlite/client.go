package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/iamwavecut/multibot/internal/infra"
	"github.com/iamwavecut/multibot/resources"
)

// sqliteClient serializes writes behind mutex: SQLite takes one writer at a
// time, and WAL readers proceed under the read lock. Writers in other
// processes (the offline CLI) wait on busy_timeout instead.
type sqliteClient struct {
	db    *sqlx.DB
	mutex sync.RWMutex
}

// NewSQLiteClient opens (creating if needed) the database at dir/file and applies
// pending migrations.
func NewSQLiteClient(ctx context.Context, dir, file string) (*sqliteClient, error) {
	dsn := filepath.Join(dir, file) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	dbx, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	dbx.SetMaxOpenConns(42)

	migrationsSource := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: resources.FS,
		Root:       "migrations",
	}
	n, err := migrate.Exec(dbx.DB, "sqlite3", migrationsSource, migrate.Up)
	if err != nil {
		_ = dbx.Close()
		return nil, fmt.Errorf("migrate up: %w", err)
	}
	if n > 0 {
		log.WithField("object", "sqliteClient").Infof("applied %d migrations", n)
	}

	return &sqliteClient{db: dbx}, nil
}

// Open creates the parent directory of path when missing, then opens the database file.
func Open(ctx context.Context, path string) (*sqliteClient, error) {
	dir, err := infra.EnsureDir(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	return NewSQLiteClient(ctx, dir, filepath.Base(path))
}

func (c *sqliteClient) Close() error {
	return c.db.Close()
}
