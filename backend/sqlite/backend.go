package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mwantia/nskv/backend"
	"github.com/mwantia/nskv/data"
	"github.com/mwantia/nskv/log"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// InMemory selects a private in-memory database instead of a file.
const InMemory = ":memory:"

// SQLiteBackend stores every entry as a row of a single WITHOUT ROWID table
// keyed by BLOB. SQLite compares blobs with memcmp, which is the byte-wise
// order ranges require.
type SQLiteBackend struct {
	backend.Exclusive

	mu    sync.RWMutex
	log   *log.Logger
	path  string
	dsn   string
	table string
	db    *sql.DB
}

var _ backend.StorageBackend = (*SQLiteBackend)(nil)

// NewSQLiteBackend creates a new SQLite-backed store.
// The dbPath can be ":memory:" for an in-memory database or a file path.
func NewSQLiteBackend(dbPath string, opts ...backend.Option) (*SQLiteBackend, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: sqlite requires a database path", data.ErrInvalidAddress)
	}

	options, err := backend.ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}

	// Every pooled connection must see the same in-memory database, which
	// requires a named shared cache
	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	if dbPath == InMemory {
		dsn = fmt.Sprintf("file:nskv-%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", uuid.NewString())
	}

	return &SQLiteBackend{
		log:   options.Logger.Named("sqlite").With("path", dbPath),
		path:  dbPath,
		dsn:   dsn,
		table: options.Table,
	}, nil
}

// initSchema creates the database schema.
func (sb *SQLiteBackend) initSchema(ctx context.Context, db *sql.DB) error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		key BLOB PRIMARY KEY,
		value BLOB NOT NULL
	) WITHOUT ROWID;
	`, sb.table)

	_, err := db.ExecContext(ctx, schema)
	return err
}

// Name returns the identifier name defined for this backend
func (*SQLiteBackend) Name() string {
	return "sqlite"
}

// Open is part of the lifecycle behaviour and gets called when opening this backend.
func (sb *SQLiteBackend) Open(ctx context.Context) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", sb.dsn)
	if err != nil {
		return err
	}

	// Verify database connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}

	if err := sb.initSchema(ctx, db); err != nil {
		db.Close()
		sb.log.Error("failed to initialize schema: %v", err)
		return err
	}

	sb.db = db
	sb.log.Debug("opened")
	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
func (sb *SQLiteBackend) Close(ctx context.Context) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.db == nil {
		return nil
	}

	// Fold the WAL back into the database file before closing
	errs := &data.Errors{}
	if sb.path != InMemory {
		if _, err := sb.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			errs.Add(fmt.Errorf("checkpoint failed: %w", err))
		}
	}
	errs.Add(sb.db.Close())

	sb.db = nil
	sb.log.Debug("closed")
	return errs.Errors()
}

// GetCapabilities returns a list of capabilities supported by this backend.
func (sb *SQLiteBackend) GetCapabilities() *backend.Capabilities {
	return backend.NewCapabilities(
		backend.CapabilityStorage,
		backend.CapabilityRange,
		backend.CapabilityPersistent,
		backend.CapabilityNativeRange,
		backend.CapabilityNativeReverse,
	)
}

func (sb *SQLiteBackend) database() (*sql.DB, error) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	if sb.db == nil {
		return nil, data.ErrClosed
	}
	return sb.db, nil
}
