package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/mwantia/nskv/backend"
	"github.com/mwantia/nskv/data"
	"github.com/mwantia/nskv/log"
)

// InMemory selects a non-persistent badger instance.
const InMemory = ":memory:"

// BadgerBackend stores entries in an embedded badger LSM tree. Keys are kept
// verbatim; badger orders them byte-wise and iterates natively in both
// directions.
type BadgerBackend struct {
	backend.Exclusive

	mu   sync.RWMutex
	log  *log.Logger
	path string
	db   *badger.DB
}

var _ backend.StorageBackend = (*BadgerBackend)(nil)

// NewBadgerBackend prepares a backend for the directory at path, or an
// in-memory instance for InMemory. The database is opened by Open.
func NewBadgerBackend(path string, opts ...backend.Option) (*BadgerBackend, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: badger requires a directory", data.ErrInvalidAddress)
	}

	options, err := backend.ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}

	return &BadgerBackend{
		log:  options.Logger.Named("badger").With("path", path),
		path: path,
	}, nil
}

// Name returns the identifier name defined for this backend
func (*BadgerBackend) Name() string {
	return "badger"
}

// Open is part of the lifecycle behaviour and gets called when opening this backend.
func (bb *BadgerBackend) Open(ctx context.Context) error {
	bb.mu.Lock()
	defer bb.mu.Unlock()

	if bb.db != nil {
		return nil
	}

	var options badger.Options
	if bb.path == InMemory {
		options = badger.DefaultOptions("").WithInMemory(true)
	} else {
		options = badger.DefaultOptions(bb.path)
	}
	// Badger logs through its own logger otherwise
	options = options.WithLogger(nil)

	db, err := badger.Open(options)
	if err != nil {
		bb.log.Error("failed to open: %v", err)
		return fmt.Errorf("failed to open badger: %w", err)
	}

	bb.db = db
	bb.log.Debug("opened")
	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
func (bb *BadgerBackend) Close(ctx context.Context) error {
	bb.mu.Lock()
	defer bb.mu.Unlock()

	if bb.db == nil {
		return nil
	}

	err := bb.db.Close()
	bb.db = nil
	bb.log.Debug("closed")
	return err
}

// GetCapabilities returns a list of capabilities supported by this backend.
func (bb *BadgerBackend) GetCapabilities() *backend.Capabilities {
	caps := backend.NewCapabilities(
		backend.CapabilityStorage,
		backend.CapabilityRange,
		backend.CapabilityNativeRange,
		backend.CapabilityNativeReverse,
	)
	if bb.path != InMemory {
		caps.Capabilities = append(caps.Capabilities, backend.Capability{Type: backend.CapabilityPersistent})
	}
	return caps
}

func (bb *BadgerBackend) database() (*badger.DB, error) {
	bb.mu.RLock()
	defer bb.mu.RUnlock()

	if bb.db == nil {
		return nil, data.ErrClosed
	}
	return bb.db, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, badger.ErrKeyNotFound)
}
