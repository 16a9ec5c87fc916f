package cosmos

import (
	"context"
	"fmt"
	"sync"

	dbm "github.com/cosmos/cosmos-db"
	"github.com/mwantia/nskv/backend"
	"github.com/mwantia/nskv/data"
	"github.com/mwantia/nskv/log"
)

// CosmosBackend adapts a cosmos-db database (memdb, goleveldb, pebbledb) to
// the storage interface. This is the flat store chain applications hand to
// their modules, so prefixed views built on it lay out keys exactly as they
// would on chain.
type CosmosBackend struct {
	backend.Exclusive

	mu   sync.RWMutex
	log  *log.Logger
	kind dbm.BackendType
	name string
	dir  string
	db   dbm.DB
	// owned is false for databases passed in through Wrap.
	owned bool
}

var _ backend.StorageBackend = (*CosmosBackend)(nil)

// NewCosmosBackend prepares a database of the given kind. memdb ignores name
// and dir. The database is created by Open.
func NewCosmosBackend(kind dbm.BackendType, name, dir string, opts ...backend.Option) (*CosmosBackend, error) {
	switch kind {
	case dbm.MemDBBackend:
	case dbm.GoLevelDBBackend, dbm.PebbleDBBackend:
		if name == "" || dir == "" {
			return nil, fmt.Errorf("%w: %s requires a name and a directory", data.ErrInvalidAddress, kind)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported cosmos-db backend '%s'", data.ErrInvalidAddress, kind)
	}

	options, err := backend.ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}

	return &CosmosBackend{
		log:   options.Logger.Named("cosmos").With("kind", string(kind)),
		kind:  kind,
		name:  name,
		dir:   dir,
		owned: true,
	}, nil
}

// Wrap adapts an already open database. Close leaves it open.
func Wrap(db dbm.DB, opts ...backend.Option) (*CosmosBackend, error) {
	options, err := backend.ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}

	return &CosmosBackend{
		log: options.Logger.Named("cosmos"),
		db:  db,
	}, nil
}

// Name returns the identifier name defined for this backend
func (*CosmosBackend) Name() string {
	return "cosmos"
}

// Open is part of the lifecycle behaviour and gets called when opening this backend.
func (cb *CosmosBackend) Open(ctx context.Context) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.db != nil {
		return nil
	}

	var db dbm.DB
	var err error
	if cb.kind == dbm.MemDBBackend {
		db = dbm.NewMemDB()
	} else {
		db, err = dbm.NewDB(cb.name, cb.kind, cb.dir)
	}
	if err != nil {
		cb.log.Error("failed to open: %v", err)
		return err
	}

	cb.db = db
	cb.log.Debug("opened")
	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
func (cb *CosmosBackend) Close(ctx context.Context) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.db == nil || !cb.owned {
		return nil
	}

	err := cb.db.Close()
	cb.db = nil
	cb.log.Debug("closed")
	return err
}

// GetCapabilities returns a list of capabilities supported by this backend.
func (cb *CosmosBackend) GetCapabilities() *backend.Capabilities {
	caps := backend.NewCapabilities(
		backend.CapabilityStorage,
		backend.CapabilityRange,
		backend.CapabilityNativeRange,
		backend.CapabilityNativeReverse,
	)
	if cb.kind != dbm.MemDBBackend && cb.owned {
		caps.Capabilities = append(caps.Capabilities, backend.Capability{Type: backend.CapabilityPersistent})
	}
	return caps
}

func (cb *CosmosBackend) database() (dbm.DB, error) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	if cb.db == nil {
		return nil, data.ErrClosed
	}
	return cb.db, nil
}
