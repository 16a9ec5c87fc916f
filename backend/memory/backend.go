package memory

import (
	"context"
	"sync"

	"github.com/mwantia/nskv/backend"
	"github.com/mwantia/nskv/data"
	"github.com/mwantia/nskv/log"
	"github.com/tidwall/btree"
)

// MemoryBackend keeps every entry in an ordered B-tree. Ranges iterate a
// copy-on-write snapshot, so writes during a scan never disturb it.
type MemoryBackend struct {
	backend.Exclusive

	mu     sync.RWMutex
	log    *log.Logger
	keys   *btree.Map[string, []byte]
	closed bool
}

var _ backend.StorageBackend = (*MemoryBackend)(nil)

func NewMemoryBackend(opts ...backend.Option) (*MemoryBackend, error) {
	options, err := backend.ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}

	return &MemoryBackend{
		log:  options.Logger.Named("memory"),
		keys: btree.NewMap[string, []byte](0),
	}, nil
}

// Name returns the identifier name defined for this backend
func (*MemoryBackend) Name() string {
	return "memory"
}

// Open is part of the lifecycle behaviour and gets called when opening this backend.
func (mb *MemoryBackend) Open(ctx context.Context) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	// No initialization needed - backend is ready to use
	mb.closed = false
	mb.log.Debug("opened")
	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
func (mb *MemoryBackend) Close(ctx context.Context) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	mb.keys.Clear()
	mb.closed = true
	mb.log.Debug("closed")
	return nil
}

// GetCapabilities returns a list of capabilities supported by this backend.
func (mb *MemoryBackend) GetCapabilities() *backend.Capabilities {
	return backend.NewCapabilities(
		backend.CapabilityStorage,
		backend.CapabilityRange,
		backend.CapabilityNativeRange,
		backend.CapabilityNativeReverse,
	)
}

// Len returns the number of stored entries.
func (mb *MemoryBackend) Len() int {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	return mb.keys.Len()
}

func (mb *MemoryBackend) checkOpen() error {
	if mb.closed {
		return data.ErrClosed
	}
	return nil
}
