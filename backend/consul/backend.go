package consul

import (
	"context"
	"sync"

	"github.com/hashicorp/consul/api"
	"github.com/mwantia/nskv/backend"
	"github.com/mwantia/nskv/data"
	"github.com/mwantia/nskv/log"
)

// DefaultBase is the key prefix used when no base is configured.
const DefaultBase = "nskv"

// ConsulBackend stores entries in the HashiCorp Consul KV store.
//
// Binary keys are hex encoded below the configured base (`<base>/<hex>`),
// which keeps their byte-wise order. Consul has no bounded scan, so ranges
// list the narrowest hex prefix covering both bounds and filter the rest
// in memory.
//
// Limitations:
// - Consul KV has a 512KB limit per value
// - Best suited for configuration, small state, and metadata storage
type ConsulBackend struct {
	backend.Exclusive

	mu     sync.RWMutex
	log    *log.Logger
	config *ConsulBackendConfig
	base   string
	kv     *api.KV
}

var _ backend.StorageBackend = (*ConsulBackend)(nil)

// ConsulBackendConfig contains configuration options for the Consul backend
type ConsulBackendConfig struct {
	// Address of the Consul server (default: "127.0.0.1:8500")
	Address string

	// Token for Consul ACL authentication (optional)
	Token string

	// Datacenter to use (optional)
	Datacenter string
}

// NewConsulBackend creates a new Consul-backed store. The base is taken
// from backend.WithBase and defaults to DefaultBase.
func NewConsulBackend(config *ConsulBackendConfig, opts ...backend.Option) (*ConsulBackend, error) {
	if config == nil {
		config = &ConsulBackendConfig{}
	}

	// Set defaults
	if config.Address == "" {
		config.Address = "127.0.0.1:8500"
	}

	options, err := backend.ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}

	base := options.Base
	if base == "" {
		base = DefaultBase
	}

	return &ConsulBackend{
		log:    options.Logger.Named("consul").With("address", config.Address),
		config: config,
		base:   base,
	}, nil
}

// Name returns the identifier name defined for this backend
func (*ConsulBackend) Name() string {
	return "consul"
}

// Open is part of the lifecycle behaviour and gets called when opening this backend
func (cb *ConsulBackend) Open(ctx context.Context) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.kv != nil {
		return nil
	}

	clientConfig := api.DefaultConfig()
	clientConfig.Address = cb.config.Address
	if cb.config.Token != "" {
		clientConfig.Token = cb.config.Token
	}
	if cb.config.Datacenter != "" {
		clientConfig.Datacenter = cb.config.Datacenter
	}

	client, err := api.NewClient(clientConfig)
	if err != nil {
		return err
	}

	// Fail early on an unreachable agent
	if _, err := client.Status().Leader(); err != nil {
		cb.log.Error("failed to reach consul: %v", err)
		return err
	}

	cb.kv = client.KV()
	cb.log.Debug("opened")
	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend
func (cb *ConsulBackend) Close(ctx context.Context) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	// Consul client is stateless
	cb.kv = nil
	return nil
}

// GetCapabilities returns a list of capabilities supported by this backend
func (cb *ConsulBackend) GetCapabilities() *backend.Capabilities {
	caps := backend.NewCapabilities(
		backend.CapabilityStorage,
		backend.CapabilityRange,
		backend.CapabilityPersistent,
	)
	// Consul KV has a default limit of 512KB per value
	caps.Settings.MaxValueSize = 512 * 1024
	return caps
}

func (cb *ConsulBackend) client() (*api.KV, error) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	if cb.kv == nil {
		return nil, data.ErrClosed
	}
	return cb.kv, nil
}
