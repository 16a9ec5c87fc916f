package nskv

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	dbm "github.com/cosmos/cosmos-db"
	"github.com/mwantia/nskv/backend"
	"github.com/mwantia/nskv/backend/badgerdb"
	"github.com/mwantia/nskv/backend/consul"
	"github.com/mwantia/nskv/backend/cosmos"
	"github.com/mwantia/nskv/backend/memory"
	"github.com/mwantia/nskv/backend/postgres"
	"github.com/mwantia/nskv/backend/s3"
	"github.com/mwantia/nskv/backend/sqlite"
	"github.com/mwantia/nskv/data"
)

// OpenBackend creates the store described by address and opens it.
//
//	memory://
//	sqlite://<path|:memory:>
//	postgres://<user>:<password>@<host>:<port>/<database>  (also postgresql://, psql://)
//	consul://<host>:<port>/<base>?token=<token>&datacenter=<dc>
//	s3://<access>:<secret>@<host>:<port>/<bucket>/<base>?ssl=<bool>  (also minio://)
//	badger://<dir|:memory:>
//	cosmos://<memdb|goleveldb|pebbledb>/<dir>/<name>
func OpenBackend(ctx context.Context, address string, opts ...backend.Option) (backend.StorageBackend, error) {
	store, err := ParseBackendAddress(address, opts...)
	if err != nil {
		return nil, err
	}

	if err := store.Open(ctx); err != nil {
		return nil, fmt.Errorf("failed to open %s backend: %w", store.Name(), err)
	}
	return store, nil
}

// ParseBackendAddress creates the store described by address without
// opening it.
func ParseBackendAddress(address string, opts ...backend.Option) (backend.StorageBackend, error) {
	// Format address
	address = strings.TrimSpace(address)

	protocol, rest, ok := strings.Cut(address, "://")
	if !ok || protocol == "" {
		return nil, fmt.Errorf("failed to parse address '%s': %w", address, data.ErrInvalidAddress)
	}

	// Protocol-based parsing
	switch strings.ToLower(protocol) {
	case "memory":
		return asStorage(memory.NewMemoryBackend(opts...))
	case "sqlite":
		return asStorage(sqlite.NewSQLiteBackend(rest, opts...))
	case "postgres", "postgresql", "psql":
		return asStorage(postgres.NewPostgresBackend("postgres://"+rest, opts...))
	case "consul":
		return parseConsulAddress(address, opts...)
	case "s3", "minio":
		return parseS3Address(address, opts...)
	case "badger":
		return asStorage(badgerdb.NewBadgerBackend(rest, opts...))
	case "cosmos":
		return parseCosmosAddress(rest, opts...)
	}

	return nil, fmt.Errorf("failed to parse address '%s': %w", address, data.ErrUnknownProtocol)
}

func parseConsulAddress(address string, opts ...backend.Option) (backend.StorageBackend, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrInvalidAddress, err)
	}

	query := u.Query()
	config := &consul.ConsulBackendConfig{
		Address:    u.Host,
		Token:      query.Get("token"),
		Datacenter: query.Get("datacenter"),
	}

	if base := strings.Trim(u.Path, "/"); base != "" {
		opts = append(opts, backend.WithBase(base))
	}
	return asStorage(consul.NewConsulBackend(config, opts...))
}

func parseS3Address(address string, opts ...backend.Option) (backend.StorageBackend, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrInvalidAddress, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: s3 requires an endpoint", data.ErrInvalidAddress)
	}

	accessKey := u.User.Username()
	secretKey, _ := u.User.Password()

	bucket, base, _ := strings.Cut(strings.Trim(u.Path, "/"), "/")
	if base != "" {
		opts = append(opts, backend.WithBase(base))
	}

	useSsl := false
	if ssl := u.Query().Get("ssl"); ssl != "" {
		useSsl, err = strconv.ParseBool(ssl)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid ssl value '%s'", data.ErrInvalidAddress, ssl)
		}
	}

	return asStorage(s3.NewS3Backend(u.Host, bucket, accessKey, secretKey, useSsl, opts...))
}

func parseCosmosAddress(address string, opts ...backend.Option) (backend.StorageBackend, error) {
	kind, location, _ := strings.Cut(address, "/")

	var dir, name string
	if location = strings.TrimSuffix(location, "/"); location != "" {
		dir, name = path.Split(location)
		dir = strings.TrimSuffix(dir, "/")
		if dir == "" {
			dir = "."
		}
	}

	return asStorage(cosmos.NewCosmosBackend(dbm.BackendType(kind), name, dir, opts...))
}

// asStorage turns a constructor result into the interface without leaking a
// typed nil pointer on failure.
func asStorage[T backend.StorageBackend](store T, err error) (backend.StorageBackend, error) {
	if err != nil {
		return nil, err
	}
	return store, nil
}
