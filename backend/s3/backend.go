package s3

import (
	"context"
	"fmt"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/mwantia/nskv/backend"
	"github.com/mwantia/nskv/data"
	"github.com/mwantia/nskv/log"
)

// DefaultBase is the object prefix used when no base is configured.
const DefaultBase = "nskv"

// S3Backend stores every entry as an object named `<base>/<hex key>` in a
// single bucket. Object listings are sorted by name, and hex keeps byte-wise
// order, so ascending ranges stream straight from the listing.
type S3Backend struct {
	backend.Exclusive

	mu         sync.RWMutex
	log        *log.Logger
	client     *minio.Client
	bucketName string
	base       string
	opened     bool
}

var _ backend.StorageBackend = (*S3Backend)(nil)

func NewS3Backend(endpoint, bucketName, accessKey, secretKey string, useSsl bool, opts ...backend.Option) (*S3Backend, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("%w: s3 requires a bucket", data.ErrInvalidAddress)
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSsl,
	})
	if err != nil {
		return nil, err
	}

	options, err := backend.ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}

	base := options.Base
	if base == "" {
		base = DefaultBase
	}

	return &S3Backend{
		log:        options.Logger.Named("s3").With("bucket", bucketName),
		client:     client,
		bucketName: bucketName,
		base:       base,
	}, nil
}

// Name returns the identifier name defined for this backend
func (*S3Backend) Name() string {
	return "s3"
}

// Open is part of the lifecycle behaviour and gets called when opening this backend.
func (sb *S3Backend) Open(ctx context.Context) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	exists, err := sb.client.BucketExists(ctx, sb.bucketName)
	if err != nil {
		return err
	}

	if !exists {
		return fmt.Errorf("%w: bucket '%s' does not exist", data.ErrInvalidAddress, sb.bucketName)
	}

	sb.opened = true
	sb.log.Debug("opened")
	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
func (sb *S3Backend) Close(ctx context.Context) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.opened = false
	return nil
}

// GetCapabilities returns a list of capabilities supported by this backend.
func (sb *S3Backend) GetCapabilities() *backend.Capabilities {
	return backend.NewCapabilities(
		backend.CapabilityStorage,
		backend.CapabilityRange,
		backend.CapabilityPersistent,
		backend.CapabilityNativeRange,
	)
}

func (sb *S3Backend) checkOpen() error {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	if !sb.opened {
		return data.ErrClosed
	}
	return nil
}
