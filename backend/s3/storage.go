package s3

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/mwantia/nskv/backend"
	"github.com/mwantia/nskv/data"
)

func (sb *S3Backend) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	if err := sb.checkOpen(); err != nil {
		return nil, false, err
	}

	return sb.read(ctx, backend.NamedKey(sb.base, key))
}

func (sb *S3Backend) read(ctx context.Context, name string) ([]byte, bool, error) {
	object, err := sb.client.GetObject(ctx, sb.bucketName, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, false, err
	}
	defer object.Close()

	// The request is only sent on the first read
	value, err := io.ReadAll(object)
	if err != nil {
		errResponse := minio.ToErrorResponse(err)
		if errResponse.Code == "NoSuchKey" {
			return nil, false, nil
		}
		return nil, false, err
	}

	if value == nil {
		value = []byte{}
	}
	return value, true, nil
}

func (sb *S3Backend) Set(ctx context.Context, key, value []byte) error {
	if err := sb.checkOpen(); err != nil {
		return err
	}

	name := backend.NamedKey(sb.base, key)
	_, err := sb.client.PutObject(ctx, sb.bucketName, name, bytes.NewReader(value), int64(len(value)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		sb.log.Error("Set failed: %v", err)
		return err
	}
	return nil
}

func (sb *S3Backend) Remove(ctx context.Context, key []byte) error {
	if err := sb.checkOpen(); err != nil {
		return err
	}

	// Deleting a missing object succeeds
	name := backend.NamedKey(sb.base, key)
	if err := sb.client.RemoveObject(ctx, sb.bucketName, name, minio.RemoveObjectOptions{}); err != nil {
		sb.log.Error("Remove failed: %v", err)
		return err
	}
	return nil
}

func (sb *S3Backend) Range(ctx context.Context, start, end []byte, order data.Order) (backend.Iterator, error) {
	if err := sb.checkOpen(); err != nil {
		return nil, err
	}

	listCtx, cancel := context.WithCancel(ctx)
	objects := sb.client.ListObjects(listCtx, sb.bucketName, minio.ListObjectsOptions{
		Prefix:    backend.ListPrefix(sb.base, start, end),
		Recursive: true,
	})

	it := &s3Iterator{
		ctx:     ctx,
		cancel:  cancel,
		backend: sb,
		objects: objects,
		start:   start,
		end:     end,
	}

	// S3 lists ascending only; a descending range collects its keys first
	// and fetches values lazily from the reversed list
	if order == data.Descending {
		var keys []listedKey
		for {
			k, ok := it.nextListed()
			if !ok {
				break
			}
			keys = append(keys, k)
		}
		cancel()
		if it.err != nil {
			return nil, it.err
		}

		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
		it.objects = nil
		it.buffered = keys
	}

	return it, nil
}

type listedKey struct {
	raw  []byte
	name string
}

type s3Iterator struct {
	ctx     context.Context
	cancel  context.CancelFunc
	backend *S3Backend
	objects <-chan minio.ObjectInfo
	start   []byte
	end     []byte

	buffered []listedKey
	cur      data.Pair
	err      error
	done     bool
}

// nextListed returns the next in-range key from the listing.
func (it *s3Iterator) nextListed() (listedKey, bool) {
	for object := range it.objects {
		if object.Err != nil {
			it.err = object.Err
			return listedKey{}, false
		}

		raw, err := backend.ParseNamedKey(it.backend.base, object.Key)
		if err != nil {
			// Foreign objects below the base are not ours
			continue
		}
		if it.start != nil && string(raw) < string(it.start) {
			continue
		}
		if it.end != nil && string(raw) >= string(it.end) {
			// Listing is sorted, nothing further can match
			return listedKey{}, false
		}
		return listedKey{raw: raw, name: object.Key}, true
	}
	return listedKey{}, false
}

func (it *s3Iterator) Next() bool {
	if it.done || it.err != nil {
		return false
	}

	var next listedKey
	var ok bool
	if it.objects != nil {
		next, ok = it.nextListed()
	} else if len(it.buffered) > 0 {
		next, ok = it.buffered[0], true
		it.buffered = it.buffered[1:]
	}
	if !ok {
		it.finish()
		return false
	}

	value, found, err := it.backend.read(it.ctx, next.name)
	if err != nil {
		it.err = err
		it.finish()
		return false
	}
	if !found {
		// Removed between listing and fetching
		return it.Next()
	}

	it.cur = data.Pair{Key: next.raw, Value: value}
	return true
}

func (it *s3Iterator) finish() {
	it.done = true
	it.cur = data.Pair{}
	it.cancel()
}

func (it *s3Iterator) Key() []byte {
	return it.cur.Key
}

func (it *s3Iterator) Value() []byte {
	return it.cur.Value
}

func (it *s3Iterator) Err() error {
	return it.err
}

func (it *s3Iterator) Close() error {
	if !it.done {
		it.finish()
	}
	it.buffered = nil
	return nil
}
