package objectstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/streamgate/src/common"
)

// Store is read access to a bucket of stream files.
type Store interface {
	// List returns up to limit keys under prefix that sort strictly after
	// startAfter, in ascending order. A limit <= 0 means no limit.
	List(ctx context.Context, prefix, startAfter string, limit int) ([]string, error)

	// Get returns the content of key. A missing key is a KeyNotFound
	// StoreErr.
	Get(ctx context.Context, key string) ([]byte, error)
}

// Backends
const (
	BackendLocal = "local"
	BackendS3    = "s3"
	BackendGCS   = "gcs"
	BackendInmem = "inmem"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	// Bucket is the bucket name for s3 and gcs.
	Bucket string
	// Path is the root directory of the local backend.
	Path     string
	Region   string
	Endpoint string
	// RequesterPays bills requests to the reader: on gcs, to Project.
	RequesterPays bool
	Project       string
	// Retries is the number of times a failed call is retried. 0 disables
	// retries.
	Retries   uint64
	RetryBase time.Duration
}

// New creates the configured store, wrapped for retries when Retries > 0.
func New(ctx context.Context, conf Config, logger *logrus.Entry) (Store, error) {
	var (
		store Store
		err   error
	)

	switch conf.Backend {
	case BackendLocal, "":
		store, err = NewLocalStore(conf.Path)
	case BackendS3:
		store, err = NewS3Store(ctx, conf)
	case BackendGCS:
		store, err = NewGCSStore(ctx, conf)
	case BackendInmem:
		store = NewInmemStore()
	default:
		return nil, fmt.Errorf("unknown object store backend %q", conf.Backend)
	}
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"backend": conf.Backend,
		"bucket":  conf.Bucket,
		"path":    conf.Path,
		"retries": conf.Retries,
	}).Debug("Object store")

	if conf.Retries > 0 {
		store = NewRetryingStore(store, conf.Retries, conf.RetryBase, logger)
	}
	return store, nil
}

// JoinKey joins path elements with slashes.
func JoinKey(elems ...string) string {
	parts := make([]string, 0, len(elems))
	for _, e := range elems {
		e = strings.Trim(e, "/")
		if e != "" {
			parts = append(parts, e)
		}
	}
	return strings.Join(parts, "/")
}

// BaseName returns the last element of a key.
func BaseName(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}

func notFound(key string) error {
	return common.NewStoreErr("Object", common.KeyNotFound, key)
}

func applyLimit(keys []string, limit int) []string {
	if limit > 0 && len(keys) > limit {
		return keys[:limit]
	}
	return keys
}
