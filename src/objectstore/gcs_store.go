package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSStore reads from a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

// NewGCSStore creates a client from the default Google credentials. With a
// custom endpoint, such as an emulator, requests are unauthenticated.
func NewGCSStore(ctx context.Context, conf Config) (*GCSStore, error) {
	if conf.Bucket == "" {
		return nil, fmt.Errorf("gcs backend needs a bucket")
	}

	opts := []option.ClientOption{}
	if conf.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(conf.Endpoint), option.WithoutAuthentication())
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	bucket := client.Bucket(conf.Bucket)
	if conf.RequesterPays && conf.Project != "" {
		bucket = bucket.UserProject(conf.Project)
	}

	return &GCSStore{
		client: client,
		bucket: bucket,
	}, nil
}

// List implements Store.
func (s *GCSStore) List(ctx context.Context, prefix, startAfter string, limit int) ([]string, error) {
	query := &storage.Query{Prefix: prefix}
	if startAfter != "" {
		// StartOffset is inclusive
		query.StartOffset = startAfter + "\x00"
	}
	if err := query.SetAttrSelection([]string{"Name"}); err != nil {
		return nil, err
	}

	keys := []string{}
	it := s.bucket.Objects(ctx, query)
	for limit <= 0 || len(keys) < limit {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}

// Get implements Store.
func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := s.bucket.Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return ioutil.ReadAll(r)
}

// Close releases the client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
