package objectstore

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/streamgate/src/common"
)

// DefaultRetryBase is the first backoff interval.
const DefaultRetryBase = 200 * time.Millisecond

// RetryingStore retries failed calls of another Store with exponential
// backoff. Missing keys are not retried.
type RetryingStore struct {
	store   Store
	retries uint64
	base    time.Duration
	logger  *logrus.Entry
}

// NewRetryingStore ...
func NewRetryingStore(store Store, retries uint64, base time.Duration, logger *logrus.Entry) *RetryingStore {
	if base <= 0 {
		base = DefaultRetryBase
	}
	return &RetryingStore{
		store:   store,
		retries: retries,
		base:    base,
		logger:  logger,
	}
}

func (s *RetryingStore) backoff() retry.Backoff {
	return retry.WithMaxRetries(s.retries, retry.NewExponential(s.base))
}

func (s *RetryingStore) do(ctx context.Context, op string, key string, f func(ctx context.Context) error) error {
	attempt := 0
	return retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		attempt++
		err := f(ctx)
		if err == nil || common.IsStore(err, common.KeyNotFound) {
			return err
		}
		s.logger.WithFields(logrus.Fields{
			"op":      op,
			"key":     key,
			"attempt": attempt,
			"error":   err,
		}).Debug("Object store call failed")
		return retry.RetryableError(err)
	})
}

// List implements Store.
func (s *RetryingStore) List(ctx context.Context, prefix, startAfter string, limit int) ([]string, error) {
	var keys []string
	err := s.do(ctx, "list", prefix, func(ctx context.Context) error {
		var err error
		keys, err = s.store.List(ctx, prefix, startAfter, limit)
		return err
	})
	return keys, err
}

// Get implements Store.
func (s *RetryingStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.do(ctx, "get", key, func(ctx context.Context) error {
		var err error
		data, err = s.store.Get(ctx, key)
		return err
	})
	return data, err
}
