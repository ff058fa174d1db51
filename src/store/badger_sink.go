package store

import (
	"context"

	"github.com/dgraph-io/badger"
	"github.com/sirupsen/logrus"
)

// BadgerSink persists items in the database of a BadgerStore, keyed by
// stream, consensus timestamp and index. Keys that already exist are not
// written again.
type BadgerSink struct {
	store *BadgerStore
}

// Persist implements Sink. A batch is written in one transaction; badger
// transactions that grow too large are committed and continued.
func (s *BadgerSink) Persist(ctx context.Context, batch *Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := s.store.db.NewTransaction(true)
	defer func() { tx.Discard() }()

	written := 0
	for _, item := range batch.Items {
		key := itemKeyBytes(batch.File.Stream, item.ConsensusTimestamp(), item.Index())

		_, err := tx.Get(key)
		if err == nil {
			continue
		}
		if !isDBKeyNotFound(err) {
			return err
		}

		val, err := marshal(NewStoredItem(batch.File, item))
		if err != nil {
			return err
		}

		err = tx.Set(key, val)
		if err == badger.ErrTxnTooBig {
			if err := tx.Commit(); err != nil {
				return err
			}
			tx = s.store.db.NewTransaction(true)
			err = tx.Set(key, val)
		}
		if err != nil {
			return err
		}
		written++
	}

	if batch.Final {
		val, err := marshal(batch.File)
		if err != nil {
			return err
		}
		if err := tx.Set(fileKey(batch.File.Stream, batch.File.Name), val); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.store.logger.WithFields(logrus.Fields{
		"file":    batch.File.Name,
		"batch":   batch.Seq,
		"written": written,
		"skipped": len(batch.Items) - written,
	}).Debug("Persisted batch")

	return nil
}

// GetFile returns the summary of a persisted file.
func (s *BadgerSink) GetFile(stream, name string) (*FileSummary, error) {
	f := &FileSummary{}
	err := s.store.get(fileKey(stream, name), f)
	if err != nil {
		return nil, mapError(err, "File", name)
	}
	return f, nil
}

// GetItem returns a persisted item.
func (s *BadgerSink) GetItem(stream string, timestamp int64, index int) (StoredItem, error) {
	var si StoredItem
	err := s.store.get(itemKeyBytes(stream, timestamp, index), &si)
	return si, mapError(err, "Item", string(itemKeyBytes(stream, timestamp, index)))
}

// CountItems counts the persisted items of a stream.
func (s *BadgerSink) CountItems(stream string) (int, error) {
	prefix := []byte(itemPrefix + "_" + stream + "_")
	count := 0
	err := s.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Close implements Sink. The database is closed by its BadgerStore.
func (s *BadgerSink) Close() error {
	return nil
}

var _ Sink = (*BadgerSink)(nil)
