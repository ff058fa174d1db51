package store

import (
	"fmt"
	"os"

	"github.com/dgraph-io/badger"
	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/streamgate/src/addressbook"
	cm "github.com/mosaicnetworks/streamgate/src/common"
)

const (
	checkpointPrefix  = "checkpoint"
	addressBookPrefix = "addressbook"
	pendingPrefix     = "pending"
	itemPrefix        = "item"
	filePrefix        = "file"
)

// BadgerStore implements the Store interface on a badger database.
type BadgerStore struct {
	db     *badger.DB
	path   string
	logger *logrus.Entry
}

// NewBadgerStore opens, or creates, the database in path.
func NewBadgerStore(path string, logger *logrus.Entry) (*BadgerStore, error) {
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(path)
	opts.SyncWrites = true
	opts.Logger = logger

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &BadgerStore{
		db:     handle,
		path:   path,
		logger: logger,
	}, nil
}

//==============================================================================
//Keys

func checkpointKey(stream string) []byte {
	return []byte(fmt.Sprintf("%s_%s", checkpointPrefix, stream))
}

func addressBookSlotPrefix(slot addressbook.Slot) []byte {
	return []byte(fmt.Sprintf("%s_%d_", addressBookPrefix, slot))
}

func addressBookKey(slot addressbook.Slot, start int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", addressBookSlotPrefix(slot), start))
}

func pendingKey(slot addressbook.Slot) []byte {
	return []byte(fmt.Sprintf("%s_%d", pendingPrefix, slot))
}

func itemKeyBytes(stream string, timestamp int64, index int) []byte {
	return []byte(fmt.Sprintf("%s_%s_%020d_%09d", itemPrefix, stream, timestamp, index))
}

func fileKey(stream, name string) []byte {
	return []byte(fmt.Sprintf("%s_%s_%s", filePrefix, stream, name))
}

//==============================================================================
//Implement the Store interface

// GetCheckpoint implements the Store interface.
func (s *BadgerStore) GetCheckpoint(stream string) (Checkpoint, error) {
	var cp Checkpoint
	err := s.get(checkpointKey(stream), &cp)
	return cp, mapError(err, "Checkpoint", stream)
}

// SetCheckpoint implements the Store interface.
func (s *BadgerStore) SetCheckpoint(stream string, cp Checkpoint) error {
	return s.set(checkpointKey(stream), cp)
}

// PutAddressBook implements the Store interface.
func (s *BadgerStore) PutAddressBook(ab *addressbook.AddressBook) error {
	return s.set(addressBookKey(ab.Slot, ab.StartConsensus), toStored(ab))
}

// PutPendingAssembly implements the Store interface.
func (s *BadgerStore) PutPendingAssembly(p addressbook.Pending) error {
	return s.set(pendingKey(p.Slot), storedPending{
		Slot:          int(p.Slot),
		Bytes:         p.Bytes,
		LastConsensus: p.LastConsensus,
	})
}

// PendingAssembly implements the Store interface.
func (s *BadgerStore) PendingAssembly(slot addressbook.Slot) (addressbook.Pending, error) {
	var stored storedPending
	if err := s.get(pendingKey(slot), &stored); err != nil {
		return addressbook.Pending{}, mapError(err, "PendingAssembly", slot.String())
	}
	return addressbook.Pending{
		Slot:          addressbook.Slot(stored.Slot),
		Bytes:         stored.Bytes,
		LastConsensus: stored.LastConsensus,
	}, nil
}

// AddressBooks implements the Store interface.
func (s *BadgerStore) AddressBooks(slot addressbook.Slot) ([]*addressbook.AddressBook, error) {
	res := []*addressbook.AddressBook{}
	prefix := addressBookSlotPrefix(slot)

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var stored storedAddressBook
			if err := unmarshal(val, &stored); err != nil {
				return err
			}
			ab, err := stored.addressBook()
			if err != nil {
				return err
			}
			res = append(res, ab)
		}
		return nil
	})

	return res, err
}

// LatestAddressBook implements the Store interface.
func (s *BadgerStore) LatestAddressBook(slot addressbook.Slot) (*addressbook.AddressBook, error) {
	books, err := s.AddressBooks(slot)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, cm.NewStoreErr("AddressBook", cm.KeyNotFound, slot.String())
	}
	return books[len(books)-1], nil
}

// Close implements the Store interface.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// StorePath implements the Store interface.
func (s *BadgerStore) StorePath() string {
	return s.path
}

// Sink returns a Sink writing items and file summaries to the same database.
func (s *BadgerStore) Sink() *BadgerSink {
	return &BadgerSink{store: s}
}

//++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++
//DB Methods

func (s *BadgerStore) get(key []byte, v interface{}) error {
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return err
	}
	return unmarshal(val, v)
}

func (s *BadgerStore) set(key []byte, v interface{}) error {
	val, err := marshal(v)
	if err != nil {
		return err
	}

	tx := s.db.NewTransaction(true)
	defer tx.Discard()

	if err := tx.Set(key, val); err != nil {
		return err
	}
	return tx.Commit()
}

func isDBKeyNotFound(err error) bool {
	return err == badger.ErrKeyNotFound
}

func mapError(err error, name, key string) error {
	if err != nil {
		if isDBKeyNotFound(err) {
			return cm.NewStoreErr(name, cm.KeyNotFound, key)
		}
	}
	return err
}
