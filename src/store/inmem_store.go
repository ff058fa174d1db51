package store

import (
	"sort"
	"sync"

	"github.com/mosaicnetworks/streamgate/src/addressbook"
	cm "github.com/mosaicnetworks/streamgate/src/common"
)

// InmemStore implements the Store interface in memory. Nothing survives a
// restart, so it is only suitable for tests and one-off imports.
type InmemStore struct {
	sync.RWMutex
	checkpoints map[string]Checkpoint
	books       map[addressbook.Slot]map[int64]*addressbook.AddressBook
	pending     map[addressbook.Slot]addressbook.Pending
}

// NewInmemStore ...
func NewInmemStore() *InmemStore {
	return &InmemStore{
		checkpoints: make(map[string]Checkpoint),
		books:       make(map[addressbook.Slot]map[int64]*addressbook.AddressBook),
		pending:     make(map[addressbook.Slot]addressbook.Pending),
	}
}

// GetCheckpoint implements the Store interface.
func (s *InmemStore) GetCheckpoint(stream string) (Checkpoint, error) {
	s.RLock()
	defer s.RUnlock()
	cp, ok := s.checkpoints[stream]
	if !ok {
		return cp, cm.NewStoreErr("Checkpoint", cm.KeyNotFound, stream)
	}
	return cp, nil
}

// SetCheckpoint implements the Store interface.
func (s *InmemStore) SetCheckpoint(stream string, cp Checkpoint) error {
	s.Lock()
	defer s.Unlock()
	s.checkpoints[stream] = cp
	return nil
}

// PutAddressBook implements the Store interface.
func (s *InmemStore) PutAddressBook(ab *addressbook.AddressBook) error {
	s.Lock()
	defer s.Unlock()
	slot, ok := s.books[ab.Slot]
	if !ok {
		slot = make(map[int64]*addressbook.AddressBook)
		s.books[ab.Slot] = slot
	}
	slot[ab.StartConsensus] = ab
	return nil
}

// PutPendingAssembly implements the Store interface.
func (s *InmemStore) PutPendingAssembly(p addressbook.Pending) error {
	s.Lock()
	defer s.Unlock()
	p.Bytes = append([]byte(nil), p.Bytes...)
	s.pending[p.Slot] = p
	return nil
}

// PendingAssembly implements the Store interface.
func (s *InmemStore) PendingAssembly(slot addressbook.Slot) (addressbook.Pending, error) {
	s.RLock()
	defer s.RUnlock()
	p, ok := s.pending[slot]
	if !ok {
		return p, cm.NewStoreErr("PendingAssembly", cm.KeyNotFound, slot.String())
	}
	return p, nil
}

// AddressBooks implements the Store interface.
func (s *InmemStore) AddressBooks(slot addressbook.Slot) ([]*addressbook.AddressBook, error) {
	s.RLock()
	defer s.RUnlock()
	res := []*addressbook.AddressBook{}
	for _, ab := range s.books[slot] {
		res = append(res, ab)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].StartConsensus < res[j].StartConsensus
	})
	return res, nil
}

// LatestAddressBook implements the Store interface.
func (s *InmemStore) LatestAddressBook(slot addressbook.Slot) (*addressbook.AddressBook, error) {
	books, _ := s.AddressBooks(slot)
	if len(books) == 0 {
		return nil, cm.NewStoreErr("AddressBook", cm.KeyNotFound, slot.String())
	}
	return books[len(books)-1], nil
}

// Close implements the Store interface.
func (s *InmemStore) Close() error {
	return nil
}

// StorePath implements the Store interface.
func (s *InmemStore) StorePath() string {
	return ""
}
