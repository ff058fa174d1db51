package store

import (
	"github.com/mosaicnetworks/streamgate/src/addressbook"
)

// Checkpoint describes the last fully persisted file of a stream.
type Checkpoint struct {
	Filename     string
	Hash         []byte
	ConsensusEnd int64
	Files        int64
}

// Store is an interface for the durable state of the engine.
type Store interface {
	// GetCheckpoint returns the checkpoint of a stream, or a KeyNotFound
	// StoreErr if no file of the stream was ever persisted.
	GetCheckpoint(stream string) (Checkpoint, error)
	// SetCheckpoint records a stream's checkpoint.
	SetCheckpoint(stream string, cp Checkpoint) error
	// PutAddressBook stores an address book, replacing the one with the same
	// slot and start.
	PutAddressBook(ab *addressbook.AddressBook) error
	// LatestAddressBook returns the most recent address book of a slot.
	LatestAddressBook(slot addressbook.Slot) (*addressbook.AddressBook, error)
	// PutPendingAssembly records the roster assembly in progress of a slot.
	PutPendingAssembly(p addressbook.Pending) error
	// PendingAssembly returns the assembly in progress of a slot, or a
	// KeyNotFound StoreErr.
	PendingAssembly(slot addressbook.Slot) (addressbook.Pending, error)
	// AddressBooks returns the history of a slot, oldest first.
	AddressBooks(slot addressbook.Slot) ([]*addressbook.AddressBook, error)
	// Close closes the underlying database.
	Close() error
	// StorePath returns the filepath of the underlying database.
	StorePath() string
}

// Restore publishes the latest persisted address book of every slot to the
// assembler and resumes the assemblies in progress.
func Restore(s Store, a *addressbook.Assembler) error {
	for _, slot := range addressbook.Slots() {
		ab, err := s.LatestAddressBook(slot)
		switch {
		case err == nil:
			a.Restore(ab)
		case !isNotFound(err):
			return err
		}

		p, err := s.PendingAssembly(slot)
		switch {
		case err == nil:
			a.RestorePending(p)
		case !isNotFound(err):
			return err
		}
	}
	return nil
}
