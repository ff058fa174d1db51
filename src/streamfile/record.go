package streamfile

import (
	"fmt"
	"time"
)

// StreamFileRecord is the decoded envelope of an accepted stream file.
type StreamFileRecord struct {
	Name   string
	Stream StreamType

	Version     int32
	HapiVersion string

	// PreviousHash is the chain hash of the predecessor as declared by this
	// file. Empty when the format declares no linkage.
	PreviousHash []byte
	// Hash is the chain hash the successor must declare as its PreviousHash.
	Hash []byte
	// FileHash is the digest that node signatures vouch for.
	FileHash []byte
	// MetadataHash is the v5/v6 digest over everything but the items.
	MetadataHash []byte

	Count          int
	ConsensusStart int64
	ConsensusEnd   int64
	BlockNumber    int64
	Size           int

	items ItemSource
}

// ItemSource creates a fresh iterator over the items of a file.
type ItemSource func() ItemIterator

// SetItems is used by decoders to attach the lazy item sequence.
func (r *StreamFileRecord) SetItems(src ItemSource) {
	r.items = src
}

// Items returns a new iterator positioned before the first item. Each call
// restarts the sequence from the beginning.
func (r *StreamFileRecord) Items() ItemIterator {
	if r.items == nil {
		return &sliceIterator{}
	}
	return r.items()
}

// ConsensusStartTime ...
func (r *StreamFileRecord) ConsensusStartTime() time.Time {
	return time.Unix(0, r.ConsensusStart).UTC()
}

// String ...
func (r *StreamFileRecord) String() string {
	return fmt.Sprintf("%s(v%d, %d items)", r.Name, r.Version, r.Count)
}

// DecodedItem is one domain record of a file.
type DecodedItem interface {
	// ConsensusTimestamp orders items and keys their persistence.
	ConsensusTimestamp() int64
	// Index is the position of the item within its file.
	Index() int
}

// ItemIterator walks the items of a file in on-disk order. After Next returns
// true, either Item is valid or Err reports why this one item could not be
// decoded; iteration may continue past such an item.
type ItemIterator interface {
	Next() bool
	Item() DecodedItem
	Err() error
}

type sliceIterator struct {
	items []DecodedItem
	pos   int
}

// NewSliceIterator iterates over already decoded items.
func NewSliceIterator(items []DecodedItem) ItemIterator {
	return &sliceIterator{items: items, pos: -1}
}

func (it *sliceIterator) Next() bool {
	if it.pos+1 >= len(it.items) {
		it.pos = len(it.items)
		return false
	}
	it.pos++
	return true
}

func (it *sliceIterator) Item() DecodedItem {
	if it.pos < 0 || it.pos >= len(it.items) {
		return nil
	}
	return it.items[it.pos]
}

func (it *sliceIterator) Err() error {
	return nil
}
