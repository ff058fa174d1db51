package record

import (
	"fmt"

	"github.com/mosaicnetworks/streamgate/src/common"
	"github.com/mosaicnetworks/streamgate/src/hapi"
	"github.com/mosaicnetworks/streamgate/src/streamfile"
)

// RecordItem is one transaction of a record file together with its outcome.
type RecordItem struct {
	index int

	// TransactionBytes and RecordBytes are the serialized messages as found
	// in the file.
	TransactionBytes []byte
	RecordBytes      []byte

	Record *hapi.TransactionRecord
	// Body is nil when the transaction carries no decodable body.
	Body *hapi.TransactionBody
}

// ConsensusTimestamp implements streamfile.DecodedItem.
func (r *RecordItem) ConsensusTimestamp() int64 {
	return r.Record.ConsensusTimestamp.UnixNano()
}

// Index implements streamfile.DecodedItem.
func (r *RecordItem) Index() int {
	return r.index
}

// Kind returns the transaction type, or KindUnknown without a body.
func (r *RecordItem) Kind() hapi.TransactionKind {
	if r.Body == nil {
		return hapi.KindUnknown
	}
	return r.Body.Kind
}

// pair is a transaction/record couple located in the file but not decoded
// yet.
type pair struct {
	transaction []byte
	record      []byte
}

// scanned is the outcome of the structural pass shared by all versions.
type scanned struct {
	pairs []pair
	start int64
	end   int64
}

// add checks the record of p and tracks the consensus range.
func (s *scanned) add(p pair) error {
	rec, err := hapi.UnmarshalTransactionRecord(p.record)
	if err != nil {
		return fmt.Errorf("item %d: record: %v", len(s.pairs), err)
	}
	ts := rec.ConsensusTimestamp.UnixNano()
	if len(s.pairs) == 0 {
		s.start = ts
	}
	s.end = ts
	s.pairs = append(s.pairs, p)
	return nil
}

func (s *scanned) apply(rec *streamfile.StreamFileRecord, name string) {
	rec.Count = len(s.pairs)
	rec.ConsensusStart = s.start
	rec.ConsensusEnd = s.end

	pairs := s.pairs
	rec.SetItems(func() streamfile.ItemIterator {
		return &itemIterator{name: name, pairs: pairs, pos: -1}
	})
}

type itemIterator struct {
	name  string
	pairs []pair
	pos   int
	item  *RecordItem
	err   error
}

func (it *itemIterator) Next() bool {
	it.item, it.err = nil, nil
	if it.pos+1 >= len(it.pairs) {
		it.pos = len(it.pairs)
		return false
	}
	it.pos++

	p := it.pairs[it.pos]
	rec, err := hapi.UnmarshalTransactionRecord(p.record)
	if err != nil {
		it.err = common.NewStreamErr(common.MalformedStreamFile, it.name, "item %d: record: %v", it.pos, err)
		return true
	}

	item := &RecordItem{
		index:            it.pos,
		TransactionBytes: p.transaction,
		RecordBytes:      p.record,
		Record:           rec,
	}

	tx, err := hapi.UnmarshalTransaction(p.transaction)
	if err != nil {
		it.err = common.NewStreamErr(common.MalformedStreamFile, it.name, "item %d: transaction: %v", it.pos, err)
		return true
	}
	if body, err := tx.ParsedBody(); err == nil {
		item.Body = body
	}

	it.item = item
	return true
}

func (it *itemIterator) Item() streamfile.DecodedItem {
	if it.item == nil {
		return nil
	}
	return it.item
}

func (it *itemIterator) Err() error {
	return it.err
}
