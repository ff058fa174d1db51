package store

import (
	"context"

	"github.com/mosaicnetworks/streamgate/src/balance"
	"github.com/mosaicnetworks/streamgate/src/hapi"
	"github.com/mosaicnetworks/streamgate/src/record"
	"github.com/mosaicnetworks/streamgate/src/streamfile"
)

// FileSummary is the envelope of an accepted file, as handed to a Sink.
type FileSummary struct {
	Name           string
	Stream         string
	Version        int32
	HapiVersion    string
	PreviousHash   []byte
	Hash           []byte
	FileHash       []byte
	MetadataHash   []byte
	Count          int
	ConsensusStart int64
	ConsensusEnd   int64
	BlockNumber    int64
	Size           int
	Discontinuity  bool
	// Node is the account of the node the bytes were downloaded from.
	Node string
}

// NewFileSummary ...
func NewFileSummary(rec *streamfile.StreamFileRecord, node string, discontinuity bool) *FileSummary {
	return &FileSummary{
		Name:           rec.Name,
		Stream:         rec.Stream.Name,
		Version:        rec.Version,
		HapiVersion:    rec.HapiVersion,
		PreviousHash:   rec.PreviousHash,
		Hash:           rec.Hash,
		FileHash:       rec.FileHash,
		MetadataHash:   rec.MetadataHash,
		Count:          rec.Count,
		ConsensusStart: rec.ConsensusStart,
		ConsensusEnd:   rec.ConsensusEnd,
		BlockNumber:    rec.BlockNumber,
		Size:           rec.Size,
		Discontinuity:  discontinuity,
		Node:           node,
	}
}

// Batch is a run of consecutive items of one file. The last batch of a file
// has Final set, and is sent even when the file has no items left.
type Batch struct {
	File  *FileSummary
	Seq   int
	Items []streamfile.DecodedItem
	Final bool
}

// Sink receives the content of accepted files. Persist must be idempotent:
// after a failure the whole file is sent again on the next cycle.
type Sink interface {
	Persist(ctx context.Context, batch *Batch) error
	Close() error
}

// StoredItem is the persisted form of a DecodedItem.
type StoredItem struct {
	Stream             string
	File               string
	Index              int
	ConsensusTimestamp int64

	// record items
	Kind        string `codec:",omitempty"`
	Transaction []byte `codec:",omitempty"`
	Record      []byte `codec:",omitempty"`

	// balance items
	Account       string              `codec:",omitempty"`
	Balance       int64               `codec:",omitempty"`
	TokenBalances []hapi.TokenBalance `codec:",omitempty"`
}

// NewStoredItem flattens a decoded item of any stream.
func NewStoredItem(file *FileSummary, item streamfile.DecodedItem) StoredItem {
	si := StoredItem{
		Stream:             file.Stream,
		File:               file.Name,
		Index:              item.Index(),
		ConsensusTimestamp: item.ConsensusTimestamp(),
	}
	switch it := item.(type) {
	case *record.RecordItem:
		si.Kind = it.Kind().String()
		si.Transaction = it.TransactionBytes
		si.Record = it.RecordBytes
	case *balance.Item:
		si.Account = it.Account.String()
		si.Balance = it.Balance
		si.TokenBalances = it.TokenBalances
	}
	return si
}
