package importer

import (
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/mosaicnetworks/streamgate/src/balance"
	"github.com/mosaicnetworks/streamgate/src/downloader"
	"github.com/mosaicnetworks/streamgate/src/record"
	"github.com/mosaicnetworks/streamgate/src/store"
	"github.com/mosaicnetworks/streamgate/src/streamfile"
)

type decodeFunc func(name string, data []byte) (*streamfile.StreamFileRecord, error)

// streamImporter holds the per stream state of the importer.
type streamImporter struct {
	stream      streamfile.StreamType
	coordinator *downloader.Coordinator
	decode      decodeFunc

	checkpoint *atomic.Pointer[store.Checkpoint]

	files           *atomic.Int64
	items           *atomic.Int64
	skippedRows     *atomic.Int64
	failures        *atomic.Int64
	discontinuities *atomic.Int64
	lastError       *atomic.String

	logger *logrus.Entry
}

func newStreamImporter(st streamfile.StreamType, coordinator *downloader.Coordinator, decode decodeFunc, logger *logrus.Entry) *streamImporter {
	return &streamImporter{
		stream:          st,
		coordinator:     coordinator,
		decode:          decode,
		checkpoint:      atomic.NewPointer(&store.Checkpoint{}),
		files:           atomic.NewInt64(0),
		items:           atomic.NewInt64(0),
		skippedRows:     atomic.NewInt64(0),
		failures:        atomic.NewInt64(0),
		discontinuities: atomic.NewInt64(0),
		lastError:       atomic.NewString(""),
		logger:          logger.WithField("stream", st.Name),
	}
}

// codecFor returns the decoder and the signed hash function of a stream.
func codecFor(st streamfile.StreamType, shard int64, logger *logrus.Entry) (decodeFunc, downloader.HashFunc) {
	switch st.Name {
	case streamfile.BalanceStream.Name:
		return balance.NewDecoder(shard, logger).Decode, nil
	default:
		return record.Decode, record.FileHash
	}
}
