package store

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/streamgate/src/common"
)

// LogSink only logs what it receives. It is used for dry runs.
type LogSink struct {
	logger *logrus.Entry
}

// NewLogSink ...
func NewLogSink(logger *logrus.Entry) *LogSink {
	return &LogSink{logger: logger}
}

// Persist implements Sink.
func (s *LogSink) Persist(ctx context.Context, batch *Batch) error {
	entry := s.logger.WithFields(logrus.Fields{
		"file":  batch.File.Name,
		"batch": batch.Seq,
		"items": len(batch.Items),
	})
	if batch.Final {
		entry.WithFields(logrus.Fields{
			"hash":  common.ShortHex(batch.File.Hash),
			"count": batch.File.Count,
		}).Info("File persisted")
	} else {
		entry.Debug("Batch")
	}
	return ctx.Err()
}

// Close implements Sink.
func (s *LogSink) Close() error {
	return nil
}
