package importer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/streamgate/src/addressbook"
	"github.com/mosaicnetworks/streamgate/src/chain"
	"github.com/mosaicnetworks/streamgate/src/common"
	"github.com/mosaicnetworks/streamgate/src/downloader"
	"github.com/mosaicnetworks/streamgate/src/record"
	"github.com/mosaicnetworks/streamgate/src/store"
	"github.com/mosaicnetworks/streamgate/src/streamfile"
)

// Cycle runs one import cycle over every stream, record streams first so
// that roster updates are known before the other streams are verified. It
// returns the number of files imported. The error aggregates the failures
// of all streams.
func (i *Importer) Cycle(ctx context.Context) (int, error) {
	if i.getState() == Shutdown {
		return 0, fmt.Errorf("importer is shut down")
	}
	i.cycles.Inc()

	var (
		imported int
		errs     *multierror.Error
	)
	for _, s := range i.streams {
		n, err := i.cycleStream(ctx, s)
		imported += n
		if err != nil {
			s.failures.Inc()
			s.lastError.Store(err.Error())
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", s.stream.Name, err))
			if common.IsStream(err, common.NoAddressBookAvailable) {
				break
			}
			continue
		}
		s.lastError.Store("")
	}

	i.logStats()

	return imported, errs.ErrorOrNil()
}

func (i *Importer) cycleStream(ctx context.Context, s *streamImporter) (int, error) {
	if i.conf.CycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.conf.CycleTimeout)
		defer cancel()
	}

	book, err := i.assembler.Current()
	if err != nil {
		return 0, err
	}

	accepted, err := s.coordinator.Download(ctx, book)
	if err != nil {
		return 0, err
	}

	imported := 0
	for _, a := range accepted {
		newBook, err := i.importFile(ctx, s, a)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"file":  a.DataName,
				"node":  a.Node.NodeDir(),
				"error": err,
			}).Error("Import failed")
			return imported, err
		}
		imported++

		// later files were verified against the previous roster
		if newBook {
			s.logger.WithField("file", a.DataName).Info("Address book changed, ending cycle")
			break
		}
	}

	return imported, nil
}

// importFile decodes, persists, and commits one accepted file. It reports
// whether the file completed a new address book.
func (i *Importer) importFile(ctx context.Context, s *streamImporter, a *downloader.Accepted) (bool, error) {
	rec, err := s.decode(a.DataName, a.Data)
	if err != nil {
		return false, err
	}

	if len(a.MetadataHash) > 0 && len(rec.MetadataHash) > 0 && !bytes.Equal(a.MetadataHash, rec.MetadataHash) {
		return false, common.NewStreamErr(common.MalformedStreamFile, a.DataName,
			"metadata hash %s, signatures declare %s", common.ShortHex(rec.MetadataHash), common.ShortHex(a.MetadataHash))
	}

	var link chain.Result
	if i.conf.VerifyHashChain {
		link = i.chain.Check(rec)
	}

	summary := store.NewFileSummary(rec, a.Node.NodeDir(), link.Discontinuity)

	fragments, count, err := i.persist(ctx, s, summary, rec)
	if err != nil {
		return false, err
	}

	newBook := false
	for _, f := range fragments {
		ab, err := i.assembler.Apply(f)
		if err != nil {
			return false, err
		}
		if ab != nil {
			newBook = true
		}
	}

	prev := s.checkpoint.Load()
	cp := store.Checkpoint{
		Filename:     a.DataName,
		Hash:         rec.Hash,
		ConsensusEnd: rec.ConsensusEnd,
		Files:        prev.Files + 1,
	}
	if err := i.store.SetCheckpoint(s.stream.Name, cp); err != nil {
		return false, common.WrapStreamErr(common.PersistenceFailure, a.DataName, err)
	}
	s.checkpoint.Store(&cp)

	if i.conf.VerifyHashChain {
		if res := i.chain.Accept(rec); res.Discontinuity {
			s.discontinuities.Inc()
		}
	} else {
		i.chain.Advance(rec)
	}

	s.coordinator.Commit(a.DataName)
	s.files.Inc()
	s.items.Add(int64(count))

	s.logger.WithFields(logrus.Fields{
		"file":       a.DataName,
		"version":    rec.Version,
		"items":      count,
		"node":       a.Node.NodeDir(),
		"supporters": a.Supporters,
		"hash":       common.ShortHex(rec.Hash),
	}).Info("Imported")

	return newBook, nil
}

// persist hands the items of rec to the sink in batches and collects the
// roster fragments they carry. Rows that fail validation are skipped; any
// other item error fails the file.
func (i *Importer) persist(ctx context.Context, s *streamImporter, summary *store.FileSummary, rec *streamfile.StreamFileRecord) ([]addressbook.Fragment, int, error) {
	var (
		fragments []addressbook.Fragment
		count     int
	)

	batchSize := i.conf.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}

	batch := &store.Batch{File: summary}
	flush := func(final bool) error {
		batch.Final = final
		if err := i.sink.Persist(ctx, batch); err != nil {
			return common.WrapStreamErr(common.PersistenceFailure, summary.Name, err)
		}
		batch = &store.Batch{File: summary, Seq: batch.Seq + 1}
		return nil
	}

	it := rec.Items()
	for it.Next() {
		if err := it.Err(); err != nil {
			if common.IsStream(err, common.InvalidDatasetRow) {
				s.skippedRows.Inc()
				s.logger.WithError(err).Warn("Skipping row")
				continue
			}
			return nil, 0, err
		}

		item := it.Item()
		if ri, ok := item.(*record.RecordItem); ok {
			if f, ok := addressbook.FromItem(ri); ok {
				fragments = append(fragments, f)
			}
		}

		batch.Items = append(batch.Items, item)
		count++

		if len(batch.Items) >= batchSize {
			if err := flush(false); err != nil {
				return nil, 0, err
			}
		}
	}

	if err := flush(true); err != nil {
		return nil, 0, err
	}

	return fragments, count, nil
}
