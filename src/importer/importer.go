package importer

import (
	"context"
	"fmt"
	"io/ioutil"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/mosaicnetworks/streamgate/src/addressbook"
	"github.com/mosaicnetworks/streamgate/src/chain"
	"github.com/mosaicnetworks/streamgate/src/common"
	"github.com/mosaicnetworks/streamgate/src/config"
	"github.com/mosaicnetworks/streamgate/src/downloader"
	"github.com/mosaicnetworks/streamgate/src/objectstore"
	"github.com/mosaicnetworks/streamgate/src/signature"
	"github.com/mosaicnetworks/streamgate/src/store"
	"github.com/mosaicnetworks/streamgate/src/streamfile"
)

// Importer imports the configured streams, one cycle at a time.
type Importer struct {
	// The state is kept in a separate structure so that it can be read and
	// written atomically.
	state

	conf   *config.Config
	logger *logrus.Entry

	store     store.Store
	sink      store.Sink
	objects   objectstore.Store
	assembler *addressbook.Assembler
	chain     *chain.Validator

	streams []*streamImporter

	controlTimer *ControlTimer
	shutdownCh   chan struct{}
	shutdownOnce sync.Once

	start  time.Time
	cycles *atomic.Int64
}

// NewImporter wires an importer for the streams of conf. st holds the
// checkpoints and address books, sink receives the imported content, and
// objects is where the nodes upload their files.
func NewImporter(conf *config.Config, st store.Store, sink store.Sink, objects objectstore.Store) (*Importer, error) {
	logger := conf.Logger()

	streamTypes, unknown := conf.StreamTypes()
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown streams %v", unknown)
	}
	if len(streamTypes) == 0 {
		return nil, fmt.Errorf("no stream to import")
	}
	// record files carry the roster updates
	sort.SliceStable(streamTypes, func(a, b int) bool {
		return streamTypes[a].Name == streamfile.RecordStream.Name && streamTypes[b].Name != streamfile.RecordStream.Name
	})

	verifier, err := signature.NewVerifier(conf.CacheSize, logger.WithField("prefix", "signature"))
	if err != nil {
		return nil, err
	}

	imp := &Importer{
		conf:         conf,
		logger:       logger.WithField("prefix", "importer"),
		store:        st,
		sink:         sink,
		objects:      objects,
		assembler:    addressbook.NewAssembler(st, logger.WithField("prefix", "addressbook")),
		chain:        chain.NewValidator(logger.WithField("prefix", "chain")),
		controlTimer: NewPollTimer(),
		shutdownCh:   make(chan struct{}),
		start:        time.Now(),
		cycles:       atomic.NewInt64(0),
	}

	for _, stt := range streamTypes {
		decode, hash := codecFor(stt, conf.Shard, logger.WithField("prefix", stt.Name))
		coordinator := downloader.NewCoordinator(downloader.Config{
			Stream:            stt,
			QuorumNumerator:   conf.QuorumNumerator,
			QuorumDenominator: conf.QuorumDenominator,
			MaxFiles:          conf.MaxFiles,
			Parallelism:       conf.Parallelism,
			Hash:              hash,
		}, objects, verifier, logger.WithField("prefix", "downloader"))

		imp.streams = append(imp.streams, newStreamImporter(stt, coordinator, decode, imp.logger))
	}

	return imp, nil
}

// Init restores the checkpoints and the address books from the store. When
// no address book was ever persisted, the bootstrap address book of the
// configuration, if any, is loaded. It is either a serialized roster file or
// a JSON list of nodes.
func (i *Importer) Init() error {
	if err := store.Restore(i.store, i.assembler); err != nil {
		return err
	}

	if _, err := i.assembler.Current(); err != nil && i.conf.BootstrapAddressBook != "" {
		var raw []byte
		if addressbook.IsJSONRoster(i.conf.BootstrapAddressBook) {
			raw, err = addressbook.NewJSONRoster(i.conf.BootstrapAddressBook).Raw()
		} else {
			raw, err = ioutil.ReadFile(i.conf.BootstrapAddressBook)
		}
		if err != nil {
			return fmt.Errorf("reading bootstrap address book: %w", err)
		}
		if err := i.Bootstrap(raw); err != nil {
			return err
		}
	}

	for _, s := range i.streams {
		cp, err := i.store.GetCheckpoint(s.stream.Name)
		if err != nil {
			if common.IsStore(err, common.KeyNotFound) {
				continue
			}
			return err
		}

		s.checkpoint.Store(&cp)
		s.files.Store(cp.Files)
		s.coordinator.Commit(cp.Filename)
		i.chain.Seed(s.stream.Name, cp.Hash)

		i.logger.WithFields(logrus.Fields{
			"stream": s.stream.Name,
			"file":   cp.Filename,
			"hash":   common.ShortHex(cp.Hash),
		}).Info("Resuming")
	}

	return nil
}

// Bootstrap loads a serialized address book into the secondary slot, which
// is the one used to verify signatures.
func (i *Importer) Bootstrap(raw []byte) error {
	ab, err := i.assembler.Bootstrap(addressbook.Secondary, 0, raw)
	if err != nil {
		return err
	}
	i.logger.WithFields(logrus.Fields{
		"nodes": ab.Len(),
		"hash":  common.ShortHex(ab.Hash()),
	}).Info("Bootstrapped address book")
	return nil
}

// RunAsync runs the importer in a goroutine that Shutdown waits for.
func (i *Importer) RunAsync(ctx context.Context) {
	i.logger.Debug("runasync")
	i.goFunc(func() { i.Run(ctx) })
}

// Run invokes the main loop of the importer. It returns when ctx is done or
// when the importer is shut down.
func (i *Importer) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-i.shutdownCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	go i.controlTimer.Run(0)

	for {
		select {
		case <-i.controlTimer.tickCh:
			if !i.compareAndSetState(Idle, Importing) {
				return
			}

			imported, err := i.Cycle(ctx)
			if err != nil {
				i.logger.WithError(err).Error("Cycle failed")
			}

			if !i.compareAndSetState(Importing, Idle) {
				return
			}

			next := i.conf.PollInterval
			if imported > 0 && err == nil {
				next = i.conf.CatchUpInterval
			}
			if !i.controlTimer.Reset(next) {
				return
			}
		case <-ctx.Done():
			return
		case <-i.shutdownCh:
			return
		}
	}
}

// Shutdown stops the main loop, waits for it, and closes the sink and the
// store.
func (i *Importer) Shutdown() {
	i.shutdownOnce.Do(func() {
		i.logger.Debug("Shutdown")

		i.setState(Shutdown)

		close(i.shutdownCh)

		i.waitRoutines()

		i.controlTimer.Shutdown()

		if err := i.sink.Close(); err != nil {
			i.logger.WithError(err).Error("Closing sink")
		}
		if err := i.store.Close(); err != nil {
			i.logger.WithError(err).Error("Closing store")
		}
	})
}

// State returns the current state of the importer.
func (i *Importer) State() State {
	return i.getState()
}

// AddressBook returns the address book currently used to verify signatures.
func (i *Importer) AddressBook() (*addressbook.AddressBook, error) {
	return i.assembler.Current()
}

// Checkpoints returns the checkpoint of every stream.
func (i *Importer) Checkpoints() map[string]store.Checkpoint {
	res := make(map[string]store.Checkpoint, len(i.streams))
	for _, s := range i.streams {
		res[s.stream.Name] = *s.checkpoint.Load()
	}
	return res
}

// GetStats returns stats
func (i *Importer) GetStats() map[string]string {
	s := map[string]string{
		"state":           i.getState().String(),
		"cycles":          strconv.FormatInt(i.cycles.Load(), 10),
		"uptime":          time.Since(i.start).Round(time.Second).String(),
		"discontinuities": strconv.FormatInt(i.chain.Discontinuities(), 10),
	}

	if ab, err := i.assembler.Current(); err == nil {
		s["address_book_slot"] = ab.Slot.String()
		s["address_book_nodes"] = strconv.Itoa(ab.Len())
		s["address_book_hash"] = ab.Hex()
	}

	for _, st := range i.streams {
		p := st.stream.Name + "_"
		s[p+"watermark"] = st.coordinator.Watermark()
		s[p+"files"] = strconv.FormatInt(st.files.Load(), 10)
		s[p+"items"] = strconv.FormatInt(st.items.Load(), 10)
		s[p+"skipped_rows"] = strconv.FormatInt(st.skippedRows.Load(), 10)
		s[p+"failures"] = strconv.FormatInt(st.failures.Load(), 10)
		s[p+"discontinuities"] = strconv.FormatInt(st.discontinuities.Load(), 10)
		s[p+"quorum_misses"] = strconv.FormatInt(st.coordinator.QuorumMisses(), 10)
		s[p+"hash_mismatches"] = strconv.FormatInt(st.coordinator.HashMismatches(), 10)
		s[p+"skipped_files"] = strconv.FormatInt(st.coordinator.Skipped(), 10)
		s[p+"last_error"] = st.lastError.Load()
	}

	return s
}

func (i *Importer) logStats() {
	stats := i.GetStats()

	fields := logrus.Fields{}
	for k, v := range stats {
		fields[k] = v
	}
	i.logger.WithFields(fields).Debug("Stats")
}
