package downloader

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/mosaicnetworks/streamgate/src/addressbook"
	"github.com/mosaicnetworks/streamgate/src/common"
	"github.com/mosaicnetworks/streamgate/src/crypto"
	"github.com/mosaicnetworks/streamgate/src/objectstore"
	"github.com/mosaicnetworks/streamgate/src/signature"
	"github.com/mosaicnetworks/streamgate/src/streamfile"
)

// Defaults
const (
	DefaultQuorumNumerator   = 2
	DefaultQuorumDenominator = 3
	DefaultMaxFiles          = 100
	DefaultParallelism       = 16
)

// HashFunc computes the hash node signatures vouch for from the bytes of a
// data file.
type HashFunc func(name string, data []byte) ([]byte, error)

// Config configures a Coordinator for one stream.
type Config struct {
	Stream streamfile.StreamType
	// A hash is accepted when supporters*QuorumDenominator >
	// nodes*QuorumNumerator.
	QuorumNumerator   int
	QuorumDenominator int
	// MaxFiles bounds the number of filenames resolved per cycle.
	MaxFiles int
	// Parallelism bounds the number of concurrent object store calls.
	Parallelism int
	Hash        HashFunc
}

// Accepted is a data file whose content matches a quorum of signatures.
type Accepted struct {
	Filename     streamfile.Filename
	DataName     string
	Data         []byte
	Hash         []byte
	MetadataHash []byte
	// Node served the bytes.
	Node       addressbook.NodeEntry
	Supporters int
}

// Coordinator resolves the files of one stream.
type Coordinator struct {
	conf     Config
	store    objectstore.Store
	verifier *signature.Verifier

	watermark *atomic.String

	quorumMisses   *atomic.Int64
	hashMismatches *atomic.Int64
	skipped        *atomic.Int64

	logger *logrus.Entry
}

// NewCoordinator ...
func NewCoordinator(conf Config, store objectstore.Store, verifier *signature.Verifier, logger *logrus.Entry) *Coordinator {
	if conf.QuorumNumerator <= 0 || conf.QuorumDenominator <= 0 {
		conf.QuorumNumerator = DefaultQuorumNumerator
		conf.QuorumDenominator = DefaultQuorumDenominator
	}
	if conf.MaxFiles <= 0 {
		conf.MaxFiles = DefaultMaxFiles
	}
	if conf.Parallelism <= 0 {
		conf.Parallelism = DefaultParallelism
	}
	if conf.Hash == nil {
		conf.Hash = decompressedHash
	}

	return &Coordinator{
		conf:           conf,
		store:          store,
		verifier:       verifier,
		watermark:      atomic.NewString(""),
		quorumMisses:   atomic.NewInt64(0),
		hashMismatches: atomic.NewInt64(0),
		skipped:        atomic.NewInt64(0),
		logger:         logger.WithField("stream", conf.Stream.Name),
	}
}

func decompressedHash(name string, data []byte) ([]byte, error) {
	raw, err := streamfile.Decompress(name, data)
	if err != nil {
		return nil, err
	}
	return crypto.SHA384(raw), nil
}

// Watermark is the name of the last data file committed.
func (c *Coordinator) Watermark() string {
	return c.watermark.Load()
}

// Commit advances the watermark to name. It is called once the content of
// name has been persisted. The watermark never moves backwards.
func (c *Coordinator) Commit(name string) {
	for {
		cur := c.watermark.Load()
		if cur != "" && strings.TrimSuffix(name, streamfile.CompressedSuffix) <= strings.TrimSuffix(cur, streamfile.CompressedSuffix) {
			return
		}
		if c.watermark.CompareAndSwap(cur, name) {
			return
		}
	}
}

// QuorumMisses counts the filenames that could not be resolved.
func (c *Coordinator) QuorumMisses() int64 {
	return c.quorumMisses.Load()
}

// HashMismatches counts the data files whose content did not match the
// quorum hash.
func (c *Coordinator) HashMismatches() int64 {
	return c.hashMismatches.Load()
}

// Skipped counts the filenames passed over because a later filename was
// accepted before them.
func (c *Coordinator) Skipped() int64 {
	return c.skipped.Load()
}

// Reaches reports whether count supporters out of nodes form a quorum.
func (c *Coordinator) Reaches(count, nodes int) bool {
	return QuorumReached(count, nodes, c.conf.QuorumNumerator, c.conf.QuorumDenominator)
}

// QuorumReached reports whether count*den > nodes*num.
func QuorumReached(count, nodes, num, den int) bool {
	return nodes > 0 && count*den > nodes*num
}

func (c *Coordinator) nodePrefix(node addressbook.NodeEntry) string {
	return c.conf.Stream.NodeDir(node.NodeDir())
}

// Signatures lists the signature files of every node of book past the
// watermark and fetches them. The result maps signature filenames to the
// candidates found for them. Nodes that cannot be reached are skipped; the
// call fails only if no node could be listed.
func (c *Coordinator) Signatures(ctx context.Context, book *addressbook.AddressBook) (map[string][]signature.Candidate, error) {
	var (
		mu      sync.Mutex
		errs    *multierror.Error
		listed  int
		byName  = make(map[string][]signature.Candidate)
		fetched = make(map[string]map[string]bool)
	)

	startAfterName := ""
	if wm := c.Watermark(); wm != "" {
		fn, err := streamfile.ParseFilename(wm)
		if err != nil {
			return nil, err
		}
		startAfterName = fn.SignatureName()
	}

	pool := workerpool.New(c.parallelism(book.Len()))
	for _, node := range book.Nodes {
		node := node
		pool.Submit(func() {
			prefix := c.nodePrefix(node)
			startAfter := ""
			if startAfterName != "" {
				startAfter = prefix + startAfterName
			}

			// data, compressed data and signature per file
			keys, err := c.store.List(ctx, prefix, startAfter, 3*c.conf.MaxFiles)
			if err != nil {
				mu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("list %s: %w", prefix, err))
				mu.Unlock()
				return
			}

			mu.Lock()
			listed++
			mu.Unlock()

			for _, key := range keys {
				name := objectstore.BaseName(key)
				fn, err := streamfile.ParseFilename(name)
				if err != nil || !fn.Signature || fn.Stream.Name != c.conf.Stream.Name {
					continue
				}

				data, err := c.store.Get(ctx, key)
				if err != nil {
					mu.Lock()
					errs = multierror.Append(errs, fmt.Errorf("get %s: %w", key, err))
					mu.Unlock()
					continue
				}

				mu.Lock()
				if fetched[name] == nil {
					fetched[name] = make(map[string]bool)
				}
				if !fetched[name][node.NodeDir()] {
					fetched[name][node.NodeDir()] = true
					byName[name] = append(byName[name], signature.Candidate{
						Filename: name,
						Account:  node.NodeDir(),
						Data:     data,
					})
				}
				mu.Unlock()
			}
		})
	}
	pool.StopWait()

	if err := errs.ErrorOrNil(); err != nil {
		c.logger.WithError(err).Warn("Some nodes could not be listed")
	}
	if listed == 0 && book.Len() > 0 {
		return nil, fmt.Errorf("no node could be listed: %w", errs.ErrorOrNil())
	}

	return byName, ctx.Err()
}

func (c *Coordinator) parallelism(n int) int {
	if n < 1 {
		return 1
	}
	if n > c.conf.Parallelism {
		return c.conf.Parallelism
	}
	return n
}

// pendingNames returns at most MaxFiles signature names in filename order.
func (c *Coordinator) pendingNames(byName map[string][]signature.Candidate) []streamfile.Filename {
	names := make([]streamfile.Filename, 0, len(byName))
	for name := range byName {
		fn, err := streamfile.ParseFilename(name)
		if err != nil {
			continue
		}
		names = append(names, fn)
	}
	sort.Slice(names, func(i, j int) bool {
		return names[j].After(names[i])
	})
	if len(names) > c.conf.MaxFiles {
		names = names[:c.conf.MaxFiles]
	}
	return names
}

// Download resolves the pending filenames concurrently and returns the
// accepted files in filename order. A filename without quorum is skipped when
// a later filename is accepted; otherwise the result stops at it.
func (c *Coordinator) Download(ctx context.Context, book *addressbook.AddressBook) ([]*Accepted, error) {
	byName, err := c.Signatures(ctx, book)
	if err != nil {
		return nil, err
	}

	names := c.pendingNames(byName)
	if len(names) == 0 {
		return nil, nil
	}

	results := make([]*Accepted, len(names))
	errs := make([]error, len(names))

	pool := workerpool.New(c.parallelism(len(names)))
	for i, fn := range names {
		i, fn := i, fn
		pool.Submit(func() {
			results[i], errs[i] = c.Resolve(ctx, fn, byName[fn.Name], book)
		})
	}
	pool.StopWait()

	//a name without quorum is skipped when a later name was accepted
	last := -1
	for i := range names {
		if errs[i] == nil {
			last = i
		}
	}

	accepted := make([]*Accepted, 0, len(names))
	for i := range names {
		if errs[i] == nil {
			accepted = append(accepted, results[i])
			continue
		}
		if !common.IsStream(errs[i], common.QuorumNotReached) {
			return accepted, errs[i]
		}
		if i < last {
			c.skipped.Inc()
			c.logger.WithFields(logrus.Fields{
				"file":  names[i].Name,
				"error": errs[i],
			}).Warn("Skipping unresolved file")
			continue
		}
		c.logger.WithFields(logrus.Fields{
			"file":    names[i].Name,
			"pending": len(names) - i,
			"error":   errs[i],
		}).Info("Stopping at unresolved file")
		break
	}

	return accepted, ctx.Err()
}
