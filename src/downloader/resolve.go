package downloader

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/streamgate/src/addressbook"
	"github.com/mosaicnetworks/streamgate/src/common"
	"github.com/mosaicnetworks/streamgate/src/signature"
	"github.com/mosaicnetworks/streamgate/src/streamfile"
)

// hashGroup is the set of valid signatures declaring the same hash.
type hashGroup struct {
	hash         []byte
	metadataHash []byte
	supporters   []addressbook.NodeEntry
}

// tally verifies the candidates of one filename and returns the groups of
// valid signatures, largest first. Invalid candidates, including those of
// nodes absent from book, are dropped.
func (c *Coordinator) tally(candidates []signature.Candidate, book *addressbook.AddressBook) []*hashGroup {
	groups := map[string]*hashGroup{}
	seen := map[int64]bool{}

	for _, cand := range candidates {
		res := c.verifier.Verify(cand, book)
		if !res.Valid {
			continue
		}
		// one vote per node
		if seen[res.Node.NodeID] {
			continue
		}
		seen[res.Node.NodeID] = true

		key := common.Hex(res.DeclaredHash)
		g, ok := groups[key]
		if !ok {
			g = &hashGroup{hash: res.DeclaredHash, metadataHash: res.MetadataHash}
			groups[key] = g
		}
		g.supporters = append(g.supporters, res.Node)
	}

	res := make([]*hashGroup, 0, len(groups))
	for _, g := range groups {
		sort.Slice(g.supporters, func(i, j int) bool {
			return g.supporters[i].NodeID < g.supporters[j].NodeID
		})
		res = append(res, g)
	}
	sort.Slice(res, func(i, j int) bool {
		if len(res[i].supporters) != len(res[j].supporters) {
			return len(res[i].supporters) > len(res[j].supporters)
		}
		return bytes.Compare(res[i].hash, res[j].hash) < 0
	})
	return res
}

// Resolve decides the content of one file from the signatures of its nodes.
// It returns a QuorumNotReached error when no hash gathers a quorum or when
// no supporting node serves bytes matching it.
func (c *Coordinator) Resolve(ctx context.Context, sig streamfile.Filename, candidates []signature.Candidate, book *addressbook.AddressBook) (*Accepted, error) {
	groups := c.tally(candidates, book)

	if len(groups) == 0 || !c.Reaches(len(groups[0].supporters), book.Len()) {
		c.quorumMisses.Inc()
		best := 0
		if len(groups) > 0 {
			best = len(groups[0].supporters)
		}
		return nil, common.NewStreamErr(common.QuorumNotReached, sig.Name,
			"%d of %d nodes agree, %d signatures, %d hashes", best, book.Len(), len(candidates), len(groups))
	}

	group := groups[0]
	logger := c.logger.WithFields(logrus.Fields{
		"file":       sig.Name,
		"hash":       common.ShortHex(group.hash),
		"supporters": len(group.supporters),
		"nodes":      book.Len(),
	})

	var errs *multierror.Error
	for _, node := range group.supporters {
		for _, dataName := range sig.DataNames() {
			key := c.nodePrefix(node) + dataName

			data, err := c.store.Get(ctx, key)
			if common.IsStore(err, common.KeyNotFound) {
				continue
			}
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", key, err))
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				continue
			}

			hash, err := c.conf.Hash(dataName, data)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", key, err))
				continue
			}
			if !bytes.Equal(hash, group.hash) {
				c.hashMismatches.Inc()
				logger.WithFields(logrus.Fields{
					"node":   node.NodeDir(),
					"actual": common.ShortHex(hash),
				}).Warn("Data file does not match quorum hash")
				errs = multierror.Append(errs, fmt.Errorf("%s: hash mismatch", key))
				continue
			}

			fn, err := streamfile.ParseFilename(dataName)
			if err != nil {
				return nil, err
			}

			logger.WithField("node", node.NodeDir()).Debug("Accepted")
			return &Accepted{
				Filename:     fn,
				DataName:     dataName,
				Data:         data,
				Hash:         group.hash,
				MetadataHash: group.metadataHash,
				Node:         node,
				Supporters:   len(group.supporters),
			}, nil
		}
	}

	c.quorumMisses.Inc()
	return nil, common.NewStreamErr(common.QuorumNotReached, sig.Name,
		"no supporting node served matching data (%v)", errs.ErrorOrNil())
}
