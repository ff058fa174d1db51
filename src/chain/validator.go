// Package chain checks that consecutive accepted files of a stream link up:
// each file must declare the hash of its predecessor as its previous hash.
//
// A broken link is a warning. The file is still accepted, because its
// content was vouched for by a quorum of nodes regardless of what came
// before it.
package chain

import (
	"bytes"
	"sync"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/mosaicnetworks/streamgate/src/common"
	"github.com/mosaicnetworks/streamgate/src/streamfile"
)

// Result is the outcome of checking one file.
type Result struct {
	Discontinuity bool
	// Expected is the hash of the previous accepted file.
	Expected []byte
	// Declared is the previous hash the file carries.
	Declared []byte
}

// Err returns a ChainDiscontinuity error describing a broken link, or nil.
func (r Result) Err(name string) error {
	if !r.Discontinuity {
		return nil
	}
	return common.NewStreamErr(common.ChainDiscontinuity, name,
		"previous hash %s, expected %s", common.ShortHex(r.Declared), common.ShortHex(r.Expected))
}

// Validator tracks the tip of every stream.
type Validator struct {
	sync.RWMutex
	tips map[string][]byte

	discontinuities *atomic.Int64
	logger          *logrus.Entry
}

// NewValidator ...
func NewValidator(logger *logrus.Entry) *Validator {
	return &Validator{
		tips:            make(map[string][]byte),
		discontinuities: atomic.NewInt64(0),
		logger:          logger,
	}
}

// Seed sets the tip of a stream, eg. from durable storage after a restart.
func (v *Validator) Seed(stream string, hash []byte) {
	v.Lock()
	defer v.Unlock()
	v.tips[stream] = hash
}

// Tip returns the hash of the last accepted file of a stream.
func (v *Validator) Tip(stream string) []byte {
	v.RLock()
	defer v.RUnlock()
	return v.tips[stream]
}

// Check compares the previous hash of rec with the tip of its stream without
// moving the tip. Files that declare no previous hash, and the first file of a
// stream, always link.
func (v *Validator) Check(rec *streamfile.StreamFileRecord) Result {
	res := Result{Declared: rec.PreviousHash}
	if !rec.Stream.ChainLinked || len(rec.PreviousHash) == 0 {
		return res
	}

	res.Expected = v.Tip(rec.Stream.Name)
	if len(res.Expected) == 0 {
		return res
	}

	res.Discontinuity = !bytes.Equal(res.Expected, rec.PreviousHash)
	return res
}

// Advance moves the tip of the stream of rec to its hash. It is called once
// rec has been persisted.
func (v *Validator) Advance(rec *streamfile.StreamFileRecord) {
	v.Seed(rec.Stream.Name, rec.Hash)
}

// Accept checks rec, logs a broken link, and advances the tip.
func (v *Validator) Accept(rec *streamfile.StreamFileRecord) Result {
	res := v.Check(rec)
	if res.Discontinuity {
		v.discontinuities.Inc()
		v.logger.WithFields(logrus.Fields{
			"file":     rec.Name,
			"expected": common.ShortHex(res.Expected),
			"declared": common.ShortHex(res.Declared),
		}).Warn(res.Err(rec.Name))
	}
	v.Advance(rec)
	return res
}

// Discontinuities counts the broken links seen so far.
func (v *Validator) Discontinuities() int64 {
	return v.discontinuities.Load()
}
