package store

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// InmemSink keeps persisted content in memory.
type InmemSink struct {
	sync.RWMutex
	files map[string]*FileSummary
	items map[string]map[itemKey]StoredItem
	// FailNext makes the next Persist calls fail, for tests.
	FailNext int
}

var errInjected = errors.New("injected failure")

type itemKey struct {
	timestamp int64
	index     int
}

// NewInmemSink ...
func NewInmemSink() *InmemSink {
	return &InmemSink{
		files: make(map[string]*FileSummary),
		items: make(map[string]map[itemKey]StoredItem),
	}
}

// Persist implements Sink. Items already present are left untouched.
func (s *InmemSink) Persist(ctx context.Context, batch *Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.Lock()
	defer s.Unlock()

	if s.FailNext > 0 {
		s.FailNext--
		return errInjected
	}

	stream, ok := s.items[batch.File.Stream]
	if !ok {
		stream = make(map[itemKey]StoredItem)
		s.items[batch.File.Stream] = stream
	}
	for _, item := range batch.Items {
		k := itemKey{item.ConsensusTimestamp(), item.Index()}
		if _, ok := stream[k]; !ok {
			stream[k] = NewStoredItem(batch.File, item)
		}
	}
	if batch.Final {
		s.files[batch.File.Name] = batch.File
	}
	return nil
}

// Files returns the names of the completely persisted files, in order.
func (s *InmemSink) Files() []string {
	s.RLock()
	defer s.RUnlock()
	res := []string{}
	for name := range s.files {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

// File returns the summary of a persisted file.
func (s *InmemSink) File(name string) (*FileSummary, bool) {
	s.RLock()
	defer s.RUnlock()
	f, ok := s.files[name]
	return f, ok
}

// Items returns the persisted items of a stream ordered by consensus
// timestamp and index.
func (s *InmemSink) Items(stream string) []StoredItem {
	s.RLock()
	defer s.RUnlock()
	res := []StoredItem{}
	for _, it := range s.items[stream] {
		res = append(res, it)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].ConsensusTimestamp != res[j].ConsensusTimestamp {
			return res[i].ConsensusTimestamp < res[j].ConsensusTimestamp
		}
		return res[i].Index < res[j].Index
	})
	return res
}

// Close implements Sink.
func (s *InmemSink) Close() error {
	return nil
}
