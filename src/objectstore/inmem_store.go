package objectstore

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// InmemStore is a Store held in memory. It is used by tests and by the
// decode command.
type InmemStore struct {
	sync.RWMutex
	objects map[string][]byte
	gets    map[string]int
}

// NewInmemStore ...
func NewInmemStore() *InmemStore {
	return &InmemStore{
		objects: make(map[string][]byte),
		gets:    make(map[string]int),
	}
}

// Put stores data under key.
func (s *InmemStore) Put(key string, data []byte) {
	s.Lock()
	defer s.Unlock()
	s.objects[key] = data
}

// Delete removes key.
func (s *InmemStore) Delete(key string) {
	s.Lock()
	defer s.Unlock()
	delete(s.objects, key)
}

// Gets returns how many times key was fetched.
func (s *InmemStore) Gets(key string) int {
	s.RLock()
	defer s.RUnlock()
	return s.gets[key]
}

// List implements Store.
func (s *InmemStore) List(ctx context.Context, prefix, startAfter string, limit int) ([]string, error) {
	s.RLock()
	defer s.RUnlock()

	keys := []string{}
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) && k > startAfter {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	return applyLimit(keys, limit), ctx.Err()
}

// Get implements Store.
func (s *InmemStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.Lock()
	defer s.Unlock()

	s.gets[key]++
	data, ok := s.objects[key]
	if !ok {
		return nil, notFound(key)
	}
	return data, ctx.Err()
}
