// Package testutil provides in-memory fixtures for tests.
package testutil

import (
	"bytes"
	"context"
	"slices"
	"sync"

	"github.com/aretw0/worldkit/pkg/core"
)

// MemStore is an in-memory core.Store that iterates keys in byte order, like
// LevelDB, and counts writes.
type MemStore struct {
	mu      sync.Mutex
	open    bool
	data    map[string][]byte
	puts    int
	deletes int
	opens   int

	failAfter int
	failErr   error
	openErr   error
}

var _ core.Store = (*MemStore)(nil)

// NewMemStore returns an empty, closed store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte), failAfter: -1}
}

// FailOpen makes the next Open calls return err.
func (s *MemStore) FailOpen(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openErr = err
}

// FailKeysAfter makes Keys stop with err after n keys.
func (s *MemStore) FailKeysAfter(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAfter, s.failErr = n, err
}

func (s *MemStore) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return s.openErr
	}
	s.open = true
	s.opens++
	return nil
}

func (s *MemStore) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *MemStore) Get(ctx context.Context, key []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return nil, core.ErrStoreClosed
	}
	v, ok := s.data[string(key)]
	if !ok {
		return nil, core.ErrEntryNotFound
	}
	return bytes.Clone(v), nil
}

func (s *MemStore) Put(ctx context.Context, key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return core.ErrStoreClosed
	}
	s.data[string(key)] = bytes.Clone(value)
	s.puts++
	return nil
}

func (s *MemStore) Delete(ctx context.Context, key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return core.ErrStoreClosed
	}
	delete(s.data, string(key))
	s.deletes++
	return nil
}

func (s *MemStore) Keys(ctx context.Context, fn func(key []byte) error) error {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return core.ErrStoreClosed
	}
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	failAfter, failErr := s.failAfter, s.failErr
	s.mu.Unlock()

	slices.Sort(keys)
	for i, k := range keys {
		if failAfter >= 0 && i == failAfter {
			return failErr
		}
		if err := fn([]byte(k)); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	return nil
}

// Puts returns the number of successful Put calls.
func (s *MemStore) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

// Deletes returns the number of successful Delete calls.
func (s *MemStore) Deletes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletes
}

// Opens returns the number of successful Open calls.
func (s *MemStore) Opens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

// Raw returns the stored bytes without requiring the store to be open.
func (s *MemStore) Raw(key []byte) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[string(key)]
	return bytes.Clone(v), ok
}

// Seed stores a value without counting it as a write.
func (s *MemStore) Seed(key, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[string(key)] = bytes.Clone(value)
}
