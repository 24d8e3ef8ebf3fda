// Package leveldb implements core.Store over the LevelDB fork Bedrock worlds
// are written with.
package leveldb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/opt"

	"github.com/aretw0/worldkit/pkg/core"
)

// Config holds the configuration for a LevelDB store.
type Config struct {
	// Path is the LevelDB directory (the db/ folder of a world).
	Path     string
	ReadOnly bool
	// Create allows opening a directory that holds no database yet.
	Create bool
	// BlockSize defaults to 16 KiB, the size Bedrock uses.
	BlockSize int
	Logger    *slog.Logger
}

// Store is a core.Store backed by goleveldb. Values are written with raw
// deflate compression, as the game does.
type Store struct {
	config Config
	logger *slog.Logger

	mu sync.RWMutex
	db *leveldb.DB

	gets, puts, deletes int
}

var _ core.Store = (*Store)(nil)

// NewStore creates a closed store for config.Path.
func NewStore(config Config) *Store {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.BlockSize <= 0 {
		config.BlockSize = 16 * opt.KiB
	}
	return &Store{config: config, logger: logger}
}

// Open opens the database. Opening an open store is a no-op.
func (s *Store) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}
	db, err := leveldb.OpenFile(s.config.Path, &opt.Options{
		Compression:    opt.FlateCompression,
		BlockSize:      s.config.BlockSize,
		ReadOnly:       s.config.ReadOnly,
		ErrorIfMissing: !s.config.Create,
	})
	if err != nil {
		return fmt.Errorf("open leveldb %s: %w", s.config.Path, err)
	}
	s.db = db
	s.logger.Debug("leveldb opened", "path", s.config.Path, "read_only", s.config.ReadOnly)
	return nil
}

func (s *Store) IsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db != nil
}

func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, core.ErrStoreClosed
	}
	v, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, core.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("leveldb get: %w", err)
	}
	s.gets++
	return v, nil
}

func (s *Store) Put(ctx context.Context, key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return core.ErrStoreClosed
	}
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := s.db.Put(key, value, nil); err != nil {
		return fmt.Errorf("leveldb put: %w", err)
	}
	s.puts++
	return nil
}

func (s *Store) Delete(ctx context.Context, key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return core.ErrStoreClosed
	}
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := s.db.Delete(key, nil); err != nil {
		return fmt.Errorf("leveldb delete: %w", err)
	}
	s.deletes++
	return nil
}

// Keys iterates over a snapshot of the key space in byte order.
func (s *Store) Keys(ctx context.Context, fn func(key []byte) error) error {
	s.mu.RLock()
	db := s.db
	s.mu.RUnlock()
	if db == nil {
		return core.ErrStoreClosed
	}

	iter := db.NewIterator(nil, nil)
	defer iter.Release()
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(bytes.Clone(iter.Key())); err != nil {
			return err
		}
	}
	if err := iter.Error(); err != nil {
		return fmt.Errorf("leveldb iterate: %w", err)
	}
	return nil
}

// Close closes the database. Closing a closed store is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.logger.Debug("leveldb closed", "path", s.config.Path)
	return err
}
