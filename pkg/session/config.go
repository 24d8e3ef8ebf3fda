// Package session manages open worlds and the entries edited inside them.
//
// A Manager holds an ordered set of World sessions. Each World owns its
// staging copy, its store handle, the cached key classification and the entry
// sessions opened on it. Entries are addressed by EntryID and never hold a
// pointer back to their world.
package session

import (
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/worldkit/pkg/adapters/fs"
	"github.com/aretw0/worldkit/pkg/adapters/leveldb"
	"github.com/aretw0/worldkit/pkg/contenttype"
	"github.com/aretw0/worldkit/pkg/core"
	"github.com/aretw0/worldkit/pkg/format"
)

// StoreOpener builds the store for a database directory. The store is
// returned closed.
type StoreOpener func(path string, readOnly bool) core.Store

// Config holds the collaborators shared by every world a Manager opens.
// Zero fields get Bedrock defaults.
type Config struct {
	Logger     *slog.Logger
	Classifier core.Classifier
	Formats    core.FormatTable
	Engine     *format.Engine
	OpenStore  StoreOpener
	Staging    fs.StagingConfig

	// Watch starts a source watcher for staged worlds.
	Watch         bool
	WatchDebounce time.Duration

	// SaveDisabled rejects every save with core.ErrSaveDisabled.
	SaveDisabled bool

	// Sandbox opens Direct worlds in Copy mode so saves never reach the source.
	Sandbox bool
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.Classifier == nil {
		c.Classifier = contenttype.New()
	}
	if c.Formats == nil {
		c.Formats = contenttype.DefaultTable()
	}
	if c.Engine == nil {
		c.Engine = NewEngine(c.Logger)
	}
	if c.OpenStore == nil {
		logger := c.Logger
		c.OpenStore = func(path string, readOnly bool) core.Store {
			return leveldb.NewStore(leveldb.Config{Path: path, ReadOnly: readOnly, Logger: logger})
		}
	}
	if c.Staging.Logger == nil {
		c.Staging.Logger = c.Logger
	}
	if c.WatchDebounce <= 0 {
		c.WatchDebounce = 50 * time.Millisecond
	}
	return c
}

// NewEngine returns a format engine with the Bedrock custom codecs registered.
func NewEngine(logger *slog.Logger) *format.Engine {
	e := format.NewEngine(format.Config{Logger: logger})
	e.Register(contenttype.Data2DCodec{})
	return e
}
