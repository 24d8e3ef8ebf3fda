package search

import (
	"context"
	"io"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/introspection"

	"github.com/aretw0/worldkit/pkg/core"
	"github.com/aretw0/worldkit/pkg/format"
	"github.com/aretw0/worldkit/pkg/nbt"
)

// Source is what a search runs against. A session World satisfies it.
type Source interface {
	Classification(ctx context.Context) (*core.Classification, error)
	ReadKey(ctx context.Context, key []byte) ([]byte, error)
	DisplayKey(key []byte) string
	Format(ct core.ContentType) core.FormatDescriptor
}

// Candidate is a key considered by a search.
type Candidate struct {
	ContentType core.ContentType
	Key         []byte
}

// Result is yielded per matching candidate. With WithPlaceholders, rejected
// candidates are yielded too, with Matched unset.
type Result struct {
	Candidate
	DisplayKey string
	Matched    bool
}

// FieldFunc extracts a named field from an entry. Entries without the field
// return "".
type FieldFunc func(ctx context.Context, e *Entry) (string, error)

// Config configures an Engine.
type Config struct {
	Logger *slog.Logger
	// Formats decodes values for the NBT group and for fields.
	Formats *format.Engine
	// Fields replaces the default field set when not nil.
	Fields map[string]FieldFunc
}

// Engine evaluates queries. It holds no per-search state and may be shared.
type Engine struct {
	logger  *slog.Logger
	formats *format.Engine

	mu     sync.RWMutex
	fields map[string]FieldFunc
}

// New creates an Engine.
func New(config Config) *Engine {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.Formats == nil {
		config.Formats = format.NewEngine(format.Config{Logger: config.Logger})
	}
	if config.Fields == nil {
		config.Fields = DefaultFields()
	}
	return &Engine{
		logger:  config.Logger,
		formats: config.Formats,
		fields:  maps.Clone(config.Fields),
	}
}

// RegisterField adds or replaces a field extractor.
func (e *Engine) RegisterField(name string, fn FieldFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fields[name] = fn
}

// Fields returns the registered field names, sorted.
func (e *Engine) Fields() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Sorted(maps.Keys(e.fields))
}

func (e *Engine) field(name string) FieldFunc {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.fields[name]
}

type searchOptions struct {
	candidates   []Candidate
	explicit     bool
	placeholders bool
}

// Option tunes a single search.
type Option func(*searchOptions)

// WithCandidates searches the given keys instead of the source's
// classification.
func WithCandidates(cs ...Candidate) Option {
	return func(o *searchOptions) {
		o.candidates = cs
		o.explicit = true
	}
}

// WithPlaceholders yields a Result with Matched unset for every rejected
// candidate, so results stay aligned with candidates.
func WithPlaceholders() Option {
	return func(o *searchOptions) {
		o.placeholders = true
	}
}

// Search lazily yields the candidates matching q, in candidate order. Without
// WithCandidates the candidates are the source's classified keys, grouped by
// content type in declaration order. A candidate that cannot be read yields
// its error and the search moves on; an invalid query or an unavailable
// classification yields one error and ends the sequence.
//
// Each call to the returned sequence runs the search again.
func (e *Engine) Search(ctx context.Context, src Source, q Query, opts ...Option) iter.Seq2[Result, error] {
	var o searchOptions
	for _, opt := range opts {
		opt(&o)
	}
	return func(yield func(Result, error) bool) {
		if err := q.Validate(e.Fields()); err != nil {
			yield(Result{}, err)
			return
		}
		candidates, err := e.candidates(ctx, src, o)
		if err != nil {
			yield(Result{}, err)
			return
		}
		for c := range candidates {
			if err := ctx.Err(); err != nil {
				yield(Result{}, err)
				return
			}
			entry := &Entry{Candidate: c, src: src, formats: e.formats}
			entry.DisplayKey = src.DisplayKey(c.Key)
			ok, err := e.match(ctx, q, entry)
			res := Result{Candidate: c, DisplayKey: entry.DisplayKey, Matched: ok}
			if err != nil {
				if !yield(res, err) {
					return
				}
				continue
			}
			if !ok && !o.placeholders {
				continue
			}
			if !yield(res, nil) {
				return
			}
		}
	}
}

func (e *Engine) candidates(ctx context.Context, src Source, o searchOptions) (iter.Seq[Candidate], error) {
	if o.explicit {
		return slices.Values(o.candidates), nil
	}
	c, err := src.Classification(ctx)
	if err != nil {
		return nil, err
	}
	return func(yield func(Candidate) bool) {
		for ct, key := range c.All() {
			if !yield(Candidate{ContentType: ct, Key: key}) {
				return
			}
		}
	}, nil
}

// match evaluates the groups cheapest first: nothing is read from the store
// until the key based groups have passed.
func (e *Engine) match(ctx context.Context, q Query, entry *Entry) (bool, error) {
	if !q.ContentTypes.Allows(entry.ContentType) {
		return false, nil
	}
	if q.DisplayKey.Active() && !q.DisplayKey.Match(entry.DisplayKey) {
		return false, nil
	}
	for _, name := range slices.Sorted(maps.Keys(q.Fields)) {
		fn := e.field(name)
		if fn == nil {
			return false, nil
		}
		v, err := fn(ctx, entry)
		if err != nil {
			return false, err
		}
		if !q.Fields[name].Match(v) {
			return false, nil
		}
	}
	if q.Contents.Active() {
		raw, err := entry.Raw(ctx)
		if err != nil {
			return false, err
		}
		if !q.Contents.MatchBytes(raw) {
			return false, nil
		}
	}
	if q.NBT.Active() {
		roots, err := entry.Tree(ctx)
		if err != nil {
			return false, err
		}
		if roots == nil {
			return q.NBT.IncludeNonNBT, nil
		}
		if !q.NBT.MatchTree(roots) {
			return false, nil
		}
	}
	return true, nil
}

// Entry is a candidate being evaluated. Its raw bytes and decoded value are
// read at most once.
type Entry struct {
	Candidate
	DisplayKey string

	src     Source
	formats *format.Engine

	rawDone bool
	raw     []byte
	rawErr  error

	valueDone bool
	value     core.Value
	valueErr  error
}

// Raw returns the stored bytes.
func (e *Entry) Raw(ctx context.Context) ([]byte, error) {
	if !e.rawDone {
		e.raw, e.rawErr = e.src.ReadKey(ctx, e.Key)
		e.rawDone = true
	}
	return e.raw, e.rawErr
}

// Value returns the entry decoded with its content type's native format.
func (e *Entry) Value(ctx context.Context) (core.Value, error) {
	if !e.valueDone {
		raw, err := e.Raw(ctx)
		if err != nil {
			return core.Value{}, err
		}
		e.value, e.valueErr = e.formats.Load(raw, e.src.Format(e.ContentType))
		e.valueDone = true
	}
	return e.value, e.valueErr
}

// Tree returns the NBT roots of the entry, or nil when the value does not
// decode to NBT. Only read errors are returned.
func (e *Entry) Tree(ctx context.Context) ([]*nbt.Compound, error) {
	if _, err := e.Raw(ctx); err != nil {
		return nil, err
	}
	v, err := e.Value(ctx)
	if err != nil {
		return nil, nil
	}
	roots, ok := v.Tree()
	if !ok {
		return nil, nil
	}
	return roots, nil
}

// EngineState exposes internal state for observability.
type EngineState struct {
	Fields []string `json:"fields"`
	Codecs []string `json:"codecs"`
}

// State implements introspection.Introspectable.
func (e *Engine) State() any {
	return EngineState{Fields: e.Fields(), Codecs: e.formats.Codecs()}
}

// ComponentType implements introspection.Component.
func (e *Engine) ComponentType() string {
	return "search-engine"
}

var _ introspection.Introspectable = (*Engine)(nil)
var _ introspection.Component = (*Engine)(nil)
