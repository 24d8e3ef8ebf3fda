package worldkit

import (
	"log/slog"

	"github.com/aretw0/worldkit/internal/platform"
	"github.com/aretw0/worldkit/pkg/core"
	"github.com/aretw0/worldkit/pkg/search"
	"github.com/aretw0/worldkit/pkg/session"
)

// --- Types ---

// Runtime is the wired set of components: config, format engine, session
// manager and query engine.
type Runtime = platform.Runtime

// Config is the YAML config file form.
type Config = platform.Config

// Access modes, re-exported for convenience.
const (
	Readonly       = core.Readonly
	ReadonlyDirect = core.ReadonlyDirect
	Direct         = core.Direct
	CopyUntilSave  = core.CopyUntilSave
	Copy           = core.Copy
)

// KeyTarget targets a raw store key.
func KeyTarget(key []byte) core.EntryTarget { return core.KeyTarget(key) }

// FileTarget targets a file relative to the world root.
func FileTarget(rel string) core.EntryTarget { return core.FileTarget(rel) }

// --- Configuration ---

// Option defines a functional option for configuring worldkit.
type Option = platform.Option

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithConfigFile loads settings from a YAML file.
func WithConfigFile(path string) Option {
	return platform.WithConfigFile(path)
}

// WithConfig uses cfg instead of the defaults.
func WithConfig(cfg Config) Option {
	return platform.WithConfig(cfg)
}

// WithStagingRoot sets the directory staging copies are created under.
func WithStagingRoot(dir string) Option {
	return platform.WithStagingRoot(dir)
}

// WithExclude adds doublestar patterns of files that are never staged.
func WithExclude(patterns ...string) Option {
	return platform.WithExclude(patterns...)
}

// WithWatch starts a source watcher for staged worlds.
func WithWatch(enabled bool) Option {
	return platform.WithWatch(enabled)
}

// WithSaveDisabled rejects every save.
func WithSaveDisabled(disabled bool) Option {
	return platform.WithSaveDisabled(disabled)
}

// WithSandbox opens Direct worlds as copies.
func WithSandbox(enabled bool) Option {
	return platform.WithSandbox(enabled)
}

// WithDevSafety controls the sandbox applied under `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithStoreOpener replaces the LevelDB store used for world databases.
func WithStoreOpener(fn session.StoreOpener) Option {
	return platform.WithStoreOpener(fn)
}

// WithClassifier replaces the Bedrock key classifier.
func WithClassifier(c core.Classifier) Option {
	return platform.WithClassifier(c)
}

// WithFormatTable replaces the content type to format table.
func WithFormatTable(t core.FormatTable) Option {
	return platform.WithFormatTable(t)
}

// WithCodec registers a custom codec.
func WithCodec(c core.CustomCodec) Option {
	return platform.WithCodec(c)
}

// WithField registers a search field extractor.
func WithField(name string, fn search.FieldFunc) Option {
	return platform.WithField(name, fn)
}

// --- Factory ---

// New creates a session Manager.
func New(opts ...Option) (*session.Manager, error) {
	rt, err := platform.New(opts...)
	if err != nil {
		return nil, err
	}
	return rt.Manager, nil
}

// NewRuntime creates every component, including the query engine.
func NewRuntime(opts ...Option) (*Runtime, error) {
	return platform.New(opts...)
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (Config, error) {
	return platform.LoadConfig(path)
}
