package platform

import (
	"log/slog"

	"github.com/aretw0/worldkit/pkg/core"
	"github.com/aretw0/worldkit/pkg/search"
	"github.com/aretw0/worldkit/pkg/session"
)

// options holds the internal configuration for worldkit.
type options struct {
	logger     *slog.Logger
	configFile string
	config     *Config
	overrides  []func(*Config)

	openStore  session.StoreOpener
	classifier core.Classifier
	formats    core.FormatTable
	codecs     []core.CustomCodec
	fields     map[string]search.FieldFunc
	devSafety  bool
}

// Option defines a functional option for configuring worldkit.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		fields:    make(map[string]search.FieldFunc),
		devSafety: true,
	}
}

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithConfigFile loads settings from a YAML file. Options given after it
// override the file.
func WithConfigFile(path string) Option {
	return func(o *options) {
		o.configFile = path
	}
}

// WithConfig uses cfg instead of the defaults or a config file.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.config = &cfg
	}
}

// WithStagingRoot sets the directory staging copies are created under.
func WithStagingRoot(dir string) Option {
	return func(o *options) {
		o.overrides = append(o.overrides, func(c *Config) { c.Staging.Root = dir })
	}
}

// WithExclude adds doublestar patterns of source files that are never copied
// into staging nor mirrored back.
func WithExclude(patterns ...string) Option {
	return func(o *options) {
		o.overrides = append(o.overrides, func(c *Config) {
			c.Staging.Exclude = append(c.Staging.Exclude, patterns...)
		})
	}
}

// WithWatch starts a source watcher for staged worlds.
func WithWatch(enabled bool) Option {
	return func(o *options) {
		o.overrides = append(o.overrides, func(c *Config) { c.Session.Watch = enabled })
	}
}

// WithSaveDisabled rejects every save.
func WithSaveDisabled(disabled bool) Option {
	return func(o *options) {
		o.overrides = append(o.overrides, func(c *Config) { c.Session.SaveDisabled = disabled })
	}
}

// WithSandbox opens Direct worlds as copies, so saves never reach the source.
func WithSandbox(enabled bool) Option {
	return func(o *options) {
		o.overrides = append(o.overrides, func(c *Config) { c.Session.Sandbox = enabled })
	}
}

// WithDevSafety controls the sandbox applied when running via `go run` or
// `go test`. By default (true) Direct worlds are opened as copies in that
// case.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithStoreOpener replaces the LevelDB store used for world databases
// (e.g. an in-memory store in tests).
func WithStoreOpener(fn session.StoreOpener) Option {
	return func(o *options) {
		o.openStore = fn
	}
}

// WithClassifier replaces the Bedrock key classifier.
func WithClassifier(c core.Classifier) Option {
	return func(o *options) {
		o.classifier = c
	}
}

// WithFormatTable replaces the content type to format table.
func WithFormatTable(t core.FormatTable) Option {
	return func(o *options) {
		o.formats = t
	}
}

// WithCodec registers a custom codec with the format engine.
func WithCodec(c core.CustomCodec) Option {
	return func(o *options) {
		o.codecs = append(o.codecs, c)
	}
}

// WithField registers a search field extractor.
func WithField(name string, fn search.FieldFunc) Option {
	return func(o *options) {
		o.fields[name] = fn
	}
}
