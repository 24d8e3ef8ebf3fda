package platform

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/worldkit/pkg/adapters/fs"
	"github.com/aretw0/worldkit/pkg/format"
	"github.com/aretw0/worldkit/pkg/search"
	"github.com/aretw0/worldkit/pkg/session"
)

// Runtime is the wired set of components built from the options.
type Runtime struct {
	Config  Config
	Logger  *slog.Logger
	Formats *format.Engine
	Manager *session.Manager
	Search  *search.Engine
}

// New builds a Runtime.
//
//	rt, err := platform.New(platform.WithConfigFile("worldkit.yaml"))
//	w, err := rt.Manager.Open(ctx, "./My World", rt.Config.Mode())
func New(opts ...Option) (*Runtime, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cfg := DefaultConfig()
	switch {
	case o.config != nil:
		cfg = *o.config
	case o.configFile != "":
		loaded, err := LoadConfig(o.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	for _, fn := range o.overrides {
		fn(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	sandbox := sandboxed(cfg, o.devSafety, logger)

	formats := session.NewEngine(logger)
	for _, c := range o.codecs {
		formats.Register(c)
	}

	manager := session.NewManager(session.Config{
		Logger:     logger,
		Classifier: o.classifier,
		Formats:    o.formats,
		Engine:     formats,
		OpenStore:  o.openStore,
		Staging: fs.StagingConfig{
			Root:    cfg.Staging.Root,
			Exclude: cfg.Staging.Exclude,
			Logger:  logger,
		},
		Watch:         cfg.Session.Watch,
		WatchDebounce: cfg.Session.WatchDebounce,
		SaveDisabled:  cfg.Session.SaveDisabled,
		Sandbox:       sandbox,
	})

	engine := search.New(search.Config{Logger: logger, Formats: formats})
	for name, tags := range cfg.Search.Fields {
		engine.RegisterField(name, search.TagField(tags...))
	}
	for name, fn := range o.fields {
		engine.RegisterField(name, fn)
	}

	logger.Debug("runtime ready", "mode", cfg.Session.Mode, "sandbox", sandbox, "fields", engine.Fields())
	return &Runtime{
		Config:  cfg,
		Logger:  logger,
		Formats: formats,
		Manager: manager,
		Search:  engine,
	}, nil
}

// SearchOptions returns the per-search options implied by the config.
func (rt *Runtime) SearchOptions() []search.Option {
	var opts []search.Option
	if rt.Config.Search.Placeholders {
		opts = append(opts, search.WithPlaceholders())
	}
	return opts
}
