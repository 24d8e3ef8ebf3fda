package platform

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/worldkit/pkg/core"
)

// Config is the file form of the settings. Every section is optional.
//
//	staging:
//	  root: /var/tmp/worldkit
//	  exclude: ["db/LOCK", "**/*.log"]
//	session:
//	  mode: copy-until-save
//	  watch: true
//	  watchDebounce: 100ms
//	search:
//	  placeholders: false
//	  fields:
//	    owner: [OwnerNew, Owner]
//	view:
//	  dataType: UTF-8
type Config struct {
	Staging StagingSection `yaml:"staging"`
	Session SessionSection `yaml:"session"`
	Search  SearchSection  `yaml:"search"`
	View    ViewSection    `yaml:"view"`
}

// StagingSection configures staging copies.
type StagingSection struct {
	Root    string   `yaml:"root"`
	Exclude []string `yaml:"exclude"`
}

// SessionSection configures world sessions.
type SessionSection struct {
	// Mode is the access mode used when none is given explicitly.
	Mode          string        `yaml:"mode"`
	Watch         bool          `yaml:"watch"`
	WatchDebounce time.Duration `yaml:"watchDebounce"`
	SaveDisabled  bool          `yaml:"saveDisabled"`
	Sandbox       bool          `yaml:"sandbox"`
}

// SearchSection configures the query engine.
type SearchSection struct {
	Placeholders bool `yaml:"placeholders"`
	// Fields maps extra field names to the root tags they read, first match
	// wins.
	Fields map[string][]string `yaml:"fields"`
}

// ViewSection holds display preferences.
type ViewSection struct {
	// DataType is the data type values are shown as.
	DataType string `yaml:"dataType"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() Config {
	return Config{
		Staging: StagingSection{Exclude: []string{"db/LOCK"}},
		Session: SessionSection{Mode: core.Readonly.String(), WatchDebounce: 50 * time.Millisecond},
		View:    ViewSection{DataType: string(core.DataUTF8)},
	}
}

var viewTypes = []core.DataType{
	core.DataNBT, core.DataJSON, core.DataASCII, core.DataUTF8,
	core.DataHex, core.DataBinaryPlainText, core.DataInt, core.DataBinary,
}

// Validate checks that every value can be used.
func (c Config) Validate() error {
	var errs []error
	for _, p := range c.Staging.Exclude {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("staging.exclude: invalid pattern %q", p))
		}
	}
	if c.Session.Mode != "" {
		if _, err := core.ParseAccessMode(c.Session.Mode); err != nil {
			errs = append(errs, fmt.Errorf("session.mode: %w", err))
		}
	}
	if c.Session.WatchDebounce < 0 {
		errs = append(errs, errors.New("session.watchDebounce: must not be negative"))
	}
	for name, tags := range c.Search.Fields {
		if len(tags) == 0 {
			errs = append(errs, fmt.Errorf("search.fields.%s: no tag names", name))
		}
	}
	if c.View.DataType != "" && !validViewType(core.DataType(c.View.DataType)) {
		errs = append(errs, fmt.Errorf("view.dataType: unknown data type %q", c.View.DataType))
	}
	return errors.Join(errs...)
}

func validViewType(dt core.DataType) bool {
	for _, t := range viewTypes {
		if t == dt {
			return true
		}
	}
	return false
}

// Mode returns the configured default access mode.
func (c Config) Mode() core.AccessMode {
	m, err := core.ParseAccessMode(c.Session.Mode)
	if err != nil {
		return core.Readonly
	}
	return m
}

// LoadConfig reads a YAML config file on top of DefaultConfig. Unknown keys
// are rejected.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}
