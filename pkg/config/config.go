// Package config loads scenemap settings from an optional TOML file.
//
// The file lives at $XDG_CONFIG_HOME/scenemap/config.toml (falling back to
// ~/.config/scenemap/config.toml). Every field is optional; [Default] supplies
// the values for anything the file omits, and command-line flags override
// both.
//
//	[layout]
//	columns = 4
//	level_heights = [24, 20, 20, 20, 20]
//
//	[draw]
//	sibling_connections = true
//
//	[session]
//	backend = "redis"
//	redis_addr = "localhost:6379"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/scenemap/pkg/errors"
	"github.com/matzehuels/scenemap/pkg/view"
)

// FileName is the name of the config file inside the config directory.
const FileName = "config.toml"

// Config is the complete set of settings.
type Config struct {
	Layout  LayoutConfig  `toml:"layout"`
	Draw    DrawConfig    `toml:"draw"`
	Cache   CacheConfig   `toml:"cache"`
	Session SessionConfig `toml:"session"`
	Server  ServerConfig  `toml:"server"`
}

// LayoutConfig mirrors [view.Config].
type LayoutConfig struct {
	Columns           int       `toml:"columns" validate:"min=1,max=64"`
	NodeWidth         float64   `toml:"node_width" validate:"gt=0"`
	ColumnGap         float64   `toml:"column_gap" validate:"gte=0"`
	TopMargin         float64   `toml:"top_margin" validate:"gte=0"`
	Gutter            float64   `toml:"gutter" validate:"gte=0"`
	LevelHeights      []float64 `toml:"level_heights" validate:"required,min=1,dive,gt=0"`
	SameLineThreshold float64   `toml:"same_line_threshold" validate:"gte=0"`
	DragThreshold     float64   `toml:"drag_threshold" validate:"gte=0"`
}

// DrawConfig holds the three draw toggles.
type DrawConfig struct {
	RootsWithoutConnections bool `toml:"roots_without_connections"`
	AnyWithoutConnections   bool `toml:"any_without_connections"`
	SiblingConnections      bool `toml:"sibling_connections"`
}

// CacheConfig selects the render artifact cache.
type CacheConfig struct {
	Backend   string   `toml:"backend" validate:"oneof=file redis none"`
	Dir       string   `toml:"dir"`
	TTL       Duration `toml:"ttl"`
	RedisAddr string   `toml:"redis_addr" validate:"required_if=Backend redis"`
}

// SessionConfig selects the view session store.
type SessionConfig struct {
	Backend       string   `toml:"backend" validate:"oneof=memory file redis mongo"`
	Dir           string   `toml:"dir"`
	TTL           Duration `toml:"ttl"`
	RedisAddr     string   `toml:"redis_addr" validate:"required_if=Backend redis"`
	MongoURI      string   `toml:"mongo_uri" validate:"required_if=Backend mongo"`
	MongoDatabase string   `toml:"mongo_database"`
}

// ServerConfig configures `scenemap serve`.
type ServerConfig struct {
	Addr          string   `toml:"addr" validate:"required,hostname_port"`
	ReadTimeout   Duration `toml:"read_timeout"`
	WriteTimeout  Duration `toml:"write_timeout"`
	Metrics       bool     `toml:"metrics"`
	WatchDebounce Duration `toml:"watch_debounce"`
}

// Duration is a time.Duration read from strings such as "90s" or "24h".
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in settings.
func Default() Config {
	lc := view.DefaultConfig()
	return Config{
		Layout: LayoutConfig{
			Columns:           lc.Columns,
			NodeWidth:         lc.NodeWidth,
			ColumnGap:         lc.ColumnGap,
			TopMargin:         lc.TopMargin,
			Gutter:            lc.Gutter,
			LevelHeights:      lc.LevelHeights,
			SameLineThreshold: lc.SameLineThreshold,
			DragThreshold:     lc.DragThreshold,
		},
		Cache: CacheConfig{
			Backend: "file",
			TTL:     Duration{7 * 24 * time.Hour},
		},
		Session: SessionConfig{
			Backend:       "file",
			TTL:           Duration{24 * time.Hour},
			MongoDatabase: "scenemap",
		},
		Server: ServerConfig{
			Addr:          "127.0.0.1:8321",
			ReadTimeout:   Duration{15 * time.Second},
			WriteTimeout:  Duration{30 * time.Second},
			WatchDebounce: Duration{200 * time.Millisecond},
		},
	}
}

// Dir returns the scenemap config directory.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "scenemap"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "scenemap"), nil
}

// DefaultPath returns the path of the config file.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads the config file at path on top of [Default] and validates the
// result. An empty path loads the default location, where a missing file is
// not an error; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		if os.IsNotExist(err) {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s not found", path)
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Decode(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Decode parses TOML data into cfg and validates it. Keys absent from data
// keep their current value in cfg.
func Decode(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg.Validate()
}

// Validate checks every field against its constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, formatValidationError(err), "invalid config")
	}
	return nil
}

// ViewOptions converts the layout and draw sections into view options.
func (c Config) ViewOptions() view.Options {
	return view.Options{
		Layout: view.Config{
			Columns:           c.Layout.Columns,
			NodeWidth:         c.Layout.NodeWidth,
			ColumnGap:         c.Layout.ColumnGap,
			TopMargin:         c.Layout.TopMargin,
			Gutter:            c.Layout.Gutter,
			LevelHeights:      append([]float64(nil), c.Layout.LevelHeights...),
			SameLineThreshold: c.Layout.SameLineThreshold,
			DragThreshold:     c.Layout.DragThreshold,
		},
		DrawRootsWithoutConnections: c.Draw.RootsWithoutConnections,
		DrawAnyWithoutConnections:   c.Draw.AnyWithoutConnections,
		DrawSiblingConnections:      c.Draw.SiblingConnections,
	}
}

// =============================================================================
// Validation
// =============================================================================

var validate = validator.New()

// formatValidationError formats validation errors into readable messages.
func formatValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

// formatFieldError formats a single field validation error.
func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Namespace())
	field = strings.TrimPrefix(field, "config.")

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, e.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must not be negative", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
