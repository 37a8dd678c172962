package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/scenemap/pkg/errors"
	"github.com/matzehuels/scenemap/pkg/view"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	opts := cfg.ViewOptions()
	want := view.DefaultConfig()
	if opts.Layout.Columns != want.Columns || !slices.Equal(opts.Layout.LevelHeights, want.LevelHeights) {
		t.Errorf("ViewOptions().Layout = %+v, want %+v", opts.Layout, want)
	}
}

func TestDecode(t *testing.T) {
	data := `
[layout]
columns = 2
level_heights = [30, 16]

[draw]
sibling_connections = true

[session]
backend = "redis"
redis_addr = "localhost:6379"
ttl = "90m"
`
	cfg := Default()
	if err := Decode([]byte(data), &cfg); err != nil {
		t.Fatalf("Decode() = %v", err)
	}
	if cfg.Layout.Columns != 2 || !slices.Equal(cfg.Layout.LevelHeights, []float64{30, 16}) {
		t.Errorf("layout = %+v", cfg.Layout)
	}
	if cfg.Layout.NodeWidth != view.DefaultNodeWidth {
		t.Errorf("omitted key lost its default: node_width = %v", cfg.Layout.NodeWidth)
	}
	if !cfg.Draw.SiblingConnections || !cfg.ViewOptions().DrawSiblingConnections {
		t.Error("draw toggle not applied")
	}
	if cfg.Session.TTL.Duration != 90*time.Minute {
		t.Errorf("session ttl = %v", cfg.Session.TTL)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantMsg string
	}{
		{"syntax", "[layout\ncolumns = 2", "parse config"},
		{"unknown key", "[layout]\ncolour = \"red\"", "layout.colour"},
		{"zero columns", "[layout]\ncolumns = 0", "layout.columns must be at least 1"},
		{"negative height", "[layout]\nlevel_heights = [24, -1]", "layout.levelheights[1]"},
		{"bad backend", "[cache]\nbackend = \"s3\"", "cache.backend must be one of"},
		{"redis without addr", "[session]\nbackend = \"redis\"", "session.redisaddr is required"},
		{"bad duration", "[cache]\nttl = \"soon\"", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			err := Decode([]byte(tt.data), &cfg)
			if err == nil {
				t.Fatal("Decode() succeeded")
			}
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("code = %v, want INVALID_CONFIG", errors.GetCode(err))
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("default location missing", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() = %v", err)
		}
		if cfg.Layout.Columns != view.DefaultColumns {
			t.Errorf("columns = %d", cfg.Layout.Columns)
		}
	})

	t.Run("default location present", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", dir)
		path := filepath.Join(dir, "scenemap", FileName)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("[server]\naddr = \"0.0.0.0:9000\"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() = %v", err)
		}
		if cfg.Server.Addr != "0.0.0.0:9000" {
			t.Errorf("addr = %q", cfg.Server.Addr)
		}
	})

	t.Run("explicit path missing", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, errors.ErrCodeFileNotFound) {
			t.Errorf("Load() = %v, want FILE_NOT_FOUND", err)
		}
	})

	t.Run("example config", func(t *testing.T) {
		cfg, err := Load("../../examples/config.toml")
		if err != nil {
			t.Fatalf("Load() = %v", err)
		}
		if cfg.Layout.Columns != 7 || cfg.Layout.NodeWidth != view.DefaultNodeWidth {
			t.Errorf("layout = %+v", cfg.Layout)
		}
		if cfg.Session.TTL.Duration != 24*time.Hour {
			t.Errorf("session ttl = %v", cfg.Session.TTL)
		}
	})
}
