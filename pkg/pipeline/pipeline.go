// Package pipeline provides the load → build → open → render pipeline shared
// by the CLI commands and the HTTP server.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: read a scene document (or a JSON snapshot) and hash its bytes
//  2. Build: run the graph builder over the scene's inspector
//  3. Open: create a view, restore a saved state, apply pins and dig rounds
//  4. Render: draw the view in one or more formats (SVG, JSON, DOT, PNG, PDF)
//
// Built forests are cached as snapshots keyed by the scene hash, and
// artifacts are cached by scene hash plus the drawn frame, so a repeated
// render of an unchanged scene with an unchanged view is served from the
// cache.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Scene:   "level1.yaml",
//	    Focus:   "camera",
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	src, err := runner.Load(ctx, opts)
//	forest, stats, err := runner.Build(ctx, src, opts)
//	v, err := runner.Open(ctx, forest, opts)
//	artifacts, err := runner.Render(ctx, v, src, opts)
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scenemap/pkg/cache"
	"github.com/matzehuels/scenemap/pkg/errors"
	"github.com/matzehuels/scenemap/pkg/graph"
	"github.com/matzehuels/scenemap/pkg/render/sink"
	"github.com/matzehuels/scenemap/pkg/scene"
	"github.com/matzehuels/scenemap/pkg/scene/build"
	"github.com/matzehuels/scenemap/pkg/view"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultTheme is the SVG colour theme.
	DefaultTheme = "dark"

	// DefaultMargin is the space around the drawn nodes, in pixels.
	DefaultMargin = 20.0

	// DefaultScale is the PNG scale factor.
	DefaultScale = 2.0

	// MaxDig bounds the number of dig rounds a single request may ask for.
	MaxDig = 32
)

// SnapshotSuffix marks a scene file holding a [graph.Scene] snapshot rather
// than a scene document.
const SnapshotSuffix = ".scene.json"

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for server requests.
type Options struct {
	// Load options
	Scene          string `json:"scene"`
	Levels         int    `json:"levels,omitempty"`
	IncludeScalars bool   `json:"include_scalars,omitempty"`
	Refresh        bool   `json:"refresh,omitempty"`

	// View options
	Layout  view.Config  `json:"-"`
	Toggles view.Toggles `json:"toggles"`
	State   *view.State  `json:"state,omitempty"` // Restored before pins are applied
	Focus   string       `json:"focus,omitempty"`
	Pin     []string     `json:"pin,omitempty"`
	Expand  []string     `json:"expand,omitempty"`
	Dig     int          `json:"dig,omitempty"`
	All     bool         `json:"all,omitempty"`

	// Render options
	Formats     []string `json:"formats,omitempty"`
	Theme       string   `json:"theme,omitempty"`
	NoGrid      bool     `json:"no_grid,omitempty"`
	Interactive bool     `json:"interactive,omitempty"`
	Detailed    bool     `json:"detailed,omitempty"` // DOT only
	Scale       float64  `json:"scale,omitempty"`    // PNG only
	Margin      float64  `json:"margin,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Name is the scene's display name.
	Name string

	// SceneHash is the content hash of the scene file.
	SceneHash string

	// Forest is the built node forest.
	Forest *scene.Forest

	// View is the opened view, ready for further interaction.
	View *view.View

	// Frame is the serialized draw request of the final view.
	Frame graph.Frame

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Build      build.Stats
	Rendered   int // Nodes in the final frame
	Routes     int // Routes in the final frame
	Missing    int // State handles that no longer exist
	LoadTime   time.Duration
	BuildTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	BuildHit  bool // Whether the forest was rebuilt from a cached snapshot
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	return errors.ValidateFormat(format, graph.Formats)
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTheme checks that a theme name is known.
func ValidateTheme(theme string) error {
	if _, ok := sink.Themes[theme]; !ok {
		return errors.New(errors.ErrCodeInvalidInput, "invalid theme: %q (must be one of: dark, light)", theme)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForOpen(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for loading and building.
func (o *Options) ValidateForLoad() error {
	if err := errors.ValidateScenePath(o.Scene); err != nil {
		return err
	}
	if o.Levels < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "levels must not be negative")
	}
	if o.Levels == 0 {
		o.Levels = build.DefaultLevels
	}
	o.setLogger()
	return nil
}

// ValidateForOpen checks the handles and dig rounds applied to a new view.
func (o *Options) ValidateForOpen() error {
	if o.Focus != "" {
		if err := errors.ValidateHandle(o.Focus); err != nil {
			return err
		}
	}
	for _, hs := range [][]string{o.Pin, o.Expand} {
		for _, h := range hs {
			if err := errors.ValidateHandle(h); err != nil {
				return err
			}
		}
	}
	if o.Dig < 0 || o.Dig > MaxDig {
		return errors.New(errors.ErrCodeInvalidInput, "dig must be between 0 and %d", MaxDig)
	}
	o.setLogger()
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{graph.FormatSVG}
	}
	if o.Theme == "" {
		o.Theme = DefaultTheme
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.Margin <= 0 {
		o.Margin = DefaultMargin
	}
	o.setLogger()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return ValidateTheme(o.Theme)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// IsSnapshot returns true if the scene file is a JSON snapshot.
func (o *Options) IsSnapshot() bool {
	return strings.HasSuffix(o.Scene, SnapshotSuffix)
}

// ViewOptions returns the options for a new view.
func (o *Options) ViewOptions() view.Options {
	return view.Options{
		Layout:                      o.Layout,
		DrawRootsWithoutConnections: o.Toggles.Roots,
		DrawAnyWithoutConnections:   o.Toggles.Any,
		DrawSiblingConnections:      o.Toggles.Siblings,
		Logger:                      o.Logger,
	}
}

// SceneKeyOpts returns cache key options for the build stage.
func (o *Options) SceneKeyOpts() cache.SceneKeyOpts {
	return cache.SceneKeyOpts{
		Levels:         o.Levels,
		IncludeScalars: o.IncludeScalars,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
// Options that do not affect a format are left out so they share entries.
func (o *Options) ArtifactKeyOpts(format, frameHash, layoutHash string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Format:     format,
		FrameHash:  frameHash,
		LayoutHash: layoutHash,
	}
	switch format {
	case graph.FormatSVG, graph.FormatPNG, graph.FormatPDF:
		k.Theme = o.Theme
		k.Grid = !o.NoGrid
		k.Interactive = o.Interactive && format == graph.FormatSVG
		if format == graph.FormatPNG {
			k.Scale = o.Scale
		}
	case graph.FormatDOT:
		k.Detailed = o.Detailed
		k.LayoutHash = ""
	}
	return k
}

// SVGOptions returns the SVG renderer options.
func (o *Options) SVGOptions(title string) []sink.SVGOption {
	opts := []sink.SVGOption{sink.WithTheme(sink.Themes[o.Theme])}
	if title != "" {
		opts = append(opts, sink.WithTitle(title))
	}
	if o.NoGrid {
		opts = append(opts, sink.WithoutGrid())
	}
	if o.Interactive {
		opts = append(opts, sink.WithInteraction())
	}
	return opts
}
