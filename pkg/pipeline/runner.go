package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scenemap/pkg/cache"
	"github.com/matzehuels/scenemap/pkg/errors"
	"github.com/matzehuels/scenemap/pkg/graph"
	"github.com/matzehuels/scenemap/pkg/inspect/document"
	"github.com/matzehuels/scenemap/pkg/observability"
	"github.com/matzehuels/scenemap/pkg/scene"
	"github.com/matzehuels/scenemap/pkg/scene/build"
	"github.com/matzehuels/scenemap/pkg/view"
)

// Runner encapsulates pipeline execution with caching.
// Both the CLI and the server use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// ArtifactTTL is the lifetime of cached artifacts. Zero means cache.TTLArtifact.
	ArtifactTTL time.Duration
}

// Source is a loaded scene file.
type Source struct {
	Path string
	Name string // Document name, or the file name without extension
	Hash string // SHA-256 of the file contents

	insp build.Inspector
}

// Inspector returns the inspector serving the loaded scene.
func (s *Source) Inspector() build.Inspector { return s.insp }

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → build → open → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	src, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Name = src.Name
	result.SceneHash = src.Hash
	result.Stats.LoadTime = time.Since(loadStart)

	// Stage 2: Build
	buildStart := time.Now()
	forest, stats, buildHit, err := r.BuildWithCacheInfo(ctx, src, opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Forest = forest
	result.Stats.Build = stats
	result.Stats.BuildTime = time.Since(buildStart)
	result.CacheInfo.BuildHit = buildHit

	r.Logger.Info("built scene",
		"scene", src.Name,
		"nodes", stats.Nodes,
		"edges", stats.Edges,
		"duration", result.Stats.BuildTime)

	// Stage 3: Open
	layoutStart := time.Now()
	v, missing, err := r.OpenWithStateInfo(ctx, forest, opts)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	result.View = v
	result.Frame = graph.FromFrame(v.Frame(), opts.Margin)
	result.Stats.Missing = missing
	result.Stats.Rendered = len(result.Frame.Nodes)
	result.Stats.Routes = len(result.Frame.Routes)
	result.Stats.LayoutTime = time.Since(layoutStart)

	r.Logger.Info("computed layout",
		"pinned", len(v.Pinned()),
		"rendered", result.Stats.Rendered,
		"routes", result.Stats.Routes,
		"duration", result.Stats.LayoutTime)

	// Stage 4: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, v, src, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// =============================================================================
// Load
// =============================================================================

// Load reads the scene file named by opts.Scene. Documents are parsed and
// validated here; snapshots (files ending in SnapshotSuffix) are decoded
// into an inspector that reproduces them.
func (r *Runner) Load(ctx context.Context, opts Options) (src *Source, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, opts.Scene)
	start := time.Now()
	size := 0
	defer func() { hooks.OnLoadComplete(ctx, opts.Scene, size, time.Since(start), err) }()

	base := filepath.Base(opts.Scene)
	src = &Source{Path: opts.Scene, Name: strings.TrimSuffix(base, filepath.Ext(base))}

	if opts.IsSnapshot() {
		src.Name = strings.TrimSuffix(base, SnapshotSuffix)
		data, err := os.ReadFile(opts.Scene)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "scene %s not found", opts.Scene)
			}
			return nil, fmt.Errorf("read scene: %w", err)
		}
		size = len(data)
		snap, err := graph.UnmarshalScene(data)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "decode snapshot")
		}
		if snap.Name != "" {
			src.Name = snap.Name
		}
		if src.insp, err = snap.Inspector(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "decode snapshot")
		}
		src.Hash = cache.Hash(data)
		return src, nil
	}

	doc, data, err := document.Load(opts.Scene)
	if err != nil {
		return nil, err
	}
	size = len(data)
	if doc.Name != "" {
		src.Name = doc.Name
	}
	src.insp = document.NewInspector(doc, document.Options{IncludeScalars: opts.IncludeScalars})
	src.Hash = cache.Hash(data)

	opts.Logger.Debug("loaded scene", "path", opts.Scene, "objects", len(doc.Objects), "bytes", size)
	return src, nil
}

// =============================================================================
// Build
// =============================================================================

// BuildWithCacheInfo builds the forest with caching and returns cache hit info.
// On a hit the forest is rebuilt from the cached snapshot, which skips the
// scene's own inspector, and the stats of the original build are returned.
func (r *Runner) BuildWithCacheInfo(ctx context.Context, src *Source, opts Options) (f *scene.Forest, stats build.Stats, hit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLoad(); err != nil {
		return nil, build.Stats{}, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnBuildStart(ctx, src.Name)
	start := time.Now()
	defer func() {
		hooks.OnBuildComplete(ctx, src.Name, stats.Nodes, stats.Edges, stats.Dropped, time.Since(start), err)
	}()

	cacheKey := r.Keyer.SceneKey(src.Hash, opts.SceneKeyOpts())
	buildOpts := build.Options{Levels: opts.Levels, Logger: opts.Logger}

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, ok, err := r.Cache.Get(ctx, cacheKey); err == nil && ok {
			var entry sceneEntry
			if err := json.Unmarshal(data, &entry); err == nil && entry.Scene.Validate() == nil {
				if insp, err := entry.Scene.Inspector(); err == nil {
					if f, rebuilt := build.Build(insp, buildOpts); entry.Stats.Nodes > 0 && rebuilt.Nodes == entry.Stats.Nodes {
						observability.Cache().OnCacheHit(ctx, cache.PrefixScene)
						stats = entry.Stats
						warnDropped(opts.Logger, src.Name, stats)
						return f, stats, true, nil
					}
				}
			}
			// If deserialization fails, fall through to rebuild
		}
		observability.Cache().OnCacheMiss(ctx, cache.PrefixScene)
	}

	f, stats = build.Build(src.insp, buildOpts)
	warnDropped(opts.Logger, src.Name, stats)

	// Cache the result
	if data, err := json.Marshal(sceneEntry{Scene: graph.FromForest(f, src.Name), Stats: stats}); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLScene); err == nil {
			observability.Cache().OnCacheSet(ctx, cache.PrefixScene, len(data))
		}
	}

	return f, stats, false, nil // Cache miss
}

// sceneEntry is the cached form of a built forest. The snapshot alone does
// not record how many references were dropped or entries skipped.
type sceneEntry struct {
	Scene graph.Scene `json:"scene"`
	Stats build.Stats `json:"stats"`
}

func warnDropped(l *log.Logger, name string, stats build.Stats) {
	if stats.Dropped > 0 {
		l.Warn("unresolved references", "scene", name, "dropped", stats.Dropped)
	}
}

// Build is a convenience wrapper that calls BuildWithCacheInfo and discards the cache hit info.
func (r *Runner) Build(ctx context.Context, src *Source, opts Options) (*scene.Forest, build.Stats, error) {
	f, stats, _, err := r.BuildWithCacheInfo(ctx, src, opts)
	return f, stats, err
}

// =============================================================================
// Open
// =============================================================================

// OpenWithStateInfo creates a view over f and applies, in order: the saved
// state, the focus, show-all, pins, expansions and dig rounds. It returns the
// number of saved-state handles that no longer exist in f.
//
// Unlike saved states, explicitly named handles must exist.
func (r *Runner) OpenWithStateInfo(ctx context.Context, f *scene.Forest, opts Options) (v *view.View, missing int, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForOpen(); err != nil {
		return nil, 0, err
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, len(opts.Pin))
	start := time.Now()
	rendered, routes := 0, 0
	defer func() { hooks.OnLayoutComplete(ctx, rendered, routes, time.Since(start), err) }()

	v = view.New(f, opts.ViewOptions())
	if opts.State != nil {
		missing = view.Apply(v, *opts.State)
		if missing > 0 {
			opts.Logger.Warn("saved view references missing nodes", "missing", missing)
		}
	}

	lookup := func(h string) (*scene.Node, error) {
		n, ok := f.Lookup(scene.Handle(h))
		if !ok {
			return nil, errors.New(errors.ErrCodeNodeNotFound, "node %q not found", h)
		}
		return n, nil
	}

	if opts.Focus != "" {
		n, err := lookup(opts.Focus)
		if err != nil {
			return nil, 0, err
		}
		v.SetExclusiveVisibleRoot(n)
	}
	if opts.All {
		v.ShowAll()
	}
	for _, h := range opts.Pin {
		n, err := lookup(h)
		if err != nil {
			return nil, 0, err
		}
		v.Pin(n)
	}
	for _, h := range opts.Expand {
		n, err := lookup(h)
		if err != nil {
			return nil, 0, err
		}
		v.SetExpanded(n, true)
	}
	for i := range opts.Dig {
		added := v.DigForConnections()
		opts.Logger.Debug("dig", "round", i+1, "added", len(added))
		if len(added) == 0 {
			break
		}
	}

	frame := v.Frame()
	rendered, routes = len(frame.Nodes), len(frame.Routes)
	return v, missing, nil
}

// Open is a convenience wrapper that calls OpenWithStateInfo and discards the missing count.
func (r *Runner) Open(ctx context.Context, f *scene.Forest, opts Options) (*view.View, error) {
	v, _, err := r.OpenWithStateInfo(ctx, f, opts)
	return v, err
}

// =============================================================================
// Render
// =============================================================================

// RenderWithCacheInfo draws v in every requested format with caching and
// returns cache hit info. Keys combine the scene hash with a hash of the
// serialized frame and the layout constants. Two views with the same captured
// state can still differ in their rectangles after a local relayout.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, v *view.View, src *Source, opts Options) (artifacts map[string][]byte, hit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	defer func() { hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err) }()

	rnd := renderer{view: v, name: src.Name, opts: opts}
	frameHash, err := cache.HashJSON(rnd.Frame())
	if err != nil {
		return nil, false, fmt.Errorf("hash frame: %w", err)
	}
	layoutHash, err := cache.HashJSON(v.Config())
	if err != nil {
		return nil, false, fmt.Errorf("hash layout: %w", err)
	}

	keys := make(map[string]string, len(opts.Formats))
	artifacts = make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		keyOpts := opts.ArtifactKeyOpts(format, frameHash, layoutHash)
		keys[format] = r.Keyer.ArtifactKey(src.Hash, keyOpts)
		if opts.Refresh {
			continue
		}
		if data, ok, err := r.Cache.Get(ctx, keys[format]); err == nil && ok {
			observability.Cache().OnCacheHit(ctx, cache.PrefixArtifact)
			opts.Logger.Debug("artifact cache hit", "key", keyOpts.DebugString())
			artifacts[format] = data
			continue
		}
		observability.Cache().OnCacheMiss(ctx, cache.PrefixArtifact)
	}
	if len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil // All artifacts from cache
	}

	for _, format := range opts.Formats {
		if _, ok := artifacts[format]; ok {
			continue
		}
		data, err := rnd.render(ctx, format)
		if err != nil {
			return nil, false, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
		if err := r.Cache.Set(ctx, keys[format], data, r.artifactTTL()); err == nil {
			observability.Cache().OnCacheSet(ctx, cache.PrefixArtifact, len(data))
		}
	}

	return artifacts, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, v *view.View, src *Source, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, v, src, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) artifactTTL() time.Duration {
	if r.ArtifactTTL > 0 {
		return r.ArtifactTTL
	}
	return cache.TTLArtifact
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
