package pipeline

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scenemap/pkg/cache"
	"github.com/matzehuels/scenemap/pkg/errors"
	"github.com/matzehuels/scenemap/pkg/graph"
	"github.com/matzehuels/scenemap/pkg/observability"
	"github.com/matzehuels/scenemap/pkg/render"
	"github.com/matzehuels/scenemap/pkg/scene"
	"github.com/matzehuels/scenemap/pkg/scene/build"
	"github.com/matzehuels/scenemap/pkg/view"
)

var demoScene = filepath.Join("..", "inspect", "document", "testdata", "scene.yaml")

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return NewRunner(c, nil, log.NewWithOptions(io.Discard, log.Options{}))
}

func pinned(v *view.View) []scene.Handle {
	var hs []scene.Handle
	for _, r := range v.Pinned() {
		hs = append(hs, r.Context)
	}
	return hs
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"json", false},
		{"dot", false},
		{"png", false},
		{"pdf", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	opts := Options{Scene: "level.yaml"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() = %v", err)
	}
	if opts.Levels != 3 || opts.Theme != DefaultTheme || opts.Scale != DefaultScale || opts.Margin != DefaultMargin {
		t.Errorf("defaults not applied: %+v", opts)
	}
	if !slices.Equal(opts.Formats, []string{"svg"}) {
		t.Errorf("Formats = %v", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"empty scene", Options{}, errors.ErrCodeInvalidPath},
		{"bad extension", Options{Scene: "level.txt"}, errors.ErrCodeInvalidPath},
		{"negative levels", Options{Scene: "a.yaml", Levels: -1}, errors.ErrCodeInvalidInput},
		{"negative dig", Options{Scene: "a.yaml", Dig: -1}, errors.ErrCodeInvalidInput},
		{"excessive dig", Options{Scene: "a.yaml", Dig: MaxDig + 1}, errors.ErrCodeInvalidInput},
		{"empty pin", Options{Scene: "a.yaml", Pin: []string{""}}, errors.ErrCodeInvalidInput},
		{"unknown format", Options{Scene: "a.yaml", Formats: []string{"gif"}}, errors.ErrCodeInvalidFormat},
		{"unknown theme", Options{Scene: "a.yaml", Theme: "neon"}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("ValidateAndSetDefaults() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{Theme: "light", Scale: 3, Interactive: true, Detailed: true}

	svg := opts.ArtifactKeyOpts("svg", "s", "l")
	if svg.Theme != "light" || !svg.Grid || !svg.Interactive || svg.Scale != 0 || svg.Detailed {
		t.Errorf("svg key = %+v", svg)
	}
	png := opts.ArtifactKeyOpts("png", "s", "l")
	if png.Scale != 3 || png.Interactive {
		t.Errorf("png key = %+v", png)
	}
	dot := opts.ArtifactKeyOpts("dot", "s", "l")
	if !dot.Detailed || dot.Theme != "" || dot.LayoutHash != "" {
		t.Errorf("dot key = %+v", dot)
	}
	if json := opts.ArtifactKeyOpts("json", "s", "l"); json.Theme != "" || json.FrameHash != "s" {
		t.Errorf("json key = %+v", json)
	}
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	opts := Options{
		Scene:   demoScene,
		Focus:   "camera",
		Pin:     []string{"player"},
		Formats: []string{"svg", "json", "dot"},
	}

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if first.Name != "demo" || first.SceneHash == "" {
		t.Errorf("name = %q, hash = %q", first.Name, first.SceneHash)
	}
	if first.CacheInfo.BuildHit || first.CacheInfo.RenderHit {
		t.Errorf("first run should miss: %+v", first.CacheInfo)
	}
	if first.Stats.Build.Edges != 3 || first.Stats.Rendered != 2 || first.Stats.Routes != 1 {
		t.Errorf("stats = %+v", first.Stats)
	}
	if rt := first.Frame.Routes[0]; rt.Direction != graph.DirectionOutgoing || !rt.Collapsed {
		t.Errorf("route = %+v", rt)
	}

	svg := first.Artifacts["svg"]
	if !bytes.HasPrefix(svg, []byte("<svg")) || !bytes.Contains(svg, []byte("<title>demo</title>")) {
		t.Errorf("svg = %.80s", svg)
	}
	frame, err := graph.UnmarshalFrame(first.Artifacts["json"])
	if err != nil {
		t.Fatalf("UnmarshalFrame() = %v", err)
	}
	if len(frame.Nodes) != 2 || !frame.Nodes[0].Focused {
		t.Errorf("frame nodes = %+v", frame.Nodes)
	}
	if !strings.HasPrefix(string(first.Artifacts["dot"]), "digraph G {") {
		t.Errorf("dot = %.40s", first.Artifacts["dot"])
	}

	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() second = %v", err)
	}
	if !second.CacheInfo.BuildHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run should hit: %+v", second.CacheInfo)
	}
	if second.Stats.Build.Edges != 3 || second.Forest.Len() != first.Forest.Len() {
		t.Errorf("rebuilt from snapshot: %+v", second.Stats.Build)
	}
	if !bytes.Equal(second.Artifacts["svg"], svg) {
		t.Error("cached svg differs")
	}

	opts.Refresh = true
	third, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() refresh = %v", err)
	}
	if third.CacheInfo.BuildHit || third.CacheInfo.RenderHit {
		t.Errorf("refresh should bypass the cache: %+v", third.CacheInfo)
	}
}

func TestExecuteRestoresState(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)

	first, err := r.Execute(ctx, Options{Scene: demoScene, Focus: "enemy", Expand: []string{"enemy"}})
	if err != nil {
		t.Fatal(err)
	}
	state := view.Capture(first.View)

	second, err := r.Execute(ctx, Options{Scene: demoScene, State: &state})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.RenderHit {
		t.Error("restored state should reuse the cached artifact")
	}
	if f := second.View.Focus(); f == nil || f.Context != "enemy" {
		t.Errorf("focus = %v", f)
	}

	stale := view.State{Pinned: []scene.Handle{"enemy", "removed"}}
	third, err := r.Execute(ctx, Options{Scene: demoScene, State: &stale})
	if err != nil {
		t.Fatal(err)
	}
	if third.Stats.Missing != 1 {
		t.Errorf("Missing = %d, want 1", third.Stats.Missing)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	opts := Options{Scene: demoScene}
	src, err := r.Load(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		opts Options
		want []scene.Handle
	}{
		{"focus", Options{Focus: "camera"}, []scene.Handle{"camera"}},
		{"dig once", Options{Focus: "camera", Dig: 1}, []scene.Handle{"camera", "player"}},
		{"dig until stable", Options{Focus: "camera", Dig: 5}, []scene.Handle{"enemy", "camera", "player", "spawn"}},
		{"all", Options{All: true}, []scene.Handle{"enemy", "camera", "player", "spawn", "light"}},
		{"pin component", Options{Pin: []string{"player/Health"}}, []scene.Handle{"player"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _, err := r.Build(ctx, src, opts)
			if err != nil {
				t.Fatal(err)
			}
			v, err := r.Open(ctx, f, tt.opts)
			if err != nil {
				t.Fatalf("Open() = %v", err)
			}
			if got := pinned(v); !slices.Equal(got, tt.want) {
				t.Errorf("pinned = %v, want %v", got, tt.want)
			}
		})
	}

	f, _, _ := r.Build(ctx, src, opts)
	for _, bad := range []Options{{Focus: "ghost"}, {Pin: []string{"ghost"}}, {Expand: []string{"ghost"}}} {
		if _, err := r.Open(ctx, f, bad); !errors.Is(err, errors.ErrCodeNodeNotFound) {
			t.Errorf("Open(%+v) = %v, want NODE_NOT_FOUND", bad, err)
		}
	}
}

func TestLoadSnapshot(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)

	base, err := r.Execute(ctx, Options{Scene: demoScene, All: true})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "level"+SnapshotSuffix)
	if err := graph.WriteSceneFile(graph.FromForest(base.Forest, "level one"), path); err != nil {
		t.Fatal(err)
	}

	got, err := r.Execute(ctx, Options{Scene: path, All: true, Formats: []string{"json"}})
	if err != nil {
		t.Fatalf("Execute(snapshot) = %v", err)
	}
	if got.Name != "level one" {
		t.Errorf("Name = %q", got.Name)
	}
	if got.Forest.Len() != base.Forest.Len() || got.Forest.EdgeCount() != base.Forest.EdgeCount() {
		t.Errorf("snapshot forest = %d nodes %d edges", got.Forest.Len(), got.Forest.EdgeCount())
	}
	if got.Stats.Rendered != base.Stats.Rendered {
		t.Errorf("rendered = %d, want %d", got.Stats.Rendered, base.Stats.Rendered)
	}

	if _, err := r.Load(ctx, Options{Scene: filepath.Join(t.TempDir(), "missing"+SnapshotSuffix)}); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) = %v", err)
	}
}

func TestRenderConverted(t *testing.T) {
	if !render.Available() {
		t.Skip("rsvg-convert not installed")
	}
	r := newTestRunner(t)
	res, err := r.Execute(context.Background(), Options{Scene: demoScene, All: true, Formats: []string{"png", "pdf"}})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(res.Artifacts["png"], []byte("\x89PNG")) {
		t.Error("png artifact has no PNG signature")
	}
	if !bytes.HasPrefix(res.Artifacts["pdf"], []byte("%PDF")) {
		t.Error("pdf artifact has no PDF signature")
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	builds []int
}

func (h *recordingHooks) OnBuildComplete(_ context.Context, _ string, nodes, _, _ int, _ time.Duration, _ error) {
	h.builds = append(h.builds, nodes)
}

func TestExecuteEmitsHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetPipelineHooks(hooks)
	t.Cleanup(observability.Reset)

	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{Scene: demoScene})
	if err != nil {
		t.Fatal(err)
	}
	if len(hooks.builds) != 1 || hooks.builds[0] != res.Forest.Len() {
		t.Errorf("builds = %v, want [%d]", hooks.builds, res.Forest.Len())
	}
}

func TestRenderCacheFollowsLayout(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	opts := Options{Scene: "layout.yaml", Formats: []string{"json"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}

	// R ── C1 (a, b → S), C2 (c → S); S. Expanding C1 in place leaves C2
	// where it was, a full layout stacks C2 below the expanded C1.
	insp := new(build.StaticInspector)
	insp.AddRoot("R", "R").AddRoot("S", "S").
		AddChild("R", "R/C1", "C1").
		AddReference("R/C1", "R/C1.a", "a", "S").
		AddReference("R/C1", "R/C1.b", "b", "S").
		AddChild("R", "R/C2", "C2").
		AddReference("R/C2", "R/C2.c", "c", "S")
	src := &Source{Name: "layout", Hash: "layout-hash", insp: insp}
	open := func() (*view.View, func(scene.Handle) *scene.Node) {
		f, _ := build.Build(insp, build.Options{})
		return view.New(f, opts.ViewOptions()), func(h scene.Handle) *scene.Node {
			n, ok := f.Lookup(h)
			if !ok {
				t.Fatalf("node %q not found", h)
			}
			return n
		}
	}

	state := view.State{Pinned: []scene.Handle{"R", "S"}, Expanded: []scene.Handle{"R", "R/C1"}}
	full, _ := open()
	view.Apply(full, state)
	fullArt, _, err := r.RenderWithCacheInfo(ctx, full, src, opts)
	if err != nil {
		t.Fatal(err)
	}

	live, node := open()
	live.Pin(node("R"))
	live.Pin(node("S"))
	live.ToggleExpanded(node("R"))
	live.ToggleExpanded(node("R/C1"))
	if got := view.Capture(live); !reflect.DeepEqual(got, state) {
		t.Fatalf("captured %+v, want %+v", got, state)
	}

	want, err := graph.MarshalFrame(graph.FromFrame(live.Frame(), opts.Margin))
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(want, fullArt["json"]) {
		t.Fatal("local and full layout produced the same frame")
	}

	served, hit, err := r.RenderWithCacheInfo(ctx, live, src, opts)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("a differently laid out view was served from the cache")
	}
	if !bytes.Equal(served["json"], want) {
		t.Errorf("served frame does not match the live view:\n%s\nwant\n%s", served["json"], want)
	}

	again, hit, err := r.RenderWithCacheInfo(ctx, live, src, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !hit || !bytes.Equal(again["json"], want) {
		t.Errorf("unchanged live view: hit = %v", hit)
	}
}

func TestBuildCacheKeepsStats(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lost.yaml")
	doc := `name: lost
objects:
  - id: camera
    components:
      - type: Follow
        fields:
          - name: target
            ref: player
          - name: missing
            ref: ghost
  - id: player
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	var logs bytes.Buffer
	r := NewRunner(c, nil, log.NewWithOptions(&logs, log.Options{}))

	first, err := r.Execute(ctx, Options{Scene: path})
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if first.Stats.Build.Dropped != 1 {
		t.Fatalf("Dropped = %d, want 1", first.Stats.Build.Dropped)
	}

	logs.Reset()
	second, err := r.Execute(ctx, Options{Scene: path})
	if err != nil {
		t.Fatalf("Execute() second = %v", err)
	}
	if !second.CacheInfo.BuildHit {
		t.Fatal("second build should hit the cache")
	}
	if second.Stats.Build != first.Stats.Build {
		t.Errorf("cached stats = %+v, want %+v", second.Stats.Build, first.Stats.Build)
	}
	if !strings.Contains(logs.String(), "unresolved references") {
		t.Errorf("cache hit did not warn about dropped references: %q", logs.String())
	}
}
