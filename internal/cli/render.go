package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scenemap/pkg/pipeline"
	"github.com/matzehuels/scenemap/pkg/session"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output      string // output file (single format) or base path (multiple)
	formats     string // comma-separated output formats
	view        viewFlags
	theme       string
	noGrid      bool
	interactive bool
	detailed    bool
	scale       float64
	session     string // session ID whose view state is restored first
	noCache     bool
	refresh     bool
}

// viewFlags are the scene and view flags shared by render, browse and serve.
type viewFlags struct {
	levels   int
	scalars  bool
	focus    string
	pin      []string
	expand   []string
	dig      int
	all      bool
	roots    bool
	any      bool
	siblings bool
}

// register adds the view flags to cmd.
func (f *viewFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVar(&f.levels, "levels", 0, "maximum child depth below each object (default 3)")
	fs.BoolVar(&f.scalars, "scalars", false, "include fields that hold no reference")
	fs.StringVar(&f.focus, "focus", "", "show only this object")
	fs.StringSliceVar(&f.pin, "pin", nil, "pin objects (handles of objects or their children)")
	fs.StringSliceVar(&f.expand, "expand", nil, "expand nodes")
	fs.IntVar(&f.dig, "dig", 0, "dig for connections this many times")
	fs.BoolVar(&f.all, "all", false, "pin every object")
	fs.BoolVar(&f.roots, "roots-without-connections", false, "draw pinned objects without any references")
	fs.BoolVar(&f.any, "any-without-connections", false, "draw children without any references")
	fs.BoolVar(&f.siblings, "sibling-connections", false, "draw references between siblings")
}

// apply copies the flags into opts. Draw toggles override the config file
// only when given on the command line.
func (f *viewFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	opts.Levels = f.levels
	opts.IncludeScalars = f.scalars
	opts.Focus = f.focus
	opts.Pin = f.pin
	opts.Expand = f.expand
	opts.Dig = f.dig
	opts.All = f.all

	fs := cmd.Flags()
	if fs.Changed("roots-without-connections") {
		opts.Toggles.Roots = f.roots
	}
	if fs.Changed("any-without-connections") {
		opts.Toggles.Any = f.any
	}
	if fs.Changed("sibling-connections") {
		opts.Toggles.Siblings = f.siblings
	}
}

// renderCommand creates the render command for drawing a scene view.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [scene]",
		Short: "Render a view of a scene to SVG, JSON, DOT, PNG or PDF",
		Long: `Render loads a scene document (YAML, JSON or TOML) or a .scene.json snapshot,
opens a view on it and draws that view.

Nothing is drawn until objects are pinned: use --focus, --pin or --all, then
--expand and --dig to follow references.`,
		Example: `  scenemap render level.yaml --focus camera --dig 2
  scenemap render level.yaml --all -f svg,json -o out/level
  scenemap render level.yaml --session 3f0c...`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeScenes,
		RunE: func(cmd *cobra.Command, args []string) error {
			popts := c.baseOptions(args[0])
			opts.view.apply(cmd, &popts)
			popts.Formats = parseFormats(opts.formats)
			popts.Theme = opts.theme
			popts.NoGrid = opts.noGrid
			popts.Interactive = opts.interactive
			popts.Detailed = opts.detailed
			popts.Scale = opts.scale
			popts.Refresh = opts.refresh
			return c.runRender(cmd, popts, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), json, dot, png, pdf (comma-separated)")
	opts.view.register(cmd)
	cmd.Flags().StringVar(&opts.theme, "theme", pipeline.DefaultTheme, "SVG theme: dark, light")
	cmd.Flags().BoolVar(&opts.noGrid, "no-grid", false, "omit the background grid")
	cmd.Flags().BoolVar(&opts.interactive, "interactive", false, "add hover highlighting to SVG output")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label DOT nodes with their handles")
	cmd.Flags().Float64Var(&opts.scale, "scale", pipeline.DefaultScale, "PNG scale factor")
	cmd.Flags().StringVar(&opts.session, "session", "", "restore the view state of a stored session")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached artifacts")

	return cmd
}

// runRender executes the pipeline and writes one file per format.
func (c *CLI) runRender(cmd *cobra.Command, popts pipeline.Options, opts *renderOpts) error {
	ctx := withLogger(cmd.Context(), c.Logger)
	out := newPrinter(cmd.OutOrStdout())

	if opts.session != "" {
		sess, err := c.loadSession(ctx, opts.session)
		if err != nil {
			return err
		}
		if abs(sess.Scene) != abs(popts.Scene) {
			out.warning("session %s was saved for %s", sess.ID, sess.Scene)
		}
		popts.State = &sess.State
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spin := newSpinner(ctx, cmd.ErrOrStderr(), fmt.Sprintf("Rendering %s...", filepath.Base(popts.Scene)))
	spin.Start()
	defer spin.Stop()
	done := stopwatch(loggerFromContext(ctx))
	result, err := runner.Execute(ctx, popts)
	if err != nil {
		return err
	}
	done("Rendered %d nodes", result.Stats.Rendered)

	spin.Update(fmt.Sprintf("Writing %d files...", len(popts.Formats)))
	paths := outputPaths(opts.output, popts.Scene, popts.Formats)
	for _, format := range popts.Formats {
		if spin.Cancelled() {
			return ctx.Err()
		}
		path := paths[format]
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	spin.Stop()

	out.success("Rendered %s", styleHighlight.Render(result.Name))
	for _, format := range popts.Formats {
		out.file(paths[format])
	}
	out.stats(result.Stats, result.CacheInfo.RenderHit)
	if result.Stats.Rendered == 0 {
		out.nextStep("Nothing is pinned, try", fmt.Sprintf("%s render %s --all", appName, popts.Scene))
	}
	return nil
}

// outputPaths maps each format to its output file. A single format is
// written to output as given; multiple formats share output as a base path.
// Without output, files are named after the scene.
func outputPaths(output, scenePath string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, scenePath)
	for _, f := range formats {
		paths[f] = base + "." + f
		if output == "" && paths[f] == scenePath {
			paths[f] = base + ".frame." + f
		}
	}
	return paths
}

// basePath derives the base output path. Known format extensions are
// stripped from output; without output, the scene path loses its extension.
func basePath(output, scenePath string) string {
	if output == "" {
		output = strings.TrimSuffix(scenePath, pipeline.SnapshotSuffix)
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidateFormat(strings.TrimPrefix(ext, ".")) == nil {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// loadSession reads a stored session.
func (c *CLI) loadSession(ctx context.Context, id string) (*session.Session, error) {
	store, err := c.openSessions(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return getSession(ctx, store, id)
}

func abs(path string) string {
	if p, err := filepath.Abs(path); err == nil {
		return p
	}
	return path
}
