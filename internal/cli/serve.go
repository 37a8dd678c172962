package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/scenemap/pkg/observability"
	"github.com/matzehuels/scenemap/pkg/server"
	"github.com/matzehuels/scenemap/pkg/watch"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr     string
	view     viewFlags
	theme    string
	watch    bool
	metrics  bool
	sessions bool
	noCache  bool
}

// serveCommand hosts a scene map over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve [scene]",
		Short: "Host an interactive scene map over HTTP",
		Long: `Serve loads a scene, opens a view with the given flags and accepts view
events (focus, toggle, pin, dig, pointer gestures) over HTTP. Every event
returns the new frame.

With --watch, the scene is rescanned whenever the file is saved; the view
state survives the rescan.`,
		Example: `  scenemap serve level.yaml --focus camera --watch
  curl -X POST localhost:8321/api/v1/toggle/camera
  curl 'localhost:8321/api/v1/frame?format=svg' > view.svg`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeScenes,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config)")
	opts.view.register(cmd)
	cmd.Flags().StringVar(&opts.theme, "theme", "", "SVG theme: dark, light")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "rescan the scene when the file changes")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "expose Prometheus metrics at /metrics")
	cmd.Flags().BoolVar(&opts.sessions, "sessions", true, "enable the session endpoints")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

// runServe runs the server and, with --watch, the file watcher until the
// command's context is cancelled or either of them fails.
func (c *CLI) runServe(cmd *cobra.Command, scenePath string, opts *serveOpts) error {
	ctx := withLogger(cmd.Context(), c.Logger)
	sc := c.Config.Server

	cfg := server.Config{
		Addr:         sc.Addr,
		ReadTimeout:  sc.ReadTimeout.Duration,
		WriteTimeout: sc.WriteTimeout.Duration,
		SessionTTL:   c.Config.Session.TTL.Duration,
		Logger:       c.Logger,
	}
	if opts.addr != "" {
		cfg.Addr = opts.addr
	}
	cfg.Options = c.baseOptions(scenePath)
	opts.view.apply(cmd, &cfg.Options)
	cfg.Options.Theme = opts.theme

	if opts.metrics || sc.Metrics {
		cfg.Metrics = registerMetrics()
		defer observability.Reset()
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()
	cfg.Runner = runner

	if opts.sessions {
		store, err := c.openSessions(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		cfg.Sessions = store
		if err := store.Cleanup(ctx); err != nil {
			c.Logger.Warn("session cleanup failed", "err", err)
		}
	}

	srv, err := server.New(ctx, cfg)
	if err != nil {
		return err
	}

	var w *watch.Watcher
	if opts.watch {
		w, err = watch.New(scenePath, srv.Rescan, watch.Options{
			Debounce: sc.WatchDebounce.Duration,
			Logger:   c.Logger,
		})
		if err != nil {
			return err
		}
		c.Logger.Info("watching scene", "path", w.Path())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})
	if w != nil {
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	out := newPrinter(cmd.OutOrStdout())
	out.success("Serving %s", styleHighlight.Render(scenePath))
	out.detail("http://%s/api/v1/frame", srv.Addr())
	if cfg.Metrics != nil {
		out.detail("http://%s/metrics", srv.Addr())
	}

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// registerMetrics installs Prometheus hooks on a fresh registry and returns
// its HTTP handler.
func registerMetrics() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	hooks := observability.NewPrometheusHooks(reg)
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetServerHooks(hooks)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
