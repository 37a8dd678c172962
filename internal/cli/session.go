package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scenemap/pkg/errors"
	"github.com/matzehuels/scenemap/pkg/pipeline"
	"github.com/matzehuels/scenemap/pkg/scene"
	"github.com/matzehuels/scenemap/pkg/session"
	"github.com/matzehuels/scenemap/pkg/view"
)

// sessionCommand creates the session management command. A session stores
// the view state of one scene so that it can be edited step by step and
// restored by render, browse and serve.
func (c *CLI) sessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Create and edit stored view sessions",
		Long: `Sessions store a view state (pinned objects, expanded nodes, drag offsets,
focus and draw toggles) for a scene. Each editing subcommand opens the scene,
restores the stored state, applies one event and saves the result.

The backend is chosen in the [session] section of the config file.`,
	}

	cmd.AddCommand(c.sessionNewCommand())
	cmd.AddCommand(c.sessionListCommand())
	cmd.AddCommand(c.sessionShowCommand())
	cmd.AddCommand(c.sessionEditCommand("focus <id> <handle>", "Show only the object owning a node", 2,
		func(v *view.View, args []string) (string, error) {
			n, err := lookupNode(v.Forest(), args[0])
			if err != nil {
				return "", err
			}
			v.SetExclusiveVisibleRoot(n)
			return "focused " + n.Root().Title, nil
		}))
	cmd.AddCommand(c.sessionEditCommand("toggle <id> <handle>", "Expand or collapse a node", 2,
		func(v *view.View, args []string) (string, error) {
			n, err := lookupNode(v.Forest(), args[0])
			if err != nil {
				return "", err
			}
			v.ToggleExpanded(n)
			if n.Expanded {
				return "expanded " + n.Title, nil
			}
			return "collapsed " + n.Title, nil
		}))
	cmd.AddCommand(c.sessionEditCommand("pin <id> <handle>", "Pin the object owning a node", 2,
		func(v *view.View, args []string) (string, error) {
			n, err := lookupNode(v.Forest(), args[0])
			if err != nil {
				return "", err
			}
			v.Pin(n)
			return "pinned " + n.Root().Title, nil
		}))
	cmd.AddCommand(c.sessionEditCommand("unpin <id> <handle>", "Unpin the object owning a node", 2,
		func(v *view.View, args []string) (string, error) {
			n, err := lookupNode(v.Forest(), args[0])
			if err != nil {
				return "", err
			}
			v.Unpin(n)
			return "unpinned " + n.Root().Title, nil
		}))
	cmd.AddCommand(c.sessionEditCommand("dig <id>", "Pin every object referenced by the rendered nodes", 1,
		func(v *view.View, _ []string) (string, error) {
			added := v.DigForConnections()
			titles := make([]string, len(added))
			for i, n := range added {
				titles[i] = n.Title
			}
			if len(titles) == 0 {
				return "no new objects", nil
			}
			return "pinned " + strings.Join(titles, ", "), nil
		}))
	cmd.AddCommand(c.sessionDragCommand())
	cmd.AddCommand(c.sessionRemoveCommand())
	cmd.AddCommand(c.sessionPruneCommand())

	return cmd
}

// sessionNewCommand opens a scene with the view flags and stores the state.
func (c *CLI) sessionNewCommand() *cobra.Command {
	var (
		flags viewFlags
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:               "new <scene>",
		Short:             "Create a session for a scene",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeScenes,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			popts := c.baseOptions(args[0])
			flags.apply(cmd, &popts)

			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			src, v, _, err := openView(ctx, runner, popts)
			if err != nil {
				return err
			}

			store, err := c.openSessions(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if ttl <= 0 {
				ttl = c.Config.Session.TTL.Duration
			}
			sess, err := session.New(abs(args[0]), ttl)
			if err != nil {
				return err
			}
			sess.SceneHash = src.Hash
			sess.Touch(view.Capture(v), ttl)
			if err := store.Set(ctx, sess); err != nil {
				return err
			}

			out := newPrinter(cmd.OutOrStdout())
			out.success("Created session %s", styleHighlight.Render(sess.ID))
			printFrameSummary(out, v)
			out.nextStep("Edit it with", fmt.Sprintf("%s session dig %s", appName, sess.ID))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "session lifetime (default from config)")
	return cmd
}

func (c *CLI) sessionListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openSessions(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := store.List(ctx)
			if err != nil {
				return err
			}
			out := newPrinter(cmd.OutOrStdout())
			if len(list) == 0 {
				out.info("No sessions")
				return nil
			}
			for _, s := range list {
				out.line(fmt.Sprintf("%s  %s  %s",
					styleValue.Render(s.ID),
					styleDim.Render(s.UpdatedAt.Local().Format(time.DateTime)),
					s.Scene))
			}
			return nil
		},
	}
}

func (c *CLI) sessionShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the view state of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.loadSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := newPrinter(cmd.OutOrStdout())
			out.keyValue("ID", sess.ID)
			out.keyValue("Scene", sess.Scene)
			out.keyValue("Updated", sess.UpdatedAt.Local().Format(time.DateTime))
			out.keyValue("Expires", sess.ExpiresAt.Local().Format(time.DateTime))
			if sess.State.Focus != "" {
				out.keyValue("Focus", string(sess.State.Focus))
			}
			out.keyValue("Pinned", joinHandles(sess.State.Pinned))
			out.keyValue("Expanded", joinHandles(sess.State.Expanded))
			for h, p := range sess.State.Offsets {
				out.keyValue("Offset", fmt.Sprintf("%s (%g, %g)", h, p.X, p.Y))
			}
			return nil
		},
	}
}

// sessionEditCommand builds a subcommand that applies one view event to a
// stored session. fn receives the arguments after the session ID.
func (c *CLI) sessionEditCommand(use, short string, nargs int, fn func(*view.View, []string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.editSession(cmd, args[0], func(v *view.View) (string, error) {
				return fn(v, args[1:])
			})
		},
	}
}

// editSession restores a session's view, applies fn and stores the new state.
func (c *CLI) editSession(cmd *cobra.Command, id string, fn func(*view.View) (string, error)) error {
	ctx := cmd.Context()
	store, err := c.openSessions(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	sess, err := getSession(ctx, store, id)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := c.baseOptions(sess.Scene)
	popts.State = &sess.State
	src, v, missing, err := openView(ctx, runner, popts)
	if err != nil {
		return err
	}

	out := newPrinter(cmd.OutOrStdout())
	if missing > 0 {
		out.warning("dropped %d handles that no longer exist in %s", missing, src.Name)
	}
	msg, err := fn(v)
	if err != nil {
		return err
	}

	sess.SceneHash = src.Hash
	sess.Touch(view.Capture(v), c.Config.Session.TTL.Duration)
	if err := store.Set(ctx, sess); err != nil {
		return err
	}
	out.success("%s", msg)
	printFrameSummary(out, v)
	return nil
}

// sessionDragCommand moves a pinned object the way a pointer drag would.
func (c *CLI) sessionDragCommand() *cobra.Command {
	var dx, dy float64
	cmd := c.sessionEditCommand("drag <id> <handle>", "Move a pinned object", 2,
		func(v *view.View, args []string) (string, error) {
			n, err := lookupNode(v.Forest(), args[0])
			if err != nil {
				return "", err
			}
			root := n.Root()
			if !v.Press(root) {
				return "", errors.New(errors.ErrCodeInvalidInput, "%s is not rendered", root.Title)
			}
			v.Drag(dx, dy)
			v.Release()
			off := v.Offset(root)
			return fmt.Sprintf("moved %s to offset (%g, %g)", root.Title, off.X, off.Y), nil
		})
	cmd.Example = "  scenemap session drag 3f0c... enemy --dx=-120 --dy=40"
	cmd.Flags().Float64Var(&dx, "dx", 0, "horizontal distance")
	cmd.Flags().Float64Var(&dy, "dy", 0, "vertical distance")
	return cmd
}

func (c *CLI) sessionRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a session",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := errors.ValidateSessionID(args[0]); err != nil {
				return err
			}
			store, err := c.openSessions(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Delete(ctx, args[0]); err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).success("Deleted session %s", args[0])
			return nil
		},
	}
}

func (c *CLI) sessionPruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete expired sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openSessions(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Cleanup(ctx); err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).success("Pruned expired sessions")
			return nil
		},
	}
}

// =============================================================================
// Helpers
// =============================================================================

// openView runs the pipeline up to an opened view and reports how many
// handles of a restored state no longer exist.
func openView(ctx context.Context, r *pipeline.Runner, opts pipeline.Options) (*pipeline.Source, *view.View, int, error) {
	src, err := r.Load(ctx, opts)
	if err != nil {
		return nil, nil, 0, err
	}
	forest, _, err := r.Build(ctx, src, opts)
	if err != nil {
		return nil, nil, 0, err
	}
	v, missing, err := r.OpenWithStateInfo(ctx, forest, opts)
	if err != nil {
		return nil, nil, 0, err
	}
	return src, v, missing, nil
}

// getSession reads a session and codes the store's sentinel errors.
func getSession(ctx context.Context, store session.Store, id string) (*session.Session, error) {
	if err := errors.ValidateSessionID(id); err != nil {
		return nil, err
	}
	sess, err := store.Get(ctx, id)
	switch {
	case stderrors.Is(err, session.ErrNotFound):
		return nil, errors.Wrap(errors.ErrCodeSessionNotFound, err, "session %s not found", id)
	case stderrors.Is(err, session.ErrExpired):
		return nil, errors.Wrap(errors.ErrCodeSessionExpired, err, "session %s expired", id)
	case err != nil:
		return nil, err
	}
	return sess, nil
}

// lookupNode resolves a handle in f.
func lookupNode(f *scene.Forest, h string) (*scene.Node, error) {
	if err := errors.ValidateHandle(h); err != nil {
		return nil, err
	}
	n, ok := f.Lookup(scene.Handle(h))
	if !ok {
		return nil, errors.New(errors.ErrCodeNodeNotFound, "node %q not found", h)
	}
	return n, nil
}

func printFrameSummary(out printer, v *view.View) {
	f := v.Frame()
	var roots []string
	for _, n := range f.Nodes {
		if n.Root {
			roots = append(roots, n.Node.Title)
		}
	}
	out.detail("%d rendered · %d routes", len(f.Nodes), len(f.Routes))
	if len(roots) > 0 {
		out.detail("pinned: %s", strings.Join(roots, ", "))
	}
}

func joinHandles(hs []scene.Handle) string {
	if len(hs) == 0 {
		return "-"
	}
	s := make([]string, len(hs))
	for i, h := range hs {
		s[i] = string(h)
	}
	return strings.Join(s, ", ")
}
