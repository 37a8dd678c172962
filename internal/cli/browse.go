package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/scenemap/pkg/graph"
	"github.com/matzehuels/scenemap/pkg/pipeline"
	"github.com/matzehuels/scenemap/pkg/scene"
	"github.com/matzehuels/scenemap/pkg/session"
	"github.com/matzehuels/scenemap/pkg/view"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// browseCommand opens a scene in the terminal browser.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		flags     viewFlags
		sessionID string
	)

	cmd := &cobra.Command{
		Use:   "browse [scene]",
		Short: "Explore a scene map interactively",
		Long: `Browse lists every object of a scene. Pin objects to render them, expand
them down to the fields that hold references, and dig to pin whatever they
reference. With --session, the stored view state is restored on start and
saved on exit.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeScenes,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			popts := c.baseOptions(args[0])
			flags.apply(cmd, &popts)

			var (
				store session.Store
				sess  *session.Session
			)
			if sessionID != "" {
				var err error
				if store, err = c.openSessions(ctx); err != nil {
					return err
				}
				defer store.Close()
				if sess, err = getSession(ctx, store, sessionID); err != nil {
					return err
				}
				popts.State = &sess.State
			}

			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			m, err := newBrowseModel(ctx, runner, popts)
			if err != nil {
				return err
			}
			final, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
			if err != nil {
				return err
			}

			bm := final.(browseModel)
			if sess != nil {
				sess.SceneHash = bm.src.Hash
				sess.Touch(view.Capture(bm.view), c.Config.Session.TTL.Duration)
				if err := store.Set(ctx, sess); err != nil {
					return err
				}
				newPrinter(cmd.OutOrStdout()).success("Saved session %s", sess.ID)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&sessionID, "session", "", "restore and save the view state of a stored session")
	return cmd
}

// =============================================================================
// browseModel - Interactive scene map
// =============================================================================

// browseRow is one list line: a root, or a rendered descendant of a
// rendered root.
type browseRow struct {
	node     *scene.Node
	rendered bool
}

// browseModel is the bubbletea model of the scene browser. Every key is
// one view event, applied synchronously in Update.
type browseModel struct {
	ctx    context.Context
	runner *pipeline.Runner
	opts   pipeline.Options
	src    *pipeline.Source
	view   *view.View

	rows   []browseRow
	cursor int
	offset int
	height int
	status string
}

func newBrowseModel(ctx context.Context, r *pipeline.Runner, opts pipeline.Options) (browseModel, error) {
	src, v, missing, err := openView(ctx, r, opts)
	if err != nil {
		return browseModel{}, err
	}
	m := browseModel{ctx: ctx, runner: r, opts: opts, src: src, view: v, height: 15}
	if missing > 0 {
		m.status = fmt.Sprintf("dropped %d stale handles", missing)
	}
	m.refresh(nil)
	return m, nil
}

// refresh rebuilds the rows and keeps the cursor on keep when it is still listed.
func (m *browseModel) refresh(keep *scene.Node) {
	m.rows = nil
	for _, r := range m.view.Forest().Roots() {
		r.Walk(func(n *scene.Node) bool {
			rendered := m.view.IsRendered(n)
			if n != r && !rendered {
				return false
			}
			m.rows = append(m.rows, browseRow{node: n, rendered: rendered})
			return true
		})
	}
	if keep != nil {
		for i, row := range m.rows {
			if row.node == keep {
				m.cursor = i
				break
			}
		}
	}
	m.cursor = max(0, min(m.cursor, len(m.rows)-1))
	m.scroll()
}

func (m *browseModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m browseModel) selected() *scene.Node {
	if len(m.rows) == 0 {
		return nil
	}
	return m.rows[m.cursor].node
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 5)
		m.scroll()
	}
	return m, nil
}

func (m browseModel) handleKey(key string) (tea.Model, tea.Cmd) {
	n := m.selected()
	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.scroll()
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
			m.scroll()
		}
		return m, nil
	case "a":
		m.view.ShowAll()
		m.status = "pinned every object"
	case "d":
		added := m.view.DigForConnections()
		m.status = fmt.Sprintf("dig pinned %d objects", len(added))
	case "1", "2", "3":
		t := m.view.Toggles()
		switch key {
		case "1":
			t.Roots = !t.Roots
		case "2":
			t.Any = !t.Any
		case "3":
			t.Siblings = !t.Siblings
		}
		m.view.SetToggles(t)
		m.status = togglesStatus(t)
	case "r":
		m.rescan()
	case "w":
		m.writeSVG()
	}

	if n != nil {
		switch key {
		case "enter", " ":
			if !n.Root().Visible {
				m.view.Pin(n)
			}
			if !n.IsLeaf() {
				m.view.ToggleExpanded(n)
			}
		case "p":
			if n.Root().Visible {
				m.view.Unpin(n)
				m.status = "unpinned " + n.Root().Title
			} else {
				m.view.Pin(n)
				m.status = "pinned " + n.Root().Title
			}
		case "f":
			m.view.SetExclusiveVisibleRoot(n)
			m.status = "focused " + n.Root().Title
		case "left", "h", "right", "l":
			dx := m.view.Config().ColumnWidth()
			if key == "left" || key == "h" {
				dx = -dx
			}
			if m.view.Press(n.Root()) {
				m.view.Drag(dx, 0)
				m.view.Release()
			}
		}
	}

	m.refresh(n)
	return m, nil
}

// rescan reloads the scene file and reapplies the current view state.
func (m *browseModel) rescan() {
	state := view.Capture(m.view)
	opts := m.opts
	opts.State = &state
	opts.Focus, opts.Pin, opts.Expand, opts.Dig, opts.All = "", nil, nil, 0, false
	src, v, missing, err := openView(m.ctx, m.runner, opts)
	if err != nil {
		m.status = "rescan failed: " + err.Error()
		return
	}
	m.src, m.view = src, v
	m.status = fmt.Sprintf("rescanned %d nodes", v.Forest().Len())
	if missing > 0 {
		m.status += fmt.Sprintf(", dropped %d stale handles", missing)
	}
}

// writeSVG renders the current view next to the scene file.
func (m *browseModel) writeSVG() {
	opts := m.opts
	opts.Formats = []string{graph.FormatSVG}
	artifacts, err := m.runner.Render(m.ctx, m.view, m.src, opts)
	if err != nil {
		m.status = "render failed: " + err.Error()
		return
	}
	path := outputPaths("", m.opts.Scene, opts.Formats)[graph.FormatSVG]
	if err := os.WriteFile(path, artifacts[graph.FormatSVG], 0o644); err != nil {
		m.status = "write failed: " + err.Error()
		return
	}
	m.status = "wrote " + path
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render(appName + " · " + m.src.Name))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ move  ⏎ expand  p pin  f focus  d dig  a all  ←/→ move object  1/2/3 toggles  w svg  r rescan  q quit"))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.rows))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(i))
		b.WriteString("\n")
	}

	f := m.view.Frame()
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  %d rendered · %d routes", m.cursor+1, len(m.rows), len(f.Nodes), len(f.Routes))))
	if m.status != "" {
		b.WriteString("\n  ")
		b.WriteString(styleHighlight.Render(m.status))
	}
	return b.String()
}

func (m browseModel) renderRow(i int) string {
	row := m.rows[i]
	n := row.node

	cursor := "  "
	if i == m.cursor {
		cursor = "▸ "
	}

	marker := " "
	switch {
	case n.IsRoot() && n.Visible && row.rendered:
		marker = "●"
	case n.IsRoot() && n.Visible:
		marker = "◌"
	}

	fold := "  "
	if !n.IsLeaf() {
		fold = "▸ "
		if n.Expanded {
			fold = "▾ "
		}
	}

	indent := strings.Repeat("  ", n.Depth())
	line := fmt.Sprintf("%s%s %s%s%s", cursor, marker, indent, fold, n.Title)

	var counts []string
	if out := len(n.CurrentAndChildConnections()); out > 0 {
		counts = append(counts, styleOutgoing.Render(fmt.Sprintf("→%d", out)))
	}
	if in := len(n.IncomingConnectionsRecursive()); in > 0 {
		counts = append(counts, styleIncoming.Render(fmt.Sprintf("←%d", in)))
	}

	style := listNormalStyle
	switch {
	case i == m.cursor:
		style = listSelectedStyle
	case !row.rendered:
		style = listDimStyle
	}
	return style.Render(line) + "  " + strings.Join(counts, " ")
}

func togglesStatus(t view.Toggles) string {
	onOff := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}
	return fmt.Sprintf("roots without connections %s · any without connections %s · sibling connections %s",
		onOff(t.Roots), onOff(t.Any), onOff(t.Siblings))
}
