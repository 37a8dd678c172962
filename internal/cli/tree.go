package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/scenemap/pkg/scene"
)

// treeCommand prints the forest of a scene as a table.
func (c *CLI) treeCommand() *cobra.Command {
	var (
		levels   int
		scalars  bool
		children bool
	)

	cmd := &cobra.Command{
		Use:   "tree [scene]",
		Short: "List the objects of a scene with their reference counts",
		Long: `Tree builds the scene's forest and prints one row per object with the
number of references leaving (out) and entering (in) its subtree. With
--children, the components and fields below each object are listed too.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeScenes,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			popts := c.baseOptions(args[0])
			popts.Levels = levels
			popts.IncludeScalars = scalars

			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			src, err := runner.Load(ctx, popts)
			if err != nil {
				return err
			}
			forest, stats, err := runner.Build(ctx, src, popts)
			if err != nil {
				return err
			}

			out := newPrinter(cmd.OutOrStdout())
			out.line(styleTitle.Render(src.Name))
			out.line(renderTree(forest, children))
			out.detail("%d objects · %d nodes · %d references", stats.Roots, stats.Nodes, stats.Edges)
			if stats.Dropped > 0 {
				out.warning("%d references point outside the scene", stats.Dropped)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&levels, "levels", 0, "maximum child depth below each object (default 3)")
	cmd.Flags().BoolVar(&scalars, "scalars", false, "include fields that hold no reference")
	cmd.Flags().BoolVarP(&children, "children", "c", false, "list components and fields")
	return cmd
}

// treeRow is one table row with the reference counts of a node's subtree.
type treeRow struct {
	root    int // position of the node's root in the forest
	node    *scene.Node
	out, in int
}

// treeRows flattens f into rows, roots in forest order followed by their
// descendants when children is set.
func treeRows(f *scene.Forest, children bool) []treeRow {
	var rows []treeRow
	for i, r := range f.Roots() {
		r.Walk(func(n *scene.Node) bool {
			if n != r && !children {
				return false
			}
			rows = append(rows, treeRow{
				root: i,
				node: n,
				out:  len(n.CurrentAndChildConnections()),
				in:   len(n.IncomingConnectionsRecursive()),
			})
			return true
		})
	}
	return rows
}

// renderTree draws the rows of f as a lipgloss table.
func renderTree(f *scene.Forest, children bool) string {
	rows := treeRows(f, children)
	data := make([][]string, len(rows))
	for i, row := range rows {
		n := row.node
		name := n.Title
		if depth := n.Depth(); depth > 0 {
			name = strings.Repeat("  ", depth-1) + "└ " + name
		}
		data[i] = []string{
			strconv.Itoa(row.root + 1),
			name,
			string(n.Context),
			countCell(row.out),
			countCell(row.in),
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Node", "Handle", "Out", "In").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == -1 {
				return styleHeader.Padding(0, 1)
			}
			r := rows[row]
			switch {
			case col == 3 && r.out > 0:
				return base.Foreground(colorGreen)
			case col == 4 && r.in > 0:
				return base.Foreground(colorYellow)
			case col == 0 || col == 2:
				return base.Foreground(colorDim)
			case r.node.IsRoot():
				return base.Foreground(colorWhite).Bold(true)
			}
			return base.Foreground(colorGray)
		})
	return t.Render()
}

func countCell(n int) string {
	if n == 0 {
		return "·"
	}
	return fmt.Sprint(n)
}
