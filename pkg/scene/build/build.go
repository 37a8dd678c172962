package build

import (
	"cmp"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scenemap/pkg/scene"
)

// DefaultLevels is the number of forest levels discovered: root, component, field.
const DefaultLevels = 3

// Options configures a build pass.
type Options struct {
	// Levels is the number of tree levels to discover. Zero means DefaultLevels.
	Levels int
	// Logger receives debug output. Nil disables logging.
	Logger *log.Logger
}

// Stats summarizes a build pass.
type Stats struct {
	Roots   int // Root objects discovered
	Nodes   int // Total nodes in the forest
	Leaves  int // Nodes without children
	Edges   int // Connections created
	Dropped int // Non-null references with no matching node
	Skipped int // Entries ignored because their handle was empty
}

// Build runs the inspector and returns the resulting forest.
func Build(insp Inspector, opts Options) (*scene.Forest, Stats) {
	levels := opts.Levels
	if levels <= 0 {
		levels = DefaultLevels
	}

	var stats Stats
	roots := discover(insp, levels, &stats)

	// Index before sorting so that duplicate handles resolve to the first node
	// in discovery pre-order.
	index := make(map[scene.Handle]*scene.Node)
	var leaves []*scene.Node
	for _, r := range roots {
		r.Walk(func(n *scene.Node) bool {
			if _, dup := index[n.Context]; !dup {
				index[n.Context] = n
			}
			if n.IsLeaf() {
				leaves = append(leaves, n)
			}
			stats.Nodes++
			return true
		})
	}
	stats.Roots = len(roots)
	stats.Leaves = len(leaves)

	for _, leaf := range leaves {
		if !leaf.Reference || leaf.Parent == nil {
			continue
		}
		value, ok := insp.ResolveFieldValue(leaf.Parent.Context, leaf.Context)
		if !ok || value == "" {
			continue
		}
		target, found := index[value]
		if !found {
			stats.Dropped++
			if opts.Logger != nil {
				opts.Logger.Debug("dropped reference", "field", leaf.Title, "value", value)
			}
			continue
		}
		leaf.Connect(target)
		stats.Edges++
	}

	SortRoots(roots)

	if opts.Logger != nil {
		opts.Logger.Debug("built scene forest",
			"roots", stats.Roots, "nodes", stats.Nodes, "edges", stats.Edges, "dropped", stats.Dropped)
	}
	return scene.NewForest(roots), stats
}

// discover builds the tree levels breadth-first. Parent links are set as soon
// as the owning node exists.
func discover(insp Inspector, levels int, stats *Stats) []*scene.Node {
	var roots []*scene.Node
	for _, e := range insp.ListRoots() {
		if e.Handle == "" {
			stats.Skipped++
			continue
		}
		roots = append(roots, newNode(e, scene.KindRoot))
	}

	frontier := roots
	for level := 1; level < levels; level++ {
		var next []*scene.Node
		for _, owner := range frontier {
			for _, e := range insp.ListChildren(owner.Context) {
				if e.Handle == "" {
					stats.Skipped++
					continue
				}
				child := newNode(e, kindAt(level))
				owner.AddChild(child)
				next = append(next, child)
			}
		}
		frontier = next
	}
	return roots
}

func newNode(e Entry, kind scene.Kind) *scene.Node {
	return &scene.Node{
		Title:     e.Title,
		Context:   e.Handle,
		Kind:      kind,
		Reference: e.Reference,
	}
}

func kindAt(level int) scene.Kind {
	if level == 1 {
		return scene.KindComponent
	}
	return scene.KindField
}

// SortRoots stable-sorts roots descending by the number of outgoing edges
// owned by their subtree. Roots without outgoing edges keep their relative
// order at the end.
func SortRoots(roots []*scene.Node) {
	slices.SortStableFunc(roots, func(a, b *scene.Node) int {
		return cmp.Compare(outgoingScore(b), outgoingScore(a))
	})
}

func outgoingScore(n *scene.Node) int {
	if !n.HasOutputsRecursive() {
		return 0
	}
	return len(n.CurrentAndChildConnections())
}
