package view

import "github.com/charmbracelet/log"

// Default layout values.
const (
	DefaultColumns           = 4
	DefaultNodeWidth         = 200.0
	DefaultColumnGap         = 20.0
	DefaultTopMargin         = 30.0
	DefaultGutter            = 20.0
	DefaultSameLineThreshold = 40.0
	DefaultDragThreshold     = 1.0
)

// DefaultLevelHeights are the header heights for depth 0, 1, 2 and beyond.
var DefaultLevelHeights = []float64{24, 20, 20, 20, 20}

// Config holds the layout constants. Zero fields take their defaults.
type Config struct {
	Columns           int       // Number of root columns
	NodeWidth         float64   // Width of every node
	ColumnGap         float64   // Horizontal space between columns
	TopMargin         float64   // Space above the first root of every column
	Gutter            float64   // Vertical space between roots in a column
	LevelHeights      []float64 // Header height per depth; last entry reused deeper
	SameLineThreshold float64   // Horizontal distance below which curves loop
	DragThreshold     float64   // Cumulative pointer travel above which a press is a drag
}

// DefaultConfig returns the standard layout constants.
func DefaultConfig() Config {
	return Config{
		Columns:           DefaultColumns,
		NodeWidth:         DefaultNodeWidth,
		ColumnGap:         DefaultColumnGap,
		TopMargin:         DefaultTopMargin,
		Gutter:            DefaultGutter,
		LevelHeights:      append([]float64(nil), DefaultLevelHeights...),
		SameLineThreshold: DefaultSameLineThreshold,
		DragThreshold:     DefaultDragThreshold,
	}
}

// withDefaults replaces every zero or negative field with its value from
// DefaultConfig. Each field is defaulted on its own.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Columns <= 0 {
		c.Columns = d.Columns
	}
	if c.NodeWidth <= 0 {
		c.NodeWidth = d.NodeWidth
	}
	if c.ColumnGap <= 0 {
		c.ColumnGap = d.ColumnGap
	}
	if c.TopMargin <= 0 {
		c.TopMargin = d.TopMargin
	}
	if c.Gutter <= 0 {
		c.Gutter = d.Gutter
	}
	if len(c.LevelHeights) == 0 {
		c.LevelHeights = d.LevelHeights
	}
	if c.SameLineThreshold <= 0 {
		c.SameLineThreshold = d.SameLineThreshold
	}
	if c.DragThreshold <= 0 {
		c.DragThreshold = d.DragThreshold
	}
	return c
}

// HeightAt returns the header height for a depth, clamped to the deepest
// configured level.
func (c Config) HeightAt(depth int) float64 {
	if depth >= len(c.LevelHeights) {
		depth = len(c.LevelHeights) - 1
	}
	if depth < 0 {
		depth = 0
	}
	return c.LevelHeights[depth]
}

// ColumnWidth returns the horizontal distance between column origins.
func (c Config) ColumnWidth() float64 { return c.NodeWidth + c.ColumnGap }

// Options configures a [View].
type Options struct {
	Layout Config

	// DrawRootsWithoutConnections renders pinned roots whose subtree has no
	// connections at all.
	DrawRootsWithoutConnections bool
	// DrawAnyWithoutConnections renders children of expanded nodes whose
	// subtree has no connections.
	DrawAnyWithoutConnections bool
	// DrawSiblingConnections routes edges between nodes sharing a parent.
	DrawSiblingConnections bool

	// Logger receives debug output for interactive commands. Nil disables it.
	Logger *log.Logger
}

// Toggles reports the three draw toggles.
type Toggles struct {
	Roots    bool `json:"roots_without_connections"`
	Any      bool `json:"any_without_connections"`
	Siblings bool `json:"sibling_connections"`
}

func (o Options) toggles() Toggles {
	return Toggles{
		Roots:    o.DrawRootsWithoutConnections,
		Any:      o.DrawAnyWithoutConnections,
		Siblings: o.DrawSiblingConnections,
	}
}

func (o *Options) setToggles(t Toggles) {
	o.DrawRootsWithoutConnections = t.Roots
	o.DrawAnyWithoutConnections = t.Any
	o.DrawSiblingConnections = t.Siblings
}
