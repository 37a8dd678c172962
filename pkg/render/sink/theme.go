package sink

import "github.com/matzehuels/scenemap/pkg/graph"

// Theme holds the colours of an SVG rendering.
type Theme struct {
	Background  string
	Grid        string
	GridStep    float64  // Zero disables the grid
	Boxes       []string // Fill per depth; the last entry is reused deeper
	Border      string
	FocusBorder string
	Text        string
	Shadow      string // Drawn under every connection

	Neutral   string
	Outgoing  string
	Incoming  string
	Collapsed string
}

// DarkTheme mirrors an editor window: dark grid, grey boxes, white lines.
var DarkTheme = Theme{
	Background:  "#383838",
	Grid:        "#303030",
	GridStep:    20,
	Boxes:       []string{"#5a5a5a", "#4c4c4c", "#424242"},
	Border:      "#202020",
	FocusBorder: "#3d8fd6",
	Text:        "#e6e6e6",
	Shadow:      "#000000",
	Neutral:     "#ffffff",
	Outgoing:    "#4caf50",
	Incoming:    "#f0a030",
	Collapsed:   "#9e9e9e",
}

// LightTheme is suited for printing.
var LightTheme = Theme{
	Background:  "#ffffff",
	Grid:        "#f0f0f0",
	GridStep:    20,
	Boxes:       []string{"#e3e8ef", "#f1f4f8", "#fafbfc"},
	Border:      "#8a94a3",
	FocusBorder: "#1f6feb",
	Text:        "#1b1f24",
	Shadow:      "#c8ccd2",
	Neutral:     "#333333",
	Outgoing:    "#2e8b3e",
	Incoming:    "#c77700",
	Collapsed:   "#8c8c8c",
}

// Themes maps theme names to themes.
var Themes = map[string]Theme{
	"dark":  DarkTheme,
	"light": LightTheme,
}

func (t Theme) boxFill(depth int) string {
	if len(t.Boxes) == 0 {
		return t.Background
	}
	return t.Boxes[min(depth, len(t.Boxes)-1)]
}

// routeColor picks the direction colour when a focus is set, otherwise grey
// for connections routed through a collapsed ancestor.
func (t Theme) routeColor(r graph.Route) string {
	switch r.Direction {
	case graph.DirectionOutgoing:
		return t.Outgoing
	case graph.DirectionIncoming:
		return t.Incoming
	}
	if r.Collapsed {
		return t.Collapsed
	}
	return t.Neutral
}
