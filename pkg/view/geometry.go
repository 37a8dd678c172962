package view

import "math"

// Point is a 2D coordinate. Y grows downward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Min returns the top-left corner.
func (r Rect) Min() Point { return Point{r.X, r.Y} }

// Max returns the bottom-right corner.
func (r Rect) Max() Point { return Point{r.X + r.W, r.Y + r.H} }

// Center returns the midpoint.
func (r Rect) Center() Point { return Point{r.X + r.W/2, r.Y + r.H/2} }

// Offset returns r translated by p.
func (r Rect) Offset(p Point) Rect {
	r.X += p.X
	r.Y += p.Y
	return r
}

// Contains reports whether p lies inside r. The right and bottom edges are
// exclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Union returns the smallest rectangle containing both r and o. A zero r is
// treated as empty.
func (r Rect) Union(o Rect) Rect {
	if r == (Rect{}) {
		return o
	}
	minX, minY := math.Min(r.X, o.X), math.Min(r.Y, o.Y)
	maxX, maxY := math.Max(r.X+r.W, o.X+o.W), math.Max(r.Y+r.H, o.Y+o.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Bezier is a cubic curve between two node rectangles, plus the two short
// strokes that form the arrowhead at End.
type Bezier struct {
	Start Point    `json:"start"`
	C1    Point    `json:"c1"`
	C2    Point    `json:"c2"`
	End   Point    `json:"end"`
	Arrow [2]Point `json:"arrow"` // Stroke ends; both strokes start at End
}

const (
	arrowLength = 5
	arrowSpread = 3
)

// Curve computes the connection geometry from one rectangle to another.
//
// The curve leaves from the side of from that faces to and enters to on the
// facing side. When the rectangles are within sameLine of each other
// horizontally, it enters to on the same side it left from so the line loops
// around instead of crossing the boxes. Control points make the curve
// approach both ends horizontally.
func Curve(from, to Rect, sameLine float64) Bezier {
	dx := to.X - from.X
	side := 1.0
	if dx < 0 {
		side = -1
	}

	fc, tc := from.Center(), to.Center()
	start := Point{fc.X + from.W/2*side, fc.Y}
	end := Point{tc.X - to.W/2*side, tc.Y}
	if math.Abs(dx) < sameLine {
		end.X = tc.X + to.W/2*side
	}

	return Bezier{
		Start: start,
		C1:    Point{end.X, start.Y},
		C2:    Point{start.X, end.Y},
		End:   end,
		Arrow: [2]Point{
			{end.X - arrowLength*side, end.Y - arrowSpread},
			{end.X - arrowLength*side, end.Y + arrowSpread},
		},
	}
}
