package sink_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/scenemap/pkg/graph"
	"github.com/matzehuels/scenemap/pkg/render/sink"
	"github.com/matzehuels/scenemap/pkg/scene/build"
	"github.com/matzehuels/scenemap/pkg/view"
)

func ExampleRenderSVG() {
	insp := new(build.StaticInspector).
		AddRoot("camera", "Camera").
		AddRoot("player", "Player").
		AddReference("camera", "camera/Follow", "Follow", "player")
	forest, _ := build.Build(insp, build.Options{})

	v := view.New(forest, view.Options{})
	v.ShowAll()
	svg := string(sink.RenderSVG(graph.FromFrame(v.Frame(), 16)))

	fmt.Println("SVG starts with:", svg[:4])
	fmt.Println("Boxes:", strings.Count(svg, `class="node `))
	fmt.Println("Routes:", strings.Count(svg, `class="route `))
	// Output:
	// SVG starts with: <svg
	// Boxes: 2
	// Routes: 1
}
