package build_test

import (
	"fmt"

	"github.com/matzehuels/scenemap/pkg/scene/build"
)

func ExampleBuild() {
	// A camera follows the player; the light references nothing.
	insp := new(build.StaticInspector).
		AddRoot("light", "Light (Object)").
		AddRoot("player", "Player (Object)").
		AddRoot("camera", "Camera (Object)").
		AddChild("camera", "camera/Follow", "Follow (Component)").
		AddReference("camera/Follow", "camera/Follow.target", "target (Transform)", "player")

	forest, stats := build.Build(insp, build.Options{})

	for _, r := range forest.Roots() {
		fmt.Println(r.Title)
	}
	fmt.Println("Edges:", stats.Edges)
	// Output:
	// Camera (Object)
	// Light (Object)
	// Player (Object)
	// Edges: 1
}
