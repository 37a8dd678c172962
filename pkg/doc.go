// Package pkg provides the core libraries for Scenemap scene reference maps.
//
// # Overview
//
// Scenemap inspects a scene (objects, the components attached to them and
// the fields of those components) and draws the references between them as
// a column map. Every object is a root in a forest of nodes; references are
// connections between nodes of different roots. The pkg directory is
// organized into four main areas:
//
//  1. Domain logic: [scene], [scene/build], [view]
//  2. Inputs and outputs: [inspect/document], [inspect/reflectinspect],
//     [graph], [render]
//  3. Orchestration: [pipeline], [server], [watch]
//  4. Infrastructure: [cache], [session], [config], [errors], [observability]
//
// # Architecture
//
// The typical data flow through Scenemap:
//
//	Scene document (YAML, JSON, TOML) or Go values
//	         ↓
//	    [inspect] packages (expose roots, children, references)
//	         ↓
//	    [scene/build] (forest of nodes + connections)
//	         ↓
//	    [view] (pins, expansion, layout, routing)
//	         ↓
//	    [graph] frame → [render] SVG/PDF/PNG, JSON, DOT
//
// # Quick Start
//
// Load a scene, pin an object and render the view:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	defer runner.Close()
//
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Scene:   "level.yaml",
//	    Focus:   "camera",
//	    Dig:     1,
//	    Formats: []string{graph.FormatSVG},
//	})
//	svg := result.Artifacts[graph.FormatSVG]
//
// The result keeps the opened [view.View], so the caller can apply further
// events (toggle, pin, drag) and ask for a new frame.
//
// # Main Packages
//
// ## Domain Logic
//
// [scene] - The node forest: roots own their children exclusively, and
// connections point from a reference field to the node it references.
// Incoming connections are kept as the exact inverse.
//
// [scene/build] - Builds a forest from any [build.Inspector] in two phases:
// create every node, then resolve references through a handle map.
//
// [view] - The interactive view over a forest. Pinning, expansion and the
// draw toggles decide what is rendered; the layout places rendered roots in
// columns by distance from the focused root, and the router draws one route
// per visible connection.
//
// ## Inputs and Outputs
//
// [inspect/document] - Scene documents with objects, components and fields.
//
// [inspect/reflectinspect] - Inspects Go values: struct fields, slices and
// pointers become nodes, pointers to other roots become references.
//
// [graph] - Serialization types: scene snapshots and view frames.
//
// [render] - SVG drawing ([render/sink]), Graphviz diagrams
// ([render/nodelink]) and format conversion.
//
// ## Orchestration
//
// [pipeline] - Load → build → open → render, with caching, used by the CLI
// and the server. Ensures consistent behavior across entry points.
//
// [server] - HTTP API over one live view plus stored sessions.
//
// [watch] - Rescans the scene when its file changes.
//
// ## Infrastructure
//
// [cache] - Snapshot and artifact caching with file, Redis and null
// backends.
//
// [session] - Stored view states with memory, file, Redis and MongoDB
// backends.
//
// [config] - The config.toml schema and its defaults.
//
// [errors] - Coded errors shared by the CLI and the server.
//
// [observability] - Hook interfaces for pipeline, cache and server events,
// with a Prometheus implementation.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                 # All tests
//	go test ./pkg/view/...            # Specific package
//	go test -run Example ./pkg/...    # Examples only
//
// Redis and MongoDB backends are tested when SCENEMAP_TEST_REDIS or
// SCENEMAP_TEST_MONGO point to a running server.
//
// [scene]: https://pkg.go.dev/github.com/matzehuels/scenemap/pkg/scene
// [scene/build]: https://pkg.go.dev/github.com/matzehuels/scenemap/pkg/scene/build
// [build.Inspector]: https://pkg.go.dev/github.com/matzehuels/scenemap/pkg/scene/build#Inspector
// [view]: https://pkg.go.dev/github.com/matzehuels/scenemap/pkg/view
// [view.View]: https://pkg.go.dev/github.com/matzehuels/scenemap/pkg/view#View
// [inspect]: https://pkg.go.dev/github.com/matzehuels/scenemap/pkg/inspect
// [inspect/document]: https://pkg.go.dev/github.com/matzehuels/scenemap/pkg/inspect/document
// [inspect/reflectinspect]: https://pkg.go.dev/github.com/matzehuels/scenemap/pkg/inspect/reflectinspect
// [graph]: https://pkg.go.dev/github.com/matzehuels/scenemap/pkg/graph
// [render]: https://pkg.go.dev/github.com/matzehuels/scenemap/pkg/render
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/scenemap/pkg/render/sink
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/scenemap/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/scenemap/pkg/pipeline
// [server]: https://pkg.go.dev/github.com/matzehuels/scenemap/pkg/server
// [watch]: https://pkg.go.dev/github.com/matzehuels/scenemap/pkg/watch
// [cache]: https://pkg.go.dev/github.com/matzehuels/scenemap/pkg/cache
// [session]: https://pkg.go.dev/github.com/matzehuels/scenemap/pkg/session
// [config]: https://pkg.go.dev/github.com/matzehuels/scenemap/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/scenemap/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/scenemap/pkg/observability
package pkg
