// Package graph provides serialization types for scene forests and frames.
//
// This package defines the canonical wire format for scenemap data, used for
// snapshot files, API responses, caching and session storage.
//
// # Architecture
//
// The package sits at the serialization boundary between the in-memory model
// and external formats:
//
//   - [Scene], [Frame]: Serialization types (this package)
//   - pkg/scene.Forest: Node forest with live pointers
//   - pkg/view.Frame: One repaint of a view, with pointers into the forest
//
// Use [FromForest] and [FromFrame] to convert. Pointers become forest
// indices, so a serialized frame can be drawn without the forest.
//
// # Constants
//
// This package is the single source of truth for output formats and node
// kind names:
//
//	graph.FormatSVG    // "svg"
//	graph.FormatJSON   // "json"
//	graph.KindRoot     // "root"
//
// # Scene Snapshots
//
// Scenes use a node-link JSON format in forest pre-order:
//
//	{
//	  "nodes": [
//	    {"index": 0, "handle": "camera", "title": "Camera", "kind": "root", "parent": -1},
//	    {"index": 1, "handle": "camera/Follow", "title": "Follow", "kind": "component", "parent": 0}
//	  ],
//	  "edges": [{"from": 2, "to": 5}]
//	}
//
// A snapshot can be rebuilt into an equivalent forest through
// [Scene.Inspector]:
//
//	s, _ := graph.ReadSceneFile("scene.snapshot.json")
//	insp, _ := s.Inspector()
//	forest, _ := build.Build(insp, build.Options{})
//
// # Frames
//
// A [Frame] lists the drawn boxes and connection curves of one repaint,
// translated so the drawing starts at the origin plus a margin:
//
//	f := graph.FromFrame(v.Frame(), 16)
//	data, _ := graph.MarshalFrame(f)
package graph
