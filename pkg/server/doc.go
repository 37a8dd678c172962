// Package server hosts an interactive scene map over HTTP.
//
// A [Server] owns one scene file, its built forest and a single view. Clients
// send the same events an editor window would (focus, toggle, pin, dig and
// pointer gestures) and receive the resulting frame as JSON:
//
//	GET  /health
//	GET  /api/v1/frame?format=svg|json|dot|png|pdf
//	GET  /api/v1/nodes                 scene snapshot
//	GET  /api/v1/state                 captured view state
//	POST /api/v1/focus/{handle}
//	POST /api/v1/toggle/{handle}
//	POST /api/v1/pin/{handle}
//	POST /api/v1/unpin/{handle}
//	POST /api/v1/dig
//	POST /api/v1/pointer               {"event": "down", "x": 120, "y": 32}
//	POST /api/v1/rescan
//	GET  /metrics                      when Config.Metrics is set
//
// Handles may contain slashes and are taken from the rest of the path.
//
// With a session store configured, view states can be saved and restored:
//
//	GET    /api/v1/sessions
//	POST   /api/v1/sessions
//	POST   /api/v1/sessions/{id}
//	DELETE /api/v1/sessions/{id}
//
// Requests are served concurrently but every view access holds one lock, so
// events are applied strictly one after another.
package server
