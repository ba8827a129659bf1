// Package server provides the optional loopback status endpoint of the playback service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [Logging] records every request in the request metrics; [Recover] turns panics into 500 responses.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Routes
//
//   - GET /health: liveness, version and uptime
//   - GET /status: the engine's [playback.Snapshot] as JSON
//   - GET /metrics: Prometheus metrics
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
