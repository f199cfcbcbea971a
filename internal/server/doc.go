// Package server provides HTTP routing, middleware and the game endpoints.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally. The method filter sits inside the middleware
// stack, so a 405 is still logged and CORS preflights never reach it.
//
// # Endpoints
//
//	GET /playlist?playlistId=<id>            → playlist metadata
//	GET /track?playlistId=<id>&clientId=<id> → one playable round
//	GET /health                              → {"status":"ok"}
//	GET /metrics                             → Prometheus exposition
//
// Errors are written as {"error": "..."} with a generic message. The status comes from [shared.IsNotFound]: 404 for
// a missing playlist, 500 for anything else, and 400 when /playlist is called without an id.
//
// # Middleware
//
//   - [RequestID] : propagates or assigns X-Request-ID
//   - [Logging] : one structured log line per request, plus request metrics
//   - [CORS] : Access-Control-Allow-Origin from the server config
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
