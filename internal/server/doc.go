// Package server provides HTTP routing, middleware and the JSON API of the practice log.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] with "METHOD /path" patterns.
//
// # Middleware
//
//   - [RequestLogger] : one structured log line per request
//   - [Recoverer] : panics become backend error responses
//   - [CORS] : credentialed access for the configured frontend, preflight answers
//   - [CSRF] : Origin/Referer check on state-changing methods
//   - [Session] : resolves the session cookie or bearer token into a user id on every request
//   - [RateLimit] : per-IP token bucket on registration and login
//
// # Responses
//
// Successful responses are JSON objects with "success": true next to the payload. Failures carry
// "success": false, the error kind and a message safe to show to users. Status codes follow the kind.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
// [HealthHandler] is registered this way.
package server
