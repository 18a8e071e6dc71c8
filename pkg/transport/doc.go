// Package transport provides the HTTP middleware and response helpers shared
// by the quill HTTP adapter and the MCP endpoint.
//
// # Middleware
//
// Middleware wraps an http.Handler with cross-cutting behavior. Built-in
// middleware provides panic recovery, request ID assignment (X-Request-ID),
// structured request logging via log/slog, and CORS. Chain composes them so
// that the first middleware listed runs outermost.
//
// # Error Responses
//
// Every failed request is answered with the JSON body {"error":true,
// "message":...}. WriteAPIError derives the HTTP status from the
// api.APIError type. A conflict is the one type that is not reported as a
// failure status: duplicate registrations answer 200 with error set.
package transport
