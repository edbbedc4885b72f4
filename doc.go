// Package goSession provides a token-authenticated session layer: it verifies a bearer
// token on each request, derives a session key from it, and gives the protected handler
// typed read/write access to session fields kept in a shared store (Redis by default).
//
// An [Engine] is built once at startup through [Builder.Build]. It is the immutable,
// process-wide auth configuration: signing secret, token codec and the store connection
// pool. Engine methods are safe to call from multiple goroutines.
//
// # Architecture boundaries
//
// goSession is the public surface: [Engine], [Builder], [Config], the context helpers and
// [CreateToken]. Token encoding lives in jwt, per-request field access in session, and the
// HTTP gate in middleware.
//
// # What this package must NOT do
//
//   - Manage session expiry or eviction (TTL is configured on the store).
//   - Tell callers why authentication failed. Every failure is [ErrUnauthorized].
//   - Build store connections per request. The pool is created once in Build.
package goSession
