// Package middleware is the net/http auth gate in front of session-aware handlers.
//
// # Handlers
//
//   - [Attach] places the shared goSession.Engine into every request context.
//   - [Require] rejects requests without a valid bearer token and hands the
//     wrapped handler a context carrying both the Session and the Engine.
//   - [Guard] is Attach followed by Require.
//
// Every rejection is a bare 401 with an empty body; the wrapped handler is not
// invoked. Which check failed is visible only through Engine metrics and audit events.
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to Engine.Authenticate).
//   - Access the session store (Session handles I/O inside the handler).
//   - Inspect or rewrite the wrapped handler's response.
package middleware
