// Package throttle limits failed login attempts with Redis fixed-window counters.
//
// # Window semantics
//
// INCR + EXPIRE on the first hit of a window. Key prefixes (after the configured prefix):
//   - lu: per username
//   - li: per client IP
//
// # What this package must NOT do
//
//   - Decide whether credentials are valid (callers report failures).
//   - Be imported outside the goSession module.
package throttle
