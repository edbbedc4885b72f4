// Package jwt issues and verifies the signed bearer tokens that authenticate session
// requests.
//
// A token is the usual three-segment JWS compact form (header.payload.signature) signed
// with a shared HMAC secret. The payload carries the claims this module cares about:
// uid (subject), exp (epoch seconds) and an optional opaque data value.
//
// # Failure reporting
//
// [Codec.Verify] reports every rejection (malformed structure, wrong signature, wrong
// algorithm, expired, missing uid) as the single sentinel [ErrAuthenticationFailure].
// Callers cannot tell a forged token from an expired one.
package jwt
