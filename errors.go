package goSession

import "errors"

var (
	// ErrUnauthorized is returned by Engine.Authenticate for every rejected credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnavailable is returned by CreateToken when no Engine is attached to the context.
	ErrUnavailable = errors.New("auth configuration unavailable")
	// ErrEngineNotReady is returned by methods called on a nil or closed Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrStoreUnavailable is returned by Build when the session store cannot be reached.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrTokenIssue is returned when claims cannot be turned into a token.
	ErrTokenIssue = errors.New("token issuance failed")
)
