package session

import "errors"

var (
	// ErrNotFound is returned when the requested field does not exist in the record.
	ErrNotFound = errors.New("session field not found")
	// ErrType is returned when a stored value cannot be converted to the requested type.
	ErrType = errors.New("session field type mismatch")
	// ErrStore is returned when the backend rejects an operation.
	ErrStore = errors.New("session store rejected operation")
	// ErrConnection is returned when the backend cannot be reached.
	ErrConnection = errors.New("session store unavailable")
	// ErrMalformedToken is returned by DeriveKey for tokens without three segments.
	ErrMalformedToken = errors.New("malformed token")
)
