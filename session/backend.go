package session

import "context"

// Backend is the storage capability a Session needs: read and write one field of the
// hash-structured record at key.
//
// GetField must return ErrNotFound when the field (or the whole record) is absent. Other
// failures must wrap ErrStore or ErrConnection. Implementations are shared across requests
// and must be safe for concurrent use.
type Backend interface {
	GetField(ctx context.Context, key, field string) (string, error)
	SetField(ctx context.Context, key, field, value string) error
}

// Pinger is implemented by backends that can check reachability at startup.
type Pinger interface {
	Ping(ctx context.Context) error
}
