package goSession

import (
	"context"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
)

type engineContextKey struct{}
type sessionContextKey struct{}

// WithEngine attaches the shared Engine to ctx. Attaching never fails; a nil Engine
// is stored as absent.
func WithEngine(ctx context.Context, e *Engine) context.Context {
	if e == nil {
		return ctx
	}
	return context.WithValue(ctx, engineContextKey{}, e)
}

// EngineFromContext returns the Engine attached by WithEngine, if any.
func EngineFromContext(ctx context.Context) (*Engine, bool) {
	if ctx == nil {
		return nil, false
	}
	e, ok := ctx.Value(engineContextKey{}).(*Engine)
	return e, ok && e != nil
}

// WithSession attaches an authenticated Session to ctx.
func WithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// SessionFromContext returns the Session placed by the auth gate.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(sessionContextKey{}).(*session.Session)
	return s, ok && s != nil
}

// CreateToken signs claims with the Engine attached to ctx.
//
// It returns ErrUnavailable when no Engine is attached. Token issuance goes through
// the same codec the gate verifies with.
func CreateToken(ctx context.Context, claims jwt.Claims) (string, error) {
	e, ok := EngineFromContext(ctx)
	if !ok {
		return "", ErrUnavailable
	}
	return e.IssueToken(ctx, claims)
}
