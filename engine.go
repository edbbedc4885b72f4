package goSession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
)

// Engine is the materialized, immutable auth configuration: token codec, key prefix and
// the shared store connection pool. One Engine is built at startup and shared by pointer
// across all requests.
type Engine struct {
	config  Config
	codec   *jwt.Codec
	backend session.Backend
	owned   io.Closer
	audit   *auditDispatcher
	metrics *Metrics
	closed  atomic.Bool
}

// Close flushes pending audit events and releases the store pool when Build opened it.
// A client or backend passed to the Builder is left for the caller to close.
//
// After Close, Authenticate, IssueToken and IssueFor return ErrEngineNotReady. Close is
// idempotent.
func (e *Engine) Close() error {
	if e == nil || !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	if e.audit != nil {
		e.audit.Close()
	}
	if e.owned != nil {
		return e.owned.Close()
	}
	return nil
}

// AuditDropped reports how many audit events were discarded because the queue was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return emptySnapshot()
	}
	return e.metrics.Snapshot()
}

func (e *Engine) ready() bool {
	return e != nil && e.codec != nil && !e.closed.Load()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Authenticate verifies a bearer token and returns the Session it addresses.
//
// Every rejected token returns ErrUnauthorized, whether it is empty, forged, expired or
// carries malformed claims. The reason is recorded in metrics and the audit stream only.
// A nil or closed Engine returns ErrEngineNotReady.
// Authenticate performs no store I/O.
func (e *Engine) Authenticate(ctx context.Context, token string) (*session.Session, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
		}()
	}

	if token == "" {
		e.rejectAuth(ctx, "", reasonTokenMissing)
		return nil, ErrUnauthorized
	}

	claims, err := e.codec.Verify(token)
	if err != nil {
		e.rejectAuth(ctx, "", reasonTokenInvalid)
		return nil, ErrUnauthorized
	}

	key, err := session.DeriveKey(claims.UID, token)
	if err != nil {
		e.rejectAuth(ctx, claims.UID, reasonTokenInvalid)
		return nil, ErrUnauthorized
	}

	sess := session.New(e.backend, e.config.Store.KeyPrefix+key, *claims)
	e.metricInc(MetricAuthSuccess)
	e.emitAudit(ctx, auditEventAuthSuccess, true, claims.UID, sess.RequestID(), nil, nil)
	return sess, nil
}

func (e *Engine) rejectAuth(ctx context.Context, uid, reason string) {
	switch reason {
	case reasonTokenMissing:
		e.metricInc(MetricAuthTokenMissing)
	default:
		e.metricInc(MetricAuthTokenInvalid)
	}
	e.emitAudit(ctx, auditEventAuthFailure, false, uid, "", ErrUnauthorized, func() map[string]string {
		return map[string]string{"reason": reason}
	})
}

// IssueToken signs claims with the engine's codec. It is the only way tokens the
// gate accepts are produced.
func (e *Engine) IssueToken(ctx context.Context, claims jwt.Claims) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}

	token, err := e.codec.Issue(claims)
	if err != nil {
		e.metricInc(MetricTokenIssueFailure)
		e.emitAudit(ctx, auditEventTokenIssued, false, claims.UID, "", ErrTokenIssue, nil)
		return "", fmt.Errorf("%w: %w", ErrTokenIssue, err)
	}

	e.metricInc(MetricTokenIssued)
	e.emitAudit(ctx, auditEventTokenIssued, true, claims.UID, "", nil, func() map[string]string {
		return map[string]string{"exp": claims.Expiry().UTC().Format(time.RFC3339)}
	})
	return token, nil
}

// IssueFor issues a token for uid that expires JWT.DefaultTTL from now. data, when
// non-nil, is JSON-encoded into the data claim.
func (e *Engine) IssueFor(ctx context.Context, uid string, data any) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}

	claims := jwt.Claims{
		UID:       uid,
		ExpiresAt: time.Now().Add(e.config.JWT.DefaultTTL).Unix(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			e.metricInc(MetricTokenIssueFailure)
			return "", fmt.Errorf("%w: %w", ErrTokenIssue, errors.Join(jwt.ErrInvalidClaims, err))
		}
		claims.Data = raw
	}
	return e.IssueToken(ctx, claims)
}
