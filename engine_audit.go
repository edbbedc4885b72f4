package goSession

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventAuthSuccess = "auth_success"
	auditEventAuthFailure = "auth_failure"
	auditEventTokenIssued = "token_issued"
)

// Reasons recorded in auth_failure metadata. Callers of the gate only ever see 401.
const (
	reasonTokenMissing = "token_missing"
	reasonTokenInvalid = "token_invalid"
)

// AuditErrorCode is the stable string written to AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrUnauthorized AuditErrorCode = "unauthorized"
	auditErrUnavailable  AuditErrorCode = "backend_unavailable"
	auditErrTokenIssue   AuditErrorCode = "token_issue_failed"
	auditErrInternal     AuditErrorCode = "internal_error"
)

type clientIPContextKey struct{}

// WithClientIP attaches the caller's address to ctx so audit events can carry it.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	requestID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		RequestID: requestID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrUnavailable),
		errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ErrEngineNotReady):
		return auditErrUnavailable
	case errors.Is(err, ErrTokenIssue):
		return auditErrTokenIssue
	default:
		return auditErrInternal
	}
}
