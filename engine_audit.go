package payguard

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/payguard/permission"
	"github.com/MrEthical07/payguard/session"
)

// AuditErrorCode is the stable error label written to [AuditEvent.Error].
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrPersistence        AuditErrorCode = "persistence_failed"
	auditErrInvalidSession     AuditErrorCode = "invalid_session"
	auditErrUnauthorized       AuditErrorCode = "unauthorized"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	kind AuditKind,
	success bool,
	sess session.Session,
	path string,
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
		Timestamp:   e.now().UTC(),
		Kind:        kind,
		UserID:      sess.User.ID,
		TenantScope: sess.TenantScope,
		IP:          clientIPFromContext(ctx),
		Path:        path,
		Success:     success,
		Metadata:    metadata,
	}
	if sess.User.Role != permission.RoleNone {
		event.Role = sess.User.Role.String()
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
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrSessionPersistence), errors.Is(err, session.ErrPersistence):
		return auditErrPersistence
	case errors.Is(err, session.ErrInvalidSession):
		return auditErrInvalidSession
	case errors.Is(err, errUnauthorizedResponse):
		return auditErrUnauthorized
	case errors.Is(err, ErrAuthUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}

func (e *Engine) now() time.Time {
	if e != nil && e.clock != nil {
		return e.clock()
	}
	return time.Now()
}
