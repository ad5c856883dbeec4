package goEstate

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goEstate/contract"
	"github.com/ethereum/go-ethereum/common"
)

const (
	auditEventLoginSuccess           = "login_success"
	auditEventLoginFailure           = "login_failure"
	auditEventLoginRateLimited       = "login_rate_limited"
	auditEventRegisterSuccess        = "register_success"
	auditEventRegisterFailure        = "register_failure"
	auditEventRegisterRateLimited    = "register_rate_limited"
	auditEventLogoutSession          = "logout_session"
	auditEventLogoutAll              = "logout_all"
	auditEventSessionSuperseded      = "session_superseded"
	auditEventAccountLocked          = "account_locked"
	auditEventSessionBindingRejected = "session_binding_rejected"
	auditEventRateLimitTriggered     = "rate_limit_triggered"
	auditEventTransaction            = "contract_transaction"
)

// AuditErrorCode is the stable error label carried in [AuditEvent.Error].
type AuditErrorCode string

const (
	auditErrUnauthorized          AuditErrorCode = "unauthorized"
	auditErrInvalidCredentials    AuditErrorCode = "invalid_credentials"
	auditErrRateLimited           AuditErrorCode = "rate_limited"
	auditErrPasswordPolicy        AuditErrorCode = "password_policy"
	auditErrSessionCreationFailed AuditErrorCode = "session_creation_failed"
	auditErrSessionBinding        AuditErrorCode = "session_binding_rejected"
	auditErrLockFailed            AuditErrorCode = "lock_failed"
	auditErrContractRejected      AuditErrorCode = "contract_rejected"
	auditErrArgumentInvalid       AuditErrorCode = "argument_invalid"
	auditErrUnavailable           AuditErrorCode = "backend_unavailable"
	auditErrInternal              AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	addr common.Address,
	sessionID string,
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
		SessionID: sessionID,
		RequestID: RequestIDFromContext(ctx),
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if addr != (common.Address{}) {
		event.Address = addr.Hex()
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.emit(ctx, event)
}

func (e *Engine) emitRateLimit(ctx context.Context, scope string, metadataBuilder func() map[string]string) {
	e.metricInc(MetricRateLimitHit)
	e.emitAudit(ctx, auditEventRateLimitTriggered, false, common.Address{}, "", nil, func() map[string]string {
		base := map[string]string{
			"scope": scope,
		}
		if metadataBuilder == nil {
			return base
		}
		for k, v := range metadataBuilder() {
			base[k] = v
		}
		return base
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	var authErr *AuthError
	var policyErr *ValidationError
	var rejected *contract.ContractRejectedError
	var argErr *contract.ArgumentInvalidError

	switch {
	case errors.As(err, &authErr):
		return auditErrInvalidCredentials
	case errors.As(err, &policyErr):
		return auditErrPasswordPolicy
	case errors.As(err, &rejected):
		return auditErrContractRejected
	case errors.As(err, &argErr):
		return auditErrArgumentInvalid
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrLoginRateLimited),
		errors.Is(err, ErrRegisterRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrSessionCreationFailed):
		return auditErrSessionCreationFailed
	case errors.Is(err, ErrSessionBindingRejected):
		return auditErrSessionBinding
	case errors.Is(err, ErrLockFailed):
		return auditErrLockFailed
	case errors.Is(err, ErrNodeUnavailable),
		errors.Is(err, ErrRedisUnavailable),
		errors.Is(err, contract.ErrNodeFailure):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
