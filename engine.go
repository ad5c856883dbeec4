package goEstate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MrEthical07/goEstate/contract"
	"github.com/MrEthical07/goEstate/internal"
	"github.com/MrEthical07/goEstate/internal/rate"
	"github.com/MrEthical07/goEstate/jwt"
	"github.com/MrEthical07/goEstate/node"
	"github.com/MrEthical07/goEstate/password"
	"github.com/MrEthical07/goEstate/session"
	"github.com/ethereum/go-ethereum/common"
)

// Engine is the session and authorization manager. It unlocks node accounts, binds
// them to per-browser sessions and runs contract operations on behalf of a
// [Credential]. Create one with [Builder.Build]; it is safe for concurrent use.
type Engine struct {
	config         Config
	node           Node
	gateway        *contract.Gateway
	sessionStore   *session.Store
	jwtManager     *jwt.Manager
	rateLimiter    *rate.Limiter
	metrics        *Metrics
	audit          *auditDispatcher
	logger         *slog.Logger
	mainAddress    common.Address
	hasMainAddress bool
}

// Close flushes pending audit events. It does not close the node or Redis clients.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.close()
}

// AuditDropped returns the number of audit events lost to backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.droppedCount()
}

// MetricsSnapshot copies the current counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// MainAddress returns the operator account exempt from locking, if configured.
func (e *Engine) MainAddress() (common.Address, bool) {
	if e == nil {
		return common.Address{}, false
	}
	return e.mainAddress, e.hasMainAddress
}

// ContractAddress returns the address of the real-estate contract.
func (e *Engine) ContractAddress() common.Address {
	if e == nil || e.gateway == nil {
		return common.Address{}
	}
	return e.gateway.Address()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.node != nil && e.sessionStore != nil && e.jwtManager != nil && e.gateway != nil
}

// Login unlocks address on the node with password and opens a session for it.
//
// The node is asked exactly once. A rejected password is returned as *AuthError
// carrying the node's message and counts against the login limiter; once the limiter
// is exhausted further attempts fail with ErrLoginRateLimited before reaching the node.
// The account stays unlocked for Session.Lifetime.
func (e *Engine) Login(ctx context.Context, address, pw string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	addr, err := parseAccountAddress(address)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, common.Address{}, "", err, nil)
		return nil, err
	}

	ip := clientIPFromContext(ctx)
	if err := e.rateLimiter.CheckLogin(ctx, addr.Hex(), ip); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			e.loginRateLimited(ctx, addr)
			return nil, ErrLoginRateLimited
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if err := e.node.UnlockAccount(ctx, addr, pw, e.config.Session.Lifetime); err != nil {
		return nil, e.loginRejected(ctx, addr, ip, err)
	}

	result, err := e.establishSession(ctx, addr)
	if err != nil {
		e.releaseAccount(ctx, addr)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, addr, "", err, nil)
		return nil, err
	}

	if err := e.rateLimiter.ResetLogin(ctx, addr.Hex()); err != nil {
		e.logger.WarnContext(ctx, "reset login counter", "address", addr.Hex(), "error", err)
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, addr, result.Credential.SessionID, nil, nil)
	return result, nil
}

func (e *Engine) loginRejected(ctx context.Context, addr common.Address, ip string, err error) error {
	if !node.IsServerError(err) && !errors.Is(err, node.ErrUnlockRejected) {
		e.metricInc(MetricNodeFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, addr, "", ErrNodeUnavailable, nil)
		return fmt.Errorf("%w: %v", ErrNodeUnavailable, err)
	}

	e.metricInc(MetricLoginFailure)
	authErr := &AuthError{Reason: err.Error(), AttemptsLeft: -1}

	if limitErr := e.rateLimiter.IncrementLogin(ctx, addr.Hex(), ip); limitErr != nil && !errors.Is(limitErr, rate.ErrRateLimited) {
		e.logger.WarnContext(ctx, "record failed login", "address", addr.Hex(), "error", limitErr)
	} else {
		authErr.AttemptsLeft = e.loginAttemptsLeft(ctx, addr)
	}

	e.emitAudit(ctx, auditEventLoginFailure, false, addr, "", authErr, nil)
	return authErr
}

// loginAttemptsLeft returns the remaining failed-login budget of addr, or -1.
func (e *Engine) loginAttemptsLeft(ctx context.Context, addr common.Address) int {
	budget := e.config.Security.MaxLoginAttempts
	if budget <= 0 {
		return -1
	}
	used, err := e.rateLimiter.GetLoginAttempts(ctx, addr.Hex())
	if err != nil {
		e.logger.WarnContext(ctx, "read failed login counter", "address", addr.Hex(), "error", err)
		return -1
	}
	return max(budget-used, 0)
}

func (e *Engine) loginRateLimited(ctx context.Context, addr common.Address) {
	e.metricInc(MetricLoginRateLimited)
	e.emitAudit(ctx, auditEventLoginRateLimited, false, addr, "", ErrLoginRateLimited, nil)
	e.emitRateLimit(ctx, "login", func() map[string]string {
		return map[string]string{"address": addr.Hex()}
	})
}

// Register mints a node account protected by pw, unlocks it with the same password
// and opens a session for it. The password policy runs before any node call; a weak
// password yields *ValidationError.
func (e *Engine) Register(ctx context.Context, pw string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	if err := password.Check(pw); err != nil {
		e.metricInc(MetricRegisterPolicyRejected)
		e.emitAudit(ctx, auditEventRegisterFailure, false, common.Address{}, "", err, nil)
		return nil, err
	}

	ip := clientIPFromContext(ctx)
	if err := e.rateLimiter.EnforceRegistration(ctx, ip); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			e.metricInc(MetricRegisterRateLimited)
			e.emitAudit(ctx, auditEventRegisterRateLimited, false, common.Address{}, "", ErrRegisterRateLimited, nil)
			e.emitRateLimit(ctx, "register", nil)
			return nil, ErrRegisterRateLimited
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	addr, err := e.node.NewAccount(ctx, pw)
	if err != nil {
		e.metricInc(MetricNodeFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, common.Address{}, "", ErrNodeUnavailable, nil)
		return nil, fmt.Errorf("%w: create account: %v", ErrNodeUnavailable, err)
	}

	if err := e.node.UnlockAccount(ctx, addr, pw, e.config.Session.Lifetime); err != nil {
		e.metricInc(MetricNodeFailure)
		e.logger.ErrorContext(ctx, "unlock new account", "address", addr.Hex(), "error", err)
		e.emitAudit(ctx, auditEventRegisterFailure, false, addr, "", ErrNodeUnavailable, nil)
		return nil, fmt.Errorf("%w: unlock new account %s: %v", ErrNodeUnavailable, addr.Hex(), err)
	}

	result, err := e.establishSession(ctx, addr)
	if err != nil {
		e.releaseAccount(ctx, addr)
		e.emitAudit(ctx, auditEventRegisterFailure, false, addr, "", err, nil)
		return nil, err
	}
	result.Created = true

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, addr, result.Credential.SessionID, nil, nil)
	return result, nil
}

// establishSession persists a session for addr and signs its token.
func (e *Engine) establishSession(ctx context.Context, addr common.Address) (*LoginResult, error) {
	sid, err := internal.NewSessionID()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCreationFailed, err)
	}

	lifetime := e.config.Session.Lifetime
	now := time.Now()
	expiresAt := time.Unix(now.Add(lifetime).Unix(), 0)

	sess := &session.Session{
		SchemaVersion: session.CurrentSchemaVersion,
		SessionID:     sid.String(),
		Address:       addr,
		IPHash:        internal.HashBindingValue(clientIPFromContext(ctx)),
		UserAgentHash: internal.HashBindingValue(userAgentFromContext(ctx)),
		CreatedAt:     now.Unix(),
		ExpiresAt:     expiresAt.Unix(),
	}
	if err := e.sessionStore.Save(ctx, sess, lifetime); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCreationFailed, err)
	}

	token, err := e.jwtManager.CreateSession(addr.Hex(), sess.SessionID, expiresAt)
	if err != nil {
		if _, delErr := e.sessionStore.Delete(ctx, sess.SessionID, addr); delErr != nil {
			e.logger.WarnContext(ctx, "discard unsigned session", "session_id", sess.SessionID, "error", delErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrSessionCreationFailed, err)
	}

	e.metricInc(MetricSessionCreated)
	return &LoginResult{
		Token: token,
		Credential: Credential{
			SessionID: sess.SessionID,
			Address:   addr,
			ExpiresAt: expiresAt,
		},
	}, nil
}

// releaseAccount locks addr after a failed session setup unless it is the main address
// or another browser still holds a live session for it.
func (e *Engine) releaseAccount(ctx context.Context, addr common.Address) {
	if e.isMainAddress(addr) {
		return
	}
	ctx = context.WithoutCancel(ctx)

	live, err := e.sessionStore.LiveSessionCount(ctx, addr)
	if err == nil && live > 0 {
		return
	}
	if err := e.lockAccount(ctx, addr); err != nil {
		e.logger.ErrorContext(ctx, "release account after failed login", "address", addr.Hex(), "error", err)
	}
}

// Authenticate resolves a session token into the request's [Credential]. A malformed
// or expired token, a missing session or an address mismatch yields ErrUnauthorized.
func (e *Engine) Authenticate(ctx context.Context, token string) (*Credential, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if strings.TrimSpace(token) == "" {
		return nil, ErrUnauthorized
	}

	claims, err := e.jwtManager.ParseSession(token)
	if err != nil {
		return nil, ErrUnauthorized
	}

	sess, err := e.sessionStore.Get(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, session.ErrRedisUnavailable) {
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		e.metricInc(MetricSessionInvalidated)
		return nil, ErrUnauthorized
	}
	if sess.Address != common.HexToAddress(claims.Addr) {
		e.metricInc(MetricSessionInvalidated)
		return nil, ErrUnauthorized
	}

	if err := e.checkBinding(ctx, sess); err != nil {
		return nil, err
	}

	return &Credential{
		SessionID: sess.SessionID,
		Address:   sess.Address,
		ExpiresAt: time.Unix(sess.ExpiresAt, 0),
	}, nil
}

func (e *Engine) checkBinding(ctx context.Context, sess *session.Session) error {
	var zero [32]byte
	rejected := ""

	if e.config.Session.EnforceIPBinding && sess.IPHash != zero &&
		internal.HashBindingValue(clientIPFromContext(ctx)) != sess.IPHash {
		rejected = "ip"
	}
	if rejected == "" && e.config.Session.EnforceUserAgentBinding && sess.UserAgentHash != zero &&
		internal.HashBindingValue(userAgentFromContext(ctx)) != sess.UserAgentHash {
		rejected = "user_agent"
	}
	if rejected == "" {
		return nil
	}

	e.metricInc(MetricSessionBindingRejected)
	e.emitAudit(ctx, auditEventSessionBindingRejected, false, sess.Address, sess.SessionID, ErrSessionBindingRejected, func() map[string]string {
		return map[string]string{"attribute": rejected}
	})
	return ErrSessionBindingRejected
}

// Logout ends the session of cred. The account is locked on the node when it is not
// the main address and no other live session of the address remains. A lock failure
// is reported as ErrLockFailed after the session has been removed.
func (e *Engine) Logout(ctx context.Context, cred Credential) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if cred.SessionID == "" {
		return ErrUnauthorized
	}

	live, err := e.sessionStore.Delete(ctx, cred.SessionID, cred.Address)
	if err != nil {
		storeErr := fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		// The live count is unknown, so the account is locked anyway.
		if e.isMainAddress(cred.Address) {
			return storeErr
		}
		lockErr := e.lockAccount(ctx, cred.Address)
		e.emitAudit(ctx, auditEventLogoutSession, false, cred.Address, cred.SessionID, storeErr, func() map[string]string {
			return map[string]string{"locked": fmt.Sprint(lockErr == nil)}
		})
		return errors.Join(storeErr, lockErr)
	}
	e.metricInc(MetricLogout)

	locked := false
	var lockErr error
	if !e.isMainAddress(cred.Address) && live == 0 {
		lockErr = e.lockAccount(ctx, cred.Address)
		locked = lockErr == nil
	}

	e.emitAudit(ctx, auditEventLogoutSession, lockErr == nil, cred.Address, cred.SessionID, lockErr, func() map[string]string {
		return map[string]string{
			"locked":        fmt.Sprint(locked),
			"live_sessions": fmt.Sprint(live),
		}
	})
	return lockErr
}

// Supersede ends previous once the same browser holds next. When both belong to the
// same account the account stays unlocked for next; otherwise previous is ended like
// a [Engine.Logout], lock rule included.
func (e *Engine) Supersede(ctx context.Context, previous, next Credential) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if previous.SessionID == "" || previous.SessionID == next.SessionID {
		return nil
	}
	if previous.Address != next.Address {
		return e.Logout(ctx, previous)
	}

	if _, err := e.sessionStore.Delete(ctx, previous.SessionID, previous.Address); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	e.metricInc(MetricSessionInvalidated)
	e.emitAudit(ctx, auditEventSessionSuperseded, true, previous.Address, previous.SessionID, nil, func() map[string]string {
		return map[string]string{"replaced_by": next.SessionID}
	})
	return nil
}

// RevokeAddress deletes every session of address and locks it unless it is the main
// address. It returns the number of sessions removed.
func (e *Engine) RevokeAddress(ctx context.Context, address string) (int, error) {
	if !e.ready() {
		return 0, ErrEngineNotReady
	}
	addr, err := parseAccountAddress(address)
	if err != nil {
		return 0, err
	}

	removed, err := e.sessionStore.DeleteAllForAddress(ctx, addr)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	e.metricInc(MetricLogoutAll)

	var lockErr error
	if !e.isMainAddress(addr) {
		lockErr = e.lockAccount(ctx, addr)
	}

	e.emitAudit(ctx, auditEventLogoutAll, lockErr == nil, addr, "", lockErr, func() map[string]string {
		return map[string]string{"sessions": fmt.Sprint(removed)}
	})
	return removed, lockErr
}

// LockIdleAccounts locks every node account other than the main address that has no
// live session, and returns how many were locked. Accounts that fail to lock are
// skipped and reported in the joined error.
func (e *Engine) LockIdleAccounts(ctx context.Context) (int, error) {
	if !e.ready() {
		return 0, ErrEngineNotReady
	}

	accounts, err := e.node.Accounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: list accounts: %v", ErrNodeUnavailable, err)
	}

	locked := 0
	var errs []error
	for _, addr := range accounts {
		if e.isMainAddress(addr) {
			continue
		}
		live, err := e.sessionStore.LiveSessionCount(ctx, addr)
		if err != nil {
			return locked, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if live > 0 {
			continue
		}
		if err := e.lockAccount(ctx, addr); err != nil {
			errs = append(errs, err)
			continue
		}
		locked++
	}
	return locked, errors.Join(errs...)
}

func (e *Engine) lockAccount(ctx context.Context, addr common.Address) error {
	if err := e.node.LockAccount(ctx, addr); err != nil {
		e.metricInc(MetricAccountLockFailure)
		return fmt.Errorf("%w: %s: %v", ErrLockFailed, addr.Hex(), err)
	}
	e.metricInc(MetricAccountLocked)
	e.emitAudit(ctx, auditEventAccountLocked, true, addr, "", nil, nil)
	return nil
}

func (e *Engine) isMainAddress(addr common.Address) bool {
	return e.hasMainAddress && addr == e.mainAddress
}

// Health pings the node and Redis.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	var status HealthStatus
	if !e.ready() {
		return status
	}

	start := time.Now()
	if id, err := e.node.ChainID(ctx); err == nil {
		status.NodeReachable = true
		status.ChainID = id.String()
	} else {
		e.logger.WarnContext(ctx, "node health check", "error", err)
	}
	status.NodeLatency = time.Since(start)

	latency, err := e.sessionStore.Ping(ctx)
	status.RedisLatency = latency
	if err == nil {
		status.RedisReachable = true
	} else {
		e.logger.WarnContext(ctx, "redis health check", "error", err)
	}
	return status
}

func parseAccountAddress(address string) (common.Address, error) {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		return common.Address{}, &AuthError{Reason: "invalid address", AttemptsLeft: -1}
	}
	return common.HexToAddress(address), nil
}
