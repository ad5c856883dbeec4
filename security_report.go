package goEstate

import "time"

// SecurityReport summarises the security posture of a built Engine. serve logs it at
// start-up.
type SecurityReport struct {
	ProductionMode      bool
	SigningAlgorithm    string
	SessionLifetime     time.Duration
	CookieSecure        bool
	IPBinding           bool
	UserAgentBinding    bool
	LoginRateLimited    bool
	RegisterRateLimited bool
	// MainAddressExempt is false when Node.MainAddress is empty. Logout then locks
	// every account, the node's own one included.
	MainAddressExempt bool
	AuditEnabled        bool
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	return SecurityReport{
		ProductionMode:      e.config.Security.ProductionMode,
		SigningAlgorithm:    e.config.JWT.SigningMethod,
		SessionLifetime:     e.config.Session.Lifetime,
		CookieSecure:        e.config.Session.CookieSecure,
		IPBinding:           e.config.Session.EnforceIPBinding,
		UserAgentBinding:    e.config.Session.EnforceUserAgentBinding,
		LoginRateLimited:    e.config.Security.MaxLoginAttempts > 0 && e.config.Security.LoginCooldownDuration > 0,
		RegisterRateLimited: e.config.Security.MaxRegistrations > 0 && e.config.Security.RegistrationCooldown > 0,
		MainAddressExempt:   e.hasMainAddress,
		AuditEnabled:        e.audit != nil,
	}
}
