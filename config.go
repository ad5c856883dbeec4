package goEstate

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Config holds every Engine setting. Obtain one from [DefaultConfig], adjust it and
// pass it to [Builder.WithConfig]; the Builder keeps its own copy.
type Config struct {
	Node     NodeConfig
	Contract ContractConfig
	Session  SessionConfig
	JWT      JWTConfig
	Security SecurityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
NODE CONFIG
====================================
*/

// NodeConfig describes the Ethereum node holding the account keys.
type NodeConfig struct {
	URL string
	// MainAddress is the operator account. It is never locked by logout or by
	// LockIdleAccounts. Empty disables the exemption.
	MainAddress    string
	RequestTimeout time.Duration
}

/*
====================================
CONTRACT CONFIG
====================================
*/

// ContractConfig locates the real-estate contract.
type ContractConfig struct {
	Address string
	// ABI overrides the embedded contract ABI when non-empty.
	ABI []byte
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session lifetime and the session cookie. Lifetime is also the
// duration every account stays unlocked on the node after login.
type SessionConfig struct {
	RedisPrefix  string
	Lifetime     time.Duration
	CookieName   string
	CookieSecure bool
	SameSite     http.SameSite

	EnforceIPBinding        bool
	EnforceUserAgentBinding bool
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures the signed session token.
type JWTConfig struct {
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	KeyID         string
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig bounds password guessing and account creation.
type SecurityConfig struct {
	ProductionMode bool

	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration

	MaxRegistrations     int
	RegistrationCooldown time.Duration
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns a development configuration. Callers still have to provide
// the contract address and JWT keys.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Node: NodeConfig{
			URL:            "http://localhost:8545",
			RequestTimeout: 10 * time.Second,
		},
		Session: SessionConfig{
			RedisPrefix:             "as",
			Lifetime:                time.Hour,
			CookieName:              "estate_session",
			CookieSecure:            false,
			SameSite:                http.SameSiteLaxMode,
			EnforceIPBinding:        false,
			EnforceUserAgentBinding: true,
		},
		JWT: JWTConfig{
			SigningMethod: "ed25519",
			Issuer:        "goestate",
			Leeway:        30 * time.Second,
		},
		Security: SecurityConfig{
			ProductionMode:        false,
			EnableIPThrottle:      true,
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
			MaxRegistrations:      5,
			RegistrationCooldown:  time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	out.Contract.ABI = cloneBytes(cfg.Contract.ABI)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// MainAddress returns the parsed operator account and whether one is configured.
func (c *Config) MainAddress() (common.Address, bool) {
	if strings.TrimSpace(c.Node.MainAddress) == "" {
		return common.Address{}, false
	}
	return common.HexToAddress(c.Node.MainAddress), true
}

/*
====================================
VALIDATION
====================================
*/

// Validate rejects inconsistent or unsafe settings. Build calls it.
func (c *Config) Validate() error {
	// Node
	if c.Node.RequestTimeout < 0 {
		return errors.New("Node RequestTimeout must be >= 0")
	}
	if strings.TrimSpace(c.Node.MainAddress) != "" && !common.IsHexAddress(c.Node.MainAddress) {
		return errors.New("Node MainAddress must be a hex account address")
	}

	// Contract
	if !common.IsHexAddress(c.Contract.Address) {
		return errors.New("Contract Address must be a hex account address")
	}
	if common.HexToAddress(c.Contract.Address) == (common.Address{}) {
		return errors.New("Contract Address must not be the zero address")
	}

	// Session
	if c.Session.Lifetime < time.Second {
		return errors.New("Session Lifetime must be >= 1s")
	}
	if strings.TrimSpace(c.Session.RedisPrefix) == "" {
		return errors.New("Session RedisPrefix must be set")
	}
	if strings.ContainsAny(c.Session.RedisPrefix, ": ") {
		return errors.New("Session RedisPrefix must not contain ':' or spaces")
	}
	if strings.TrimSpace(c.Session.CookieName) == "" {
		return errors.New("Session CookieName must be set")
	}
	if c.Session.SameSite == http.SameSiteNoneMode && !c.Session.CookieSecure {
		return errors.New("Session SameSite=None requires CookieSecure")
	}

	// JWT
	switch c.JWT.SigningMethod {
	case "ed25519":
		if len(c.JWT.PrivateKey) == 0 {
			return errors.New("ed25519 requires PrivateKey")
		}
		if len(c.JWT.PublicKey) == 0 {
			return errors.New("ed25519 requires PublicKey")
		}
	case "hs256":
		if len(c.JWT.PrivateKey) == 0 {
			return errors.New("hs256 requires PrivateKey")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// Security
	if c.Security.MaxLoginAttempts < 0 {
		return errors.New("Security MaxLoginAttempts must be >= 0")
	}
	if c.Security.MaxLoginAttempts > 0 && c.Security.LoginCooldownDuration <= 0 {
		return errors.New("Security LoginCooldownDuration must be > 0 when MaxLoginAttempts is set")
	}
	if c.Security.MaxRegistrations < 0 {
		return errors.New("Security MaxRegistrations must be >= 0")
	}
	if c.Security.MaxRegistrations > 0 && c.Security.RegistrationCooldown <= 0 {
		return errors.New("Security RegistrationCooldown must be > 0 when MaxRegistrations is set")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	// Production hardening
	if c.Security.ProductionMode {
		if !c.Session.CookieSecure {
			return errors.New("ProductionMode requires Session CookieSecure")
		}
		if c.JWT.SigningMethod == "hs256" && len(c.JWT.PrivateKey) < 32 {
			return errors.New("ProductionMode requires an hs256 secret of at least 32 bytes")
		}
		if c.Security.MaxLoginAttempts == 0 {
			return errors.New("ProductionMode requires login rate limiting")
		}
		if strings.HasPrefix(strings.ToLower(c.Node.URL), "http://") && !isLoopbackURL(c.Node.URL) {
			return errors.New("ProductionMode requires a local or TLS node endpoint")
		}
	}

	return nil
}

func isLoopbackURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
