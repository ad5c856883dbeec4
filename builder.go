package goEstate

import (
	"errors"
	"log/slog"

	"github.com/MrEthical07/goEstate/contract"
	"github.com/MrEthical07/goEstate/internal/rate"
	"github.com/MrEthical07/goEstate/jwt"
	"github.com/MrEthical07/goEstate/session"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. Configure it during start-up, call Build once and
// discard it.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	node   Node
	logger *slog.Logger

	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. The Builder keeps a copy.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client used for sessions and rate limits.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithNode sets the node that owns the accounts and executes contract calls.
func (b *Builder) WithNode(n Node) *Builder {
	b.node = n
	return b
}

// WithLogger sets the logger for best-effort failures. The default discards output.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the destination of audit events. Audit.Enabled must also be set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the node latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires every component. A Builder can only
// build once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.node == nil {
		return nil, errors.New("node client required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	metrics := NewMetrics(cfg.Metrics)
	nodeClient := &meteredNode{next: b.node, metrics: metrics}

	// -------- CONTRACT GATEWAY --------
	gateway, err := contract.New(nodeClient, common.HexToAddress(cfg.Contract.Address), cfg.Contract.ABI)
	if err != nil {
		return nil, err
	}

	// -------- SESSION TOKENS --------
	jm, err := jwt.NewManager(jwt.Config{
		TTL:           cfg.Session.Lifetime,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
		RequireIAT:    true,
		KeyID:         cfg.JWT.KeyID,
	})
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	engine := &Engine{
		config:       cloneConfig(cfg),
		node:         nodeClient,
		gateway:      gateway,
		sessionStore: session.NewStore(b.redis, cfg.Session.RedisPrefix),
		jwtManager:   jm,
		metrics:      metrics,
		logger:       logger,
	}
	engine.mainAddress, engine.hasMainAddress = cfg.MainAddress()
	engine.rateLimiter = rate.New(b.redis, rate.Config{
		EnableIPThrottle:      cfg.Security.EnableIPThrottle,
		MaxLoginAttempts:      cfg.Security.MaxLoginAttempts,
		LoginCooldownDuration: cfg.Security.LoginCooldownDuration,
		MaxRegistrations:      cfg.Security.MaxRegistrations,
		RegistrationCooldown:  cfg.Security.RegistrationCooldown,
	})
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)

	b.built = true

	return engine, nil
}
