package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	goEstate "github.com/MrEthical07/goEstate"
	"github.com/spf13/viper"
)

// envPrefix scopes every environment override, e.g. GOESTATE_NODE_URL.
const envPrefix = "GOESTATE"

type redisSettings struct {
	Addr     string
	Password string
	DB       int
}

type settings struct {
	Listen     string
	TrustProxy bool
	LogLevel   slog.Level
	LogFormat  string
	AuditSink  string
	ABIPath    string
	Redis      redisSettings
	Engine     goEstate.Config
}

// newViper returns a viper instance with defaults, env binding and, when path is
// set, the config file loaded.
func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	d := goEstate.DefaultConfig()

	v.SetDefault("listen", ":5000")
	v.SetDefault("trust_proxy", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("audit.sink", "json")

	v.SetDefault("node.url", d.Node.URL)
	v.SetDefault("node.main_address", "")
	v.SetDefault("node.request_timeout", d.Node.RequestTimeout)

	v.SetDefault("contract.address", "")
	v.SetDefault("contract.abi_path", "")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("session.prefix", d.Session.RedisPrefix)
	v.SetDefault("session.lifetime", d.Session.Lifetime)
	v.SetDefault("session.cookie_name", d.Session.CookieName)
	v.SetDefault("session.cookie_secure", d.Session.CookieSecure)
	v.SetDefault("session.same_site", "lax")
	v.SetDefault("session.ip_binding", d.Session.EnforceIPBinding)
	v.SetDefault("session.ua_binding", d.Session.EnforceUserAgentBinding)

	v.SetDefault("jwt.signing_method", d.JWT.SigningMethod)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.private_key_file", "")
	v.SetDefault("jwt.public_key_file", "")
	v.SetDefault("jwt.issuer", d.JWT.Issuer)
	v.SetDefault("jwt.leeway", d.JWT.Leeway)

	v.SetDefault("security.production", d.Security.ProductionMode)
	v.SetDefault("security.ip_throttle", d.Security.EnableIPThrottle)
	v.SetDefault("security.max_login_attempts", d.Security.MaxLoginAttempts)
	v.SetDefault("security.login_cooldown", d.Security.LoginCooldownDuration)
	v.SetDefault("security.max_registrations", d.Security.MaxRegistrations)
	v.SetDefault("security.registration_cooldown", d.Security.RegistrationCooldown)

	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.buffer_size", d.Audit.BufferSize)
	v.SetDefault("audit.drop_if_full", true)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.latency_histograms", true)
}

// loadSettings turns v into settings. It reads key files but does not validate the
// engine configuration; Build does that.
func loadSettings(v *viper.Viper) (*settings, error) {
	s := &settings{
		Listen:     v.GetString("listen"),
		TrustProxy: v.GetBool("trust_proxy"),
		LogFormat:  strings.ToLower(v.GetString("log.format")),
		AuditSink:  strings.ToLower(v.GetString("audit.sink")),
		ABIPath:    v.GetString("contract.abi_path"),
		Redis: redisSettings{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Engine: goEstate.DefaultConfig(),
	}

	if err := s.LogLevel.UnmarshalText([]byte(v.GetString("log.level"))); err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	switch s.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("log.format must be json or text, got %q", s.LogFormat)
	}
	switch s.AuditSink {
	case "json", "slog", "none":
	default:
		return nil, fmt.Errorf("audit.sink must be json, slog or none, got %q", s.AuditSink)
	}

	cfg := &s.Engine
	cfg.Node.URL = v.GetString("node.url")
	cfg.Node.MainAddress = v.GetString("node.main_address")
	cfg.Node.RequestTimeout = v.GetDuration("node.request_timeout")

	cfg.Contract.Address = v.GetString("contract.address")
	if s.ABIPath != "" {
		abiJSON, err := os.ReadFile(s.ABIPath)
		if err != nil {
			return nil, fmt.Errorf("contract.abi_path: %w", err)
		}
		cfg.Contract.ABI = abiJSON
	}

	cfg.Session.RedisPrefix = v.GetString("session.prefix")
	cfg.Session.Lifetime = v.GetDuration("session.lifetime")
	cfg.Session.CookieName = v.GetString("session.cookie_name")
	cfg.Session.CookieSecure = v.GetBool("session.cookie_secure")
	cfg.Session.EnforceIPBinding = v.GetBool("session.ip_binding")
	cfg.Session.EnforceUserAgentBinding = v.GetBool("session.ua_binding")
	sameSite, err := parseSameSite(v.GetString("session.same_site"))
	if err != nil {
		return nil, err
	}
	cfg.Session.SameSite = sameSite

	cfg.JWT.SigningMethod = strings.ToLower(v.GetString("jwt.signing_method"))
	cfg.JWT.Issuer = v.GetString("jwt.issuer")
	cfg.JWT.Leeway = v.GetDuration("jwt.leeway")
	if err := loadKeys(v, &cfg.JWT); err != nil {
		return nil, err
	}

	cfg.Security.ProductionMode = v.GetBool("security.production")
	cfg.Security.EnableIPThrottle = v.GetBool("security.ip_throttle")
	cfg.Security.MaxLoginAttempts = v.GetInt("security.max_login_attempts")
	cfg.Security.LoginCooldownDuration = v.GetDuration("security.login_cooldown")
	cfg.Security.MaxRegistrations = v.GetInt("security.max_registrations")
	cfg.Security.RegistrationCooldown = v.GetDuration("security.registration_cooldown")

	cfg.Audit.Enabled = v.GetBool("audit.enabled") && s.AuditSink != "none"
	cfg.Audit.BufferSize = v.GetInt("audit.buffer_size")
	cfg.Audit.DropIfFull = v.GetBool("audit.drop_if_full")

	cfg.Metrics.Enabled = v.GetBool("metrics.enabled")
	cfg.Metrics.EnableLatencyHistograms = v.GetBool("metrics.latency_histograms")

	return s, nil
}

func loadKeys(v *viper.Viper, cfg *goEstate.JWTConfig) error {
	switch cfg.SigningMethod {
	case "hs256":
		cfg.PrivateKey = []byte(v.GetString("jwt.secret"))
		cfg.PublicKey = nil
	case "ed25519":
		priv, err := readOptional(v.GetString("jwt.private_key_file"))
		if err != nil {
			return fmt.Errorf("jwt.private_key_file: %w", err)
		}
		pub, err := readOptional(v.GetString("jwt.public_key_file"))
		if err != nil {
			return fmt.Errorf("jwt.public_key_file: %w", err)
		}
		cfg.PrivateKey, cfg.PublicKey = priv, pub
	default:
		return fmt.Errorf("jwt.signing_method must be hs256 or ed25519, got %q", cfg.SigningMethod)
	}
	return nil
}

func readOptional(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}

func parseSameSite(v string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, errors.New("session.same_site must be lax, strict or none")
	}
}

// requestTimeout is the budget for one-shot CLI operations.
const requestTimeout = 30 * time.Second
