package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds rate limiter tuning parameters.
type Config struct {
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration

	MaxRegistrations     int
	RegistrationCooldown time.Duration
}

// Limiter enforces per-address and per-IP login limits and per-IP registration limits
// using Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckLogin checks whether the address+IP pair is within the failed login budget.
func (l *Limiter) CheckLogin(ctx context.Context, address, ip string) error {
	if l.config.MaxLoginAttempts <= 0 {
		return nil
	}
	if err := l.checkCounter(ctx, loginAddressKey(address), l.config.MaxLoginAttempts); err != nil {
		return err
	}

	if l.config.EnableIPThrottle && ip != "" {
		if err := l.checkCounter(ctx, loginIPKey(ip), l.config.MaxLoginAttempts); err != nil {
			return err
		}
	}

	return nil
}

// IncrementLogin records a failed login attempt for the address+IP pair and reports
// ErrRateLimited once either counter has reached the budget.
func (l *Limiter) IncrementLogin(ctx context.Context, address, ip string) error {
	if l.config.MaxLoginAttempts <= 0 {
		return nil
	}
	limit := int64(l.config.MaxLoginAttempts)

	count, err := l.incrementWithTTL(ctx, loginAddressKey(address), l.config.LoginCooldownDuration)
	if err != nil {
		return err
	}
	limited := count >= limit

	if l.config.EnableIPThrottle && ip != "" {
		count, err = l.incrementWithTTL(ctx, loginIPKey(ip), l.config.LoginCooldownDuration)
		if err != nil {
			return err
		}
		limited = limited || count >= limit
	}

	if limited {
		return ErrRateLimited
	}
	return nil
}

// ResetLogin clears the per-address failed-login counter. The per-IP counter keeps
// running until its window ends.
func (l *Limiter) ResetLogin(ctx context.Context, address string) error {
	if err := l.redis.Del(ctx, loginAddressKey(address)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// EnforceRegistration counts one account creation from ip and fails once the window
// budget is spent. An empty ip is not throttled.
func (l *Limiter) EnforceRegistration(ctx context.Context, ip string) error {
	if l.config.MaxRegistrations <= 0 || ip == "" {
		return nil
	}
	count, err := l.incrementWithTTL(ctx, registerIPKey(ip), l.config.RegistrationCooldown)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxRegistrations) {
		return ErrRateLimited
	}
	return nil
}

// GetLoginAttempts returns the current failed attempt counter for an address.
func (l *Limiter) GetLoginAttempts(ctx context.Context, address string) (int, error) {
	count, err := l.redis.Get(ctx, loginAddressKey(address)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string, maxAttempts int) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count >= int64(maxAttempts) {
		return ErrRateLimited
	}

	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}

func loginAddressKey(address string) string {
	return "al:" + strings.ToLower(address)
}

func loginIPKey(ip string) string {
	return "ali:" + ip
}

func registerIPKey(ip string) string {
	return "arg:" + ip
}
