package rate

import "errors"

var (
	// ErrRateLimited is returned once a counter has spent its window budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps Redis failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
