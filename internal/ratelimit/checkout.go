package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/storefront/internal/config"
	"go.uber.org/zap"
)

const keyCheckoutClient = "checkout:client:%s"

// CheckoutLimiter throttles public checkout per caller and serializes
// concurrent submissions for the same email.
type CheckoutLimiter struct {
	enabled bool

	bucket *TokenBucket
	lock   *emailLock

	rate  float64
	burst int
}

func NewCheckoutLimiter(cfg config.Config, client *redis.Client, log *zap.Logger) (*CheckoutLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return &CheckoutLimiter{}, nil
	}
	if client == nil {
		log.Warn("rate limiting requested without redis; checkout limiter disabled")
		return &CheckoutLimiter{}, nil
	}
	if limitCfg.CheckoutRate <= 0 || limitCfg.CheckoutBurst <= 0 {
		return nil, errors.New("checkout rate limit must be positive")
	}

	return &CheckoutLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		lock:    newEmailLock(client, checkoutLockTTL, log.Named("checkout.lock")),
		rate:    limitCfg.CheckoutRate,
		burst:   limitCfg.CheckoutBurst,
	}, nil
}

func (l *CheckoutLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *CheckoutLimiter) Allow(ctx context.Context, caller string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyCheckoutClient, strings.TrimSpace(caller)), l.rate, l.burst)
}

// LockEmail returns a release func; the lock expires on its own if release is never called.
func (l *CheckoutLimiter) LockEmail(ctx context.Context, email string) (func(context.Context), error) {
	noop := func(context.Context) {}
	if !l.Enabled() {
		return noop, nil
	}

	release, err := l.lock.Acquire(ctx, email)
	if err != nil {
		return noop, err
	}
	return release, nil
}
