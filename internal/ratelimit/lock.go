package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyCheckoutLock = "checkout:lock:%s"
	checkoutLockTTL = 15 * time.Second
)

// The lock is deleted only while it still carries the holder's token, so a
// checkout that outlived its ttl cannot drop a newer holder's lock.
const releaseOwnedLockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var (
	ErrCheckoutInProgress = errors.New("checkout_in_progress")

	errEmptyEmail = errors.New("checkout lock email is empty")
)

// emailLock serializes checkouts submitted for the same customer email.
type emailLock struct {
	client  *redis.Client
	release *redis.Script
	ttl     time.Duration
	log     *zap.Logger
}

func newEmailLock(client *redis.Client, ttl time.Duration, log *zap.Logger) *emailLock {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = checkoutLockTTL
	}
	return &emailLock{
		client:  client,
		release: redis.NewScript(releaseOwnedLockScript),
		ttl:     ttl,
		log:     log,
	}
}

func emailLockKey(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", errEmptyEmail
	}
	return fmt.Sprintf(keyCheckoutLock, normalized), nil
}

// Acquire returns ErrCheckoutInProgress while another checkout holds email.
// The lock lapses after the ttl if the release func is never called.
func (l *emailLock) Acquire(ctx context.Context, email string) (func(context.Context), error) {
	if l == nil {
		return nil, errors.New("checkout lock not configured")
	}
	key, err := emailLockKey(email)
	if err != nil {
		return nil, err
	}

	token := uuid.NewString()
	acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire checkout lock: %w", err)
	}
	if !acquired {
		return nil, ErrCheckoutInProgress
	}

	return func(releaseCtx context.Context) {
		if err := l.release.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.log.Warn("release checkout lock failed", zap.Error(err))
		}
	}, nil
}
