package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/novafs/lms-api/utils/response"
)

// AttemptStore is the counter store behind brute force protection.
// *cache.RedisCache satisfies it.
type AttemptStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	Increment(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// attemptWindow is how long failed attempts are remembered
const attemptWindow = 15 * time.Minute

// BruteForceProtection locks out client IPs after repeated failed sign-ins
type BruteForceProtection struct {
	store AttemptStore
}

// NewBruteForceProtection creates a new brute force protection instance
func NewBruteForceProtection(store AttemptStore) *BruteForceProtection {
	return &BruteForceProtection{
		store: store,
	}
}

func attemptKey(ip string) string { return fmt.Sprintf("brute_force:attempts:%s", ip) }
func lockKey(ip string) string    { return fmt.Sprintf("brute_force:lock:%s", ip) }

// CheckAndRecordAttempt middleware rejects requests from a locked IP
func (b *BruteForceProtection) CheckAndRecordAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()

		locked, err := b.store.Exists(c.UserContext(), lockKey(ip))
		if err != nil {
			// Cache outage must not block sign-in
			log.Warnw("brute force check skipped", "ip", ip, "error", err)
			return c.Next()
		}

		if locked {
			ttl, _ := b.store.TTL(c.UserContext(), lockKey(ip))
			retryAfter := int(ttl.Seconds())
			if retryAfter <= 0 {
				retryAfter = 60
			}

			c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", retryAfter))
			return response.TooManyRequests(c, fmt.Sprintf("Too many failed attempts. Try again in %d seconds", retryAfter))
		}

		return c.Next()
	}
}

// lockDuration applies progressive lockouts by attempt count
func lockDuration(attempts int64) time.Duration {
	switch {
	case attempts >= 25:
		return 24 * time.Hour
	case attempts >= 10:
		return time.Hour
	case attempts >= 5:
		return 2 * time.Minute
	default:
		return 0
	}
}

// RecordFailedAttempt records a failed sign-in and locks the IP when the
// attempt count crosses a threshold
func (b *BruteForceProtection) RecordFailedAttempt(ctx context.Context, ip string) error {
	attempts, err := b.store.Increment(ctx, attemptKey(ip))
	if err != nil {
		log.Warnw("failed sign-in not recorded", "ip", ip, "error", err)
		return nil
	}

	if attempts == 1 {
		if err := b.store.Expire(ctx, attemptKey(ip), attemptWindow); err != nil {
			return err
		}
	}

	d := lockDuration(attempts)
	if d == 0 {
		return nil
	}

	log.Warnw("sign-in locked", "ip", ip, "attempts", attempts, "lock", d.String())
	return b.store.Set(ctx, lockKey(ip), "locked", d)
}

// RecordSuccessfulAttempt clears failed attempts on successful sign-in
func (b *BruteForceProtection) RecordSuccessfulAttempt(ctx context.Context, ip string) error {
	return b.store.Delete(ctx, attemptKey(ip), lockKey(ip))
}
