package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Daily usage counters reset at UTC midnight: the counter key embeds the
// UTC calendar date, so a new day starts a fresh counter regardless of the
// caller's timezone.
const usageKeyTTL = 48 * time.Hour

// UsageRepository tracks per-account daily transaction counts.
type UsageRepository interface {
	CountToday(ctx context.Context, email string, now time.Time) (int, error)
	IncrementToday(ctx context.Context, email string, now time.Time) (int, error)
}

type usageRepository struct {
	client *redis.Client
}

// NewUsageRepository returns a Redis-backed implementation.
func NewUsageRepository(client *redis.Client) UsageRepository {
	return &usageRepository{client: client}
}

func (r *usageRepository) CountToday(ctx context.Context, email string, now time.Time) (int, error) {
	count, err := r.client.Get(ctx, usageKey(email, now)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *usageRepository) IncrementToday(ctx context.Context, email string, now time.Time) (int, error) {
	key := usageKey(email, now)
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, usageKeyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

func usageKey(email string, now time.Time) string {
	return fmt.Sprintf("usage:daily:%s:%s", email, now.UTC().Format("2006-01-02"))
}
