package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Dedup key per delivered job: dedup:jobs:{job_id}. Trims redundant
// redeliveries before they reach the database; the settlement marker in the
// database remains the real idempotency guard.
const KeyJobDedup = "dedup:jobs:%s"

var TTLDedup = 48 * time.Hour

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

func JobSeen(ctx context.Context, rdb *redis.Client, jobID string) (bool, error) {
	n, err := rdb.Exists(ctx, fmt.Sprintf(KeyJobDedup, jobID)).Result()
	return n > 0, err
}

func MarkJobSeen(ctx context.Context, rdb *redis.Client, jobID string) error {
	return rdb.Set(ctx, fmt.Sprintf(KeyJobDedup, jobID), "1", TTLDedup).Err()
}
