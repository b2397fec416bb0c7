package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps Redis operations for the batch submission queue: the queue
// itself, per-batch processing locks, and completion marks that protect
// against cross-run double submission.
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Key helpers
const queueKey = "relayer:batches"

func payloadKey(batchID string) string {
	return fmt.Sprintf("relayer:payload:%s", batchID)
}

func lockKey(batchID string) string {
	return fmt.Sprintf("relayer:processing:%s", batchID)
}

func completedKey(batchID string) string {
	return fmt.Sprintf("relayer:completed:%s", batchID)
}

// EnqueueBatch stores the batch payload and queues its ID, scored by
// enqueue time so the oldest batch is dequeued first.
func (c *Client) EnqueueBatch(ctx context.Context, batchID string, payload []byte) error {
	if err := c.rdb.Set(ctx, payloadKey(batchID), payload, 0).Err(); err != nil {
		return fmt.Errorf("set payload failed: %w", err)
	}
	score := float64(time.Now().UnixNano())
	if err := c.rdb.ZAdd(ctx, queueKey, redis.Z{Score: score, Member: batchID}).Err(); err != nil {
		return fmt.Errorf("zadd failed: %w", err)
	}
	return nil
}

// DequeueBatch pops the oldest batch from the queue and returns its
// payload. The payload key is left in place until completion so a crashed
// worker does not lose the batch spec.
func (c *Client) DequeueBatch(ctx context.Context) (batchID string, payload []byte, found bool, err error) {
	results, err := c.rdb.ZRangeWithScores(ctx, queueKey, 0, 0).Result()
	if err != nil {
		return "", nil, false, fmt.Errorf("zrange failed: %w", err)
	}
	if len(results) == 0 {
		return "", nil, false, nil
	}

	batchID = results[0].Member.(string)
	if err := c.rdb.ZRem(ctx, queueKey, batchID).Err(); err != nil {
		return "", nil, false, fmt.Errorf("zrem failed: %w", err)
	}

	payload, err = c.rdb.Get(ctx, payloadKey(batchID)).Bytes()
	if err == redis.Nil {
		return batchID, nil, true, fmt.Errorf("payload missing for batch %s", batchID)
	}
	if err != nil {
		return batchID, nil, true, fmt.Errorf("get payload failed: %w", err)
	}
	return batchID, payload, true, nil
}

// QueueDepth returns the number of queued batches.
func (c *Client) QueueDepth(ctx context.Context) (int64, error) {
	return c.rdb.ZCard(ctx, queueKey).Result()
}

// AcquireBatchLock attempts to acquire the processing lock for a batch.
func (c *Client) AcquireBatchLock(ctx context.Context, batchID string, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, lockKey(batchID), "locked", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx failed: %w", err)
	}
	return ok, nil
}

// ReleaseBatchLock releases the processing lock.
func (c *Client) ReleaseBatchLock(ctx context.Context, batchID string) error {
	return c.rdb.Del(ctx, lockKey(batchID)).Err()
}

// RefreshBatchLock extends the TTL of the processing lock.
func (c *Client) RefreshBatchLock(ctx context.Context, batchID string, ttl time.Duration) error {
	return c.rdb.Expire(ctx, lockKey(batchID), ttl).Err()
}

// MarkCompleted records that a batch finished a run, and drops its queued
// payload. Submission outcomes live in the receipt journal; the mark only
// prevents the same batch from being run twice.
func (c *Client) MarkCompleted(ctx context.Context, batchID string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, completedKey(batchID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("set completed failed: %w", err)
	}
	return c.rdb.Del(ctx, payloadKey(batchID)).Err()
}

// IsCompleted reports whether a batch already finished a run.
func (c *Client) IsCompleted(ctx context.Context, batchID string) (bool, error) {
	n, err := c.rdb.Exists(ctx, completedKey(batchID)).Result()
	if err != nil {
		return false, fmt.Errorf("exists failed: %w", err)
	}
	return n > 0, nil
}
