package chatlog

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"wikibot/internal/config"
	"wikibot/pkg"
)

const redisLogKey = "chatlog:entries"

// RedisRecorder pushes entries onto a capped Redis list. LPUSH followed
// by LTRIM keeps the newest maxEntries without a read-modify-write cycle.
type RedisRecorder struct {
	client     *redis.Client
	maxEntries int
}

func NewRedisRecorder(ctx context.Context, cfg config.ChatLogConfig, redisCfg config.RedisConfig) (*RedisRecorder, error) {
	if redisCfg.URL == "" {
		return nil, fmt.Errorf("REDIS_URL is required for the redis chat-log backend")
	}
	opts, err := redis.ParseURL(redisCfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisRecorder{client: client, maxEntries: cfg.MaxEntries}, nil
}

// NewRedisRecorderWithClient wires an existing client, used by tests.
func NewRedisRecorderWithClient(client *redis.Client, cfg config.ChatLogConfig) *RedisRecorder {
	return &RedisRecorder{client: client, maxEntries: cfg.MaxEntries}
}

func (r *RedisRecorder) Record(ctx context.Context, entry pkg.ChatLogEntry) error {
	data, err := sonic.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal chat-log entry: %w", err)
	}
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, redisLogKey, data)
	if r.maxEntries > 0 {
		pipe.LTrim(ctx, redisLogKey, 0, int64(r.maxEntries-1))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record chat-log entry: %w", err)
	}
	return nil
}

func (r *RedisRecorder) Recent(ctx context.Context, limit int) ([]pkg.ChatLogEntry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	raw, err := r.client.LRange(ctx, redisLogKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read chat log: %w", err)
	}
	entries := make([]pkg.ChatLogEntry, 0, len(raw))
	for _, item := range raw {
		var entry pkg.ChatLogEntry
		if err := sonic.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chat-log entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *RedisRecorder) Stats(ctx context.Context) (UsageStats, error) {
	entries, err := r.Recent(ctx, 0)
	if err != nil {
		return UsageStats{}, err
	}
	return aggregate(entries), nil
}
