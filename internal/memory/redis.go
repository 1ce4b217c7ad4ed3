package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"wikibot/internal/config"
	"wikibot/pkg"
)

const redisKeyPrefix = "conversation:"

// RedisStore keeps each conversation under its own key, so concurrent
// writes to different conversations never clobber each other. Keys carry
// a TTL that is refreshed on every write and read, and Redis expiry acts
// as a first line of cleanup before PurgeInactive runs.
type RedisStore struct {
	client     *redis.Client
	windowSize int
	ttl        time.Duration
}

func NewRedisStore(ctx context.Context, cfg config.MemoryConfig, redisCfg config.RedisConfig) (*RedisStore, error) {
	if redisCfg.URL == "" {
		return nil, fmt.Errorf("REDIS_URL is required for the redis memory backend")
	}
	opts, err := redis.ParseURL(redisCfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisStore{client: client, windowSize: cfg.WindowSize, ttl: cfg.TTL}, nil
}

// NewRedisStoreWithClient wires an existing client, used by tests.
func NewRedisStoreWithClient(client *redis.Client, cfg config.MemoryConfig) *RedisStore {
	return &RedisStore{client: client, windowSize: cfg.WindowSize, ttl: cfg.TTL}
}

func redisKey(userID, botID string) string {
	return redisKeyPrefix + conversationKey(userID, botID)
}

func (s *RedisStore) loadTurns(ctx context.Context, key string) ([]pkg.ConversationTurn, error) {
	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	var turns []pkg.ConversationTurn
	if err := sonic.Unmarshal([]byte(data), &turns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}
	return turns, nil
}

func (s *RedisStore) saveTurns(ctx context.Context, key string, turns []pkg.ConversationTurn) error {
	data, err := sonic.Marshal(turns)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}
	return s.client.Set(ctx, key, data, s.ttl).Err()
}

func (s *RedisStore) AddTurn(ctx context.Context, userID, botID string, turn pkg.ConversationTurn) error {
	key := redisKey(userID, botID)
	turns, err := s.loadTurns(ctx, key)
	if err != nil {
		return err
	}
	turns = trimToWindow(append(turns, stampTurn(turn, botID)), s.windowSize)
	return s.saveTurns(ctx, key, turns)
}

func (s *RedisStore) History(ctx context.Context, userID, botID string) ([]pkg.ConversationTurn, error) {
	key := redisKey(userID, botID)
	turns, err := s.loadTurns(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(turns) > 0 {
		// An active conversation should not expire mid-session.
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			return nil, fmt.Errorf("failed to refresh conversation TTL: %w", err)
		}
	}
	return turns, nil
}

func (s *RedisStore) Clear(ctx context.Context, userID, botID string) error {
	return s.client.Del(ctx, redisKey(userID, botID)).Err()
}

func (s *RedisStore) PurgeInactive(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	purged := 0

	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		turns, err := s.loadTurns(ctx, key)
		if err != nil {
			return purged, err
		}
		if len(turns) == 0 || turns[len(turns)-1].Timestamp.Before(cutoff) {
			if err := s.client.Del(ctx, key).Err(); err != nil {
				return purged, fmt.Errorf("failed to purge conversation: %w", err)
			}
			purged++
		}
	}
	if err := iter.Err(); err != nil {
		return purged, fmt.Errorf("failed to scan conversations: %w", err)
	}
	return purged, nil
}

func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		turns, err := s.loadTurns(ctx, iter.Val())
		if err != nil {
			return stats, err
		}
		stats.Conversations++
		stats.Turns += len(turns)
	}
	if err := iter.Err(); err != nil {
		return stats, fmt.Errorf("failed to scan conversations: %w", err)
	}
	return stats, nil
}

func (s *RedisStore) Export(ctx context.Context) (map[string][]pkg.ConversationTurn, error) {
	out := make(map[string][]pkg.ConversationTurn)
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		turns, err := s.loadTurns(ctx, key)
		if err != nil {
			return nil, err
		}
		out[strings.TrimPrefix(key, redisKeyPrefix)] = turns
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan conversations: %w", err)
	}
	return out, nil
}
