package chatlog

import (
	"context"
	"fmt"

	"wikibot/internal/config"
	"wikibot/pkg"
)

// UsageStats aggregates the retained chat-log entries.
type UsageStats struct {
	Entries     int            `json:"entries"`
	UniqueUsers int            `json:"unique_users"`
	PerBot      map[string]int `json:"per_bot"`
}

// Recorder appends chat-log entries for usage analytics. The log is
// bounded: once the cap is reached the oldest entries are dropped.
// Recording is best effort and must never block a user response.
type Recorder interface {
	// Record appends one entry, evicting the oldest past the cap.
	Record(ctx context.Context, entry pkg.ChatLogEntry) error
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]pkg.ChatLogEntry, error)
	// Stats aggregates the retained entries.
	Stats(ctx context.Context) (UsageStats, error)
}

// NewRecorder builds the configured backend.
func NewRecorder(ctx context.Context, cfg config.ChatLogConfig, redisCfg config.RedisConfig) (Recorder, error) {
	switch cfg.Backend {
	case "redis":
		return NewRedisRecorder(ctx, cfg, redisCfg)
	case "file":
		return NewFileRecorder(cfg)
	default:
		return nil, fmt.Errorf("unknown chat-log backend '%s'", cfg.Backend)
	}
}

func aggregate(entries []pkg.ChatLogEntry) UsageStats {
	stats := UsageStats{Entries: len(entries), PerBot: make(map[string]int)}
	users := make(map[string]struct{})
	for _, entry := range entries {
		users[entry.UserID] = struct{}{}
		stats.PerBot[entry.BotID]++
	}
	stats.UniqueUsers = len(users)
	return stats
}
