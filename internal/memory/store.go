package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wikibot/internal/config"
	"wikibot/pkg"
)

// Stats summarizes the stored conversations.
type Stats struct {
	Conversations int `json:"conversations"`
	Turns         int `json:"turns"`
}

// Store keeps a sliding window of recent turns per (user, bot) pair.
// Writes beyond the window evict the oldest turn. Implementations are
// safe for concurrent use.
type Store interface {
	// AddTurn appends a turn and trims the conversation to the window.
	AddTurn(ctx context.Context, userID, botID string, turn pkg.ConversationTurn) error
	// History returns the retained turns, oldest first.
	History(ctx context.Context, userID, botID string) ([]pkg.ConversationTurn, error)
	// Clear removes one conversation.
	Clear(ctx context.Context, userID, botID string) error
	// PurgeInactive removes conversations whose last turn is older than
	// the cutoff and reports how many were removed.
	PurgeInactive(ctx context.Context, olderThan time.Duration) (int, error)
	// Stats counts the stored conversations and turns.
	Stats(ctx context.Context) (Stats, error)
	// Export returns every conversation keyed by "userID:botID".
	Export(ctx context.Context) (map[string][]pkg.ConversationTurn, error)
}

// NewStore builds the configured backend.
func NewStore(ctx context.Context, cfg config.MemoryConfig, redisCfg config.RedisConfig) (Store, error) {
	switch cfg.Backend {
	case "redis":
		return NewRedisStore(ctx, cfg, redisCfg)
	case "file":
		return NewFileStore(cfg)
	default:
		return nil, fmt.Errorf("unknown memory backend '%s'", cfg.Backend)
	}
}

func conversationKey(userID, botID string) string {
	return userID + ":" + botID
}

// stampTurn fills in the generated fields before a turn is stored.
func stampTurn(turn pkg.ConversationTurn, botID string) pkg.ConversationTurn {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}
	turn.BotID = botID
	return turn
}

// trimToWindow keeps the most recent windowSize turns.
func trimToWindow(turns []pkg.ConversationTurn, windowSize int) []pkg.ConversationTurn {
	if windowSize > 0 && len(turns) > windowSize {
		return turns[len(turns)-windowSize:]
	}
	return turns
}
