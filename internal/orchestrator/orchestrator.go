package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	"wikibot/internal/chatlog"
	"wikibot/internal/citation"
	"wikibot/internal/completion"
	"wikibot/internal/logger"
	"wikibot/internal/memory"
	"wikibot/internal/registry"
	"wikibot/pkg"
)

// User-visible degradation messages. The pipeline always answers; these
// replace the answer or the citation block when a step fails.
const (
	msgTemporaryOutage = "죄송합니다. 서비스에 일시적인 문제가 발생했습니다. 잠시 후 다시 시도해주세요."
	msgSystemError     = "죄송합니다. 시스템 오류가 발생했습니다. 관리자에게 문의해주세요."
	msgNoDocuments     = "관련 문서를 찾을 수 없습니다."
)

// Searcher retrieves documents for one bot's index.
type Searcher interface {
	Search(ctx context.Context, queryText, botID string) ([]pkg.RetrievedDocument, error)
}

// Completer produces the answer text for an assembled message list.
type Completer interface {
	Complete(ctx context.Context, userID string, messages []*schema.Message) (string, error)
}

// Config bounds the orchestrator's prompting and cleanup behavior.
type Config struct {
	MaxHistoryMessages int
	PurgeAfter         time.Duration
	CleanupEvery       time.Duration
}

// Orchestrator runs the single-pass response pipeline: resolve bot,
// load history, search, complete, persist. Every step degrades instead
// of failing the response; the returned answer is never empty.
type Orchestrator struct {
	registry   *registry.Registry
	search     Searcher
	completion Completer
	memory     memory.Store
	chatLog    chatlog.Recorder
	config     Config

	purgeMu   sync.Mutex
	lastPurge time.Time
}

func New(reg *registry.Registry, searcher Searcher, completer Completer, store memory.Store, recorder chatlog.Recorder, cfg Config) *Orchestrator {
	return &Orchestrator{
		registry:   reg,
		search:     searcher,
		completion: completer,
		memory:     store,
		chatLog:    recorder,
		config:     cfg,
		lastPurge:  time.Now(),
	}
}

// Response is the outcome of one pipeline pass.
type Response struct {
	// Answer is the full user-facing text, citations included.
	Answer string `json:"answer"`
	// Documents is how many retrieved documents grounded the answer.
	Documents int `json:"documents"`
	// Degraded is set when the answer is a fallback message.
	Degraded bool `json:"degraded"`
}

// Respond runs the pipeline for one user message. It never returns an
// empty answer: failures along the way degrade the response instead.
func (o *Orchestrator) Respond(ctx context.Context, userID, botID, message string) Response {
	start := time.Now()
	botConfig, known := o.registry.Get(botID)
	if !known {
		logger.Warn().Str("bot_id", botID).Msg("unknown bot, answering with defaults")
	}
	systemPrompt := o.registry.SystemPrompt(botID)

	history, err := o.memory.History(ctx, userID, botID)
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("failed to load conversation history")
		history = nil
	}

	documents, err := o.search.Search(ctx, message, botID)
	searchFailed := err != nil
	if searchFailed {
		logger.Error().Err(err).Str("bot_id", botID).Msg("search failed, answering without documents")
		documents = nil
	}
	citations := citation.Format(documents, botConfig)

	messages := completion.BuildMessages(systemPrompt, history, message, documents, o.config.MaxHistoryMessages)
	answer, err := o.completion.Complete(ctx, userID, messages)
	degraded := err != nil
	if degraded {
		logger.Error().Err(err).Str("user_id", userID).Str("bot_id", botID).Msg("completion failed, answering with fallback")
		answer = fallbackAnswer(err)
	}

	final := answer
	switch {
	case citations != "":
		final = answer + "\n\n" + citations
	case searchFailed && !degraded:
		final = answer + "\n\n" + msgNoDocuments
	}

	if err := o.memory.AddTurn(ctx, userID, botID, pkg.ConversationTurn{
		UserMessage: message,
		BotResponse: answer,
	}); err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("failed to persist conversation turn")
	}
	o.recordChatLog(ctx, userID, botID, message, final)
	o.maybePurge(ctx)

	logger.Info().
		Str("user_id", userID).
		Str("bot_id", botID).
		Int("documents", len(documents)).
		Bool("degraded", degraded).
		Dur("elapsed", time.Since(start)).
		Msg("response generated")

	return Response{Answer: final, Documents: len(documents), Degraded: degraded}
}

// fallbackAnswer maps a completion failure to one of the two coarse
// user-facing messages: transient trouble or a system error.
func fallbackAnswer(err error) string {
	if errors.Is(err, pkg.ErrTimeout) {
		return msgTemporaryOutage
	}
	var statusErr *pkg.StatusError
	if errors.As(err, &statusErr) && (statusErr.Code >= 500 || statusErr.Code == 429) {
		return msgTemporaryOutage
	}
	return msgSystemError
}

func (o *Orchestrator) recordChatLog(ctx context.Context, userID, botID, message, response string) {
	if o.chatLog == nil {
		return
	}
	entry := pkg.ChatLogEntry{
		Timestamp:      time.Now(),
		UserID:         userID,
		BotID:          botID,
		UserMessage:    message,
		BotResponse:    response,
		MessageLength:  len([]rune(message)),
		ResponseLength: len([]rune(response)),
	}
	if err := o.chatLog.Record(ctx, entry); err != nil {
		logger.Error().Err(err).Msg("failed to record chat-log entry")
	}
}

// maybePurge drops long-inactive conversations. Runs inline on a
// time-based check instead of a background scheduler.
func (o *Orchestrator) maybePurge(ctx context.Context) {
	if o.config.PurgeAfter <= 0 || o.config.CleanupEvery <= 0 {
		return
	}
	o.purgeMu.Lock()
	due := time.Since(o.lastPurge) >= o.config.CleanupEvery
	if due {
		o.lastPurge = time.Now()
	}
	o.purgeMu.Unlock()
	if !due {
		return
	}

	purged, err := o.memory.PurgeInactive(ctx, o.config.PurgeAfter)
	if err != nil {
		logger.Error().Err(err).Msg("failed to purge inactive conversations")
		return
	}
	if purged > 0 {
		logger.Info().Int("purged", purged).Msg("purged inactive conversations")
	}
}
