package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"wikibot/internal/logger"
)

// Config is the full runtime configuration, processed from the environment.
type Config struct {
	Log        logger.Config
	Server     ServerConfig
	Search     SearchConfig
	Completion CompletionConfig
	Memory     MemoryConfig
	ChatLog    ChatLogConfig
	Redis      RedisConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string `envconfig:"SERVER_ADDR" default:":8080"`
	RegistryFile string `envconfig:"REGISTRY_FILE" default:"config.yaml"`
}

// SearchConfig holds settings for the RAG search endpoint.
type SearchConfig struct {
	BaseURL       string        `envconfig:"SEARCH_BASE_URL"`
	CredentialKey string        `envconfig:"SEARCH_CREDENTIAL_KEY"`
	User          string        `envconfig:"SEARCH_USER"`
	AuthList      []string      `envconfig:"SEARCH_AUTH_LIST" default:"ds"`
	NumCandidates int           `envconfig:"SEARCH_NUM_CANDIDATES" default:"1000"`
	NumResultDoc  int           `envconfig:"SEARCH_NUM_RESULT_DOC" default:"5"`
	FieldsExclude []string      `envconfig:"SEARCH_FIELDS_EXCLUDE" default:"v_merge_title_content"`
	Timeout       time.Duration `envconfig:"SEARCH_TIMEOUT" default:"45s"`

	SortByDate      bool    `envconfig:"SEARCH_SORT_BY_DATE" default:"true"`
	DateField       string  `envconfig:"SEARCH_DATE_FIELD" default:"last_modified"`
	SortOrder       string  `envconfig:"SEARCH_SORT_ORDER" default:"desc"`
	DateWeight      float64 `envconfig:"SEARCH_DATE_WEIGHT" default:"0.3"`
	RelevanceWeight float64 `envconfig:"SEARCH_RELEVANCE_WEIGHT" default:"0.7"`

	MockMode  bool          `envconfig:"SEARCH_MOCK_MODE" default:"false"`
	MockDelay time.Duration `envconfig:"SEARCH_MOCK_DELAY" default:"0"`
}

// Configured reports whether real API calls are possible. When false the
// client serves canned responses instead of failing the request.
func (c SearchConfig) Configured() bool {
	return !c.MockMode && c.BaseURL != "" && c.CredentialKey != ""
}

// CompletionConfig holds settings for the LLM chat-completion endpoint.
type CompletionConfig struct {
	BaseURL       string        `envconfig:"LLM_BASE_URL"`
	CredentialKey string        `envconfig:"LLM_CREDENTIAL_KEY"`
	Model         string        `envconfig:"LLM_MODEL" default:"openai/gpt-oss-120b"`
	SystemName    string        `envconfig:"LLM_SYSTEM_NAME" default:"WIKIBOT"`
	UserType      string        `envconfig:"LLM_USER_TYPE" default:"AD_ID"`
	Temperature   float64       `envconfig:"LLM_TEMPERATURE" default:"0.7"`
	MaxTokens     int           `envconfig:"LLM_MAX_TOKENS" default:"2000"`
	Timeout       time.Duration `envconfig:"LLM_TIMEOUT" default:"30s"`

	// MaxHistoryMessages is a token-budget cap on prior turns, independent
	// of the conversation window size (20 messages = 10 turns).
	MaxHistoryMessages int `envconfig:"LLM_MAX_HISTORY_MESSAGES" default:"20"`

	MockMode  bool          `envconfig:"LLM_MOCK_MODE" default:"false"`
	MockDelay time.Duration `envconfig:"LLM_MOCK_DELAY" default:"0"`
}

// Configured reports whether real API calls are possible.
func (c CompletionConfig) Configured() bool {
	return !c.MockMode && c.BaseURL != "" && c.CredentialKey != ""
}

// MemoryConfig holds conversation-memory settings.
type MemoryConfig struct {
	Backend        string        `envconfig:"MEMORY_BACKEND" default:"file"` // file or redis
	WindowSize     int           `envconfig:"MEMORY_WINDOW_SIZE" default:"5"`
	StorageFile    string        `envconfig:"MEMORY_STORAGE_FILE" default:"data/conversations.json"`
	TTL            time.Duration `envconfig:"MEMORY_TTL" default:"720h"`
	PurgeAfterDays int           `envconfig:"MEMORY_PURGE_AFTER_DAYS" default:"30"`
	CleanupEvery   time.Duration `envconfig:"MEMORY_CLEANUP_EVERY" default:"24h"`
}

// ChatLogConfig holds analytics chat-log settings.
type ChatLogConfig struct {
	Backend     string `envconfig:"CHATLOG_BACKEND" default:"file"` // file or redis
	StorageFile string `envconfig:"CHATLOG_STORAGE_FILE" default:"data/chat_log.json"`
	MaxEntries  int    `envconfig:"CHATLOG_MAX_ENTRIES" default:"1000"`
}

// RedisConfig holds the Redis connection settings shared by the redis-backed
// memory and chat-log stores.
type RedisConfig struct {
	URL string `envconfig:"REDIS_URL"`
}

// Load processes the runtime configuration from environment variables.
func Load() (*Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}
	return &config, nil
}
