package pkg

import (
	"time"
)

// Core types shared across the response pipeline.

// CitationStyle controls how the citation formatter renders a source line.
type CitationStyle string

const (
	// CitationLinked renders markdown hyperlinks (Confluence-backed indices).
	CitationLinked CitationStyle = "linked"
	// CitationPaged appends page numbers (PDF-backed indices such as JEDEC specs).
	CitationPaged CitationStyle = "paged"
	// CitationPlain renders the bare document title.
	CitationPlain CitationStyle = "plain"
)

// IndexConfig describes one chatbot index: which search index backs it,
// which system prompt it uses, and how its citations are rendered.
// Loaded once at startup and never mutated afterwards.
type IndexConfig struct {
	BotID            string        `yaml:"bot_id" json:"bot_id"`
	DisplayName      string        `yaml:"display_name" json:"display_name"`
	Description      string        `yaml:"description" json:"description,omitempty"`
	SystemPrompt     string        `yaml:"system_prompt" json:"-"`
	SearchIndexName  string        `yaml:"index_name" json:"index_name"`
	CitationStyle    CitationStyle `yaml:"citation_style" json:"citation_style"`
	SourceBaseURL    string        `yaml:"source_base_url" json:"-"`
	WelcomeMessage   string        `yaml:"welcome_message" json:"welcome_message,omitempty"`
	InputPlaceholder string        `yaml:"input_placeholder" json:"input_placeholder,omitempty"`
}

// RetrievedDocument is one normalized search hit. Constructed per search
// call and discarded after the response is built.
type RetrievedDocument struct {
	Content      string  `json:"content"`
	Title        string  `json:"title"`
	SourceURL    string  `json:"source_url,omitempty"`
	DocID        string  `json:"doc_id,omitempty"`
	Page         string  `json:"page,omitempty"`
	Score        float64 `json:"score"`
	LastModified string  `json:"last_modified,omitempty"`
}

// ConversationTurn is one (question, answer) pair in a user's window.
type ConversationTurn struct {
	ID          string         `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	UserMessage string         `json:"user_message"`
	BotResponse string         `json:"bot_response"`
	BotID       string         `json:"bot_id"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ChatLogEntry is an analytics record, separate from conversation memory.
// Appended after every successful response; never used for prompting.
type ChatLogEntry struct {
	Timestamp      time.Time `json:"timestamp"`
	UserID         string    `json:"user_id"`
	BotID          string    `json:"bot_id"`
	UserMessage    string    `json:"user_message"`
	BotResponse    string    `json:"bot_response"`
	MessageLength  int       `json:"message_length"`
	ResponseLength int       `json:"response_length"`
}
