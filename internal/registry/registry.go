// Package registry holds the static bot-to-index mapping. The registry is
// built once at startup from the YAML registry file and injected into the
// components that need it; it is never reloaded at runtime.
package registry

import (
	"sort"
	"sync"

	"wikibot/pkg"
)

// DefaultSystemPrompt is used when a bot has no prompt of its own.
const DefaultSystemPrompt = "당신은 도움이 되는 AI 어시스턴트입니다."

// Registry maps bot identifiers to their index configuration.
type Registry struct {
	mu   sync.RWMutex
	bots map[string]pkg.IndexConfig
}

// New builds a registry from the loaded index configurations.
func New(configs []pkg.IndexConfig) *Registry {
	bots := make(map[string]pkg.IndexConfig, len(configs))
	for _, c := range configs {
		bots[c.BotID] = c
	}
	return &Registry{bots: bots}
}

// Get returns the configuration for a bot identifier. Unknown identifiers
// return a zero config and false; callers must handle absent fields and
// never treat a miss as fatal.
func (r *Registry) Get(botID string) (pkg.IndexConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.bots[botID]
	return c, ok
}

// SystemPrompt returns the bot's system prompt, falling back to the default
// when the bot is unknown or has no prompt configured.
func (r *Registry) SystemPrompt(botID string) string {
	c, ok := r.Get(botID)
	if !ok || c.SystemPrompt == "" {
		return DefaultSystemPrompt
	}
	return c.SystemPrompt
}

// IndexName returns the backing search index for a bot, empty when unknown.
func (r *Registry) IndexName(botID string) string {
	c, _ := r.Get(botID)
	return c.SearchIndexName
}

// Add registers a new index for the lifetime of the process. The addition
// is not persisted and does not survive a restart.
func (r *Registry) Add(config pkg.IndexConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bots[config.BotID] = config
}

// All returns every registered config, ordered by bot id for stable output.
func (r *Registry) All() []pkg.IndexConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]pkg.IndexConfig, 0, len(r.bots))
	for _, c := range r.bots {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BotID < out[j].BotID })
	return out
}
