package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikibot/internal/chatlog"
	"wikibot/internal/completion"
	"wikibot/internal/config"
	"wikibot/internal/memory"
	"wikibot/internal/orchestrator"
	"wikibot/internal/registry"
	"wikibot/internal/search"
	"wikibot/pkg"
)

// newTestServer wires the full pipeline with both external clients in
// mock mode, the way a credential-less dev setup runs.
func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	reg := registry.New([]pkg.IndexConfig{
		{
			BotID:           "internal_wiki",
			DisplayName:     "사내 위키봇",
			Description:     "사내 위키 문서 기반 질의응답",
			SystemPrompt:    "당신은 사내 위키 도우미입니다.",
			SearchIndexName: "wiki-prod",
			CitationStyle:   pkg.CitationLinked,
			WelcomeMessage:  "무엇을 도와드릴까요?",
		},
		{
			BotID:           "glossary",
			DisplayName:     "용어 사전봇",
			SearchIndexName: "glossary-prod",
			CitationStyle:   pkg.CitationPlain,
		},
	})

	store, err := memory.NewFileStore(config.MemoryConfig{
		WindowSize:  5,
		StorageFile: filepath.Join(t.TempDir(), "conversations.json"),
	})
	require.NoError(t, err)
	recorder, err := chatlog.NewFileRecorder(config.ChatLogConfig{
		StorageFile: filepath.Join(t.TempDir(), "chat_log.json"),
		MaxEntries:  1000,
	})
	require.NoError(t, err)

	searchClient := search.NewClient(config.SearchConfig{MockMode: true, Timeout: time.Second}, reg)
	completionClient := completion.NewClient(config.CompletionConfig{MockMode: true, Timeout: time.Second})

	orch := orchestrator.New(reg, searchClient, completionClient, store, recorder, orchestrator.Config{
		MaxHistoryMessages: 20,
		PurgeAfter:         30 * 24 * time.Hour,
		CleanupEvery:       24 * time.Hour,
	})
	return New(reg, orch, store, recorder).Handler()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestChatEndpoint(t *testing.T) {
	handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/v1/chat", map[string]string{
		"user_id": "kim.cs",
		"bot_id":  "internal_wiki",
		"message": "VPN 접속 방법 알려줘",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp orchestrator.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Answer)
	assert.False(t, resp.Degraded)
	assert.Greater(t, resp.Documents, 0)
	assert.Contains(t, resp.Answer, "참고 자료")
}

func TestChatEndpointValidation(t *testing.T) {
	handler := newTestServer(t)

	cases := []map[string]string{
		{"bot_id": "internal_wiki", "message": "질문"},
		{"user_id": "kim.cs", "message": "질문"},
		{"user_id": "kim.cs", "bot_id": "internal_wiki"},
		{"user_id": "kim.cs", "bot_id": "internal_wiki", "message": "   "},
	}
	for _, body := range cases {
		rec := doJSON(t, handler, http.MethodPost, "/v1/chat", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %v", body)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatClearEndpoint(t *testing.T) {
	handler := newTestServer(t)

	doJSON(t, handler, http.MethodPost, "/v1/chat", map[string]string{
		"user_id": "kim.cs", "bot_id": "internal_wiki", "message": "질문",
	})
	rec := doJSON(t, handler, http.MethodPost, "/v1/chat/clear", map[string]string{
		"user_id": "kim.cs", "bot_id": "internal_wiki",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	stats := doJSON(t, handler, http.MethodGet, "/v1/stats", nil)
	require.Equal(t, http.StatusOK, stats.Code)
	var parsed struct {
		Conversations memory.Stats `json:"conversations"`
	}
	require.NoError(t, json.Unmarshal(stats.Body.Bytes(), &parsed))
	assert.Equal(t, 0, parsed.Conversations.Conversations)
}

func TestBotsEndpoint(t *testing.T) {
	handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodGet, "/v1/bots", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Bots []botSummary `json:"bots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Bots, 2)
	assert.Equal(t, "glossary", resp.Bots[0].BotID)
	assert.Equal(t, "internal_wiki", resp.Bots[1].BotID)
	assert.Equal(t, "무엇을 도와드릴까요?", resp.Bots[1].WelcomeMessage)
}

func TestChatLogEndpoint(t *testing.T) {
	handler := newTestServer(t)

	doJSON(t, handler, http.MethodPost, "/v1/chat", map[string]string{
		"user_id": "kim.cs", "bot_id": "internal_wiki", "message": "질문",
	})

	rec := doJSON(t, handler, http.MethodGet, "/v1/chatlog?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Entries []pkg.ChatLogEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "kim.cs", resp.Entries[0].UserID)

	bad := doJSON(t, handler, http.MethodGet, "/v1/chatlog?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestExportEndpoint(t *testing.T) {
	handler := newTestServer(t)

	doJSON(t, handler, http.MethodPost, "/v1/chat", map[string]string{
		"user_id": "kim.cs", "bot_id": "internal_wiki", "message": "질문",
	})

	rec := doJSON(t, handler, http.MethodGet, "/v1/conversations/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Conversations map[string][]pkg.ConversationTurn `json:"conversations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	turns, ok := resp.Conversations["kim.cs:internal_wiki"]
	require.True(t, ok)
	require.Len(t, turns, 1)
	assert.Equal(t, "질문", turns[0].UserMessage)
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
