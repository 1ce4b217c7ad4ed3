package memory

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikibot/internal/config"
	"wikibot/pkg"
)

func fileStoreConfig(t *testing.T, windowSize int) config.MemoryConfig {
	t.Helper()
	return config.MemoryConfig{
		Backend:     "file",
		WindowSize:  windowSize,
		StorageFile: filepath.Join(t.TempDir(), "conversations.json"),
	}
}

func turn(user, bot string) pkg.ConversationTurn {
	return pkg.ConversationTurn{UserMessage: user, BotResponse: bot}
}

func TestFileStoreWindowEviction(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(fileStoreConfig(t, 5))
	require.NoError(t, err)

	for i := 1; i <= 7; i++ {
		q := fmt.Sprintf("질문 %d", i)
		require.NoError(t, store.AddTurn(ctx, "kim.cs", "internal_wiki", turn(q, "답변")))
	}

	history, err := store.History(ctx, "kim.cs", "internal_wiki")
	require.NoError(t, err)
	require.Len(t, history, 5)
	assert.Equal(t, "질문 3", history[0].UserMessage)
	assert.Equal(t, "질문 7", history[4].UserMessage)
}

func TestFileStoreWindowSizeOne(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(fileStoreConfig(t, 1))
	require.NoError(t, err)

	require.NoError(t, store.AddTurn(ctx, "kim.cs", "glossary", turn("첫 질문", "첫 답변")))
	require.NoError(t, store.AddTurn(ctx, "kim.cs", "glossary", turn("둘째 질문", "둘째 답변")))

	history, err := store.History(ctx, "kim.cs", "glossary")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "둘째 질문", history[0].UserMessage)
}

func TestFileStoreSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	cfg := fileStoreConfig(t, 5)

	store, err := NewFileStore(cfg)
	require.NoError(t, err)
	require.NoError(t, store.AddTurn(ctx, "kim.cs", "internal_wiki", turn("질문", "답변")))

	reopened, err := NewFileStore(cfg)
	require.NoError(t, err)
	history, err := reopened.History(ctx, "kim.cs", "internal_wiki")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "질문", history[0].UserMessage)
	assert.NotEmpty(t, history[0].ID)
	assert.Equal(t, "internal_wiki", history[0].BotID)
}

func TestFileStoreConversationsAreIndependent(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(fileStoreConfig(t, 5))
	require.NoError(t, err)

	require.NoError(t, store.AddTurn(ctx, "kim.cs", "internal_wiki", turn("위키 질문", "a")))
	require.NoError(t, store.AddTurn(ctx, "kim.cs", "glossary", turn("용어 질문", "b")))
	require.NoError(t, store.AddTurn(ctx, "lee.yh", "internal_wiki", turn("다른 사용자", "c")))

	history, err := store.History(ctx, "kim.cs", "internal_wiki")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "위키 질문", history[0].UserMessage)

	require.NoError(t, store.Clear(ctx, "kim.cs", "internal_wiki"))
	history, err = store.History(ctx, "kim.cs", "internal_wiki")
	require.NoError(t, err)
	assert.Empty(t, history)

	other, err := store.History(ctx, "kim.cs", "glossary")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestFileStorePurgeInactive(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(fileStoreConfig(t, 5))
	require.NoError(t, err)

	old := pkg.ConversationTurn{
		UserMessage: "오래된 질문",
		BotResponse: "답변",
		Timestamp:   time.Now().Add(-40 * 24 * time.Hour),
	}
	require.NoError(t, store.AddTurn(ctx, "dormant", "internal_wiki", old))
	require.NoError(t, store.AddTurn(ctx, "active", "internal_wiki", turn("최근 질문", "답변")))

	purged, err := store.PurgeInactive(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Conversations: 1, Turns: 1}, stats)
}

func TestFileStoreExportReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(fileStoreConfig(t, 5))
	require.NoError(t, err)
	require.NoError(t, store.AddTurn(ctx, "kim.cs", "internal_wiki", turn("질문", "답변")))

	exported, err := store.Export(ctx)
	require.NoError(t, err)
	require.Len(t, exported, 1)

	for key := range exported {
		exported[key][0].UserMessage = "변조"
	}
	history, err := store.History(ctx, "kim.cs", "internal_wiki")
	require.NoError(t, err)
	assert.Equal(t, "질문", history[0].UserMessage)
}
