package chatlog

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikibot/internal/config"
	"wikibot/pkg"
)

func entry(userID, botID, message string) pkg.ChatLogEntry {
	return pkg.ChatLogEntry{
		Timestamp:      time.Now(),
		UserID:         userID,
		BotID:          botID,
		UserMessage:    message,
		BotResponse:    "답변",
		MessageLength:  len([]rune(message)),
		ResponseLength: 2,
	}
}

func TestFileRecorderCapEviction(t *testing.T) {
	ctx := context.Background()
	recorder, err := NewFileRecorder(config.ChatLogConfig{
		StorageFile: filepath.Join(t.TempDir(), "chat_log.json"),
		MaxEntries:  3,
	})
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		require.NoError(t, recorder.Record(ctx, entry("kim.cs", "internal_wiki", fmt.Sprintf("질문 %d", i))))
	}

	recent, err := recorder.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "질문 5", recent[0].UserMessage)
	assert.Equal(t, "질문 3", recent[2].UserMessage)
}

func TestFileRecorderSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	cfg := config.ChatLogConfig{
		StorageFile: filepath.Join(t.TempDir(), "chat_log.json"),
		MaxEntries:  1000,
	}

	recorder, err := NewFileRecorder(cfg)
	require.NoError(t, err)
	require.NoError(t, recorder.Record(ctx, entry("kim.cs", "internal_wiki", "질문")))

	reopened, err := NewFileRecorder(cfg)
	require.NoError(t, err)
	recent, err := reopened.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "질문", recent[0].UserMessage)
}

func TestFileRecorderStats(t *testing.T) {
	ctx := context.Background()
	recorder, err := NewFileRecorder(config.ChatLogConfig{
		StorageFile: filepath.Join(t.TempDir(), "chat_log.json"),
		MaxEntries:  1000,
	})
	require.NoError(t, err)

	require.NoError(t, recorder.Record(ctx, entry("kim.cs", "internal_wiki", "a")))
	require.NoError(t, recorder.Record(ctx, entry("kim.cs", "glossary", "b")))
	require.NoError(t, recorder.Record(ctx, entry("lee.yh", "internal_wiki", "c")))

	stats, err := recorder.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Entries)
	assert.Equal(t, 2, stats.UniqueUsers)
	assert.Equal(t, 2, stats.PerBot["internal_wiki"])
	assert.Equal(t, 1, stats.PerBot["glossary"])
}

func TestRedisRecorderCapEviction(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	recorder := NewRedisRecorderWithClient(client, config.ChatLogConfig{MaxEntries: 3})

	for i := 1; i <= 5; i++ {
		require.NoError(t, recorder.Record(ctx, entry("kim.cs", "internal_wiki", fmt.Sprintf("질문 %d", i))))
	}

	recent, err := recorder.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "질문 5", recent[0].UserMessage)
	assert.Equal(t, "질문 3", recent[2].UserMessage)
}

func TestRedisRecorderRecentLimit(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	recorder := NewRedisRecorderWithClient(client, config.ChatLogConfig{MaxEntries: 1000})

	for i := 1; i <= 5; i++ {
		require.NoError(t, recorder.Record(ctx, entry("kim.cs", "internal_wiki", fmt.Sprintf("질문 %d", i))))
	}

	recent, err := recorder.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "질문 5", recent[0].UserMessage)

	stats, err := recorder.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Entries)
	assert.Equal(t, 1, stats.UniqueUsers)
}
