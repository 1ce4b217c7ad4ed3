package completion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"wikibot/internal/logger"
)

// mockComplete returns a canned answer echoing the question so the full
// pipeline can be exercised without an LLM gateway.
func (c *Client) mockComplete(ctx context.Context, messages []*schema.Message) (string, error) {
	if c.config.MockDelay > 0 {
		select {
		case <-time.After(c.config.MockDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	query := lastUserContent(messages)
	logger.Debug().Int("messages", len(messages)).Msg("serving mock completion")
	return fmt.Sprintf("[모의 응답] 질문을 확인했습니다: %s\n\nLLM 엔드포인트가 설정되지 않아 준비된 응답을 반환합니다. LLM_BASE_URL 환경 변수를 설정하면 실제 모델이 답변합니다.", summarize(query)), nil
}

func lastUserContent(messages []*schema.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == schema.User {
			return messages[i].Content
		}
	}
	return ""
}

func summarize(text string) string {
	// The RAG prompt embeds the question after the document block.
	if idx := strings.LastIndex(text, "질문: "); idx >= 0 {
		text = text[idx+len("질문: "):]
	}
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) > 80 {
		return string(runes[:80]) + "..."
	}
	return text
}
