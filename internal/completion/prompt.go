package completion

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"wikibot/pkg"
)

const ragPromptTemplate = `다음 참고 문서를 바탕으로 질문에 답변해주세요. 참고 문서에 없는 내용은 추측하지 말고 모른다고 답변해주세요.

참고 문서:
%s

질문: %s`

// BuildMessages assembles the chat messages for one completion call:
// the bot's system prompt, the recent conversation history and the
// current question grounded on the retrieved documents. History is
// capped at maxHistoryMessages individual messages, keeping the most
// recent ones, independently of the memory window size.
func BuildMessages(systemPrompt string, history []pkg.ConversationTurn, query string, documents []pkg.RetrievedDocument, maxHistoryMessages int) []*schema.Message {
	messages := []*schema.Message{schema.SystemMessage(systemPrompt)}

	historyMessages := make([]*schema.Message, 0, len(history)*2)
	for _, turn := range history {
		historyMessages = append(historyMessages, schema.UserMessage(turn.UserMessage))
		historyMessages = append(historyMessages, schema.AssistantMessage(turn.BotResponse, nil))
	}
	if maxHistoryMessages > 0 && len(historyMessages) > maxHistoryMessages {
		historyMessages = historyMessages[len(historyMessages)-maxHistoryMessages:]
	}
	messages = append(messages, historyMessages...)

	messages = append(messages, schema.UserMessage(userPrompt(query, documents)))
	return messages
}

// userPrompt renders the current question. With no documents the raw
// question is sent as-is so the model can still answer from context.
func userPrompt(query string, documents []pkg.RetrievedDocument) string {
	if len(documents) == 0 {
		return query
	}

	var b strings.Builder
	for i, doc := range documents {
		if i > 0 {
			b.WriteString("\n\n")
		}
		title := doc.Title
		if title == "" {
			title = fmt.Sprintf("문서 %d", i+1)
		}
		fmt.Fprintf(&b, "[%d] %s\n%s", i+1, title, doc.Content)
	}
	return fmt.Sprintf(ragPromptTemplate, b.String(), query)
}
