package completion

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// The completion endpoint fronts several model providers and the reply
// shape varies with the provider and the model's behavior. Matchers are
// attempted in order; each returns the extracted answer text. An answer
// is never empty when a matcher reports a match.

type shapeMatcher struct {
	name  string
	match func(data []byte) (string, bool)
}

var shapeMatchers = []shapeMatcher{
	{name: "chat_choice", match: matchChatChoice},
	{name: "text_choice", match: matchTextChoice},
	{name: "responses_output", match: matchResponsesOutput},
}

func extractAnswer(data []byte) (string, string, bool) {
	for _, m := range shapeMatchers {
		if answer, ok := m.match(data); ok {
			return answer, m.name, true
		}
	}
	return "", "", false
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content   any    `json:"content"`
			Refusal   string `json:"refusal"`
			ToolCalls []struct {
				Function struct {
					Name string `json:"name"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// matchChatChoice handles the chat-completions shape. Content may be a
// plain string or a list of typed parts. A tool-call or refusal reply
// still produces a user-facing answer rather than an empty string.
func matchChatChoice(data []byte) (string, bool) {
	var resp chatResponse
	if err := sonic.Unmarshal(data, &resp); err != nil || len(resp.Choices) == 0 {
		return "", false
	}
	choice := resp.Choices[0]
	if choice.Message == nil {
		return "", false
	}

	switch content := choice.Message.Content.(type) {
	case string:
		if content != "" {
			return content, true
		}
	case []any:
		if text := joinContentParts(content); text != "" {
			return text, true
		}
	}

	if len(choice.Message.ToolCalls) > 0 {
		name := choice.Message.ToolCalls[0].Function.Name
		if name == "" {
			name = "unknown"
		}
		return fmt.Sprintf("모델이 답변 대신 도구 호출(%s)을 반환했습니다. 질문을 바꿔서 다시 시도해주세요.", name), true
	}
	if choice.Message.Refusal != "" {
		return choice.Message.Refusal, true
	}
	if choice.FinishReason != "" {
		return fmt.Sprintf("모델이 응답을 생성하지 못했습니다. (finish_reason: %s)", choice.FinishReason), true
	}
	return "", false
}

func joinContentParts(parts []any) string {
	var texts []string
	for _, raw := range parts {
		part, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if text, ok := part["text"].(string); ok && text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, "")
}

// matchTextChoice handles the legacy text-completions shape.
func matchTextChoice(data []byte) (string, bool) {
	var resp struct {
		Choices []struct {
			Text string `json:"text"`
		} `json:"choices"`
	}
	if err := sonic.Unmarshal(data, &resp); err != nil || len(resp.Choices) == 0 {
		return "", false
	}
	if text := resp.Choices[0].Text; text != "" {
		return text, true
	}
	return "", false
}

// matchResponsesOutput handles the responses-API shape with output items
// carrying typed content parts.
func matchResponsesOutput(data []byte) (string, bool) {
	var resp struct {
		Output []struct {
			Content []contentPart `json:"content"`
		} `json:"output"`
	}
	if err := sonic.Unmarshal(data, &resp); err != nil || len(resp.Output) == 0 {
		return "", false
	}
	var texts []string
	for _, item := range resp.Output {
		for _, part := range item.Content {
			if part.Text != "" {
				texts = append(texts, part.Text)
			}
		}
	}
	if len(texts) == 0 {
		return "", false
	}
	return strings.Join(texts, ""), true
}
