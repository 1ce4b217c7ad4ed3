package completion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"wikibot/internal/config"
	"wikibot/internal/logger"
	"wikibot/pkg"
)

const maxErrorBodyBytes = 500

// Client calls the internal LLM gateway for chat completions. When the
// gateway is not configured it serves canned answers so local development
// works without credentials.
type Client struct {
	config config.CompletionConfig
	http   *http.Client
}

func NewClient(cfg config.CompletionConfig) *Client {
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
	}
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// Complete sends the assembled messages for the given user and returns
// the answer text. The returned answer is never empty on a nil error.
func (c *Client) Complete(ctx context.Context, userID string, messages []*schema.Message) (string, error) {
	if !c.config.Configured() {
		return c.mockComplete(ctx, messages)
	}

	wire := make([]wireMessage, len(messages))
	for i, msg := range messages {
		wire[i] = wireMessage{Role: string(msg.Role), Content: msg.Content}
	}

	payload, err := sonic.Marshal(completionRequest{
		Model:       c.config.Model,
		Messages:    wire,
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("error encoding completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("error building completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-dep-ticket", c.config.CredentialKey)
	req.Header.Set("Send-System-Name", c.config.SystemName)
	req.Header.Set("User-Id", userID)
	req.Header.Set("User-Type", c.config.UserType)
	req.Header.Set("Prompt-Msg-Id", uuid.NewString())
	req.Header.Set("Completion-Msg-Id", uuid.NewString())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			logger.Error().Str("user_id", userID).Dur("elapsed", time.Since(start)).Msg("completion request timed out")
			return "", fmt.Errorf("completion: %w", pkg.ErrTimeout)
		}
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading completion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logger.Error().Int("status", resp.StatusCode).Msg("completion returned non-200")
		return "", &pkg.StatusError{Code: resp.StatusCode, Body: pkg.TruncateBody(body, maxErrorBodyBytes)}
	}

	answer, shape, ok := extractAnswer(body)
	if !ok {
		logger.Error().Str("body", pkg.TruncateBody(body, maxErrorBodyBytes)).Msg("completion response matched no known shape")
		return "", fmt.Errorf("completion: %w", pkg.ErrShapeMismatch)
	}

	logger.Debug().
		Str("shape", shape).
		Int("messages", len(messages)).
		Int("answer_chars", len(answer)).
		Dur("elapsed", time.Since(start)).
		Msg("completion succeeded")
	return answer, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
