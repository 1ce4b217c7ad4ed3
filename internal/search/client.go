package search

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

	"wikibot/internal/config"
	"wikibot/internal/logger"
	"wikibot/internal/registry"
	"wikibot/pkg"
)

const maxErrorBodyBytes = 500

// Client retrieves documents from the internal RAG search endpoint. When
// the endpoint is not configured it serves deterministic canned documents
// so the rest of the pipeline keeps working.
type Client struct {
	config   config.SearchConfig
	registry *registry.Registry
	http     *http.Client
}

func NewClient(cfg config.SearchConfig, reg *registry.Registry) *Client {
	return &Client{
		config:   cfg,
		registry: reg,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

type sortConfig struct {
	EnableDateSort  bool    `json:"enable_date_sort"`
	DateField       string  `json:"date_field"`
	SortOrder       string  `json:"sort_order"`
	DateWeight      float64 `json:"date_weight"`
	RelevanceWeight float64 `json:"relevance_weight"`
	CurrentDate     string  `json:"current_date"`
}

type searchRequest struct {
	User          string      `json:"user"`
	IndexName     string      `json:"index_name"`
	AuthList      []string    `json:"auth_list"`
	QueryText     string      `json:"query_text"`
	NumCandidates int         `json:"num_candidates"`
	NumResultDoc  int         `json:"num_result_doc"`
	FieldsExclude []string    `json:"fields_exclude"`
	SortConfig    *sortConfig `json:"sort_config,omitempty"`
}

// Search retrieves the documents relevant to queryText for the given bot.
// An unknown bot yields an empty result, not an error. Transport failures,
// non-200 statuses and unrecognized response shapes are returned as errors
// for the caller to degrade on.
func (c *Client) Search(ctx context.Context, queryText, botID string) ([]pkg.RetrievedDocument, error) {
	indexName := c.registry.IndexName(botID)
	if indexName == "" {
		logger.Warn().Str("bot_id", botID).Msg("search skipped: no index for bot")
		return nil, nil
	}

	if !c.config.Configured() {
		return c.mockSearch(ctx, botID)
	}

	reqBody := searchRequest{
		User:          c.config.User,
		IndexName:     indexName,
		AuthList:      c.config.AuthList,
		QueryText:     queryText,
		NumCandidates: c.config.NumCandidates,
		NumResultDoc:  c.config.NumResultDoc,
		FieldsExclude: c.config.FieldsExclude,
	}
	if c.config.SortByDate {
		reqBody.SortConfig = &sortConfig{
			EnableDateSort:  true,
			DateField:       c.config.DateField,
			SortOrder:       c.config.SortOrder,
			DateWeight:      c.config.DateWeight,
			RelevanceWeight: c.config.RelevanceWeight,
			CurrentDate:     time.Now().Format("2006-01-02"),
		}
	}

	payload, err := sonic.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error encoding search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("error building search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-dep-ticket", c.config.CredentialKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			logger.Error().Str("bot_id", botID).Dur("elapsed", time.Since(start)).Msg("search request timed out")
			return nil, fmt.Errorf("search: %w", pkg.ErrTimeout)
		}
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logger.Error().Int("status", resp.StatusCode).Str("bot_id", botID).Msg("search returned non-200")
		return nil, &pkg.StatusError{Code: resp.StatusCode, Body: pkg.TruncateBody(body, maxErrorBodyBytes)}
	}

	docs, shape, ok := normalizeResponse(body)
	if !ok {
		logger.Error().Str("bot_id", botID).Str("body", pkg.TruncateBody(body, maxErrorBodyBytes)).Msg("search response matched no known shape")
		return nil, fmt.Errorf("search: %w", pkg.ErrShapeMismatch)
	}

	logger.Debug().
		Str("bot_id", botID).
		Str("shape", shape).
		Int("documents", len(docs)).
		Dur("elapsed", time.Since(start)).
		Msg("search completed")
	return docs, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
