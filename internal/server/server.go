package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"wikibot/internal/chatlog"
	"wikibot/internal/logger"
	"wikibot/internal/memory"
	"wikibot/internal/orchestrator"
	"wikibot/internal/registry"
	"wikibot/pkg"
)

// Server exposes the response pipeline over HTTP.
type Server struct {
	registry     *registry.Registry
	orchestrator *orchestrator.Orchestrator
	memory       memory.Store
	chatLog      chatlog.Recorder
}

func New(reg *registry.Registry, orch *orchestrator.Orchestrator, store memory.Store, recorder chatlog.Recorder) *Server {
	return &Server{registry: reg, orchestrator: orch, memory: store, chatLog: recorder}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat", s.handleChat)
	mux.HandleFunc("POST /v1/chat/clear", s.handleClear)
	mux.HandleFunc("GET /v1/bots", s.handleBots)
	mux.HandleFunc("GET /v1/stats", s.handleStats)
	mux.HandleFunc("GET /v1/conversations/export", s.handleExport)
	mux.HandleFunc("GET /v1/chatlog", s.handleChatLog)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, err := sonic.Marshal(payload)
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode response")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

type chatRequest struct {
	UserID  string `json:"user_id"`
	BotID   string `json:"bot_id"`
	Message string `json:"message"`
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return sonic.ConfigDefault.NewDecoder(r.Body).Decode(v)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.UserID == "" || req.BotID == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "user_id, bot_id and message are required")
		return
	}

	resp := s.orchestrator.Respond(r.Context(), req.UserID, req.BotID, req.Message)
	writeJSON(w, http.StatusOK, resp)
}

type clearRequest struct {
	UserID string `json:"user_id"`
	BotID  string `json:"bot_id"`
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var req clearRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.BotID == "" {
		writeError(w, http.StatusBadRequest, "user_id and bot_id are required")
		return
	}
	if err := s.memory.Clear(r.Context(), req.UserID, req.BotID); err != nil {
		logger.Error().Err(err).Msg("failed to clear conversation")
		writeError(w, http.StatusInternalServerError, "failed to clear conversation")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

type botSummary struct {
	BotID            string `json:"bot_id"`
	DisplayName      string `json:"display_name"`
	Description      string `json:"description,omitempty"`
	CitationStyle    string `json:"citation_style"`
	WelcomeMessage   string `json:"welcome_message,omitempty"`
	InputPlaceholder string `json:"input_placeholder,omitempty"`
}

func (s *Server) handleBots(w http.ResponseWriter, r *http.Request) {
	configs := s.registry.All()
	bots := make([]botSummary, len(configs))
	for i, cfg := range configs {
		bots[i] = botSummary{
			BotID:            cfg.BotID,
			DisplayName:      cfg.DisplayName,
			Description:      cfg.Description,
			CitationStyle:    string(cfg.CitationStyle),
			WelcomeMessage:   cfg.WelcomeMessage,
			InputPlaceholder: cfg.InputPlaceholder,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bots": bots})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	memStats, err := s.memory.Stats(r.Context())
	if err != nil {
		logger.Error().Err(err).Msg("failed to read memory stats")
		writeError(w, http.StatusInternalServerError, "failed to read stats")
		return
	}
	usage, err := s.chatLog.Stats(r.Context())
	if err != nil {
		logger.Error().Err(err).Msg("failed to read chat-log stats")
		writeError(w, http.StatusInternalServerError, "failed to read stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"conversations": memStats,
		"usage":         usage,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	conversations, err := s.memory.Export(r.Context())
	if err != nil {
		logger.Error().Err(err).Msg("failed to export conversations")
		writeError(w, http.StatusInternalServerError, "failed to export conversations")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": conversations})
}

func (s *Server) handleChatLog(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	entries, err := s.chatLog.Recent(r.Context(), limit)
	if err != nil {
		logger.Error().Err(err).Msg("failed to read chat log")
		writeError(w, http.StatusInternalServerError, "failed to read chat log")
		return
	}
	if entries == nil {
		entries = []pkg.ChatLogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
