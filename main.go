package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"wikibot/internal/chatlog"
	"wikibot/internal/completion"
	"wikibot/internal/config"
	"wikibot/internal/logger"
	"wikibot/internal/memory"
	"wikibot/internal/orchestrator"
	"wikibot/internal/registry"
	"wikibot/internal/search"
	"wikibot/internal/server"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := logger.Init(cfg.Log); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize logger")
	}

	bots, err := config.LoadRegistryFile(cfg.Server.RegistryFile)
	if err != nil {
		logger.Fatal().Err(err).Str("file", cfg.Server.RegistryFile).Msg("failed to load bot registry")
	}
	reg := registry.New(bots)
	logger.Info().Int("bots", len(bots)).Msg("bot registry loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := memory.NewStore(ctx, cfg.Memory, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize conversation memory")
	}
	recorder, err := chatlog.NewRecorder(ctx, cfg.ChatLog, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize chat log")
	}

	searchClient := search.NewClient(cfg.Search, reg)
	if !cfg.Search.Configured() {
		logger.Warn().Msg("search endpoint not configured, serving mock results")
	}
	completionClient := completion.NewClient(cfg.Completion)
	if !cfg.Completion.Configured() {
		logger.Warn().Msg("LLM endpoint not configured, serving mock answers")
	}

	orch := orchestrator.New(reg, searchClient, completionClient, store, recorder, orchestrator.Config{
		MaxHistoryMessages: cfg.Completion.MaxHistoryMessages,
		PurgeAfter:         time.Duration(cfg.Memory.PurgeAfterDays) * 24 * time.Hour,
		CleanupEvery:       cfg.Memory.CleanupEvery,
	})

	srv := server.New(reg, orch, store, recorder)
	if err := srv.Run(ctx, cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}
