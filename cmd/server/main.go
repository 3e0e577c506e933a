package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/essaygrade/backend/internal/api"
	"github.com/essaygrade/backend/internal/embedder"
	"github.com/essaygrade/backend/internal/grader"
	"github.com/essaygrade/backend/internal/grader/llm"
	"github.com/essaygrade/backend/internal/grader/technical"
	"github.com/essaygrade/backend/internal/infrastructure/config"
	"github.com/essaygrade/backend/internal/logging"
	"github.com/essaygrade/backend/internal/service"
	"github.com/essaygrade/backend/internal/store"
)

func main() {
	cfg := config.Load()
	logger := logging.Init(cfg.LogFormat, logging.ParseLevel(cfg.LogLevel))

	// ── Dependencies ────────────────────────────────────────────────
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := store.Open(ctx, store.Driver(cfg.DBDriver), cfg.DBDSN)
	cancel()
	if err != nil {
		logger.Error("failed to open database", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	tech, closeTech := buildTechnical(cfg, logger)
	defer closeTech()

	client, err := llm.New(context.Background(), llm.Settings{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.LLMAPIKey,
		BaseURL:  cfg.LLMBaseURL,
		Model:    cfg.LLMModel,
		Timeout:  cfg.LLMTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to configure llm client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	engine := grader.New(tech, client,
		grader.WithBlendWeight(cfg.TechnicalWeight),
		grader.WithMinAnswerLength(cfg.MinAnswerLength),
		grader.WithLogger(logger),
	)
	logger.Info("grading backends",
		"technical", cfg.TechnicalBackend,
		"technical_available", engine.TechnicalAvailable(),
		"logical_available", engine.LogicalAvailable(),
		"provider", cfg.LLMProvider,
	)

	records := service.NewRecordService(db)
	gradingSvc := service.NewGradingService(db, engine, logger, cfg.GradingWorkers)
	handler := api.NewHandler(records, gradingSvc, engine, logger)

	// Bulk grading runs several LLM calls per request.
	requestTimeout := 5 * cfg.LLMTimeout

	// ── Server ──────────────────────────────────────────────────────
	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           api.NewRouter(handler, requestTimeout),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		logger.Info("shutting down server")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server forced to shutdown", "error", err)
		}
	}()

	logger.Info("starting server", "address", cfg.ServerAddress)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed to start", "error", err)
		os.Exit(1)
	}
}

// buildTechnical loads the configured technical backend. Load failures are
// logged and leave the engine without a technical scorer.
func buildTechnical(cfg *config.Config, logger *slog.Logger) (grader.TechnicalScorer, func()) {
	noop := func() {}
	switch strings.ToLower(cfg.TechnicalBackend) {
	case "heuristic":
		return technical.NewHeuristicScorer(), noop
	case "none":
		return nil, noop
	}

	emb, err := embedder.New(embedder.Options{
		ModelPath:   cfg.EmbeddingModelPath,
		VocabPath:   cfg.EmbeddingVocabPath,
		LibraryPath: cfg.ONNXRuntimeLib,
	})
	if err != nil {
		logger.Warn("embedding model unavailable, technical scoring disabled", "error", err)
		return nil, noop
	}

	var reg technical.Regressor
	if cfg.RegressionModel != "" {
		reg, err = technical.LoadRegressor(cfg.RegressionModel, cfg.RegressionMax)
		if err != nil {
			logger.Warn("regression model not loaded, using similarity", "path", cfg.RegressionModel, "error", err)
			reg = nil
		}
	}
	logger.Info("embedding model loaded", "dim", emb.Dim(), "regressor", reg != nil)

	return technical.NewEmbeddingScorer(emb, reg), func() {
		if err := emb.Close(); err != nil {
			logger.Warn("closing embedding model", "error", err)
		}
	}
}
