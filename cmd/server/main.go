// Language Peer - adaptive conversation engine for language tutoring.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/asharanees/language-peer/internal/agents"
	"github.com/asharanees/language-peer/internal/api"
	"github.com/asharanees/language-peer/internal/config"
	"github.com/asharanees/language-peer/internal/domain"
	"github.com/asharanees/language-peer/internal/grammar"
	"github.com/asharanees/language-peer/internal/middleware"
	"github.com/asharanees/language-peer/internal/reasoning"
	"github.com/asharanees/language-peer/internal/recommend"
	"github.com/asharanees/language-peer/internal/session"
	"github.com/asharanees/language-peer/internal/speech"
	"github.com/asharanees/language-peer/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "strictness", cfg.Strictness)

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	catalog := agents.DefaultCatalog()

	// Reasoning model client (optional). Without an API key the engine
	// runs rule-only: canned replies, rule-based grammar feedback.
	var (
		modelAnalyzer grammar.ModelAnalyzer
		completer     agents.Completer
		responder     agents.Responder
	)
	if cfg.Reasoning.APIKey != "" {
		client, err := reasoning.NewClient(reasoning.Config{
			APIKey:         cfg.Reasoning.APIKey,
			BaseURL:        cfg.Reasoning.BaseURL,
			Model:          cfg.Reasoning.Model,
			RequestTimeout: cfg.Reasoning.RequestTimeout,
		}, logger)
		if err != nil {
			slog.Error("Failed to initialize reasoning client", "error", err)
			os.Exit(1)
		}
		modelAnalyzer = client
		completer = client
		responder = agents.NewModelResponder(client)
		slog.Info("Reasoning model connected", "model", cfg.Reasoning.Model)
	} else {
		slog.Info("Reasoning model disabled (REASONING_API_KEY not set), running rule-only")
	}

	analyzer := grammar.NewAnalyzer(modelAnalyzer, domain.Strictness(cfg.Strictness), logger)
	engine := recommend.NewEngine(repo, catalog, completer, logger)
	hub := api.NewEventHub()

	orchestrator, err := session.New(session.Options{
		Repo:      repo,
		Catalog:   catalog,
		Responder: responder,
		Analyzer:  analyzer,
		Thresholds: agents.Thresholds{
			Frustration:         cfg.Handoff.FrustrationThreshold,
			Pronunciation:       cfg.Handoff.PronunciationThreshold,
			GrammarFocus:        cfg.Handoff.GrammarFocusThreshold,
			Readiness:           cfg.Handoff.ReadinessThreshold,
			LowConfidenceCutoff: cfg.Handoff.LowConfidenceCutoff,
			VeryLowConfidence:   cfg.Handoff.VeryLowConfidence,
		},
		Events:       hub,
		OnSessionEnd: engine.OnSessionEnd,
		Interceptors: []session.TurnInterceptor{
			session.RecoveryInterceptor(logger),
			session.LoggingInterceptor(logger),
		},
		Logger: logger,
	})
	if err != nil {
		slog.Error("Failed to initialize session orchestrator", "error", err)
		os.Exit(1)
	}

	// Initialize handlers.
	sessionHandler := api.NewSessionHandler(orchestrator, catalog)
	userHandler := api.NewUserHandler(repo, engine)
	healthHandler := api.NewHealthHandler(repo)
	eventsHandler := api.NewEventsHandler(hub, orchestrator)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS([]string{"*"}))

	healthHandler.RegisterHealth(r)
	sessionHandler.RegisterRoutes(r)
	userHandler.RegisterRoutes(r)

	// Speech synthesis (optional outbound collaborator).
	if cfg.Speech.SynthURL != "" {
		synth := speech.NewHTTPSynthesizer(cfg.Speech.SynthURL, cfg.Speech.RequestTimeout)
		api.NewSpeechHandler(synth).RegisterRoutes(r)
		slog.Info("Speech synthesis enabled", "url", cfg.Speech.SynthURL)
	}

	// WebSocket event stream.
	r.Get("/ws/sessions/{sessionID}/events", eventsHandler.ServeHTTP)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// WebSocket streams stay open across many turns.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestrator.StartReaper(ctx, cfg.ReaperInterval, cfg.SessionIdleTTL)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
