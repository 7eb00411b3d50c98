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

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ceconelo/financaia/internal/ai"
	"github.com/ceconelo/financaia/internal/amqp"
	"github.com/ceconelo/financaia/internal/auth"
	"github.com/ceconelo/financaia/internal/bot"
	"github.com/ceconelo/financaia/internal/config"
	apphttp "github.com/ceconelo/financaia/internal/http"
	applog "github.com/ceconelo/financaia/internal/log"
	"github.com/ceconelo/financaia/internal/services"
	"github.com/ceconelo/financaia/internal/session"
	"github.com/ceconelo/financaia/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logCfg := applog.DefaultConfig()
	if cfg.LogFormat == "pretty" {
		logCfg.Handler = applog.PrettyHandler(slog.LevelInfo)
	}
	logger := applog.New(logCfg)
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	// AMQP is optional: without it transaction events stay in SQLite
	// until the worker's pending scan picks them up.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	// Without an API key the offline classifier answers alone.
	var parser ai.Parser = ai.NewKeywordParser()
	if cfg.AnthropicAPIKey != "" {
		parser = ai.WithFallback(
			ai.NewClaudeParser(cfg.AnthropicAPIKey, cfg.AnthropicModel),
			parser,
		)
		logger.Info("AI parser initialized", "model", cfg.AnthropicModel)
	} else {
		logger.Info("AI parser running offline - no ANTHROPIC_API_KEY provided")
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTokenTTL)
	sessions := session.NewStore()

	gamification := services.NewGamificationService(store)
	authSvc := services.NewAuthService(store)
	familySvc := services.NewFamilyService(store)
	planningSvc := services.NewPlanningService(store)
	financeSvc := services.NewFinanceService(store, gamification, amqpClient, tokens, cfg.DashboardBaseURL)

	pipeline := bot.NewPipeline(sessions,
		bot.NewAuthHandler(authSvc),
		bot.NewWizardHandler(planningSvc, sessions),
		bot.NewFinanceHandler(financeSvc, gamification, familySvc),
		bot.NewFamilyHandler(familySvc),
		bot.NewPlanningHandler(planningSvc, sessions),
		bot.NewSystemHandler(financeSvc),
		bot.NewAIHandler(parser, financeSvc, gamification, cfg.AITimeout),
	)

	srv := apphttp.NewServer(":"+cfg.Port, pipeline, financeSvc, gamification)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting financaia server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
