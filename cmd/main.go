package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/tournament-stages/config"
	"github.com/Dosada05/tournament-stages/db"
	"github.com/Dosada05/tournament-stages/events"
	"github.com/Dosada05/tournament-stages/handlers"
	"github.com/Dosada05/tournament-stages/migrations"
	"github.com/Dosada05/tournament-stages/repositories"
	api "github.com/Dosada05/tournament-stages/routes"
	"github.com/Dosada05/tournament-stages/rulesets"
	"github.com/Dosada05/tournament-stages/services"
	"github.com/Dosada05/tournament-stages/storage"
)

// @title Tournament Stages API
// @version 1.0
// @description Multi-stage tournament engine: groups, brackets, Swiss rounds, match lifecycle and standings.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort), slog.String("store", string(cfg.StoreDriver)))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var store repositories.Store
	switch cfg.StoreDriver {
	case config.StoreMemory:
		store = repositories.NewMemoryStore()
		logger.Warn("using in-memory store, state is lost on exit")
	default:
		dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second, logger)
		if err != nil {
			logger.Error("failed to connect to database", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := dbConn.Close(); err != nil {
				logger.Error("failed to close database connection", slog.Any("error", err))
			} else {
				logger.Info("database connection closed")
			}
		}()
		if err := migrations.Run(dbConn); err != nil {
			logger.Error("failed to apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
		store = repositories.NewPostgresStore(dbConn, logger)
		logger.Info("database connection established")
	}

	rules := rulesets.Defaults()
	if cfg.RulesetsFile != "" {
		if rules, err = rulesets.Load(cfg.RulesetsFile); err != nil {
			logger.Error("failed to load rule-sets", slog.String("path", cfg.RulesetsFile), slog.Any("error", err))
			os.Exit(1)
		}
	}

	wsHub := events.NewHub(logger)
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	publishers := events.Multi{wsHub}
	if cfg.NATSURL != "" {
		nc, err := events.Connect(cfg.NATSURL)
		if err != nil {
			logger.Error("failed to connect to NATS", slog.Any("error", err))
			os.Exit(1)
		}
		defer nc.Drain()
		publishers = append(publishers, events.NewNATSPublisher(nc, cfg.NATSSubjectPrefix, logger))
		logger.Info("NATS publisher enabled", slog.String("prefix", cfg.NATSSubjectPrefix))
	}

	var uploader storage.FileUploader
	if cfg.ArchiveEnabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		}, logger)
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	}

	tournamentService := services.NewTournamentService(store, rules, logger)
	stageService := services.NewStageService(store, rules, publishers, logger)
	groupService := services.NewGroupService(store, publishers, logger)
	matchService := services.NewMatchService(store, rules, publishers, logger, cfg.DisputeWindow)
	standingsService := services.NewStandingsService(store, rules, publishers, uploader, logger)
	logger.Info("Services initialized")

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Options{
		JWTSecret:      []byte(cfg.JWTSecretKey),
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Logger:         logger,
	}, api.Handlers{
		Tournaments: handlers.NewTournamentHandler(tournamentService),
		Stages:      handlers.NewStageHandler(stageService),
		Groups:      handlers.NewGroupHandler(groupService),
		Standings:   handlers.NewStandingsHandler(standingsService),
		Matches:     handlers.NewMatchHandler(matchService),
		WebSocket:   handlers.NewWebSocketHandler(wsHub, logger),
	})
	logger.Info("Routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	stop()
	logger.Info("application exited")
}
