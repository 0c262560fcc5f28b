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

	"github.com/Dosada05/dart-tournament/brackets"
	"github.com/Dosada05/dart-tournament/config"
	"github.com/Dosada05/dart-tournament/db"
	"github.com/Dosada05/dart-tournament/handlers"
	"github.com/Dosada05/dart-tournament/repositories"
	api "github.com/Dosada05/dart-tournament/routes"
	"github.com/Dosada05/dart-tournament/services"
	"github.com/Dosada05/dart-tournament/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("driver", cfg.DatabaseDriver),
		slog.String("bye_policy", string(cfg.ByePolicy)),
		slog.Bool("auto_activate", cfg.AutoActivate))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Connect(cfg.DatabaseDriver, cfg.DatabaseURL, 5*time.Second)
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
	logger.Info("database connection established")

	if err := db.Migrate(ctx, dbConn, cfg.DatabaseDriver); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database schema up to date")

	var cache services.BracketCache
	if cfg.Redis.URL != "" {
		redisClient, err := storage.NewRedisClient(storage.RedisConfig{
			URL:      cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Error("failed to configure redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer redisClient.Close()
		redisCache := storage.NewRedisBracketCache(redisClient, cfg.Redis.TTL)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, bracket cache reads will fall through", slog.Any("error", err))
		}
		cache = redisCache
		logger.Info("redis bracket cache enabled", slog.Duration("ttl", cfg.Redis.TTL))
	}

	var archiver services.BracketArchiver
	if cfg.R2.Enabled() {
		uploader, err := storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2Config{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.BucketName,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		archiver = storage.NewBracketArchiver(uploader, logger)
		logger.Info("Cloudflare R2 bracket archive enabled")
	}

	wsHub := brackets.NewHub(logger)
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	dialect := repositories.Dialect(cfg.DatabaseDriver)
	playerRepo := repositories.NewPlayerRepository(dbConn, dialect)
	tournamentRepo := repositories.NewTournamentRepository(dbConn, dialect)
	participantRepo := repositories.NewParticipantRepository(dbConn, dialect)
	matchRepo := repositories.NewMatchRepository(dbConn, dialect)
	historyRepo := repositories.NewScoreHistoryRepository(dbConn, dialect)
	tx := repositories.NewTransactor(dbConn, logger)

	opts := services.EngineOptions{
		ByePolicy:    cfg.ByePolicy,
		BaseTime:     cfg.MatchBaseTime,
		AutoActivate: cfg.AutoActivate,
	}
	bracketService := services.NewBracketService(tournamentRepo, participantRepo, matchRepo, playerRepo, cache, logger)
	playerService := services.NewPlayerService(playerRepo, logger)
	tournamentService := services.NewTournamentService(tx, tournamentRepo, participantRepo, playerRepo, matchRepo,
		bracketService, wsHub, cache, archiver, opts, logger)
	matchService := services.NewMatchService(tx, matchRepo, tournamentRepo, participantRepo, playerRepo, historyRepo,
		bracketService, wsHub, cache, archiver, opts, logger)

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Health:     handlers.NewHealthHandler(dbConn),
		Player:     handlers.NewPlayerHandler(playerService),
		Tournament: handlers.NewTournamentHandler(tournamentService, matchService, bracketService),
		Match:      handlers.NewMatchHandler(matchService),
		WebSocket:  handlers.NewWebSocketHandler(wsHub, tournamentService, cfg.CORSAllowedOrigins, logger),
	}, cfg.CORSAllowedOrigins, logger)

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

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
