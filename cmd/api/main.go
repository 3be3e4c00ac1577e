package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Zorochan404/inf-chat/internal/cache"
	"github.com/Zorochan404/inf-chat/internal/config"
	"github.com/Zorochan404/inf-chat/internal/database"
	"github.com/Zorochan404/inf-chat/internal/handlers"
	"github.com/Zorochan404/inf-chat/internal/jobs"
	"github.com/Zorochan404/inf-chat/internal/log"
	"github.com/Zorochan404/inf-chat/internal/realtime"
	"github.com/Zorochan404/inf-chat/internal/repository"
	"github.com/Zorochan404/inf-chat/internal/security"
	"github.com/Zorochan404/inf-chat/internal/server"
	"github.com/Zorochan404/inf-chat/internal/service"
	"github.com/Zorochan404/inf-chat/internal/storage"
	"github.com/Zorochan404/inf-chat/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)
	validation.InstallGin()

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	if err := database.Migrate(ctx, dbPool); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure bucket failed")
	}

	users := repository.NewUserRepository(dbPool)
	chats := repository.NewChatRepository(dbPool)
	groups := repository.NewGroupRepository(dbPool)

	tokens := security.NewTokenIssuer(cfg.Security.JWTSecret, cfg.Security.JWTTTL)
	hasher := security.NewPasswordHasher(cfg.Security.PasswordCost)

	hub := realtime.NewHub(logger)
	presence := realtime.NewRedisPresence(redisClient, cfg.Realtime.PresenceTTL)
	gateway := realtime.NewGateway(hub, presence, users, cfg.Realtime, logger)

	handlerSet := handlers.NewHandlerSet(logger, cfg, handlers.Dependencies{
		Tokens:      tokens,
		Auth:        service.NewAuthService(users, hasher, tokens, cfg, logger),
		Chat:        service.NewChatService(users, chats, hub, cfg, logger),
		Groups:      service.NewGroupService(groups, logger),
		Profiles:    service.NewProfileService(users, logger),
		Attachments: service.NewAttachmentService(objectStore, cfg, logger),
		Gateway:     gateway,
		Checks: []handlers.HealthCheck{
			{Name: "database", Ping: dbPool.Ping},
			{Name: "cache", Ping: cache.Ping(redisClient)},
			{Name: "storage", Ping: objectStore.Ping},
		},
	})
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(users, presence, hub, cfg.Jobs.PresenceSweep, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop(shutdownCtx)

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
