//	@title						Airport Badge API
//	@version					1.0
//	@description				Staff badge requests, approval and issuance for airport access control.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/airport-ops/badge-system/docs"
	"github.com/airport-ops/badge-system/internal/api"
	"github.com/airport-ops/badge-system/internal/api/handler"
	"github.com/airport-ops/badge-system/internal/core/policy"
	"github.com/airport-ops/badge-system/internal/core/service"
	mongodb "github.com/airport-ops/badge-system/internal/infrastructure/db/mongo"
	redisdb "github.com/airport-ops/badge-system/internal/infrastructure/db/redis"
	"github.com/airport-ops/badge-system/internal/infrastructure/render"
	"github.com/airport-ops/badge-system/internal/infrastructure/storage"
	"github.com/airport-ops/badge-system/internal/pkg/config"
	"github.com/airport-ops/badge-system/pkg/logger"
)

const serviceName = "badge-system"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{Service: serviceName})
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Development(),
		Service: serviceName,
	})

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("connect mongo")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("disconnect mongo")
		}
	}()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("ensure mongo indexes")
	}

	redisClient, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer redisClient.Close()

	artifacts, err := storage.NewFileStore(cfg.Artifacts.Dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Artifacts.Dir).Msg("open artifact store")
	}
	defer artifacts.Close()

	users := mongodb.NewUserRepository(db)
	requests := mongodb.NewBadgeRequestRepository(db)
	badges := mongodb.NewBadgeRepository(db)
	tx := mongodb.NewTransactor(mongoClient)
	sessions := redisdb.NewSessionStore(redisClient)
	gate := policy.New()

	authSvc := service.NewAuthService(users, sessions, cfg.JWTSecret, cfg.TokenTTL, log)
	userSvc := service.NewUserService(users, requests, badges, artifacts, tx, gate, log)
	requestSvc := service.NewBadgeRequestService(requests, badges, gate, log)
	badgeSvc := service.NewBadgeService(requests, badges, users, render.NewPDFRenderer("Airport Security"), artifacts, tx, gate, log)

	if cfg.Admin.Enabled() {
		created, err := authSvc.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			log.Fatal().Err(err).Msg("seed admin")
		}
		if created {
			log.Info().Str("email", cfg.Admin.Email).Msg("bootstrap admin created")
		}
	}

	docs.SwaggerInfo.Host = "localhost:" + cfg.Port

	e := api.NewRouter(api.Services{
		Auth:     authSvc,
		Users:    userSvc,
		Requests: requestSvc,
		Badges:   badgeSvc,
	}, api.Options{
		Logger: log,
		Gate:   gate,
		Health: map[string]handler.Pinger{
			"mongo": handler.PingFunc(func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }),
			"redis": handler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
		},
		LoginRateLimit: cfg.LoginRateLimit,
		Metrics:        true,
	})

	e.Server.ReadHeaderTimeout = 15 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting badge api")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("stopped")
}
