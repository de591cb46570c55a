package main

import (
	"context"
	"log"

	"github.com/hellofresh/health-go/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/yakoovad/committee-engine/internal/api"
	"github.com/yakoovad/committee-engine/internal/auth"
	"github.com/yakoovad/committee-engine/internal/cache"
	"github.com/yakoovad/committee-engine/internal/config"
	"github.com/yakoovad/committee-engine/internal/db"
	"github.com/yakoovad/committee-engine/internal/repository"
	"github.com/yakoovad/committee-engine/internal/service"
	"github.com/yakoovad/committee-engine/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	logger, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to create logger: ", err)
	}
	defer logger.Sync()

	logger.Info("starting application")

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err = pool.Ping(ctx); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}

	logger.Info("database connection established")

	if cfg.MigrateOnStart {
		if err = db.Migrate(ctx, pool); err != nil {
			logger.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	checks := []health.Config{api.PostgresCheck(pool)}

	var committeeCache service.CommitteeCache
	if cfg.RedisURL != "" {
		client, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, committee cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			committeeCache = cache.NewCommitteeCache(client, cfg.CacheTTL).WithRedelete(cfg.CacheRedelete)
			checks = append(checks, api.RedisCheck(client))
			logger.Info("committee cache enabled",
				zap.Duration("ttl", cfg.CacheTTL),
				zap.Duration("redelete", cfg.CacheRedelete))
		}
	}

	transactor := db.NewPgxTransactor(pool, cfg.TxTimeout)

	userRepo := repository.NewPgxUserRepository(pool)
	committeeRepo := repository.NewPgxCommitteeRepository(pool)
	memberRepo := repository.NewPgxMemberRepository(pool)
	drawRepo := repository.NewPgxDrawRepository(pool)
	userWiseDrawRepo := repository.NewPgxUserWiseDrawRepository(pool)

	committees := service.NewCommitteeService(transactor).
		WithCommitteeRepo(committeeRepo).
		WithMemberRepo(memberRepo).
		WithDrawRepo(drawRepo).
		WithUserWiseDrawRepo(userWiseDrawRepo).
		WithCache(committeeCache)
	enrollment := service.NewEnrollmentService(transactor).
		WithUserRepo(userRepo).
		WithCommitteeRepo(committeeRepo).
		WithMemberRepo(memberRepo).
		WithDrawRepo(drawRepo).
		WithCache(committeeCache)
	settlements := service.NewSettlementService(transactor).
		WithCommitteeRepo(committeeRepo).
		WithMemberRepo(memberRepo).
		WithDrawRepo(drawRepo).
		WithUserWiseDrawRepo(userWiseDrawRepo).
		WithCache(committeeCache)

	e := echo.New()

	handler := api.NewHandler(logger, auth.NewTokens(cfg.TokenSecret)).
		WithHealthChecker(api.MustNewHealthChecker(checks...)).
		WithCommitteeService(committees).
		WithEnrollmentService(enrollment).
		WithSettlementService(settlements)

	handler.RegisterRoutes(e)

	logger.Info("server starting", zap.String("addr", cfg.HTTPAddr))
	if err = e.Start(cfg.HTTPAddr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
