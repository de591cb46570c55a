package api

import (
	"context"
	"log"
	"time"

	"github.com/hellofresh/health-go/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type HealthChecker interface {
	HealthCheck() echo.HandlerFunc
}

type healthChecker struct {
	health *health.Health
}

func MustNewHealthChecker(checks ...health.Config) HealthChecker {
	h, err := health.New(health.WithComponent(health.Component{Name: "committee-engine", Version: "v0.1.0"}))
	if err != nil {
		log.Fatal("failed to create health checker:", err)
	}

	for _, check := range checks {
		if err := h.Register(check); err != nil {
			log.Fatal("failed to register health check:", err)
		}
	}

	return &healthChecker{
		health: h,
	}
}

func (h *healthChecker) HealthCheck() echo.HandlerFunc {
	return echo.WrapHandler(h.health.Handler())
}

func PostgresCheck(pool *pgxpool.Pool) health.Config {
	return health.Config{
		Name:      "postgres",
		Timeout:   2 * time.Second,
		SkipOnErr: false,
		Check: func(ctx context.Context) error {
			return errors.Wrap(pool.Ping(ctx), "ping postgres")
		},
	}
}

// RedisCheck does not fail the service: the cache is optional.
func RedisCheck(client *redis.Client) health.Config {
	return health.Config{
		Name:      "redis",
		Timeout:   time.Second,
		SkipOnErr: true,
		Check: func(ctx context.Context) error {
			return errors.Wrap(client.Ping(ctx).Err(), "ping redis")
		},
	}
}
