package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	libdb "arbigrid/backend/libs/db"
	libredis "arbigrid/backend/libs/redis"
	"arbigrid/backend/services/market-service/internal/auth"
	"arbigrid/backend/services/market-service/internal/config"
	httpserver "arbigrid/backend/services/market-service/internal/http"
	"arbigrid/backend/services/market-service/internal/http/handlers"
	"arbigrid/backend/services/market-service/internal/http/middleware"
	"arbigrid/backend/services/market-service/internal/jobs"
	"arbigrid/backend/services/market-service/internal/ledger"
	redisstore "arbigrid/backend/services/market-service/internal/redis"
	"arbigrid/backend/services/market-service/internal/repository"
	"arbigrid/backend/services/market-service/internal/service"
	"arbigrid/backend/services/market-service/internal/ws"
)

const startupTimeout = 30 * time.Second

// App wires market-service dependencies.
type App struct {
	server      *httpserver.Server
	hub         *ws.Hub
	scheduler   *jobs.Scheduler
	bus         *redisstore.EventBus
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph. Postgres and Redis are optional:
// without a DSN the ledger lives in memory only, without a Redis address
// events go straight to this instance's websocket clients.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}
	ledgerOpts := []ledger.Option{ledger.WithFeeAccount(ledger.Account(cfg.Market.PlatformAccount))}
	var svcOpts []service.Option

	checks := map[string]handlers.HealthCheck{}

	book := ledger.New(ledgerOpts...)
	if cfg.Database.DSN != "" {
		sqlDB, err := libdb.NewPostgresDB(cfg.Database.DSN, libdb.PoolOptions{
			MaxOpenConns: cfg.Database.MaxOpenConns,
			ConnLifetime: cfg.Database.ConnLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("app: connect postgres: %w", err)
		}
		a.db = sqlDB
		checks["postgres"] = sqlDB.PingContext

		applied, err := repository.Migrate(sqlDB)
		if err != nil {
			a.Close()
			return nil, err
		}
		logger.Info("market schema migrated", zap.Int("applied", applied))

		repo := repository.NewMarketRepository(sqlDB)
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		snap, err := repo.Load(ctx)
		cancel()
		if err != nil {
			a.Close()
			return nil, err
		}
		if book, err = ledger.Restore(snap, ledgerOpts...); err != nil {
			a.Close()
			return nil, fmt.Errorf("app: restore ledger: %w", err)
		}
		logger.Info("ledger restored",
			zap.Int("listings", len(snap.Listings)),
			zap.Int("transactions", len(snap.Transactions)),
		)
		svcOpts = append(svcOpts, service.WithStore(repo))
	}

	a.hub = ws.NewHub(30*time.Second, logger)
	if cfg.Redis.Addr != "" {
		client, err := libredis.Connect(context.Background(), libredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("app: connect redis: %w", err)
		}
		a.redisClient = client
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		a.bus = redisstore.NewEventBus(client, cfg.Redis.Channel, logger)
		svcOpts = append(svcOpts,
			service.WithStatsCache(redisstore.NewStatsCache(client, cfg.Redis.StatsTTL)),
			service.WithPublisher(a.bus),
		)
	} else {
		svcOpts = append(svcOpts, service.WithPublisher(a.hub))
	}

	marketService := service.NewMarketService(book, logger, svcOpts...)

	scheduler, err := jobs.NewScheduler(cfg.Market.StatsCron, marketService, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.scheduler = scheduler

	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.TokenTTL)
	router := httpserver.NewRouter(httpserver.RouterDeps{
		Market:         handlers.NewMarketHandlers(marketService, ledger.Account(cfg.Market.SettlementAccount), logger),
		MarketFeed:     ws.NewServer(a.hub, 10*time.Second, logger).HandleWS,
		HealthHandler:  handlers.NewHealthHandler(checks),
		AuthMiddleware: middleware.AuthMiddleware(tokens),
	})

	a.server = httpserver.NewServer(
		cfg.HTTPAddress(),
		router,
		logger,
		middleware.RequestIDMiddleware,
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
	)
	return a, nil
}

// Run serves HTTP, the market feed and scheduled jobs until ctx is done or
// one of them fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.server.Run(ctx) })
	g.Go(func() error {
		a.hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		a.scheduler.Run(ctx)
		return nil
	})
	if a.bus != nil {
		g.Go(func() error {
			if err := a.bus.Run(ctx, a.hub.Broadcast); err != nil {
				return fmt.Errorf("app: market event relay: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
