package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"arbigrid/backend/services/market-service/internal/ledger"
)

// StatsRefresher recomputes market statistics.
type StatsRefresher interface {
	RefreshMarketStats(ctx context.Context) ledger.MarketStats
}

// Scheduler runs periodic market maintenance. Recomputing statistics also
// deactivates listings whose window has passed.
type Scheduler struct {
	cron    *cron.Cron
	stats   StatsRefresher
	timeout time.Duration
	logger  *zap.Logger
}

// NewScheduler registers the stats refresh job on spec (standard cron syntax
// or descriptors such as "@every 1m").
func NewScheduler(spec string, stats StatsRefresher, logger *zap.Logger) (*Scheduler, error) {
	cl := cronLogger{logger: logger.Sugar()}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		stats:   stats,
		timeout: 30 * time.Second,
		logger:  logger,
	}
	if _, err := s.cron.AddFunc(spec, s.refreshStats); err != nil {
		return nil, fmt.Errorf("jobs: schedule stats refresh %q: %w", spec, err)
	}
	return s, nil
}

// Run starts the scheduler and blocks until ctx is done and running jobs finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("starting market scheduler", zap.Int("jobs", len(s.cron.Entries())))
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
}

func (s *Scheduler) refreshStats() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	stats := s.stats.RefreshMarketStats(ctx)
	s.logger.Debug("market stats refreshed",
		zap.Int("active_listings", stats.ActiveListings),
		zap.Int("trades", stats.Trades),
	)
}

type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
