package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"arbigrid/backend/services/market-service/internal/ledger"
)

type countingRefresher struct {
	calls atomic.Int32
}

func (c *countingRefresher) RefreshMarketStats(context.Context) ledger.MarketStats {
	c.calls.Add(1)
	return ledger.MarketStats{}
}

func TestSchedulerRefreshesStats(t *testing.T) {
	refresher := &countingRefresher{}
	s, err := NewScheduler("@every 1s", refresher, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return refresher.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	_, err := NewScheduler("every minute", &countingRefresher{}, zap.NewNop())
	require.Error(t, err)
}

func TestRefreshStatsJob(t *testing.T) {
	refresher := &countingRefresher{}
	s, err := NewScheduler("@hourly", refresher, zap.NewNop())
	require.NoError(t, err)

	s.refreshStats()
	assert.Equal(t, int32(1), refresher.calls.Load())
}
