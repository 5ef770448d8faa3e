package health_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asimaster/pricerank/internal/adapters/persistence"
	"github.com/asimaster/pricerank/internal/application/health"
	"github.com/asimaster/pricerank/internal/domain/ranking"
	"github.com/asimaster/pricerank/internal/domain/shared"
	"github.com/asimaster/pricerank/test/helpers"
)

type fakePinger struct {
	err error
}

func (p *fakePinger) Ping(ctx context.Context) error { return p.err }

func schedulerUp() bool   { return true }
func schedulerDown() bool { return false }

func newHealthFixture(t *testing.T) (*persistence.GormCrawlLogRepository, *shared.MockClock) {
	db := helpers.NewTestDB(t)
	clock := shared.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return persistence.NewGormCrawlLogRepository(db), clock
}

func TestCheck_AllProbesGreen(t *testing.T) {
	crawlLogs, clock := newHealthFixture(t)
	ctx := context.Background()

	require.NoError(t, crawlLogs.Append(ctx, &ranking.CrawlLog{
		KeywordID: 1, Status: "success", DurationMs: 1000, CreatedAt: clock.Now().Add(-time.Hour),
	}))

	svc := health.NewService(&fakePinger{}, crawlLogs, schedulerUp, clock)
	report := svc.Check(ctx)

	assert.Equal(t, health.StatusHealthy, report.Status)
	assert.Contains(t, report.Checks, "database")
	assert.Contains(t, report.Checks, "last_crawl_at")
	assert.Contains(t, report.Checks, "scheduler")
	assert.Contains(t, report.Checks, "crawl_metrics_24h")
}

func TestCheck_DeadDatabaseIsUnhealthy(t *testing.T) {
	crawlLogs, clock := newHealthFixture(t)

	svc := health.NewService(&fakePinger{err: errors.New("connection refused")}, crawlLogs, schedulerUp, clock)
	report := svc.Check(context.Background())

	assert.Equal(t, health.StatusUnhealthy, report.Status)
	// The other probes are skipped when the database is down
	assert.NotContains(t, report.Checks, "scheduler")
}

func TestCheck_StaleCrawlDegrades(t *testing.T) {
	crawlLogs, clock := newHealthFixture(t)
	ctx := context.Background()

	require.NoError(t, crawlLogs.Append(ctx, &ranking.CrawlLog{
		KeywordID: 1, Status: "success", CreatedAt: clock.Now().Add(-25 * time.Hour),
	}))

	svc := health.NewService(&fakePinger{}, crawlLogs, schedulerUp, clock)
	report := svc.Check(ctx)

	assert.Equal(t, health.StatusDegraded, report.Status)
}

func TestCheck_NeverCrawledStaysHealthy(t *testing.T) {
	crawlLogs, clock := newHealthFixture(t)

	svc := health.NewService(&fakePinger{}, crawlLogs, schedulerUp, clock)
	report := svc.Check(context.Background())

	assert.Equal(t, health.StatusHealthy, report.Status)
}

func TestCheck_StoppedSchedulerDegrades(t *testing.T) {
	crawlLogs, clock := newHealthFixture(t)

	svc := health.NewService(&fakePinger{}, crawlLogs, schedulerDown, clock)
	report := svc.Check(context.Background())

	assert.Equal(t, health.StatusDegraded, report.Status)
}

func TestCheck_HighFailureRateDegrades(t *testing.T) {
	crawlLogs, clock := newHealthFixture(t)
	ctx := context.Background()

	// Two of three attempts failed: failed*2 > total
	for _, status := range []string{"success", "failed", "failed"} {
		require.NoError(t, crawlLogs.Append(ctx, &ranking.CrawlLog{
			KeywordID: 1, Status: status, CreatedAt: clock.Now().Add(-time.Hour),
		}))
	}

	svc := health.NewService(&fakePinger{}, crawlLogs, schedulerUp, clock)
	report := svc.Check(ctx)

	assert.Equal(t, health.StatusDegraded, report.Status)

	metrics, ok := report.Checks["crawl_metrics_24h"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, metrics["ok"])
	assert.Equal(t, 1, metrics["success"])
	assert.Equal(t, 2, metrics["failed"])
}

func TestCheck_EvenSplitStaysHealthy(t *testing.T) {
	crawlLogs, clock := newHealthFixture(t)
	ctx := context.Background()

	for _, status := range []string{"success", "failed"} {
		require.NoError(t, crawlLogs.Append(ctx, &ranking.CrawlLog{
			KeywordID: 1, Status: status, CreatedAt: clock.Now().Add(-time.Hour),
		}))
	}

	svc := health.NewService(&fakePinger{}, crawlLogs, schedulerUp, clock)
	assert.Equal(t, health.StatusHealthy, svc.Check(ctx).Status)
}
