package health

import (
	"context"
	"time"

	"github.com/asimaster/pricerank/internal/domain/ranking"
	"github.com/asimaster/pricerank/internal/domain/shared"
)

// Status is the health rollup of the whole process
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Pinger reports whether the database answers
type Pinger interface {
	Ping(ctx context.Context) error
}

// Report is the health endpoint payload
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]interface{} `json:"checks"`
}

// Service aggregates the database, scheduler and crawl-metrics checks into
// one status. A dead database is unhealthy; a silent crawler or a stopped
// scheduler only degrades.
type Service struct {
	db               Pinger
	crawlLogs        ranking.CrawlLogRepository
	schedulerRunning func() bool
	clock            shared.Clock

	// crawls older than this degrade the status
	staleAfter time.Duration
}

func NewService(db Pinger, crawlLogs ranking.CrawlLogRepository, schedulerRunning func() bool, clock shared.Clock) *Service {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Service{
		db:               db,
		crawlLogs:        crawlLogs,
		schedulerRunning: schedulerRunning,
		clock:            clock,
		staleAfter:       24 * time.Hour,
	}
}

// Check runs every probe and rolls the results up
func (s *Service) Check(ctx context.Context) *Report {
	report := &Report{Status: StatusHealthy, Checks: make(map[string]interface{})}

	if err := s.db.Ping(ctx); err != nil {
		report.Checks["database"] = map[string]interface{}{"ok": false, "error": err.Error()}
		report.Status = StatusUnhealthy
		// Without a database the remaining checks would just repeat the error
		return report
	}
	report.Checks["database"] = map[string]interface{}{"ok": true}

	now := s.clock.Now()
	last, err := s.crawlLogs.LastCreatedAt(ctx)
	switch {
	case err != nil:
		report.Checks["last_crawl_at"] = map[string]interface{}{"ok": false, "error": err.Error()}
		s.degrade(report)
	case last == nil:
		report.Checks["last_crawl_at"] = map[string]interface{}{"ok": true, "value": nil}
	default:
		stale := now.Sub(*last) > s.staleAfter
		report.Checks["last_crawl_at"] = map[string]interface{}{
			"ok":    !stale,
			"value": last.UTC().Format(time.RFC3339),
		}
		if stale {
			s.degrade(report)
		}
	}

	running := s.schedulerRunning != nil && s.schedulerRunning()
	report.Checks["scheduler"] = map[string]interface{}{"ok": running}
	if !running {
		s.degrade(report)
	}

	stats, err := s.crawlLogs.StatsSince(ctx, 0, now.Add(-24*time.Hour))
	if err != nil {
		report.Checks["crawl_metrics_24h"] = map[string]interface{}{"ok": false, "error": err.Error()}
		s.degrade(report)
		return report
	}
	total := stats.Success + stats.Failed
	ok := total == 0 || stats.Failed*2 <= total
	report.Checks["crawl_metrics_24h"] = map[string]interface{}{
		"ok":              ok,
		"success":         stats.Success,
		"failed":          stats.Failed,
		"avg_duration_ms": stats.AvgDurationMs,
	}
	if !ok {
		s.degrade(report)
	}
	return report
}

func (s *Service) degrade(r *Report) {
	if r.Status == StatusHealthy {
		r.Status = StatusDegraded
	}
}
