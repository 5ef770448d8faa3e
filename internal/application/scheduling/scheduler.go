package scheduling

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/asimaster/pricerank/internal/application/crawl"
	"github.com/asimaster/pricerank/internal/domain/catalog"
	"github.com/asimaster/pricerank/internal/domain/shared"
)

// Config holds the scheduler's tick period and retention parameters
type Config struct {
	CheckInterval    time.Duration
	RetentionDays    int
	CleanupBatchSize int
}

// Scheduler drives the periodic crawl ticks and the daily retention sweep on
// a single goroutine pair. Ticks never overlap: a tick runs to completion
// before the next timer fire is honoured, and overdue ticks coalesce into
// one catch-up run.
type Scheduler struct {
	tenants     catalog.TenantRepository
	keywords    catalog.KeywordRepository
	coordinator *crawl.Coordinator
	sweeper     *Sweeper
	clock       shared.Clock
	cfg         Config

	running  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewScheduler(
	tenants catalog.TenantRepository,
	keywords catalog.KeywordRepository,
	coordinator *crawl.Coordinator,
	sweeper *Sweeper,
	clock shared.Clock,
	cfg Config,
) *Scheduler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 10 * time.Minute
	}
	return &Scheduler{
		tenants:     tenants,
		keywords:    keywords,
		coordinator: coordinator,
		sweeper:     sweeper,
		clock:       clock,
		cfg:         cfg,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start runs the tick loop until Stop is called or ctx is cancelled
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx)
}

// Stop signals the loop and waits for the in-flight tick to finish
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

// Running reports whether the tick loop is live. The health endpoint uses it.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

func (s *Scheduler) loop(ctx context.Context) {
	s.running.Store(true)
	defer s.running.Store(false)
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()
	sweepTicker := time.NewTicker(24 * time.Hour)
	defer sweepTicker.Stop()

	log.Printf("[scheduler] started: tick=%s retention=%dd", s.cfg.CheckInterval, s.cfg.RetentionDays)
	for {
		select {
		case <-s.stop:
			log.Printf("[scheduler] stopped")
			return
		case <-ctx.Done():
			log.Printf("[scheduler] context cancelled")
			return
		case <-ticker.C:
			s.Tick(ctx)
		case <-sweepTicker.C:
			if s.sweeper != nil {
				if err := s.sweeper.Sweep(ctx); err != nil {
					log.Printf("[scheduler] retention sweep failed: %v", err)
				}
			}
		}
	}
}

// Tick crawls every due tenant sequentially. A failing tenant is logged and
// the tick moves on; only shutdown or context cancellation aborts the loop.
func (s *Scheduler) Tick(ctx context.Context) {
	tenants, err := s.tenants.ListAll(ctx)
	if err != nil {
		log.Printf("[scheduler] failed to list tenants: %v", err)
		return
	}

	now := s.clock.Now()
	for _, t := range tenants {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		if !t.SchedulingEnabled() {
			continue
		}
		last, err := s.keywords.LatestCrawledAt(ctx, t.ID)
		if err != nil {
			log.Printf("[scheduler] tenant %d: failed to read last crawl: %v", t.ID, err)
			continue
		}
		if !t.Due(last, now) {
			continue
		}

		log.Printf("[scheduler] tenant %d due, starting crawl", t.ID)
		stats, err := s.coordinator.CrawlTenant(ctx, t.ID)
		if err != nil {
			var running *crawl.AlreadyRunningError
			if errors.As(err, &running) {
				log.Printf("[scheduler] tenant %d already running, skipping", t.ID)
			} else {
				log.Printf("[scheduler] tenant %d crawl failed: %v", t.ID, err)
			}
			continue
		}
		log.Printf("[scheduler] tenant %d done: total=%d success=%d failed=%d",
			t.ID, stats.Total, stats.Success, stats.Failed)
	}
}
