package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrRateLimited is returned by TriggerSync inside the cooldown window.
var ErrRateLimited = errors.New("rate limit exceeded")

// SyncCooldown is the minimum time between two API triggered syncs.
const SyncCooldown = 30 * time.Second

// SyncResult reports one sync run.
type SyncResult struct {
	ChartsAdded     int       `json:"charts_added"`
	ChartsRemoved   int       `json:"charts_removed"`
	ChartsTotal     int       `json:"charts_total"`
	SyncedAt        time.Time `json:"synced_at"`
	NextScheduledAt time.Time `json:"next_scheduled_at,omitempty"`
}

// SyncService keeps the chart registry in line with remote storage, on a
// schedule and on demand. Runs never overlap.
type SyncService struct {
	registry *ChartRegistry
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	run sync.Mutex // held for the duration of a registry sync

	mu          sync.Mutex
	lastTrigger time.Time
	next        time.Time
	stop        context.CancelFunc
	stopped     chan struct{}
}

// NewSyncService creates a sync service. interval is the schedule used by Start.
func NewSyncService(registry *ChartRegistry, interval time.Duration, logger *slog.Logger) *SyncService {
	return &SyncService{
		registry: registry,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Interval returns the sync interval.
func (s *SyncService) Interval() time.Duration {
	return s.interval
}

// Start runs a sync every interval until ctx ends or Stop is called.
func (s *SyncService) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.stop = cancel
	s.stopped = done
	s.mu.Unlock()

	s.logger.Info("starting sync service", "interval", s.interval)
	go s.schedule(ctx, done)
}

// Stop ends the schedule and waits for a running sync to return.
func (s *SyncService) Stop() {
	s.mu.Lock()
	cancel, done := s.stop, s.stopped
	s.stop, s.stopped = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	s.logger.Info("stopping sync service")
	cancel()
	<-done
}

func (s *SyncService) schedule(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()
	s.setNext(s.now().Add(s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sync service stopped")
			return
		case <-timer.C:
			if _, err := s.sync(ctx); err != nil {
				s.logger.Error("scheduled sync failed", "error", err)
			}
			timer.Reset(s.interval)
			s.setNext(s.now().Add(s.interval))
		}
	}
}

// TriggerSync runs a sync right away. Calls within SyncCooldown of the
// previous accepted call return ErrRateLimited without syncing.
func (s *SyncService) TriggerSync(ctx context.Context) (SyncResult, error) {
	s.mu.Lock()
	now := s.now()
	if !s.lastTrigger.IsZero() && now.Sub(s.lastTrigger) < SyncCooldown {
		s.mu.Unlock()
		return SyncResult{}, ErrRateLimited
	}
	s.lastTrigger = now
	s.mu.Unlock()

	return s.sync(ctx)
}

func (s *SyncService) sync(ctx context.Context) (SyncResult, error) {
	s.run.Lock()
	defer s.run.Unlock()

	stats, err := s.registry.Sync(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	result := SyncResult{
		ChartsAdded:     stats.Added,
		ChartsRemoved:   stats.Removed,
		ChartsTotal:     s.registry.ChartCount(),
		SyncedAt:        s.now(),
		NextScheduledAt: s.nextRun(),
	}
	s.logger.Debug("sync finished",
		"added", result.ChartsAdded,
		"removed", result.ChartsRemoved,
		"total", result.ChartsTotal,
	)
	return result, nil
}

func (s *SyncService) setNext(t time.Time) {
	s.mu.Lock()
	s.next = t
	s.mu.Unlock()
}

func (s *SyncService) nextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
