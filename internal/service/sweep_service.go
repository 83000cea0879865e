package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/reuniteapp/reunite-api/internal/models"
)

type sweepItemStore interface {
	MarkExpired(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
}

// SweepConfig tunes the expiry sweeper.
type SweepConfig struct {
	Interval  time.Duration
	BatchSize int
}

// SweepService transitions reports whose expiry has passed to EXPIRED.
// The matcher already skips expired candidates per pass, so the sweep
// is housekeeping that keeps listings and the stored status honest.
type SweepService struct {
	repo    sweepItemStore
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	cfg     SweepConfig
}

// NewSweepService constructs the sweeper.
func NewSweepService(repo sweepItemStore, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg SweepConfig) *SweepService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	return &SweepService{repo: repo, cache: cache, metrics: metrics, logger: logger, cfg: cfg}
}

// Start boots a goroutine that sweeps on the configured interval.
func (s *SweepService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.SweepOnce(ctx); err != nil {
					s.logger.Warn("expiry sweep failed", zap.Error(err))
				}
			}
		}
	}()
}

// SweepOnce expires overdue items in batches until none remain and
// returns how many rows were transitioned.
func (s *SweepService) SweepOnce(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	total := 0
	for {
		ids, err := s.repo.MarkExpired(ctx, now, s.cfg.BatchSize)
		if err != nil {
			return total, err
		}
		total += len(ids)
		if len(ids) < s.cfg.BatchSize {
			break
		}
	}
	if total > 0 {
		if s.metrics != nil {
			s.metrics.RecordItemsExpired(total)
		}
		if s.cache != nil {
			_ = s.cache.Invalidate(ctx, openPoolCacheKey(models.ItemTypeLost))
			_ = s.cache.Invalidate(ctx, openPoolCacheKey(models.ItemTypeFound))
		}
		s.logger.Info("expired overdue items", zap.Int("count", total))
	}
	return total, nil
}
