package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/reuniteapp/reunite-api/internal/matching"
	"github.com/reuniteapp/reunite-api/internal/models"
	appErrors "github.com/reuniteapp/reunite-api/pkg/errors"
	"github.com/reuniteapp/reunite-api/pkg/jobs"
)

// JobTypeMatchItem is the queue job type for asynchronous matching
// passes.
const JobTypeMatchItem = "match.item"

const openPoolCacheKeyPrefix = "items:open:"

type matchItemStore interface {
	FindByID(ctx context.Context, id string) (*models.Item, error)
	ListOpenByType(ctx context.Context, t models.ItemType) ([]models.Item, error)
	UpdateEnrichment(ctx context.Context, id string, keywords []string, normalizedLocation string) error
}

type matchStore interface {
	Insert(ctx context.Context, record *models.MatchRecord) (bool, error)
	Exists(ctx context.Context, lostItemID, foundItemID string) (bool, error)
	ListForItem(ctx context.Context, itemID string) ([]models.MatchRecord, error)
}

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
}

// MatchResult is one ranked candidate of a pass together with its
// dispatch outcome.
type MatchResult struct {
	Item      *models.Item          `json:"item"`
	Score     int                   `json:"score"`
	Breakdown models.MatchBreakdown `json:"breakdown"`
	MatchID   string                `json:"match_id,omitempty"`
	Created   bool                  `json:"created"`
}

// MatchPassResult summarizes one completed matching pass.
type MatchPassResult struct {
	ItemID               string        `json:"item_id"`
	PoolSize             int           `json:"pool_size"`
	Matches              []MatchResult `json:"matches"`
	NotificationsCreated int           `json:"notifications_created"`
}

// MatcherServiceConfig carries the tunables of a pass.
type MatcherServiceConfig struct {
	PoolCacheTTL time.Duration
}

// MatcherService runs the matching pass for a report: enrich the item,
// rank the opposite open pool, then record matches and notify both
// owners. A pass may be triggered twice for the same item (once by the
// server on creation, once by the client right after); the conditional
// match insert makes the duplicate run converge to a no-op.
type MatcherService struct {
	items         matchItemStore
	matches       matchStore
	notifications notificationStore
	finder        *matching.Finder
	extractor     *matching.Extractor
	cache         *CacheService
	metrics       *MetricsService
	logger        *zap.Logger
	cfg           MatcherServiceConfig
}

// NewMatcherService constructs a MatcherService.
func NewMatcherService(items matchItemStore, matches matchStore, notifications notificationStore, finder *matching.Finder, extractor *matching.Extractor, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg MatcherServiceConfig) *MatcherService {
	if finder == nil {
		finder = matching.NewFinder(nil, 0, 0)
	}
	if extractor == nil {
		extractor = matching.NewExtractor(nil, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PoolCacheTTL <= 0 {
		cfg.PoolCacheTTL = 30 * time.Second
	}
	return &MatcherService{
		items:         items,
		matches:       matches,
		notifications: notifications,
		finder:        finder,
		extractor:     extractor,
		cache:         cache,
		metrics:       metrics,
		logger:        logger,
		cfg:           cfg,
	}
}

// ProcessItem runs the full pass for the given item id. Pool read
// failures abort the pass; a single candidate's dispatch failure is
// logged and the remaining candidates still run.
func (s *MatcherService) ProcessItem(ctx context.Context, itemID string) (*MatchPassResult, error) {
	start := time.Now()

	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load item")
	}
	if item.Status != models.ItemStatusOpen {
		s.logger.Info("skipping matching pass for closed item",
			zap.String("item_id", item.ID),
			zap.String("status", string(item.Status)))
		return &MatchPassResult{ItemID: item.ID}, nil
	}

	s.enrich(ctx, item)

	pool, err := s.openPool(ctx, item.Type.Opposite())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load open item pool")
	}

	candidates := make([]*models.Item, 0, len(pool))
	for i := range pool {
		candidates = append(candidates, &pool[i])
	}

	result := &MatchPassResult{ItemID: item.ID, PoolSize: len(pool)}
	ranked := s.finder.Rank(item, candidates, time.Now().UTC())
	created := 0
	duplicates := 0
	for _, cand := range ranked {
		res, duplicate := s.dispatch(ctx, item, cand)
		result.Matches = append(result.Matches, res)
		if duplicate {
			duplicates++
		}
		if res.Created {
			created++
			result.NotificationsCreated += s.notifyOwners(ctx, item, cand, res.MatchID)
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveMatchPass(time.Since(start), created, duplicates, result.NotificationsCreated)
	}
	s.logger.Info("matching pass complete",
		zap.String("item_id", item.ID),
		zap.Int("pool_size", result.PoolSize),
		zap.Int("matches", len(result.Matches)),
		zap.Int("notifications_created", result.NotificationsCreated))
	return result, nil
}

// Preview ranks the pool for an item without writing anything.
func (s *MatcherService) Preview(ctx context.Context, itemID string) ([]MatchResult, error) {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load item")
	}
	pool, err := s.openPool(ctx, item.Type.Opposite())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load open item pool")
	}
	candidates := make([]*models.Item, 0, len(pool))
	for i := range pool {
		candidates = append(candidates, &pool[i])
	}
	ranked := s.finder.Rank(item, candidates, time.Now().UTC())
	out := make([]MatchResult, 0, len(ranked))
	for _, cand := range ranked {
		out = append(out, MatchResult{Item: cand.Item, Score: cand.Score, Breakdown: cand.Breakdown})
	}
	return out, nil
}

// ListMatches returns the stored matches an item participates in.
func (s *MatcherService) ListMatches(ctx context.Context, itemID string) ([]models.MatchRecord, error) {
	records, err := s.matches.ListForItem(ctx, itemID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list matches")
	}
	return records, nil
}

// enrich recomputes the derived keyword and location fields and writes
// them back when they changed. Re-running it over the same source text
// is a no-op. A failed write-back only degrades the stored copy; the
// in-memory item carries the fresh values through the rest of the
// pass.
func (s *MatcherService) enrich(ctx context.Context, item *models.Item) {
	keywords := s.extractor.Keywords(item.SearchText())
	normalized := matching.NormalizeLocation(item.Location)
	if stringSlicesEqual(item.Keywords, keywords) && item.NormalizedLocation == normalized {
		return
	}
	item.Keywords = keywords
	item.NormalizedLocation = normalized
	if err := s.items.UpdateEnrichment(ctx, item.ID, keywords, normalized); err != nil {
		s.logger.Warn("failed to store item enrichment",
			zap.String("item_id", item.ID),
			zap.Error(err))
	}
}

// openPool reads the opposite-type pool, through the cache when one is
// configured. Cache failures fall back to the repository; only the
// repository read is authoritative enough to abort a pass.
func (s *MatcherService) openPool(ctx context.Context, t models.ItemType) ([]models.Item, error) {
	key := openPoolCacheKey(t)
	if s.cache.Enabled() {
		var cached []models.Item
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}
	pool, err := s.items.ListOpenByType(ctx, t)
	if err != nil {
		return nil, err
	}
	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, pool, s.cfg.PoolCacheTTL); err != nil {
			s.logger.Debug("open pool cache write failed", zap.Error(err))
		}
	}
	return pool, nil
}

// dispatch runs the dedup guard and the conditional match insert for
// one ranked candidate. Errors never propagate; the pass is
// best-effort per candidate. The second return reports whether the
// pair was suppressed because it already exists.
func (s *MatcherService) dispatch(ctx context.Context, subject *models.Item, cand matching.Candidate) (MatchResult, bool) {
	res := MatchResult{Item: cand.Item, Score: cand.Score, Breakdown: cand.Breakdown}

	lost, found := subject, cand.Item
	if subject.Type == models.ItemTypeFound {
		lost, found = cand.Item, subject
	}

	if lost.OwnerID == found.OwnerID {
		s.logger.Debug("skipping match between items of the same owner",
			zap.String("lost_item_id", lost.ID),
			zap.String("found_item_id", found.ID))
		return res, false
	}

	exists, err := s.matches.Exists(ctx, lost.ID, found.ID)
	if err != nil {
		s.logger.Warn("match dedup check failed",
			zap.String("lost_item_id", lost.ID),
			zap.String("found_item_id", found.ID),
			zap.Error(err))
	} else if exists {
		return res, true
	}

	record := &models.MatchRecord{
		LostItemID:  lost.ID,
		FoundItemID: found.ID,
		Score:       cand.Score,
		MatchedOn:   cand.Breakdown,
	}
	created, err := s.matches.Insert(ctx, record)
	if err != nil {
		s.logger.Warn("match insert failed",
			zap.String("lost_item_id", lost.ID),
			zap.String("found_item_id", found.ID),
			zap.Error(err))
		return res, false
	}
	if !created {
		s.logger.Debug("match pair already recorded by a concurrent pass",
			zap.String("lost_item_id", lost.ID),
			zap.String("found_item_id", found.ID))
		return res, true
	}
	res.Created = true
	res.MatchID = record.ID
	return res, false
}

// notifyOwners persists one notification per owner of a freshly
// created match. Each write failure is logged and skipped so the other
// owner still hears about the match.
func (s *MatcherService) notifyOwners(ctx context.Context, subject *models.Item, cand matching.Candidate, matchID string) int {
	lost, found := subject, cand.Item
	if subject.Type == models.ItemTypeFound {
		lost, found = cand.Item, subject
	}

	notifications := []models.Notification{
		{
			UserID:       lost.OwnerID,
			Title:        "Possible match for your lost item",
			Message:      fmt.Sprintf("Your lost item %q may match a found item %q (score %d).", lost.Title, found.Title, cand.Score),
			LostItemID:   lost.ID,
			FoundItemID:  found.ID,
			MatchID:      matchID,
			MatchScore:   cand.Score,
			MatchDetails: cand.Breakdown,
		},
		{
			UserID:       found.OwnerID,
			Title:        "Possible match for your found item",
			Message:      fmt.Sprintf("Your found item %q may match the lost item report %q (score %d).", found.Title, lost.Title, cand.Score),
			LostItemID:   lost.ID,
			FoundItemID:  found.ID,
			MatchID:      matchID,
			MatchScore:   cand.Score,
			MatchDetails: cand.Breakdown,
		},
	}

	created := 0
	for i := range notifications {
		n := &notifications[i]
		if err := s.notifications.Create(ctx, n); err != nil {
			s.logger.Warn("notification create failed",
				zap.String("match_id", matchID),
				zap.String("user_id", n.UserID),
				zap.Error(err))
			continue
		}
		created++
		if s.cache.Enabled() {
			_ = s.cache.Invalidate(ctx, unreadCountCacheKey(n.UserID))
		}
	}
	return created
}

func openPoolCacheKey(t models.ItemType) string {
	return openPoolCacheKeyPrefix + string(t)
}

func stringSlicesEqual(a []string, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// MatchWorker bridges queue jobs to the matcher service.
type MatchWorker struct {
	matcher *MatcherService
	logger  *zap.Logger
}

// NewMatchWorker constructs a worker.
func NewMatchWorker(matcher *MatcherService, logger *zap.Logger) *MatchWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchWorker{matcher: matcher, logger: logger}
}

// Handle processes a queue job. Returning the error lets the queue
// apply its retry policy for transient failures.
func (w *MatchWorker) Handle(ctx context.Context, job jobs.Job) error {
	result, err := w.matcher.ProcessItem(ctx, job.ID)
	if err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrNotFound.Code {
			w.logger.Warn("dropping matching job for missing item", zap.String("item_id", job.ID))
			return nil
		}
		return err
	}
	w.logger.Debug("matching job finished",
		zap.String("item_id", job.ID),
		zap.Int("matches", len(result.Matches)),
		zap.Int("notifications", result.NotificationsCreated))
	return nil
}
