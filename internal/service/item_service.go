package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/reuniteapp/reunite-api/internal/models"
	appErrors "github.com/reuniteapp/reunite-api/pkg/errors"
	"github.com/reuniteapp/reunite-api/pkg/jobs"
)

type itemRepository interface {
	Create(ctx context.Context, item *models.Item) error
	FindByID(ctx context.Context, id string) (*models.Item, error)
	List(ctx context.Context, filter models.ItemFilter) ([]models.Item, int, error)
	UpdateStatus(ctx context.Context, id string, status models.ItemStatus) (bool, error)
}

// CreateItemRequest represents payload for posting a report.
type CreateItemRequest struct {
	Type        models.ItemType `json:"type" validate:"required,oneof=LOST FOUND"`
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Category    string          `json:"category" validate:"max=100"`
	Location    string          `json:"location" validate:"max=200"`
	ExpiresAt   *time.Time      `json:"expires_at"`
}

// ItemServiceConfig carries item lifecycle tunables.
type ItemServiceConfig struct {
	DefaultTTL time.Duration
}

// ItemService orchestrates report lifecycle operations. Creating a
// report also enqueues the asynchronous matching pass; clients may
// trigger a second pass themselves right after, which the matcher
// tolerates.
type ItemService struct {
	repo      itemRepository
	queue     jobDispatcher
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ItemServiceConfig
}

// NewItemService constructs an ItemService.
func NewItemService(repo itemRepository, queue jobDispatcher, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg ItemServiceConfig) *ItemService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 60 * 24 * time.Hour
	}
	return &ItemService{repo: repo, queue: queue, cache: cache, validator: validate, logger: logger, cfg: cfg}
}

// Create persists a new report and schedules its matching pass.
func (s *ItemService) Create(ctx context.Context, req CreateItemRequest, ownerID string) (*models.Item, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid item payload")
	}

	now := time.Now().UTC()
	expiresAt := now.Add(s.cfg.DefaultTTL)
	if req.ExpiresAt != nil {
		if req.ExpiresAt.Before(now) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "expires_at must be in the future")
		}
		expiresAt = req.ExpiresAt.UTC()
	}

	item := &models.Item{
		Type:        req.Type,
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		Status:      models.ItemStatusOpen,
		ExpiresAt:   expiresAt,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create item")
	}

	s.invalidatePool(ctx, item.Type)

	if s.queue != nil {
		if err := s.queue.Enqueue(jobs.Job{ID: item.ID, Type: JobTypeMatchItem}); err != nil {
			s.logger.Warn("failed to enqueue matching pass",
				zap.String("item_id", item.ID),
				zap.Error(err))
		}
	}
	return item, nil
}

// Get returns an item by id.
func (s *ItemService) Get(ctx context.Context, id string) (*models.Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load item")
	}
	return item, nil
}

// List returns items plus pagination data.
func (s *ItemService) List(ctx context.Context, filter models.ItemFilter) ([]models.Item, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list items")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return items, pagination, nil
}

// Resolve closes an open report. Only the owner or an admin may do it;
// resolving an already closed report fails with a conflict.
func (s *ItemService) Resolve(ctx context.Context, id, actorID string, role models.UserRole) (*models.Item, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != actorID && role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}
	changed, err := s.repo.UpdateStatus(ctx, id, models.ItemStatusResolved)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve item")
	}
	if !changed {
		return nil, appErrors.Clone(appErrors.ErrReportClosed, "item is no longer open")
	}
	item.Status = models.ItemStatusResolved
	s.invalidatePool(ctx, item.Type)
	return item, nil
}

func (s *ItemService) invalidatePool(ctx context.Context, t models.ItemType) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, openPoolCacheKey(t)); err != nil {
		s.logger.Debug("open pool cache invalidation failed",
			zap.String("type", string(t)),
			zap.Error(err))
	}
}
