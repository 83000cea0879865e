package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/reuniteapp/reunite-api/internal/models"
	appErrors "github.com/reuniteapp/reunite-api/pkg/errors"
)

const unreadCountCacheTTL = 30 * time.Second

type notificationRepository interface {
	ListByUser(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string) (bool, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// NotificationService exposes a user's notification feed.
type NotificationService struct {
	repo   notificationRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(repo notificationRepository, cache *CacheService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, cache: cache, logger: logger}
}

// List returns the user's notifications plus pagination data.
func (s *NotificationService) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error) {
	notifications, total, err := s.repo.ListByUser(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
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
	return notifications, pagination, nil
}

// UnreadCount returns the number of unread notifications, served from
// a short-lived cache when available.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	key := unreadCountCacheKey(userID)
	if s.cache.Enabled() {
		var cached int
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread notifications")
	}
	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, count, unreadCountCacheTTL); err != nil {
			s.logger.Debug("unread count cache write failed", zap.Error(err))
		}
	}
	return count, nil
}

// MarkRead flags one notification as read for the user.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	changed, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	if !changed {
		return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}
	s.invalidateUnread(ctx, userID)
	return nil
}

// MarkAllRead flags every unread notification for the user and
// returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	count, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	if count > 0 {
		s.invalidateUnread(ctx, userID)
	}
	return count, nil
}

func (s *NotificationService) invalidateUnread(ctx context.Context, userID string) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, unreadCountCacheKey(userID)); err != nil {
		s.logger.Debug("unread count cache invalidation failed",
			zap.String("user_id", userID),
			zap.Error(err))
	}
}

func unreadCountCacheKey(userID string) string {
	return "notifications:unread:" + userID
}
