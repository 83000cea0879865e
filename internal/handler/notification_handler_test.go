package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reuniteapp/reunite-api/internal/middleware"
	"github.com/reuniteapp/reunite-api/internal/models"
	appErrors "github.com/reuniteapp/reunite-api/pkg/errors"
)

type notificationServiceMock struct {
	listResp    []models.Notification
	listErr     error
	unreadCount int
	markReadErr error
	markedAll   int64

	lastFilter models.NotificationFilter
	lastMarkID string
	lastUserID string
}

func (m *notificationServiceMock) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error) {
	m.lastFilter = filter
	return m.listResp, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: len(m.listResp)}, m.listErr
}

func (m *notificationServiceMock) UnreadCount(ctx context.Context, userID string) (int, error) {
	m.lastUserID = userID
	return m.unreadCount, nil
}

func (m *notificationServiceMock) MarkRead(ctx context.Context, id, userID string) error {
	m.lastMarkID = id
	m.lastUserID = userID
	return m.markReadErr
}

func (m *notificationServiceMock) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	m.lastUserID = userID
	return m.markedAll, nil
}

func TestNotificationHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &notificationServiceMock{
		listResp: []models.Notification{{ID: "notif-1", UserID: "alice", Message: "Your lost report may match a found item"}},
	}
	handler := NewNotificationHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/notifications?unread=true", nil)
	c.Set(middleware.ContextUserKey, memberClaims("alice"))

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", mockSvc.lastFilter.UserID)
	require.NotNil(t, mockSvc.lastFilter.Unread)
	assert.True(t, *mockSvc.lastFilter.Unread)
	assert.Contains(t, w.Body.String(), "notif-1")
}

func TestNotificationHandlerListUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewNotificationHandler(&notificationServiceMock{})

	c, w := newGinContext(http.MethodGet, "/notifications", nil)

	handler.List(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNotificationHandlerUnreadCount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &notificationServiceMock{unreadCount: 4}
	handler := NewNotificationHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/notifications/unread-count", nil)
	c.Set(middleware.ContextUserKey, memberClaims("alice"))

	handler.UnreadCount(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\"unread\":4")
}

func TestNotificationHandlerMarkRead(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &notificationServiceMock{}
	handler := NewNotificationHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/notifications/notif-1/read", nil)
	c.Params = gin.Params{{Key: "id", Value: "notif-1"}}
	c.Set(middleware.ContextUserKey, memberClaims("alice"))

	handler.MarkRead(c)
	// Flush the buffered status the way gin's engine does after the handler
	// chain; without it the recorder never sees the body-less 204.
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "notif-1", mockSvc.lastMarkID)
	assert.Equal(t, "alice", mockSvc.lastUserID)
}

func TestNotificationHandlerMarkReadNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &notificationServiceMock{markReadErr: appErrors.ErrNotFound}
	handler := NewNotificationHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/notifications/missing/read", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	c.Set(middleware.ContextUserKey, memberClaims("alice"))

	handler.MarkRead(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotificationHandlerMarkAllRead(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &notificationServiceMock{markedAll: 3}
	handler := NewNotificationHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/notifications/read-all", nil)
	c.Set(middleware.ContextUserKey, memberClaims("alice"))

	handler.MarkAllRead(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\"updated\":3")
}
