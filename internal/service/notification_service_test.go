package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reuniteapp/reunite-api/internal/models"
	appErrors "github.com/reuniteapp/reunite-api/pkg/errors"
)

type notificationRepoStub struct {
	notifications []*models.Notification
}

func (s *notificationRepoStub) ListByUser(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	var out []models.Notification
	for _, n := range s.notifications {
		if n.UserID != filter.UserID {
			continue
		}
		if filter.Unread != nil && *filter.Unread == n.Read {
			continue
		}
		out = append(out, *n)
	}
	return out, len(out), nil
}

func (s *notificationRepoStub) CountUnread(ctx context.Context, userID string) (int, error) {
	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *notificationRepoStub) MarkRead(ctx context.Context, id, userID string) (bool, error) {
	for _, n := range s.notifications {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return true, nil
		}
	}
	return false, nil
}

func (s *notificationRepoStub) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	var count int64
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}

func newNotificationServiceForTest(notifications ...*models.Notification) (*NotificationService, *notificationRepoStub) {
	repo := &notificationRepoStub{notifications: notifications}
	svc := NewNotificationService(repo, nil, nil)
	return svc, repo
}

func notificationFixture(id, userID string, read bool) *models.Notification {
	return &models.Notification{
		ID:          id,
		UserID:      userID,
		Type:        models.NotificationTypeMatchFound,
		Title:       "Possible match for your lost item",
		Message:     "Your lost item may match a found item",
		LostItemID:  "lost-1",
		FoundItemID: "found-1",
		MatchID:     "match-1",
		MatchScore:  87,
		Read:        read,
	}
}

func TestNotificationServiceList(t *testing.T) {
	svc, _ := newNotificationServiceForTest(
		notificationFixture("n1", "alice", false),
		notificationFixture("n2", "alice", true),
		notificationFixture("n3", "bob", false),
	)

	notifications, pagination, err := svc.List(context.Background(), models.NotificationFilter{UserID: "alice"})
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	assert.Equal(t, 2, pagination.TotalCount)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
}

func TestNotificationServiceListUnreadOnly(t *testing.T) {
	svc, _ := newNotificationServiceForTest(
		notificationFixture("n1", "alice", false),
		notificationFixture("n2", "alice", true),
	)

	unread := true
	notifications, _, err := svc.List(context.Background(), models.NotificationFilter{UserID: "alice", Unread: &unread})
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "n1", notifications[0].ID)
}

func TestNotificationServiceUnreadCount(t *testing.T) {
	svc, _ := newNotificationServiceForTest(
		notificationFixture("n1", "alice", false),
		notificationFixture("n2", "alice", false),
		notificationFixture("n3", "alice", true),
	)

	count, err := svc.UnreadCount(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNotificationServiceMarkRead(t *testing.T) {
	svc, repo := newNotificationServiceForTest(notificationFixture("n1", "alice", false))

	require.NoError(t, svc.MarkRead(context.Background(), "n1", "alice"))
	assert.True(t, repo.notifications[0].Read)

	// Re-marking an already read notification stays a no-op success.
	require.NoError(t, svc.MarkRead(context.Background(), "n1", "alice"))
}

func TestNotificationServiceMarkReadWrongUser(t *testing.T) {
	svc, repo := newNotificationServiceForTest(notificationFixture("n1", "alice", false))

	err := svc.MarkRead(context.Background(), "n1", "mallory")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.False(t, repo.notifications[0].Read)
}

func TestNotificationServiceMarkAllRead(t *testing.T) {
	svc, repo := newNotificationServiceForTest(
		notificationFixture("n1", "alice", false),
		notificationFixture("n2", "alice", false),
		notificationFixture("n3", "bob", false),
	)

	count, err := svc.MarkAllRead(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.True(t, repo.notifications[0].Read)
	assert.True(t, repo.notifications[1].Read)
	assert.False(t, repo.notifications[2].Read)
}
