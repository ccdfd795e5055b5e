package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow-project/backend/models"
)

// memoryStore is a NotificationStore backed by a slice, enough to exercise
// the service without a Cassandra cluster.
type memoryStore struct {
	notifications []models.Notification
	failCreate    bool
}

func (m *memoryStore) Create(_ context.Context, n *models.Notification) error {
	if m.failCreate {
		return errors.New("store unavailable")
	}
	if n.ID == "" {
		n.ID = time.Now().Format(time.RFC3339Nano)
	}
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *memoryStore) ListByUser(_ context.Context, userID string) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memoryStore) MarkRead(_ context.Context, userID, notificationID string, readAt time.Time) (bool, error) {
	for i := range m.notifications {
		if m.notifications[i].UserID == userID && m.notifications[i].ID == notificationID {
			m.notifications[i].IsRead = true
			m.notifications[i].ReadAt = &readAt
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) MarkAllRead(_ context.Context, userID string, readAt time.Time) error {
	for i := range m.notifications {
		if m.notifications[i].UserID == userID {
			m.notifications[i].IsRead = true
			m.notifications[i].ReadAt = &readAt
		}
	}
	return nil
}

func (m *memoryStore) Delete(_ context.Context, userID, notificationID string) (bool, error) {
	for i := range m.notifications {
		if m.notifications[i].UserID == userID && m.notifications[i].ID == notificationID {
			m.notifications = append(m.notifications[:i], m.notifications[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func TestDispatchCreatesNotification(t *testing.T) {
	store := &memoryStore{}
	svc := NewNotificationService(store)

	svc.Dispatch(context.Background(), "user-1", models.NotifTaskAssigned,
		"New task", "You were assigned a task", map[string]string{"taskId": "t1"})

	list, err := svc.ListForUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.NotifTaskAssigned, list[0].Type)
	assert.False(t, list[0].IsRead)
	assert.Equal(t, "t1", list[0].Data["taskId"])
}

func TestDispatchSwallowsStoreFailure(t *testing.T) {
	store := &memoryStore{failCreate: true}
	svc := NewNotificationService(store)

	// Must not panic or propagate: the triggering operation already succeeded.
	svc.Dispatch(context.Background(), "user-1", models.NotifTaskCompleted,
		"Done", "Task completed", nil)

	list, err := svc.ListForUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDispatchSkipsEmptyUser(t *testing.T) {
	store := &memoryStore{}
	svc := NewNotificationService(store)

	svc.Dispatch(context.Background(), "", models.NotifTaskAssigned, "x", "y", nil)
	assert.Empty(t, store.notifications)
}

func TestMarkReadAndDelete(t *testing.T) {
	store := &memoryStore{}
	svc := NewNotificationService(store)
	ctx := context.Background()

	svc.Dispatch(ctx, "user-1", models.NotifEventInvite, "Invite", "Sprint review", nil)
	list, err := svc.ListForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	id := list[0].ID

	found, err := svc.MarkRead(ctx, "user-1", id)
	require.NoError(t, err)
	assert.True(t, found)

	list, _ = svc.ListForUser(ctx, "user-1")
	assert.True(t, list[0].IsRead)
	assert.NotNil(t, list[0].ReadAt)

	// Another user's feed cannot touch this notification.
	found, err = svc.MarkRead(ctx, "user-2", id)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = svc.Delete(ctx, "user-1", id)
	require.NoError(t, err)
	assert.True(t, found)

	list, _ = svc.ListForUser(ctx, "user-1")
	assert.Empty(t, list)
}

func TestMarkAllRead(t *testing.T) {
	store := &memoryStore{}
	svc := NewNotificationService(store)
	ctx := context.Background()

	svc.Dispatch(ctx, "user-1", models.NotifTaskAssigned, "a", "a", nil)
	svc.Dispatch(ctx, "user-1", models.NotifCommentMention, "b", "b", nil)
	svc.Dispatch(ctx, "user-2", models.NotifTaskAssigned, "c", "c", nil)

	require.NoError(t, svc.MarkAllRead(ctx, "user-1"))

	mine, _ := svc.ListForUser(ctx, "user-1")
	for _, n := range mine {
		assert.True(t, n.IsRead)
	}
	theirs, _ := svc.ListForUser(ctx, "user-2")
	require.Len(t, theirs, 1)
	assert.False(t, theirs[0].IsRead)
}
