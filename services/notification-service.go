package services

import (
	"context"
	"time"

	"taskflow-project/backend/logging"
	"taskflow-project/backend/models"
)

// NotificationStore is the persistence boundary for the notification feed.
// The production implementation lives in repositories (Cassandra).
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string, readAt time.Time) (bool, error)
	MarkAllRead(ctx context.Context, userID string, readAt time.Time) error
	Delete(ctx context.Context, userID, notificationID string) (bool, error)
}

type NotificationService struct {
	store NotificationStore
}

func NewNotificationService(store NotificationStore) *NotificationService {
	return &NotificationService{store: store}
}

// Dispatch creates one notification record, fire-and-forget: a store failure
// is logged and swallowed so it can never abort the domain operation that
// triggered it.
func (ns *NotificationService) Dispatch(ctx context.Context, userID string, notifType models.NotificationType, title, message string, data map[string]string) {
	if userID == "" {
		logging.Logger.Warnf("Event ID: NOTIFICATION_SKIPPED, Description: Dispatch called without a target user for type %s", notifType)
		return
	}
	n := &models.Notification{
		UserID:    userID,
		Type:      notifType,
		Title:     title,
		Message:   message,
		Data:      data,
		IsRead:    false,
		CreatedAt: time.Now(),
	}
	if err := ns.store.Create(ctx, n); err != nil {
		logging.Logger.Errorf("Event ID: NOTIFICATION_CREATE_FAILED, Description: Failed to create %s notification for user %s: %v", notifType, userID, err)
		return
	}
	logging.Logger.Infof("Event ID: NOTIFICATION_CREATED, Description: %s notification created for user %s", notifType, userID)
}

func (ns *NotificationService) ListForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	return ns.store.ListByUser(ctx, userID)
}

func (ns *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) (bool, error) {
	return ns.store.MarkRead(ctx, userID, notificationID, time.Now())
}

func (ns *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return ns.store.MarkAllRead(ctx, userID, time.Now())
}

func (ns *NotificationService) Delete(ctx context.Context, userID, notificationID string) (bool, error) {
	return ns.store.Delete(ctx, userID, notificationID)
}
