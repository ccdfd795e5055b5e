package models

import "time"

type NotificationType string

const (
	NotifTaskAssigned   NotificationType = "TASK_ASSIGNED"
	NotifTaskAccepted   NotificationType = "TASK_ACCEPTED"
	NotifTaskCompleted  NotificationType = "TASK_COMPLETED"
	NotifCommentMention NotificationType = "COMMENT_MENTION"
	NotifEventInvite    NotificationType = "EVENT_INVITE"
	NotifEventUpdated   NotificationType = "EVENT_UPDATED"
	NotifEventCancelled NotificationType = "EVENT_CANCELLED"
)

// Notification records are created only by the dispatcher in response to
// domain events, never directly by a client.
type Notification struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	Type      NotificationType  `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Data      map[string]string `json:"data,omitempty"`
	IsRead    bool              `json:"isRead"`
	ReadAt    *time.Time        `json:"readAt,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}
