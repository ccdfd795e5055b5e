package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventType string

const (
	EventMeeting  EventType = "meeting"
	EventDeadline EventType = "deadline"
	EventReminder EventType = "reminder"
	EventOther    EventType = "other"
)

func (t EventType) Valid() bool {
	switch t {
	case EventMeeting, EventDeadline, EventReminder, EventOther:
		return true
	}
	return false
}

type Event struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	Start       time.Time            `bson:"start" json:"start"`
	End         time.Time            `bson:"end" json:"end"`
	AllDay      bool                 `bson:"allDay" json:"allDay"`
	Type        EventType            `bson:"type" json:"type"`
	Attendees   []primitive.ObjectID `bson:"attendees" json:"attendees"`
	CreatedBy   primitive.ObjectID   `bson:"createdBy" json:"createdBy"`
	Color       string               `bson:"color,omitempty" json:"color,omitempty"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}
