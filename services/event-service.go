package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"taskflow-project/backend/apperrors"
	"taskflow-project/backend/models"
	"taskflow-project/backend/permissions"
)

type EventService struct {
	EventsCollection *mongo.Collection
	Notifier         *NotificationService
}

func NewEventService(events *mongo.Collection, notifier *NotificationService) *EventService {
	return &EventService{
		EventsCollection: events,
		Notifier:         notifier,
	}
}

func validateEvent(event *models.Event) error {
	if event.Title == "" {
		return apperrors.NewValidation("event title is required")
	}
	if event.Start.IsZero() || event.End.IsZero() {
		return apperrors.NewValidation("event start and end are required")
	}
	if !event.End.After(event.Start) {
		return apperrors.NewValidation("event end must be after start")
	}
	if event.Type == "" {
		event.Type = models.EventOther
	}
	if !event.Type.Valid() {
		return apperrors.NewValidation("invalid event type: %s", event.Type)
	}
	return nil
}

// CreateEvent inserts an event and invites every attendee.
func (s *EventService) CreateEvent(ctx context.Context, actor permissions.Actor, event models.Event) (*models.Event, error) {
	if err := validateEvent(&event); err != nil {
		return nil, err
	}

	now := time.Now()
	event.ID = primitive.NewObjectID()
	event.CreatedBy = actor.ID
	if event.Attendees == nil {
		event.Attendees = []primitive.ObjectID{}
	}
	event.CreatedAt = now
	event.UpdatedAt = now

	if _, err := s.EventsCollection.InsertOne(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %v", err)
	}

	for _, attendee := range event.Attendees {
		s.Notifier.Dispatch(ctx, attendee.Hex(), models.NotifEventInvite,
			"Event invitation",
			fmt.Sprintf("You have been invited to '%s'.", event.Title),
			map[string]string{"eventId": event.ID.Hex()})
	}

	return &event, nil
}

// ListEvents returns events the actor created or attends; admins see all.
func (s *EventService) ListEvents(ctx context.Context, actor permissions.Actor) ([]models.Event, error) {
	filter := bson.M{}
	if actor.Role != models.RoleAdmin {
		filter["$or"] = []bson.M{
			{"createdBy": actor.ID},
			{"attendees": actor.ID},
		}
	}

	cursor, err := s.EventsCollection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %v", err)
	}
	defer cursor.Close(ctx)

	var events []models.Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %v", err)
	}
	return events, nil
}

// UpdateEvent replaces the mutable fields and notifies the attendee delta:
// EVENT_INVITE to new attendees, EVENT_UPDATED to retained ones.
func (s *EventService) UpdateEvent(ctx context.Context, actor permissions.Actor, eventID primitive.ObjectID, updated models.Event) (*models.Event, error) {
	var event models.Event
	if err := s.EventsCollection.FindOne(ctx, bson.M{"_id": eventID}).Decode(&event); err != nil {
		return nil, apperrors.NewNotFound("event not found")
	}
	if d := permissions.CanManageEvent(actor, &event); !d.Allowed {
		return nil, apperrors.NewForbidden("%s", d.Reason)
	}

	if err := validateEvent(&updated); err != nil {
		return nil, err
	}
	if updated.Attendees == nil {
		updated.Attendees = []primitive.ObjectID{}
	}

	before := make(map[primitive.ObjectID]bool, len(event.Attendees))
	for _, a := range event.Attendees {
		before[a] = true
	}

	set := bson.M{
		"title":       updated.Title,
		"description": updated.Description,
		"start":       updated.Start,
		"end":         updated.End,
		"allDay":      updated.AllDay,
		"type":        updated.Type,
		"attendees":   updated.Attendees,
		"color":       updated.Color,
		"updatedAt":   time.Now(),
	}
	if _, err := s.EventsCollection.UpdateOne(ctx, bson.M{"_id": eventID}, bson.M{"$set": set}); err != nil {
		return nil, fmt.Errorf("failed to update event: %v", err)
	}

	for _, attendee := range updated.Attendees {
		if before[attendee] {
			s.Notifier.Dispatch(ctx, attendee.Hex(), models.NotifEventUpdated,
				"Event updated",
				fmt.Sprintf("The event '%s' has been updated.", updated.Title),
				map[string]string{"eventId": eventID.Hex()})
		} else {
			s.Notifier.Dispatch(ctx, attendee.Hex(), models.NotifEventInvite,
				"Event invitation",
				fmt.Sprintf("You have been invited to '%s'.", updated.Title),
				map[string]string{"eventId": eventID.Hex()})
		}
	}

	var reloaded models.Event
	if err := s.EventsCollection.FindOne(ctx, bson.M{"_id": eventID}).Decode(&reloaded); err != nil {
		return nil, fmt.Errorf("failed to reload event: %v", err)
	}
	return &reloaded, nil
}

// DeleteEvent removes the event and sends EVENT_CANCELLED to every attendee.
func (s *EventService) DeleteEvent(ctx context.Context, actor permissions.Actor, eventID primitive.ObjectID) error {
	var event models.Event
	if err := s.EventsCollection.FindOne(ctx, bson.M{"_id": eventID}).Decode(&event); err != nil {
		return apperrors.NewNotFound("event not found")
	}
	if d := permissions.CanManageEvent(actor, &event); !d.Allowed {
		return apperrors.NewForbidden("%s", d.Reason)
	}

	if _, err := s.EventsCollection.DeleteOne(ctx, bson.M{"_id": eventID}); err != nil {
		return fmt.Errorf("failed to delete event: %v", err)
	}

	for _, attendee := range event.Attendees {
		s.Notifier.Dispatch(ctx, attendee.Hex(), models.NotifEventCancelled,
			"Event cancelled",
			fmt.Sprintf("The event '%s' has been cancelled.", event.Title),
			map[string]string{"eventId": eventID.Hex()})
	}

	return nil
}
