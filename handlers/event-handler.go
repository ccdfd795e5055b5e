package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskflow-project/backend/logging"
	"taskflow-project/backend/models"
	"taskflow-project/backend/services"
)

type EventHandler struct {
	EventService *services.EventService
}

func NewEventHandler(eventService *services.EventService) *EventHandler {
	return &EventHandler{EventService: eventService}
}

type eventRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	AllDay      bool     `json:"allDay"`
	Type        string   `json:"type"`
	Attendees   []string `json:"attendees"`
	Color       string   `json:"color"`
}

func (req *eventRequest) toModel(w http.ResponseWriter) (models.Event, bool) {
	if req.Title == "" {
		writeMessage(w, http.StatusBadRequest, "event title is required")
		return models.Event{}, false
	}
	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "start must be RFC3339")
		return models.Event{}, false
	}
	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "end must be RFC3339")
		return models.Event{}, false
	}

	event := models.Event{
		Title:       req.Title,
		Description: req.Description,
		Start:       start,
		End:         end,
		AllDay:      req.AllDay,
		Type:        models.EventType(req.Type),
		Color:       req.Color,
	}
	for _, raw := range req.Attendees {
		attendeeID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid attendee id")
			return models.Event{}, false
		}
		event.Attendees = append(event.Attendees, attendeeID)
	}
	return event, true
}

func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	event, ok := req.toModel(w)
	if !ok {
		return
	}

	created, err := h.EventService.CreateEvent(r.Context(), actor, event)
	if err != nil {
		writeError(w, err)
		return
	}

	logging.Logger.Infof("Event ID: CALENDAR_EVENT_CREATED, Description: Event %s created by %s", created.ID.Hex(), actor.ID.Hex())
	writeJSON(w, http.StatusCreated, created)
}

func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	events, err := h.EventService.ListEvents(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	eventID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid event id")
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	event, ok := req.toModel(w)
	if !ok {
		return
	}

	updated, err := h.EventService.UpdateEvent(r.Context(), actor, eventID, event)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	eventID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid event id")
		return
	}

	if err := h.EventService.DeleteEvent(r.Context(), actor, eventID); err != nil {
		writeError(w, err)
		return
	}

	logging.Logger.Infof("Event ID: CALENDAR_EVENT_DELETED, Description: Event %s deleted by %s", eventID.Hex(), actor.ID.Hex())
	writeMessage(w, http.StatusOK, "event deleted")
}
