package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"taskflow-project/backend/services"
)

type NotificationHandler struct {
	NotificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{NotificationService: notificationService}
}

func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	notifications, err := h.NotificationService.ListForUser(r.Context(), actor.ID.Hex())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	notificationID := mux.Vars(r)["id"]

	found, err := h.NotificationService.MarkRead(r.Context(), actor.ID.Hex(), notificationID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeMessage(w, http.StatusNotFound, "notification not found")
		return
	}
	writeMessage(w, http.StatusOK, "notification marked as read")
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	if err := h.NotificationService.MarkAllRead(r.Context(), actor.ID.Hex()); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "all notifications marked as read")
}

func (h *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	notificationID := mux.Vars(r)["id"]

	found, err := h.NotificationService.Delete(r.Context(), actor.ID.Hex(), notificationID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeMessage(w, http.StatusNotFound, "notification not found")
		return
	}
	writeMessage(w, http.StatusOK, "notification deleted")
}
