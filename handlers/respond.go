package handlers

import (
	"encoding/json"
	"net/http"
	"os"

	"taskflow-project/backend/apperrors"
	"taskflow-project/backend/logging"
	"taskflow-project/backend/middleware"
	"taskflow-project/backend/permissions"
)

type errorEnvelope struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			logging.Logger.Errorf("Event ID: RESPONSE_ENCODE_FAILED, Description: %v", err)
		}
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeError translates domain failures into the response envelope. Untyped
// errors are 500 with the message redacted outside development.
func writeError(w http.ResponseWriter, err error) {
	status := apperrors.Status(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logging.Logger.Errorf("Event ID: INTERNAL_ERROR, Description: %v", err)
		if os.Getenv("APP_ENV") != "development" {
			message = "internal server error"
		}
	}
	writeJSON(w, status, errorEnvelope{Message: message})
}

// requireActor pulls the authenticated actor out of the context; a missing
// actor means the route was wired without the auth middleware.
func requireActor(w http.ResponseWriter, r *http.Request) (permissions.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return permissions.Actor{}, false
	}
	return actor, true
}
