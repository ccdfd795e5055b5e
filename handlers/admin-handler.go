package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskflow-project/backend/logging"
	"taskflow-project/backend/models"
	"taskflow-project/backend/permissions"
	"taskflow-project/backend/services"
)

type AdminHandler struct {
	UserService  *services.UserService
	StatsService *services.StatsService
}

func NewAdminHandler(userService *services.UserService, statsService *services.StatsService) *AdminHandler {
	return &AdminHandler{UserService: userService, StatsService: statsService}
}

func (h *AdminHandler) requireAdmin(w http.ResponseWriter, r *http.Request) (permissions.Actor, bool) {
	actor, ok := requireActor(w, r)
	if !ok {
		return permissions.Actor{}, false
	}
	if decision := permissions.IsAdmin(actor); !decision.Allowed {
		writeMessage(w, http.StatusForbidden, decision.Reason)
		return permissions.Actor{}, false
	}
	return actor, true
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	var req struct {
		Name       string `json:"name"`
		LastName   string `json:"lastName"`
		Email      string `json:"email"`
		Role       string `json:"role"`
		Department string `json:"department"`
		Position   string `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if req.Name == "" || req.Email == "" {
		writeMessage(w, http.StatusBadRequest, "name and email are required")
		return
	}

	user := models.User{
		Name:       req.Name,
		LastName:   req.LastName,
		Email:      req.Email,
		Role:       models.Role(req.Role),
		Department: req.Department,
		Position:   req.Position,
	}
	created, err := h.UserService.CreateUser(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	logging.Logger.Infof("Event ID: USER_CREATED_BY_ADMIN, Description: User %s created by admin %s", created.ID.Hex(), actor.ID.Hex())
	writeJSON(w, http.StatusCreated, created)
}

func (h *AdminHandler) InviteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	token, err := h.UserService.InviteUser(r.Context(), req.Email, models.Role(req.Role))
	if err != nil {
		writeError(w, err)
		return
	}

	logging.Logger.Infof("Event ID: USER_INVITED, Description: Invite for %s issued by admin %s", req.Email, actor.ID.Hex())
	writeJSON(w, http.StatusCreated, map[string]string{
		"message":     "invitation sent",
		"inviteToken": token,
	})
}

func (h *AdminHandler) ListTenants(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	tenants, err := h.UserService.ListTenants(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tenants)
}

func (h *AdminHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	userID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if userID == actor.ID {
		writeMessage(w, http.StatusBadRequest, "admins cannot deactivate themselves")
		return
	}

	if err := h.UserService.DeactivateUser(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}

	logging.Logger.Infof("Event ID: USER_DEACTIVATED, Description: User %s deactivated by admin %s", userID.Hex(), actor.ID.Hex())
	writeMessage(w, http.StatusOK, "user deactivated")
}

func (h *AdminHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	stats, err := h.StatsService.DashboardStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
