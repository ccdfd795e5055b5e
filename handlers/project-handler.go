package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskflow-project/backend/logging"
	"taskflow-project/backend/models"
	"taskflow-project/backend/services"
)

type ProjectHandler struct {
	ProjectService *services.ProjectService
}

func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{ProjectService: projectService}
}

func projectIDFromRequest(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid project id")
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Manager     string   `json:"manager"`
		Team        []string `json:"team"`
		Status      string   `json:"status"`
		Priority    string   `json:"priority"`
		StartDate   string   `json:"startDate"`
		EndDate     string   `json:"endDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if req.Name == "" {
		writeMessage(w, http.StatusBadRequest, "project name is required")
		return
	}

	project := models.Project{
		Name:        req.Name,
		Description: req.Description,
		Status:      models.ProjectStatus(req.Status),
		Priority:    models.Priority(req.Priority),
	}
	if req.Manager != "" {
		managerID, err := primitive.ObjectIDFromHex(req.Manager)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid manager id")
			return
		}
		project.Manager = managerID
	}
	for _, raw := range req.Team {
		memberID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid team member id")
			return
		}
		project.Team = append(project.Team, memberID)
	}
	if req.StartDate != "" {
		start, err := time.Parse(time.RFC3339, req.StartDate)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "startDate must be RFC3339")
			return
		}
		project.StartDate = start
	}
	if req.EndDate != "" {
		end, err := time.Parse(time.RFC3339, req.EndDate)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "endDate must be RFC3339")
			return
		}
		project.EndDate = end
	}

	created, err := h.ProjectService.CreateProject(r.Context(), actor, project)
	if err != nil {
		writeError(w, err)
		return
	}

	logging.Logger.Infof("Event ID: PROJECT_CREATED, Description: Project %s created by %s", created.ID.Hex(), actor.ID.Hex())
	writeJSON(w, http.StatusCreated, created)
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}
	projectID, ok := projectIDFromRequest(w, r)
	if !ok {
		return
	}

	project, err := h.ProjectService.GetProjectByID(r.Context(), projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	projects, err := h.ProjectService.ListProjects(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	projectID, ok := projectIDFromRequest(w, r)
	if !ok {
		return
	}

	var updates bson.M
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if len(updates) == 0 {
		writeMessage(w, http.StatusBadRequest, "no fields to update")
		return
	}

	project, err := h.ProjectService.UpdateProject(r.Context(), actor, projectID, updates)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	projectID, ok := projectIDFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.ProjectService.DeleteProject(r.Context(), actor, projectID); err != nil {
		writeError(w, err)
		return
	}

	logging.Logger.Infof("Event ID: PROJECT_DELETED, Description: Project %s deleted by %s", projectID.Hex(), actor.ID.Hex())
	writeMessage(w, http.StatusOK, "project deleted")
}
