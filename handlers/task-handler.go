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

type TaskHandler struct {
	TaskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{TaskService: taskService}
}

func taskIDFromRequest(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid task id")
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req struct {
		Title          string   `json:"title"`
		Description    string   `json:"description"`
		Project        string   `json:"project"`
		AssignedTo     string   `json:"assignedTo"`
		Priority       string   `json:"priority"`
		DueDate        string   `json:"dueDate"`
		EstimatedHours float64  `json:"estimatedHours"`
		Tags           []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	projectID, err := primitive.ObjectIDFromHex(req.Project)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid project id")
		return
	}
	assigneeID, err := primitive.ObjectIDFromHex(req.AssignedTo)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid assignee id")
		return
	}

	task := models.Task{
		Title:          req.Title,
		Description:    req.Description,
		Project:        projectID,
		AssignedTo:     assigneeID,
		Priority:       models.Priority(req.Priority),
		EstimatedHours: req.EstimatedHours,
		Tags:           req.Tags,
	}
	if req.DueDate != "" {
		due, err := time.Parse(time.RFC3339, req.DueDate)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "dueDate must be RFC3339")
			return
		}
		task.DueDate = &due
	}

	created, err := h.TaskService.CreateTask(r.Context(), actor, task)
	if err != nil {
		writeError(w, err)
		return
	}

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created by %s", created.ID.Hex(), actor.ID.Hex())
	writeJSON(w, http.StatusCreated, created)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	taskID, ok := taskIDFromRequest(w, r)
	if !ok {
		return
	}

	task, err := h.TaskService.GetTaskByID(r.Context(), actor, taskID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var projectID *primitive.ObjectID
	if raw := r.URL.Query().Get("project"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid project id")
			return
		}
		projectID = &id
	}

	tasks, err := h.TaskService.ListTasks(r.Context(), actor, projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	taskID, ok := taskIDFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	task, err := h.TaskService.ChangeTaskStatus(r.Context(), actor, taskID, models.TaskStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}

	logging.Logger.Infof("Event ID: TASK_STATUS_CHANGED, Description: Task %s moved to %s by %s", taskID.Hex(), req.Status, actor.ID.Hex())
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) AcceptTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	taskID, ok := taskIDFromRequest(w, r)
	if !ok {
		return
	}

	task, err := h.TaskService.AcceptTask(r.Context(), actor, taskID)
	if err != nil {
		writeError(w, err)
		return
	}

	logging.Logger.Infof("Event ID: TASK_ACCEPTED, Description: Task %s accepted by %s", taskID.Hex(), actor.ID.Hex())
	writeJSON(w, http.StatusOK, task)
}

type logTimeRequest struct {
	HoursToAdd float64 `json:"hoursToAdd"`
	Session    *struct {
		Start       string `json:"start"`
		End         string `json:"end"`
		Description string `json:"description"`
	} `json:"session"`
}

func (h *TaskHandler) LogTime(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	taskID, ok := taskIDFromRequest(w, r)
	if !ok {
		return
	}

	var req logTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	var session *models.TimeSession
	if req.Session != nil {
		start, err := time.Parse(time.RFC3339, req.Session.Start)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "session start must be RFC3339")
			return
		}
		end, err := time.Parse(time.RFC3339, req.Session.End)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "session end must be RFC3339")
			return
		}
		session = &models.TimeSession{
			Start:       start,
			End:         end,
			Description: req.Session.Description,
		}
	}

	task, err := h.TaskService.LogTime(r.Context(), actor, taskID, req.HoursToAdd, session)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) UpdateChecklist(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	taskID, ok := taskIDFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		Operations []models.ChecklistOp `json:"operations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if len(req.Operations) == 0 {
		writeMessage(w, http.StatusBadRequest, "operations are required")
		return
	}

	task, err := h.TaskService.UpdateChecklist(r.Context(), actor, taskID, req.Operations)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	taskID, ok := taskIDFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if req.Text == "" {
		writeMessage(w, http.StatusBadRequest, "comment text is required")
		return
	}

	task, err := h.TaskService.AddComment(r.Context(), actor, taskID, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	taskID, ok := taskIDFromRequest(w, r)
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

	task, err := h.TaskService.UpdateTask(r.Context(), actor, taskID, updates)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	taskID, ok := taskIDFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.TaskService.DeleteTask(r.Context(), actor, taskID); err != nil {
		writeError(w, err)
		return
	}

	logging.Logger.Infof("Event ID: TASK_DELETED, Description: Task %s deleted by %s", taskID.Hex(), actor.ID.Hex())
	writeMessage(w, http.StatusOK, "task deleted")
}
