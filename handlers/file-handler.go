package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskflow-project/backend/logging"
	"taskflow-project/backend/services"
)

type FileHandler struct {
	FileService *services.FileService
}

func NewFileHandler(fileService *services.FileService) *FileHandler {
	return &FileHandler{FileService: fileService}
}

func (h *FileHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid task id")
		return
	}

	if err := r.ParseMultipartForm(services.MaxUploadSize); err != nil {
		writeMessage(w, http.StatusBadRequest, "file exceeds the upload limit")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	attachment, err := h.FileService.SaveAttachment(r.Context(), actor, taskID, file, header)
	if err != nil {
		writeError(w, err)
		return
	}

	logging.Logger.Infof("Event ID: FILE_UPLOADED, Description: File %s uploaded to task %s by %s", attachment.FileName, taskID.Hex(), actor.ID.Hex())
	writeJSON(w, http.StatusCreated, attachment)
}

func (h *FileHandler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	taskID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid task id")
		return
	}

	if err := h.FileService.DeleteAttachment(r.Context(), actor, taskID, vars["attachmentId"]); err != nil {
		writeError(w, err)
		return
	}

	logging.Logger.Infof("Event ID: FILE_DELETED, Description: Attachment %s removed from task %s by %s", vars["attachmentId"], taskID.Hex(), actor.ID.Hex())
	writeMessage(w, http.StatusOK, "attachment deleted")
}

func (h *FileHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	path, err := h.FileService.ResolveFile(r.Context(), actor, mux.Vars(r)["filename"])
	if err != nil {
		writeError(w, err)
		return
	}
	http.ServeFile(w, r, path)
}
