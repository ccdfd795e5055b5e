package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"taskflow-project/backend/apperrors"
	"taskflow-project/backend/logging"
	"taskflow-project/backend/models"
	"taskflow-project/backend/permissions"
)

// MaxUploadSize caps a single attachment at 10 MB.
const MaxUploadSize = 10 << 20

var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".pdf": true, ".doc": true, ".docx": true,
	".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true,
	".txt": true,
}

type FileService struct {
	TasksCollection *mongo.Collection
	UploadDir       string
	BaseURL         string
}

func NewFileService(tasks *mongo.Collection, uploadDir, baseURL string) *FileService {
	return &FileService{
		TasksCollection: tasks,
		UploadDir:       uploadDir,
		BaseURL:         strings.TrimRight(baseURL, "/"),
	}
}

// SaveAttachment writes the uploaded file to disk under a uuid name and
// appends its metadata to the task. A partially written file is removed
// before the error is returned.
func (s *FileService) SaveAttachment(ctx context.Context, actor permissions.Actor, taskID primitive.ObjectID, file multipart.File, header *multipart.FileHeader) (*models.Attachment, error) {
	var task models.Task
	if err := s.TasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task); err != nil {
		return nil, apperrors.NewNotFound("task not found")
	}
	if d := permissions.CanUploadTaskFile(actor, &task); !d.Allowed {
		return nil, apperrors.NewForbidden("%s", d.Reason)
	}

	if header.Size > MaxUploadSize {
		return nil, apperrors.NewValidation("file exceeds the 10MB limit")
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		return nil, apperrors.NewValidation("file type '%s' is not allowed", ext)
	}

	if err := os.MkdirAll(s.UploadDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to prepare upload directory: %v", err)
	}

	storedName := uuid.New().String() + ext
	destPath := filepath.Join(s.UploadDir, storedName)

	dest, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %v", err)
	}

	written, err := io.Copy(dest, io.LimitReader(file, MaxUploadSize+1))
	closeErr := dest.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written > MaxUploadSize {
		err = apperrors.NewValidation("file exceeds the 10MB limit")
	}
	if err != nil {
		if rmErr := os.Remove(destPath); rmErr != nil {
			logging.Logger.Warnf("Event ID: UPLOAD_CLEANUP_FAILED, Description: Could not remove partial file %s: %v", destPath, rmErr)
		}
		return nil, err
	}

	attachment := models.Attachment{
		ID:          uuid.New().String(),
		FileName:    header.Filename,
		StoredName:  storedName,
		Size:        written,
		ContentType: header.Header.Get("Content-Type"),
		URL:         s.BaseURL + "/api/files/" + storedName,
		UploadedBy:  actor.ID,
		UploadedAt:  time.Now(),
	}

	update := bson.M{
		"$push": bson.M{"attachments": attachment},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	if _, err := s.TasksCollection.UpdateOne(ctx, bson.M{"_id": taskID}, update); err != nil {
		if rmErr := os.Remove(destPath); rmErr != nil {
			logging.Logger.Warnf("Event ID: UPLOAD_CLEANUP_FAILED, Description: Could not remove orphaned file %s: %v", destPath, rmErr)
		}
		return nil, fmt.Errorf("failed to record attachment: %v", err)
	}

	return &attachment, nil
}

// DeleteAttachment removes the metadata record and the stored file.
func (s *FileService) DeleteAttachment(ctx context.Context, actor permissions.Actor, taskID primitive.ObjectID, attachmentID string) error {
	var task models.Task
	if err := s.TasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task); err != nil {
		return apperrors.NewNotFound("task not found")
	}

	var attachment *models.Attachment
	for i := range task.Attachments {
		if task.Attachments[i].ID == attachmentID {
			attachment = &task.Attachments[i]
			break
		}
	}
	if attachment == nil {
		return apperrors.NewNotFound("attachment not found")
	}

	if d := permissions.CanDeleteAttachment(actor, &task, attachment); !d.Allowed {
		return apperrors.NewForbidden("%s", d.Reason)
	}

	update := bson.M{
		"$pull": bson.M{"attachments": bson.M{"id": attachmentID}},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	if _, err := s.TasksCollection.UpdateOne(ctx, bson.M{"_id": taskID}, update); err != nil {
		return fmt.Errorf("failed to remove attachment: %v", err)
	}

	if err := os.Remove(filepath.Join(s.UploadDir, attachment.StoredName)); err != nil && !os.IsNotExist(err) {
		logging.Logger.Warnf("Event ID: ATTACHMENT_FILE_REMOVE_FAILED, Description: %v", err)
	}

	return nil
}

// ResolveFile checks that the actor may read the task owning the stored file
// and returns the path to stream. The stored name is uuid+ext so a path
// component in the request can never escape the upload directory, but the
// base name is enforced anyway.
func (s *FileService) ResolveFile(ctx context.Context, actor permissions.Actor, filename string) (string, error) {
	if filename != filepath.Base(filename) {
		return "", apperrors.NewValidation("invalid file name")
	}

	var task models.Task
	err := s.TasksCollection.FindOne(ctx, bson.M{"attachments.storedName": filename}).Decode(&task)
	if err != nil {
		return "", apperrors.NewNotFound("file not found")
	}

	if d := permissions.CanViewTask(actor, &task); !d.Allowed {
		return "", apperrors.NewForbidden("%s", d.Reason)
	}

	path := filepath.Join(s.UploadDir, filename)
	if _, err := os.Stat(path); err != nil {
		return "", apperrors.NewNotFound("file not found")
	}
	return path, nil
}
