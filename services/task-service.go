package services

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"taskflow-project/backend/apperrors"
	"taskflow-project/backend/logging"
	"taskflow-project/backend/models"
	"taskflow-project/backend/permissions"
)

type TaskService struct {
	TasksCollection    *mongo.Collection
	ProjectsCollection *mongo.Collection
	UsersCollection    *mongo.Collection
	Notifier           *NotificationService
}

func NewTaskService(tasks, projects, users *mongo.Collection, notifier *NotificationService) *TaskService {
	return &TaskService{
		TasksCollection:    tasks,
		ProjectsCollection: projects,
		UsersCollection:    users,
		Notifier:           notifier,
	}
}

// CreateTask inserts a task, links it to its project and assignee, recomputes
// project progress and notifies the assignee.
func (s *TaskService) CreateTask(ctx context.Context, actor permissions.Actor, task models.Task) (*models.Task, error) {
	if task.Title == "" {
		return nil, apperrors.NewValidation("task title is required")
	}
	if task.AssignedTo.IsZero() {
		return nil, apperrors.NewValidation("task assignee is required")
	}
	if task.Status == "" {
		task.Status = models.StatusTodo
	}
	if !task.Status.Valid() {
		return nil, apperrors.NewValidation("invalid task status: %s", task.Status)
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if !task.Priority.Valid() {
		return nil, apperrors.NewValidation("invalid task priority: %s", task.Priority)
	}
	if task.EstimatedHours < 0 || task.ActualHours < 0 {
		return nil, apperrors.NewValidation("hours must be non-negative")
	}

	var project models.Project
	if err := s.ProjectsCollection.FindOne(ctx, bson.M{"_id": task.Project}).Decode(&project); err != nil {
		return nil, apperrors.NewNotFound("project not found")
	}
	if d := permissions.CanCreateTask(actor, &project); !d.Allowed {
		return nil, apperrors.NewForbidden("%s", d.Reason)
	}

	var assignee models.User
	if err := s.UsersCollection.FindOne(ctx, bson.M{"_id": task.AssignedTo}).Decode(&assignee); err != nil {
		return nil, apperrors.NewNotFound("assignee not found")
	}

	now := time.Now()
	task.ID = primitive.NewObjectID()
	task.CreatedBy = actor.ID
	task.CompletedAt = nil
	if task.Status == models.StatusCompleted {
		completedAt := now
		task.CompletedAt = &completedAt
	}
	if task.Tags == nil {
		task.Tags = []string{}
	}
	task.Comments = []models.Comment{}
	task.Attachments = []models.Attachment{}
	task.Checklist = []models.ChecklistItem{}
	task.ActivityLog = []models.ActivityEntry{{
		Action: models.ActionCreated,
		User:   actor.ID,
		At:     now,
	}}
	task.IsAccepted = false
	task.AcceptedAt = nil
	task.CreatedAt = now
	task.UpdatedAt = now

	if _, err := s.TasksCollection.InsertOne(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %v", err)
	}

	if _, err := s.ProjectsCollection.UpdateOne(ctx,
		bson.M{"_id": task.Project},
		bson.M{"$push": bson.M{"tasks": task.ID}},
	); err != nil {
		return nil, fmt.Errorf("failed to link task to project: %v", err)
	}
	if _, err := s.UsersCollection.UpdateOne(ctx,
		bson.M{"_id": task.AssignedTo},
		bson.M{"$push": bson.M{"assignedTasks": task.ID}},
	); err != nil {
		logging.Logger.Warnf("Event ID: ASSIGNEE_LINK_FAILED, Description: Failed to link task %s to assignee: %v", task.ID.Hex(), err)
	}

	if err := s.RecomputeProjectProgress(ctx, task.Project); err != nil {
		logging.Logger.Warnf("Event ID: PROGRESS_RECOMPUTE_FAILED, Description: %v", err)
	}

	s.Notifier.Dispatch(ctx, task.AssignedTo.Hex(), models.NotifTaskAssigned,
		"New task assigned",
		fmt.Sprintf("You have been assigned the task '%s'.", task.Title),
		map[string]string{"taskId": task.ID.Hex()})

	return &task, nil
}

// GetTaskByID enforces read permission.
func (s *TaskService) GetTaskByID(ctx context.Context, actor permissions.Actor, taskID primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	if err := s.TasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task); err != nil {
		return nil, apperrors.NewNotFound("task not found")
	}
	if d := permissions.CanViewTask(actor, &task); !d.Allowed {
		return nil, apperrors.NewForbidden("%s", d.Reason)
	}
	return &task, nil
}

// ListTasks returns the tasks visible to the actor; admins see everything,
// everyone else the tasks they are assigned to or created. An optional
// project filter narrows the result.
func (s *TaskService) ListTasks(ctx context.Context, actor permissions.Actor, projectID *primitive.ObjectID) ([]models.Task, error) {
	filter := bson.M{}
	if actor.Role != models.RoleAdmin {
		filter["$or"] = []bson.M{
			{"assignedTo": actor.ID},
			{"createdBy": actor.ID},
		}
	}
	if projectID != nil {
		filter["project"] = *projectID
	}

	cursor, err := s.TasksCollection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %v", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %v", err)
	}
	return tasks, nil
}

// ChangeTaskStatus applies the status state machine: assignee-only, enum
// validation, completedAt bookkeeping, activity log, progress recompute and
// a completion notification to the creator.
func (s *TaskService) ChangeTaskStatus(ctx context.Context, actor permissions.Actor, taskID primitive.ObjectID, newStatus models.TaskStatus) (*models.Task, error) {
	var task models.Task
	if err := s.TasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task); err != nil {
		return nil, apperrors.NewNotFound("task not found")
	}

	if d := permissions.CanMutateTaskLifecycle(actor, &task); !d.Allowed {
		return nil, apperrors.NewForbidden("%s", d.Reason)
	}

	// A repeated transition to the current status changes nothing: no write,
	// no activity entry, no repeat completion notification.
	if newStatus.Valid() && newStatus == task.Status {
		return &task, nil
	}

	if err := task.ApplyStatusChange(newStatus, actor.ID, time.Now()); err != nil {
		return nil, err
	}

	update := bson.M{"$set": bson.M{
		"status":      task.Status,
		"completedAt": task.CompletedAt,
		"activityLog": task.ActivityLog,
		"updatedAt":   task.UpdatedAt,
	}}
	if _, err := s.TasksCollection.UpdateOne(ctx, bson.M{"_id": taskID}, update); err != nil {
		return nil, fmt.Errorf("failed to update task status: %v", err)
	}

	if err := s.RecomputeProjectProgress(ctx, task.Project); err != nil {
		logging.Logger.Warnf("Event ID: PROGRESS_RECOMPUTE_FAILED, Description: %v", err)
	}

	if task.Status == models.StatusCompleted {
		s.Notifier.Dispatch(ctx, task.CreatedBy.Hex(), models.NotifTaskCompleted,
			"Task completed",
			fmt.Sprintf("The task '%s' has been completed.", task.Title),
			map[string]string{"taskId": task.ID.Hex()})
	}

	return &task, nil
}

// AcceptTask flips isAccepted once; repeat calls are a conflict.
func (s *TaskService) AcceptTask(ctx context.Context, actor permissions.Actor, taskID primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	if err := s.TasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task); err != nil {
		return nil, apperrors.NewNotFound("task not found")
	}

	if d := permissions.CanMutateTaskLifecycle(actor, &task); !d.Allowed {
		return nil, apperrors.NewForbidden("%s", d.Reason)
	}

	if err := task.Accept(actor.ID, time.Now()); err != nil {
		return nil, err
	}

	update := bson.M{"$set": bson.M{
		"isAccepted":  task.IsAccepted,
		"acceptedAt":  task.AcceptedAt,
		"activityLog": task.ActivityLog,
		"updatedAt":   task.UpdatedAt,
	}}
	if _, err := s.TasksCollection.UpdateOne(ctx, bson.M{"_id": taskID}, update); err != nil {
		return nil, fmt.Errorf("failed to accept task: %v", err)
	}

	s.Notifier.Dispatch(ctx, task.CreatedBy.Hex(), models.NotifTaskAccepted,
		"Task accepted",
		fmt.Sprintf("The task '%s' has been accepted.", task.Title),
		map[string]string{"taskId": task.ID.Hex()})

	return &task, nil
}

// LogTime adds hours to the additive ledger, optionally recording a detailed
// session.
func (s *TaskService) LogTime(ctx context.Context, actor permissions.Actor, taskID primitive.ObjectID, hours float64, session *models.TimeSession) (*models.Task, error) {
	var task models.Task
	if err := s.TasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task); err != nil {
		return nil, apperrors.NewNotFound("task not found")
	}

	if d := permissions.CanMutateTaskLifecycle(actor, &task); !d.Allowed {
		return nil, apperrors.NewForbidden("%s", d.Reason)
	}

	if session != nil && !session.End.After(session.Start) {
		return nil, apperrors.NewValidation("session end must be after start")
	}

	if err := task.LogTime(hours, session, actor.ID, time.Now()); err != nil {
		return nil, err
	}

	update := bson.M{"$set": bson.M{
		"actualHours":  task.ActualHours,
		"timeSessions": task.TimeSessions,
		"activityLog":  task.ActivityLog,
		"updatedAt":    task.UpdatedAt,
	}}
	if _, err := s.TasksCollection.UpdateOne(ctx, bson.M{"_id": taskID}, update); err != nil {
		return nil, fmt.Errorf("failed to log time: %v", err)
	}

	return &task, nil
}

// UpdateChecklist applies per-item operations, assignee-only.
func (s *TaskService) UpdateChecklist(ctx context.Context, actor permissions.Actor, taskID primitive.ObjectID, ops []models.ChecklistOp) (*models.Task, error) {
	var task models.Task
	if err := s.TasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task); err != nil {
		return nil, apperrors.NewNotFound("task not found")
	}

	if d := permissions.CanMutateTaskLifecycle(actor, &task); !d.Allowed {
		return nil, apperrors.NewForbidden("%s", d.Reason)
	}

	if err := task.ApplyChecklistOps(ops, actor.ID, time.Now()); err != nil {
		return nil, err
	}

	update := bson.M{"$set": bson.M{
		"checklist":   task.Checklist,
		"activityLog": task.ActivityLog,
		"updatedAt":   task.UpdatedAt,
	}}
	if _, err := s.TasksCollection.UpdateOne(ctx, bson.M{"_id": taskID}, update); err != nil {
		return nil, fmt.Errorf("failed to update checklist: %v", err)
	}

	return &task, nil
}

// AddComment appends a comment, resolves its mentions and notifies every
// mentioned active user.
func (s *TaskService) AddComment(ctx context.Context, actor permissions.Actor, taskID primitive.ObjectID, text string) (*models.Task, error) {
	if text == "" {
		return nil, apperrors.NewValidation("comment text is required")
	}

	var task models.Task
	if err := s.TasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task); err != nil {
		return nil, apperrors.NewNotFound("task not found")
	}

	if d := permissions.CanCommentOnTask(actor, &task); !d.Allowed {
		return nil, apperrors.NewForbidden("%s", d.Reason)
	}

	now := time.Now()
	mentionedIDs := s.resolveMentions(ctx, models.ParseMentions(text))

	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		Author:    actor.ID,
		Text:      text,
		Mentions:  mentionedIDs,
		CreatedAt: now,
	}
	task.Comments = append(task.Comments, comment)
	task.ActivityLog = append(task.ActivityLog, models.ActivityEntry{
		Action: models.ActionCommented,
		User:   actor.ID,
		At:     now,
	})
	task.UpdatedAt = now

	update := bson.M{"$set": bson.M{
		"comments":    task.Comments,
		"activityLog": task.ActivityLog,
		"updatedAt":   task.UpdatedAt,
	}}
	if _, err := s.TasksCollection.UpdateOne(ctx, bson.M{"_id": taskID}, update); err != nil {
		return nil, fmt.Errorf("failed to add comment: %v", err)
	}

	for _, userID := range mentionedIDs {
		s.Notifier.Dispatch(ctx, userID.Hex(), models.NotifCommentMention,
			"You were mentioned",
			fmt.Sprintf("You were mentioned in a comment on task '%s'.", task.Title),
			map[string]string{"taskId": task.ID.Hex(), "commentId": comment.ID.Hex()})
	}

	return &task, nil
}

// resolveMentions maps parsed mentions to active user ids. ID-embedded
// mentions are looked up directly; bare names resolve only on an exact
// case-insensitive full-name match.
func (s *TaskService) resolveMentions(ctx context.Context, mentions []models.Mention) []primitive.ObjectID {
	var resolved []primitive.ObjectID
	seen := make(map[primitive.ObjectID]bool)

	for _, m := range mentions {
		var filter bson.M
		if m.ID != "" {
			userID, err := primitive.ObjectIDFromHex(m.ID)
			if err != nil {
				continue
			}
			filter = bson.M{"_id": userID, "status": models.UserActive}
		} else {
			escaped := regexp.QuoteMeta(m.Name)
			filter = bson.M{
				"name":   bson.M{"$regex": "^" + escaped + "$", "$options": "i"},
				"status": models.UserActive,
			}
		}

		var user models.User
		if err := s.UsersCollection.FindOne(ctx, filter).Decode(&user); err != nil {
			continue
		}
		if !seen[user.ID] {
			seen[user.ID] = true
			resolved = append(resolved, user.ID)
		}
	}

	return resolved
}

// UpdateTask is the generic field-update route. Admins may set any mutable
// field; the assignee and the creator only the allow-list. Lifecycle fields
// are rejected here regardless of role.
func (s *TaskService) UpdateTask(ctx context.Context, actor permissions.Actor, taskID primitive.ObjectID, updates bson.M) (*models.Task, error) {
	var task models.Task
	if err := s.TasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task); err != nil {
		return nil, apperrors.NewNotFound("task not found")
	}

	adminOnly := map[string]bool{"title": true, "assignedTo": true}
	fields := make([]string, 0, len(updates))
	for k := range updates {
		if !permissions.TaskUpdateAllowList[k] && !adminOnly[k] {
			return nil, apperrors.NewValidation("field '%s' cannot be updated through this route", k)
		}
		fields = append(fields, k)
	}
	if len(fields) == 0 {
		return nil, apperrors.NewValidation("no updatable fields provided")
	}

	if d := permissions.CanUpdateTaskFields(actor, &task, fields); !d.Allowed {
		return nil, apperrors.NewForbidden("%s", d.Reason)
	}

	set := bson.M{}
	for k, v := range updates {
		switch k {
		case "priority":
			p, _ := v.(string)
			if !models.Priority(p).Valid() {
				return nil, apperrors.NewValidation("invalid task priority: %s", p)
			}
			set[k] = models.Priority(p)
		case "estimatedHours", "actualHours":
			h, ok := v.(float64)
			if !ok || h < 0 {
				return nil, apperrors.NewValidation("%s must be a non-negative number", k)
			}
			set[k] = h
		case "dueDate":
			raw, _ := v.(string)
			due, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return nil, apperrors.NewValidation("dueDate must be an RFC3339 timestamp")
			}
			set[k] = due
		case "assignedTo":
			raw, _ := v.(string)
			newAssignee, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				return nil, apperrors.NewValidation("invalid assignee id")
			}
			set[k] = newAssignee
		default:
			set[k] = v
		}
	}
	set["updatedAt"] = time.Now()

	if _, err := s.TasksCollection.UpdateOne(ctx, bson.M{"_id": taskID}, bson.M{"$set": set}); err != nil {
		return nil, fmt.Errorf("failed to update task: %v", err)
	}

	// Reassignment moves the task between the two users' assignedTasks lists
	// and notifies the new assignee.
	if newAssignee, ok := set["assignedTo"].(primitive.ObjectID); ok && newAssignee != task.AssignedTo {
		s.relinkAssignee(ctx, task.ID, task.AssignedTo, newAssignee)
		s.Notifier.Dispatch(ctx, newAssignee.Hex(), models.NotifTaskAssigned,
			"New task assigned",
			fmt.Sprintf("You have been assigned the task '%s'.", task.Title),
			map[string]string{"taskId": task.ID.Hex()})
	}

	if err := s.TasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task); err != nil {
		return nil, fmt.Errorf("failed to reload task: %v", err)
	}
	return &task, nil
}

func (s *TaskService) relinkAssignee(ctx context.Context, taskID, oldAssignee, newAssignee primitive.ObjectID) {
	if _, err := s.UsersCollection.UpdateOne(ctx,
		bson.M{"_id": oldAssignee},
		bson.M{"$pull": bson.M{"assignedTasks": taskID}},
	); err != nil {
		logging.Logger.Warnf("Event ID: ASSIGNEE_UNLINK_FAILED, Description: %v", err)
	}
	if _, err := s.UsersCollection.UpdateOne(ctx,
		bson.M{"_id": newAssignee},
		bson.M{"$push": bson.M{"assignedTasks": taskID}},
	); err != nil {
		logging.Logger.Warnf("Event ID: ASSIGNEE_LINK_FAILED, Description: %v", err)
	}
}

// DeleteTask removes the task and strips it from the project's task list and
// the assignee's assignedTasks, then recomputes progress.
func (s *TaskService) DeleteTask(ctx context.Context, actor permissions.Actor, taskID primitive.ObjectID) error {
	var task models.Task
	if err := s.TasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task); err != nil {
		return apperrors.NewNotFound("task not found")
	}

	if d := permissions.CanDeleteTask(actor, &task); !d.Allowed {
		return apperrors.NewForbidden("%s", d.Reason)
	}

	if _, err := s.TasksCollection.DeleteOne(ctx, bson.M{"_id": taskID}); err != nil {
		return fmt.Errorf("failed to delete task: %v", err)
	}

	if _, err := s.ProjectsCollection.UpdateOne(ctx,
		bson.M{"_id": task.Project},
		bson.M{"$pull": bson.M{"tasks": taskID}},
	); err != nil {
		logging.Logger.Warnf("Event ID: PROJECT_UNLINK_FAILED, Description: %v", err)
	}
	if _, err := s.UsersCollection.UpdateOne(ctx,
		bson.M{"_id": task.AssignedTo},
		bson.M{"$pull": bson.M{"assignedTasks": taskID}},
	); err != nil {
		logging.Logger.Warnf("Event ID: ASSIGNEE_UNLINK_FAILED, Description: %v", err)
	}

	if err := s.RecomputeProjectProgress(ctx, task.Project); err != nil {
		logging.Logger.Warnf("Event ID: PROGRESS_RECOMPUTE_FAILED, Description: %v", err)
	}

	return nil
}

// RecomputeProjectProgress rewrites the derived progress value from the
// current task set. It runs after every task insert, delete and status
// change, keyed by project id, so the stored value never waits for an
// unrelated project save.
func (s *TaskService) RecomputeProjectProgress(ctx context.Context, projectID primitive.ObjectID) error {
	cursor, err := s.TasksCollection.Find(ctx, bson.M{"project": projectID})
	if err != nil {
		return fmt.Errorf("failed to fetch tasks for progress: %v", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return fmt.Errorf("failed to decode tasks for progress: %v", err)
	}

	progress := models.ComputeProgress(tasks)
	_, err = s.ProjectsCollection.UpdateOne(ctx,
		bson.M{"_id": projectID},
		bson.M{"$set": bson.M{"progress": progress, "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to store project progress: %v", err)
	}
	return nil
}
