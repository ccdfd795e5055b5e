package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"taskflow-project/backend/apperrors"
	"taskflow-project/backend/logging"
	"taskflow-project/backend/models"
	"taskflow-project/backend/permissions"
)

type ProjectService struct {
	ProjectsCollection *mongo.Collection
	TasksCollection    *mongo.Collection
	UsersCollection    *mongo.Collection
}

func NewProjectService(projects, tasks, users *mongo.Collection) *ProjectService {
	return &ProjectService{
		ProjectsCollection: projects,
		TasksCollection:    tasks,
		UsersCollection:    users,
	}
}

func validateProjectDates(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperrors.NewValidation("project start and end dates are required")
	}
	if !end.After(start) {
		return apperrors.NewValidation("project end date must be after the start date")
	}
	return nil
}

// CreateProject inserts a project owned by its manager and links it to the
// manager's createdProjects.
func (s *ProjectService) CreateProject(ctx context.Context, actor permissions.Actor, project models.Project) (*models.Project, error) {
	if project.Name == "" {
		return nil, apperrors.NewValidation("project name is required")
	}
	if err := validateProjectDates(project.StartDate, project.EndDate); err != nil {
		return nil, err
	}
	if project.Status == "" {
		project.Status = models.ProjectPlanning
	}
	if !project.Status.Valid() {
		return nil, apperrors.NewValidation("invalid project status: %s", project.Status)
	}
	if project.Priority == "" {
		project.Priority = models.PriorityMedium
	}
	if !project.Priority.Valid() {
		return nil, apperrors.NewValidation("invalid project priority: %s", project.Priority)
	}

	if project.Manager.IsZero() {
		project.Manager = actor.ID
	}
	var manager models.User
	if err := s.UsersCollection.FindOne(ctx, bson.M{"_id": project.Manager}).Decode(&manager); err != nil {
		return nil, apperrors.NewNotFound("manager not found")
	}

	now := time.Now()
	project.ID = primitive.NewObjectID()
	if project.Team == nil {
		project.Team = []primitive.ObjectID{}
	}
	project.Tasks = []primitive.ObjectID{}
	project.Progress = 0
	project.CreatedAt = now
	project.UpdatedAt = now

	if _, err := s.ProjectsCollection.InsertOne(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %v", err)
	}

	if _, err := s.UsersCollection.UpdateOne(ctx,
		bson.M{"_id": project.Manager},
		bson.M{"$push": bson.M{"createdProjects": project.ID}},
	); err != nil {
		logging.Logger.Warnf("Event ID: MANAGER_LINK_FAILED, Description: Failed to link project %s to manager: %v", project.ID.Hex(), err)
	}

	return &project, nil
}

func (s *ProjectService) GetProjectByID(ctx context.Context, projectID primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	if err := s.ProjectsCollection.FindOne(ctx, bson.M{"_id": projectID}).Decode(&project); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NewNotFound("project not found")
		}
		return nil, fmt.Errorf("failed to fetch project: %v", err)
	}
	return &project, nil
}

// ListProjects: admins see all projects, everyone else the ones they manage
// or are on the team of.
func (s *ProjectService) ListProjects(ctx context.Context, actor permissions.Actor) ([]models.Project, error) {
	filter := bson.M{}
	if actor.Role != models.RoleAdmin {
		filter["$or"] = []bson.M{
			{"manager": actor.ID},
			{"team": actor.ID},
		}
	}

	cursor, err := s.ProjectsCollection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %v", err)
	}
	defer cursor.Close(ctx)

	var projects []models.Project
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %v", err)
	}
	return projects, nil
}

// UpdateProject applies mutable fields. Progress is derived and is silently
// ignored if a client submits it.
func (s *ProjectService) UpdateProject(ctx context.Context, actor permissions.Actor, projectID primitive.ObjectID, updates bson.M) (*models.Project, error) {
	project, err := s.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if d := permissions.CanManageProject(actor, project); !d.Allowed {
		return nil, apperrors.NewForbidden("%s", d.Reason)
	}

	set := bson.M{}
	start := project.StartDate
	end := project.EndDate
	for k, v := range updates {
		switch k {
		case "name", "description":
			set[k] = v
		case "status":
			st, _ := v.(string)
			if !models.ProjectStatus(st).Valid() {
				return nil, apperrors.NewValidation("invalid project status: %s", st)
			}
			set[k] = models.ProjectStatus(st)
		case "priority":
			p, _ := v.(string)
			if !models.Priority(p).Valid() {
				return nil, apperrors.NewValidation("invalid project priority: %s", p)
			}
			set[k] = models.Priority(p)
		case "startDate", "endDate":
			raw, _ := v.(string)
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return nil, apperrors.NewValidation("%s must be an RFC3339 timestamp", k)
			}
			if k == "startDate" {
				start = t
			} else {
				end = t
			}
			set[k] = t
		case "team":
			ids, err := toObjectIDs(v)
			if err != nil {
				return nil, apperrors.NewValidation("team must be a list of user ids")
			}
			set[k] = ids
		case "manager":
			raw, _ := v.(string)
			managerID, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				return nil, apperrors.NewValidation("invalid manager id")
			}
			set[k] = managerID
		case "progress":
			// derived, never client-set
		default:
			return nil, apperrors.NewValidation("field '%s' cannot be updated", k)
		}
	}
	if err := validateProjectDates(start, end); err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, apperrors.NewValidation("no updatable fields provided")
	}
	set["updatedAt"] = time.Now()

	if _, err := s.ProjectsCollection.UpdateOne(ctx, bson.M{"_id": projectID}, bson.M{"$set": set}); err != nil {
		return nil, fmt.Errorf("failed to update project: %v", err)
	}

	return s.GetProjectByID(ctx, projectID)
}

// DeleteProject cascades: all member tasks are deleted, each assignee's
// assignedTasks pruned, and the project stripped from the manager's
// createdProjects.
func (s *ProjectService) DeleteProject(ctx context.Context, actor permissions.Actor, projectID primitive.ObjectID) error {
	project, err := s.GetProjectByID(ctx, projectID)
	if err != nil {
		return err
	}
	if d := permissions.CanManageProject(actor, project); !d.Allowed {
		return apperrors.NewForbidden("%s", d.Reason)
	}

	cursor, err := s.TasksCollection.Find(ctx, bson.M{"project": projectID})
	if err != nil {
		return fmt.Errorf("failed to fetch project tasks: %v", err)
	}
	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return fmt.Errorf("failed to decode project tasks: %v", err)
	}

	for _, task := range tasks {
		if _, err := s.UsersCollection.UpdateOne(ctx,
			bson.M{"_id": task.AssignedTo},
			bson.M{"$pull": bson.M{"assignedTasks": task.ID}},
		); err != nil {
			logging.Logger.Warnf("Event ID: ASSIGNEE_UNLINK_FAILED, Description: %v", err)
		}
	}

	if _, err := s.TasksCollection.DeleteMany(ctx, bson.M{"project": projectID}); err != nil {
		return fmt.Errorf("failed to delete project tasks: %v", err)
	}

	if _, err := s.UsersCollection.UpdateMany(ctx,
		bson.M{"createdProjects": projectID},
		bson.M{"$pull": bson.M{"createdProjects": projectID}},
	); err != nil {
		logging.Logger.Warnf("Event ID: MANAGER_UNLINK_FAILED, Description: %v", err)
	}

	if _, err := s.ProjectsCollection.DeleteOne(ctx, bson.M{"_id": projectID}); err != nil {
		return fmt.Errorf("failed to delete project: %v", err)
	}

	logging.Logger.Infof("Event ID: PROJECT_DELETED, Description: Project %s deleted with %d tasks", projectID.Hex(), len(tasks))
	return nil
}

func toObjectIDs(v interface{}) ([]primitive.ObjectID, error) {
	raw, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("not a list")
	}
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, item := range raw {
		str, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("not a string id")
		}
		id, err := primitive.ObjectIDFromHex(str)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
