package services

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taskflow-project/backend/models"
)

const defaultSearchLimit = 20

type SearchService struct {
	TasksCollection    *mongo.Collection
	ProjectsCollection *mongo.Collection
	UsersCollection    *mongo.Collection
}

func NewSearchService(tasks, projects, users *mongo.Collection) *SearchService {
	return &SearchService{
		TasksCollection:    tasks,
		ProjectsCollection: projects,
		UsersCollection:    users,
	}
}

type SearchResults struct {
	Tasks    []models.Task    `json:"tasks,omitempty"`
	Projects []models.Project `json:"projects,omitempty"`
	Users    []models.User    `json:"users,omitempty"`
}

// Search runs a case-insensitive substring match over the requested entity
// types. The query is quoted so user input is never interpreted as a pattern.
func (s *SearchService) Search(ctx context.Context, query, entityType string, limit int) (*SearchResults, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultSearchLimit
	}
	pattern := regexp.QuoteMeta(query)
	results := &SearchResults{}
	opts := options.Find().SetLimit(int64(limit))

	if entityType == "" || entityType == "task" {
		filter := bson.M{"$or": []bson.M{
			{"title": bson.M{"$regex": pattern, "$options": "i"}},
			{"description": bson.M{"$regex": pattern, "$options": "i"}},
			{"tags": bson.M{"$regex": pattern, "$options": "i"}},
		}}
		cursor, err := s.TasksCollection.Find(ctx, filter, opts)
		if err != nil {
			return nil, fmt.Errorf("task search failed: %v", err)
		}
		if err := cursor.All(ctx, &results.Tasks); err != nil {
			return nil, fmt.Errorf("task search decode failed: %v", err)
		}
	}

	if entityType == "" || entityType == "project" {
		filter := bson.M{"$or": []bson.M{
			{"name": bson.M{"$regex": pattern, "$options": "i"}},
			{"description": bson.M{"$regex": pattern, "$options": "i"}},
		}}
		cursor, err := s.ProjectsCollection.Find(ctx, filter, opts)
		if err != nil {
			return nil, fmt.Errorf("project search failed: %v", err)
		}
		if err := cursor.All(ctx, &results.Projects); err != nil {
			return nil, fmt.Errorf("project search decode failed: %v", err)
		}
	}

	if entityType == "" || entityType == "user" {
		filter := bson.M{"$or": []bson.M{
			{"name": bson.M{"$regex": pattern, "$options": "i"}},
			{"email": bson.M{"$regex": pattern, "$options": "i"}},
		}}
		cursor, err := s.UsersCollection.Find(ctx, filter, opts)
		if err != nil {
			return nil, fmt.Errorf("user search failed: %v", err)
		}
		if err := cursor.All(ctx, &results.Users); err != nil {
			return nil, fmt.Errorf("user search decode failed: %v", err)
		}
		for i := range results.Users {
			results.Users[i].Password = ""
		}
	}

	return results, nil
}

type Suggestion struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Suggestions returns prefix matches on task titles and project names,
// capped small for typeahead.
func (s *SearchService) Suggestions(ctx context.Context, query string) ([]Suggestion, error) {
	pattern := "^" + regexp.QuoteMeta(query)
	opts := options.Find().SetLimit(5)
	var suggestions []Suggestion

	taskCursor, err := s.TasksCollection.Find(ctx,
		bson.M{"title": bson.M{"$regex": pattern, "$options": "i"}}, opts)
	if err != nil {
		return nil, fmt.Errorf("suggestion search failed: %v", err)
	}
	var tasks []models.Task
	if err := taskCursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("suggestion decode failed: %v", err)
	}
	for _, t := range tasks {
		suggestions = append(suggestions, Suggestion{Type: "task", ID: t.ID.Hex(), Label: t.Title})
	}

	projectCursor, err := s.ProjectsCollection.Find(ctx,
		bson.M{"name": bson.M{"$regex": pattern, "$options": "i"}}, opts)
	if err != nil {
		return nil, fmt.Errorf("suggestion search failed: %v", err)
	}
	var projects []models.Project
	if err := projectCursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("suggestion decode failed: %v", err)
	}
	for _, p := range projects {
		suggestions = append(suggestions, Suggestion{Type: "project", ID: p.ID.Hex(), Label: p.Name})
	}

	return suggestions, nil
}
