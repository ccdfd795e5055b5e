package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"taskflow-project/backend/models"
)

type StatsService struct {
	UsersCollection    *mongo.Collection
	ProjectsCollection *mongo.Collection
	TasksCollection    *mongo.Collection
}

func NewStatsService(users, projects, tasks *mongo.Collection) *StatsService {
	return &StatsService{
		UsersCollection:    users,
		ProjectsCollection: projects,
		TasksCollection:    tasks,
	}
}

type DashboardStats struct {
	TotalUsers       int64            `json:"totalUsers"`
	ActiveUsers      int64            `json:"activeUsers"`
	TotalProjects    int64            `json:"totalProjects"`
	ProjectsByStatus map[string]int64 `json:"projectsByStatus"`
	TotalTasks       int64            `json:"totalTasks"`
	TasksByStatus    map[string]int64 `json:"tasksByStatus"`
	OverdueTasks     int64            `json:"overdueTasks"`
}

// DashboardStats aggregates the admin overview counts.
func (s *StatsService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{
		ProjectsByStatus: make(map[string]int64),
		TasksByStatus:    make(map[string]int64),
	}

	var err error
	if stats.TotalUsers, err = s.UsersCollection.CountDocuments(ctx, bson.M{}); err != nil {
		return nil, fmt.Errorf("failed to count users: %v", err)
	}
	if stats.ActiveUsers, err = s.UsersCollection.CountDocuments(ctx, bson.M{"status": models.UserActive}); err != nil {
		return nil, fmt.Errorf("failed to count active users: %v", err)
	}
	if stats.TotalProjects, err = s.ProjectsCollection.CountDocuments(ctx, bson.M{}); err != nil {
		return nil, fmt.Errorf("failed to count projects: %v", err)
	}
	if stats.TotalTasks, err = s.TasksCollection.CountDocuments(ctx, bson.M{}); err != nil {
		return nil, fmt.Errorf("failed to count tasks: %v", err)
	}

	if err := s.countByStatus(ctx, s.ProjectsCollection, stats.ProjectsByStatus); err != nil {
		return nil, err
	}
	if err := s.countByStatus(ctx, s.TasksCollection, stats.TasksByStatus); err != nil {
		return nil, err
	}

	overdueFilter := bson.M{
		"status":  bson.M{"$ne": models.StatusCompleted},
		"dueDate": bson.M{"$lt": time.Now()},
	}
	if stats.OverdueTasks, err = s.TasksCollection.CountDocuments(ctx, overdueFilter); err != nil {
		return nil, fmt.Errorf("failed to count overdue tasks: %v", err)
	}

	return stats, nil
}

func (s *StatsService) countByStatus(ctx context.Context, coll *mongo.Collection, into map[string]int64) error {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("status aggregation failed: %v", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID    string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return fmt.Errorf("status aggregation decode failed: %v", err)
	}
	for _, row := range rows {
		into[row.ID] = row.Count
	}
	return nil
}
