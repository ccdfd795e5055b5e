package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func tasksWithStatuses(statuses ...TaskStatus) []Task {
	tasks := make([]Task, len(statuses))
	for i, s := range statuses {
		tasks[i] = Task{Status: s}
	}
	return tasks
}

func TestComputeProgressEmptyProject(t *testing.T) {
	assert.Equal(t, 0, ComputeProgress(nil))
	assert.Equal(t, 0, ComputeProgress([]Task{}))
}

func TestComputeProgressRounds(t *testing.T) {
	tasks := tasksWithStatuses(StatusCompleted, StatusTodo, StatusInProgress)
	assert.Equal(t, 33, ComputeProgress(tasks))

	tasks = tasksWithStatuses(StatusCompleted, StatusCompleted, StatusTodo)
	assert.Equal(t, 67, ComputeProgress(tasks))
}

func TestComputeProgressAllCompleted(t *testing.T) {
	tasks := tasksWithStatuses(StatusCompleted, StatusCompleted)
	assert.Equal(t, 100, ComputeProgress(tasks))
}

func TestProjectStatusValid(t *testing.T) {
	for _, s := range []ProjectStatus{ProjectPlanning, ProjectActive, ProjectOnHold, ProjectCompleted, ProjectCancelled} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, ProjectStatus("archived").Valid())
}

func TestPriorityValid(t *testing.T) {
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent} {
		assert.True(t, p.Valid(), string(p))
	}
	assert.False(t, Priority("critical").Valid())
}
