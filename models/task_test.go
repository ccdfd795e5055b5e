package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestTask() Task {
	return Task{
		ID:         primitive.NewObjectID(),
		Title:      "Prepare release notes",
		Status:     StatusTodo,
		AssignedTo: primitive.NewObjectID(),
		CreatedBy:  primitive.NewObjectID(),
	}
}

func TestApplyStatusChangeToCompletedStampsCompletedAt(t *testing.T) {
	task := newTestTask()
	actor := task.AssignedTo
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	err := task.ApplyStatusChange(StatusCompleted, actor, now)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, task.Status)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, now, *task.CompletedAt)

	require.Len(t, task.ActivityLog, 1)
	entry := task.ActivityLog[0]
	assert.Equal(t, ActionStatusChanged, entry.Action)
	assert.Equal(t, string(StatusTodo), entry.From)
	assert.Equal(t, string(StatusCompleted), entry.To)
	assert.Equal(t, actor, entry.User)
}

func TestApplyStatusChangeAwayFromCompletedClearsCompletedAt(t *testing.T) {
	task := newTestTask()
	actor := task.AssignedTo
	now := time.Now()

	require.NoError(t, task.ApplyStatusChange(StatusCompleted, actor, now))
	require.NotNil(t, task.CompletedAt)

	require.NoError(t, task.ApplyStatusChange(StatusInProgress, actor, now.Add(time.Hour)))
	assert.Equal(t, StatusInProgress, task.Status)
	assert.Nil(t, task.CompletedAt)
}

func TestApplyStatusChangeRejectsUnknownStatus(t *testing.T) {
	task := newTestTask()

	err := task.ApplyStatusChange(TaskStatus("done"), task.AssignedTo, time.Now())
	require.Error(t, err)
	assert.Equal(t, StatusTodo, task.Status)
	assert.Empty(t, task.ActivityLog)
}

func TestApplyStatusChangeKeepsOriginalCompletionStamp(t *testing.T) {
	task := newTestTask()
	actor := task.AssignedTo
	first := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, task.ApplyStatusChange(StatusCompleted, actor, first))
	require.NoError(t, task.ApplyStatusChange(StatusCompleted, actor, first.Add(2*time.Hour)))

	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, first, *task.CompletedAt)
}

func TestApplyStatusChangeSameStatusIsNoOp(t *testing.T) {
	task := newTestTask()
	actor := task.AssignedTo
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, task.ApplyStatusChange(StatusCompleted, actor, now))
	entries := len(task.ActivityLog)
	updatedAt := task.UpdatedAt

	// Re-submitting the current status must not add a second
	// status_changed entry or touch the timestamps.
	require.NoError(t, task.ApplyStatusChange(StatusCompleted, actor, now.Add(time.Hour)))
	assert.Len(t, task.ActivityLog, entries)
	assert.Equal(t, updatedAt, task.UpdatedAt)
}

func TestAcceptTask(t *testing.T) {
	task := newTestTask()
	actor := task.AssignedTo
	now := time.Date(2025, 3, 11, 8, 30, 0, 0, time.UTC)

	require.NoError(t, task.Accept(actor, now))
	assert.True(t, task.IsAccepted)
	require.NotNil(t, task.AcceptedAt)
	assert.Equal(t, now, *task.AcceptedAt)
}

func TestAcceptTwiceIsConflict(t *testing.T) {
	task := newTestTask()
	actor := task.AssignedTo
	first := time.Date(2025, 3, 11, 8, 30, 0, 0, time.UTC)

	require.NoError(t, task.Accept(actor, first))
	err := task.Accept(actor, first.Add(time.Hour))
	require.Error(t, err)

	require.NotNil(t, task.AcceptedAt)
	assert.Equal(t, first, *task.AcceptedAt, "original acceptance stamp must survive the rejected retry")
	assert.Len(t, task.ActivityLog, 1)
}

func TestLogTimeAccumulates(t *testing.T) {
	task := newTestTask()
	actor := task.AssignedTo
	now := time.Now()

	require.NoError(t, task.LogTime(2.5, nil, actor, now))
	require.NoError(t, task.LogTime(1.5, nil, actor, now))
	assert.Equal(t, 4.0, task.ActualHours)
	assert.Len(t, task.ActivityLog, 2)
}

func TestLogTimeRejectsNonPositiveHours(t *testing.T) {
	task := newTestTask()

	for _, hours := range []float64{0, -1} {
		err := task.LogTime(hours, nil, task.AssignedTo, time.Now())
		require.Error(t, err)
	}
	assert.Equal(t, 0.0, task.ActualHours)
	assert.Empty(t, task.ActivityLog)
}

func TestLogTimeRecordsSession(t *testing.T) {
	task := newTestTask()
	start := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)
	session := &TimeSession{
		Start:         start,
		End:           start.Add(90 * time.Minute),
		DurationHours: 1.5,
		Description:   "code review",
	}

	require.NoError(t, task.LogTime(1.5, session, task.AssignedTo, time.Now()))
	require.Len(t, task.TimeSessions, 1)
	assert.Equal(t, "code review", task.TimeSessions[0].Description)
}

func TestTaskJSONCarriesDerivedMetrics(t *testing.T) {
	task := newTestTask()
	task.EstimatedHours = 8
	task.ActualHours = 10
	actor := task.AssignedTo
	now := time.Now()

	require.NoError(t, task.ApplyChecklistOps([]ChecklistOp{
		{Op: ChecklistOpAdd, Text: "a"},
		{Op: ChecklistOpAdd, Text: "b"},
	}, actor, now))
	done := true
	require.NoError(t, task.ApplyChecklistOps([]ChecklistOp{
		{Op: ChecklistOpToggle, ItemID: task.Checklist[0].ID, Completed: &done},
	}, actor, now))

	data, err := json.Marshal(task)
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.EqualValues(t, 50, payload["checklistProgress"])
	assert.EqualValues(t, 80, payload["timeEfficiency"])
	assert.Equal(t, task.Title, payload["title"])
}

func TestTimeEfficiency(t *testing.T) {
	task := newTestTask()
	task.EstimatedHours = 8

	assert.Equal(t, 0, task.TimeEfficiency(), "no logged time yields 0, not a division by zero")

	task.ActualHours = 10
	assert.Equal(t, 80, task.TimeEfficiency())

	task.ActualHours = 6
	assert.Equal(t, 133, task.TimeEfficiency())
}
