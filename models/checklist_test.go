package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func boolPtr(v bool) *bool { return &v }
func intPtr(v int) *int    { return &v }

func TestChecklistAddAssignsIDAndOrder(t *testing.T) {
	task := newTestTask()
	actor := task.AssignedTo

	err := task.ApplyChecklistOps([]ChecklistOp{
		{Op: ChecklistOpAdd, Text: "write draft"},
		{Op: ChecklistOpAdd, Text: "request review"},
	}, actor, time.Now())
	require.NoError(t, err)

	require.Len(t, task.Checklist, 2)
	assert.NotEmpty(t, task.Checklist[0].ID)
	assert.NotEqual(t, task.Checklist[0].ID, task.Checklist[1].ID)
	assert.Equal(t, 0, task.Checklist[0].Order)
	assert.Equal(t, 1, task.Checklist[1].Order)
	assert.Equal(t, actor, task.Checklist[0].CreatedBy)
}

func TestChecklistAddRequiresText(t *testing.T) {
	task := newTestTask()

	err := task.ApplyChecklistOps([]ChecklistOp{{Op: ChecklistOpAdd}}, task.AssignedTo, time.Now())
	require.Error(t, err)
	assert.Empty(t, task.Checklist)
}

func TestChecklistToggleStampsCompletion(t *testing.T) {
	task := newTestTask()
	actor := task.AssignedTo
	now := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, task.ApplyChecklistOps([]ChecklistOp{
		{Op: ChecklistOpAdd, Text: "write draft"},
	}, actor, now))
	itemID := task.Checklist[0].ID

	require.NoError(t, task.ApplyChecklistOps([]ChecklistOp{
		{Op: ChecklistOpToggle, ItemID: itemID, Completed: boolPtr(true)},
	}, actor, now))

	item := task.Checklist[0]
	assert.True(t, item.Completed)
	require.NotNil(t, item.CompletedBy)
	assert.Equal(t, actor, *item.CompletedBy)
	require.NotNil(t, item.CompletedAt)
	assert.Equal(t, now, *item.CompletedAt)
}

func TestChecklistToggleSameValueKeepsStamps(t *testing.T) {
	task := newTestTask()
	first := primitive.NewObjectID()
	second := primitive.NewObjectID()
	stamp := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, task.ApplyChecklistOps([]ChecklistOp{
		{Op: ChecklistOpAdd, Text: "write draft"},
	}, first, stamp))
	itemID := task.Checklist[0].ID

	require.NoError(t, task.ApplyChecklistOps([]ChecklistOp{
		{Op: ChecklistOpToggle, ItemID: itemID, Completed: boolPtr(true)},
	}, first, stamp))

	// A second user re-sending completed=true must not steal the credit.
	require.NoError(t, task.ApplyChecklistOps([]ChecklistOp{
		{Op: ChecklistOpToggle, ItemID: itemID, Completed: boolPtr(true)},
	}, second, stamp.Add(time.Hour)))

	item := task.Checklist[0]
	require.NotNil(t, item.CompletedBy)
	assert.Equal(t, first, *item.CompletedBy)
	require.NotNil(t, item.CompletedAt)
	assert.Equal(t, stamp, *item.CompletedAt)
}

func TestChecklistToggleOffClearsStamps(t *testing.T) {
	task := newTestTask()
	actor := task.AssignedTo
	now := time.Now()

	require.NoError(t, task.ApplyChecklistOps([]ChecklistOp{
		{Op: ChecklistOpAdd, Text: "write draft"},
	}, actor, now))
	itemID := task.Checklist[0].ID

	require.NoError(t, task.ApplyChecklistOps([]ChecklistOp{
		{Op: ChecklistOpToggle, ItemID: itemID, Completed: boolPtr(true)},
	}, actor, now))
	require.NoError(t, task.ApplyChecklistOps([]ChecklistOp{
		{Op: ChecklistOpToggle, ItemID: itemID, Completed: boolPtr(false)},
	}, actor, now))

	item := task.Checklist[0]
	assert.False(t, item.Completed)
	assert.Nil(t, item.CompletedBy)
	assert.Nil(t, item.CompletedAt)
}

func TestChecklistRemoveRenumbersOrder(t *testing.T) {
	task := newTestTask()
	actor := task.AssignedTo
	now := time.Now()

	require.NoError(t, task.ApplyChecklistOps([]ChecklistOp{
		{Op: ChecklistOpAdd, Text: "a"},
		{Op: ChecklistOpAdd, Text: "b"},
		{Op: ChecklistOpAdd, Text: "c"},
	}, actor, now))

	require.NoError(t, task.ApplyChecklistOps([]ChecklistOp{
		{Op: ChecklistOpRemove, ItemID: task.Checklist[1].ID},
	}, actor, now))

	require.Len(t, task.Checklist, 2)
	assert.Equal(t, "a", task.Checklist[0].Text)
	assert.Equal(t, "c", task.Checklist[1].Text)
	assert.Equal(t, 0, task.Checklist[0].Order)
	assert.Equal(t, 1, task.Checklist[1].Order)
}

func TestChecklistReorderKeepsStableIDs(t *testing.T) {
	task := newTestTask()
	actor := task.AssignedTo
	now := time.Now()

	require.NoError(t, task.ApplyChecklistOps([]ChecklistOp{
		{Op: ChecklistOpAdd, Text: "a"},
		{Op: ChecklistOpAdd, Text: "b"},
		{Op: ChecklistOpAdd, Text: "c"},
	}, actor, now))
	idA := task.Checklist[0].ID
	idC := task.Checklist[2].ID

	require.NoError(t, task.ApplyChecklistOps([]ChecklistOp{
		{Op: ChecklistOpReorder, ItemID: idC, Position: intPtr(0)},
	}, actor, now))

	assert.Equal(t, idC, task.Checklist[0].ID)
	assert.Equal(t, idA, task.Checklist[1].ID)
	assert.Equal(t, []int{0, 1, 2}, []int{task.Checklist[0].Order, task.Checklist[1].Order, task.Checklist[2].Order})
}

func TestChecklistReorderRejectsBadPosition(t *testing.T) {
	task := newTestTask()
	actor := task.AssignedTo
	now := time.Now()

	require.NoError(t, task.ApplyChecklistOps([]ChecklistOp{
		{Op: ChecklistOpAdd, Text: "a"},
	}, actor, now))

	err := task.ApplyChecklistOps([]ChecklistOp{
		{Op: ChecklistOpReorder, ItemID: task.Checklist[0].ID, Position: intPtr(5)},
	}, actor, now)
	require.Error(t, err)
}

func TestChecklistUnknownItemAndOp(t *testing.T) {
	task := newTestTask()
	actor := task.AssignedTo

	err := task.ApplyChecklistOps([]ChecklistOp{
		{Op: ChecklistOpToggle, ItemID: "missing", Completed: boolPtr(true)},
	}, actor, time.Now())
	require.Error(t, err)

	err = task.ApplyChecklistOps([]ChecklistOp{{Op: "rename"}}, actor, time.Now())
	require.Error(t, err)
}

func TestChecklistProgress(t *testing.T) {
	task := newTestTask()
	assert.Equal(t, 0, task.ChecklistProgress(), "empty checklist is 0, not NaN")

	actor := task.AssignedTo
	now := time.Now()
	require.NoError(t, task.ApplyChecklistOps([]ChecklistOp{
		{Op: ChecklistOpAdd, Text: "a"},
		{Op: ChecklistOpAdd, Text: "b"},
		{Op: ChecklistOpAdd, Text: "c"},
	}, actor, now))
	assert.Equal(t, 0, task.ChecklistProgress())

	require.NoError(t, task.ApplyChecklistOps([]ChecklistOp{
		{Op: ChecklistOpToggle, ItemID: task.Checklist[0].ID, Completed: boolPtr(true)},
	}, actor, now))
	assert.Equal(t, 33, task.ChecklistProgress())

	require.NoError(t, task.ApplyChecklistOps([]ChecklistOp{
		{Op: ChecklistOpToggle, ItemID: task.Checklist[1].ID, Completed: boolPtr(true)},
		{Op: ChecklistOpToggle, ItemID: task.Checklist[2].ID, Completed: boolPtr(true)},
	}, actor, now))
	assert.Equal(t, 100, task.ChecklistProgress())
}
