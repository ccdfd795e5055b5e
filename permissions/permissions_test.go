package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskflow-project/backend/models"
)

var (
	adminID    = primitive.NewObjectID()
	assigneeID = primitive.NewObjectID()
	creatorID  = primitive.NewObjectID()
	strangerID = primitive.NewObjectID()

	admin    = Actor{ID: adminID, Role: models.RoleAdmin}
	assignee = Actor{ID: assigneeID, Role: models.RoleEmployee}
	creator  = Actor{ID: creatorID, Role: models.RoleEmployee}
	stranger = Actor{ID: strangerID, Role: models.RoleEmployee}
)

func sampleTask() *models.Task {
	return &models.Task{
		ID:         primitive.NewObjectID(),
		AssignedTo: assigneeID,
		CreatedBy:  creatorID,
	}
}

func TestCanViewTask(t *testing.T) {
	task := sampleTask()

	assert.True(t, CanViewTask(admin, task).Allowed)
	assert.True(t, CanViewTask(assignee, task).Allowed)
	assert.True(t, CanViewTask(creator, task).Allowed)

	decision := CanViewTask(stranger, task)
	assert.False(t, decision.Allowed)
	assert.NotEmpty(t, decision.Reason)
}

func TestCanMutateTaskLifecycleAssigneeOnly(t *testing.T) {
	task := sampleTask()

	assert.True(t, CanMutateTaskLifecycle(assignee, task).Allowed)

	// Lifecycle belongs to the assignee alone: creator and admin are both denied.
	for _, actor := range []Actor{creator, admin, stranger} {
		decision := CanMutateTaskLifecycle(actor, task)
		assert.False(t, decision.Allowed)
		assert.Equal(t, "only the assignee may perform this operation", decision.Reason)
	}
}

func TestCanUpdateTaskFields(t *testing.T) {
	task := sampleTask()

	assert.True(t, CanUpdateTaskFields(admin, task, []string{"title", "assignedTo"}).Allowed)
	assert.True(t, CanUpdateTaskFields(assignee, task, []string{"description", "priority"}).Allowed)
	assert.True(t, CanUpdateTaskFields(creator, task, []string{"dueDate", "tags"}).Allowed)

	assert.False(t, CanUpdateTaskFields(assignee, task, []string{"title"}).Allowed)
	assert.False(t, CanUpdateTaskFields(creator, task, []string{"assignedTo"}).Allowed)
	assert.False(t, CanUpdateTaskFields(stranger, task, []string{"description"}).Allowed)
}

func TestCanDeleteTask(t *testing.T) {
	task := sampleTask()

	assert.True(t, CanDeleteTask(admin, task).Allowed)
	assert.True(t, CanDeleteTask(creator, task).Allowed)
	assert.False(t, CanDeleteTask(assignee, task).Allowed)
	assert.False(t, CanDeleteTask(stranger, task).Allowed)
}

func TestCanDeleteAttachment(t *testing.T) {
	task := sampleTask()
	attachment := &models.Attachment{ID: "a1", UploadedBy: strangerID}

	// The uploader may always remove their own file even without task access.
	assert.True(t, CanDeleteAttachment(stranger, task, attachment).Allowed)
	assert.True(t, CanDeleteAttachment(admin, task, attachment).Allowed)
	assert.True(t, CanDeleteAttachment(assignee, task, attachment).Allowed)

	other := Actor{ID: primitive.NewObjectID(), Role: models.RoleEmployee}
	assert.False(t, CanDeleteAttachment(other, task, attachment).Allowed)
}

func TestCanManageProject(t *testing.T) {
	project := &models.Project{Manager: creatorID}

	assert.True(t, CanManageProject(admin, project).Allowed)
	assert.True(t, CanManageProject(creator, project).Allowed)
	assert.False(t, CanManageProject(assignee, project).Allowed)
}

func TestCanCreateTask(t *testing.T) {
	project := &models.Project{Manager: creatorID}

	assert.True(t, CanCreateTask(admin, project).Allowed)
	assert.True(t, CanCreateTask(creator, project).Allowed)
	assert.False(t, CanCreateTask(stranger, project).Allowed)
}

func TestCanManageEvent(t *testing.T) {
	event := &models.Event{CreatedBy: creatorID}

	assert.True(t, CanManageEvent(admin, event).Allowed)
	assert.True(t, CanManageEvent(creator, event).Allowed)
	assert.False(t, CanManageEvent(stranger, event).Allowed)
}

func TestIsAdmin(t *testing.T) {
	assert.True(t, IsAdmin(admin).Allowed)
	decision := IsAdmin(assignee)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "admin role required", decision.Reason)
}
