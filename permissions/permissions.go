// Package permissions is the single authority for role/ownership checks.
// Every evaluator is a pure predicate over the actor and the target entity:
// no I/O, no mutation. A deny carries the reason used verbatim in the 403
// response body.
package permissions

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskflow-project/backend/models"
)

type Actor struct {
	ID   primitive.ObjectID
	Role models.Role
}

type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// TaskUpdateAllowList is the field set a task creator (when not the assignee)
// may touch through the generic update route. The assignee shares the same
// list; lifecycle fields have dedicated routes.
var TaskUpdateAllowList = map[string]bool{
	"description":    true,
	"dueDate":        true,
	"estimatedHours": true,
	"actualHours":    true,
	"priority":       true,
	"tags":           true,
}

func (a Actor) isAdmin() bool {
	return a.Role == models.RoleAdmin
}

// CanViewTask: admin, assignee or creator.
func CanViewTask(actor Actor, task *models.Task) Decision {
	if actor.isAdmin() || actor.ID == task.AssignedTo || actor.ID == task.CreatedBy {
		return allow()
	}
	return deny("only the assignee, the creator or an admin may view this task")
}

// CanUpdateTaskFields authorizes the generic update route. Admins may change
// any field; the assignee and the creator are limited to the allow-list.
func CanUpdateTaskFields(actor Actor, task *models.Task, fields []string) Decision {
	if actor.isAdmin() {
		return allow()
	}
	if actor.ID != task.AssignedTo && actor.ID != task.CreatedBy {
		return deny("only the assignee, the creator or an admin may update this task")
	}
	for _, f := range fields {
		if !TaskUpdateAllowList[f] {
			return deny("field '" + f + "' may only be changed by an admin")
		}
	}
	return allow()
}

// CanMutateTaskLifecycle authorizes status transitions, acceptance, time
// logging and checklist mutation. These belong to the assignee alone,
// admins included.
func CanMutateTaskLifecycle(actor Actor, task *models.Task) Decision {
	if actor.ID == task.AssignedTo {
		return allow()
	}
	return deny("only the assignee may perform this operation")
}

// CanCommentOnTask: anyone who can view the task.
func CanCommentOnTask(actor Actor, task *models.Task) Decision {
	return CanViewTask(actor, task)
}

// CanDeleteTask: admin or the creator.
func CanDeleteTask(actor Actor, task *models.Task) Decision {
	if actor.isAdmin() || actor.ID == task.CreatedBy {
		return allow()
	}
	return deny("only the creator or an admin may delete this task")
}

// CanUploadTaskFile: admin, assignee or creator.
func CanUploadTaskFile(actor Actor, task *models.Task) Decision {
	if actor.isAdmin() || actor.ID == task.AssignedTo || actor.ID == task.CreatedBy {
		return allow()
	}
	return deny("only the assignee, the creator or an admin may upload files to this task")
}

// CanDeleteAttachment: the uploader may always remove their own upload;
// otherwise the same set as upload.
func CanDeleteAttachment(actor Actor, task *models.Task, attachment *models.Attachment) Decision {
	if actor.ID == attachment.UploadedBy {
		return allow()
	}
	return CanUploadTaskFile(actor, task)
}

// CanManageProject authorizes project update and delete: admin or manager.
func CanManageProject(actor Actor, project *models.Project) Decision {
	if actor.isAdmin() || actor.ID == project.Manager {
		return allow()
	}
	return deny("only the project manager or an admin may modify this project")
}

// CanManageEvent authorizes event update and delete: admin or creator.
func CanManageEvent(actor Actor, event *models.Event) Decision {
	if actor.isAdmin() || actor.ID == event.CreatedBy {
		return allow()
	}
	return deny("only the event creator or an admin may modify this event")
}

// CanCreateTask: admins anywhere, the manager within their own project.
func CanCreateTask(actor Actor, project *models.Project) Decision {
	if actor.isAdmin() || actor.ID == project.Manager {
		return allow()
	}
	return deny("only the project manager or an admin may create tasks in this project")
}

// IsAdmin gates the admin-only surface.
func IsAdmin(actor Actor) Decision {
	if actor.isAdmin() {
		return allow()
	}
	return deny("admin role required")
}
