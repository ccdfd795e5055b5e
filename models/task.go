package models

import (
	"encoding/json"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskflow-project/backend/apperrors"
)

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusReview     TaskStatus = "review"
	StatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusCompleted:
		return true
	}
	return false
}

// Activity log actions.
const (
	ActionCreated          = "created"
	ActionStatusChanged    = "status_changed"
	ActionAccepted         = "accepted"
	ActionTimeLogged       = "time_logged"
	ActionChecklistUpdated = "checklist_updated"
	ActionCommented        = "commented"
)

type ActivityEntry struct {
	Action string             `bson:"action" json:"action"`
	User   primitive.ObjectID `bson:"user" json:"user"`
	From   string             `bson:"from,omitempty" json:"from,omitempty"`
	To     string             `bson:"to,omitempty" json:"to,omitempty"`
	At     time.Time          `bson:"at" json:"at"`
}

type Comment struct {
	ID        primitive.ObjectID   `bson:"_id" json:"id"`
	Author    primitive.ObjectID   `bson:"author" json:"author"`
	Text      string               `bson:"text" json:"text"`
	Mentions  []primitive.ObjectID `bson:"mentions,omitempty" json:"mentions,omitempty"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
}

type Attachment struct {
	ID          string             `bson:"id" json:"id"`
	FileName    string             `bson:"fileName" json:"fileName"`
	StoredName  string             `bson:"storedName" json:"-"`
	Size        int64              `bson:"size" json:"size"`
	ContentType string             `bson:"contentType" json:"contentType"`
	URL         string             `bson:"url" json:"url"`
	UploadedBy  primitive.ObjectID `bson:"uploadedBy" json:"uploadedBy"`
	UploadedAt  time.Time          `bson:"uploadedAt" json:"uploadedAt"`
}

type ChecklistItem struct {
	ID          string              `bson:"id" json:"id"`
	Text        string              `bson:"text" json:"text"`
	Completed   bool                `bson:"completed" json:"completed"`
	CompletedBy *primitive.ObjectID `bson:"completedBy,omitempty" json:"completedBy,omitempty"`
	CompletedAt *time.Time          `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CreatedBy   primitive.ObjectID  `bson:"createdBy" json:"createdBy"`
	Order       int                 `bson:"order" json:"order"`
}

type TimeSession struct {
	Start         time.Time `bson:"start" json:"start"`
	End           time.Time `bson:"end" json:"end"`
	DurationHours float64   `bson:"durationHours" json:"durationHours"`
	Description   string    `bson:"description,omitempty" json:"description,omitempty"`
}

type Task struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Status      TaskStatus         `bson:"status" json:"status"`
	Priority    Priority           `bson:"priority" json:"priority"`
	Project     primitive.ObjectID `bson:"project" json:"project"`
	AssignedTo  primitive.ObjectID `bson:"assignedTo" json:"assignedTo"`
	CreatedBy   primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	DueDate     *time.Time         `bson:"dueDate,omitempty" json:"dueDate,omitempty"`

	EstimatedHours float64  `bson:"estimatedHours" json:"estimatedHours"`
	ActualHours    float64  `bson:"actualHours" json:"actualHours"`
	Tags           []string `bson:"tags" json:"tags"`

	Comments     []Comment       `bson:"comments" json:"comments"`
	Attachments  []Attachment    `bson:"attachments" json:"attachments"`
	Checklist    []ChecklistItem `bson:"checklist" json:"checklist"`
	ActivityLog  []ActivityEntry `bson:"activityLog" json:"activityLog"`
	TimeSessions []TimeSession   `bson:"timeSessions,omitempty" json:"timeSessions,omitempty"`

	IsAccepted  bool       `bson:"isAccepted" json:"isAccepted"`
	AcceptedAt  *time.Time `bson:"acceptedAt,omitempty" json:"acceptedAt,omitempty"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ApplyStatusChange validates and applies a status transition, keeping
// CompletedAt in sync (non-nil iff status is completed) and recording the
// change in the activity log. Re-submitting the current status is a no-op:
// nothing is stamped, logged or touched.
func (t *Task) ApplyStatusChange(newStatus TaskStatus, actor primitive.ObjectID, now time.Time) error {
	if !newStatus.Valid() {
		return apperrors.NewValidation("invalid task status: %s", newStatus)
	}
	if newStatus == t.Status {
		return nil
	}

	from := t.Status
	t.Status = newStatus

	if newStatus == StatusCompleted {
		if t.CompletedAt == nil {
			completedAt := now
			t.CompletedAt = &completedAt
		}
	} else {
		t.CompletedAt = nil
	}

	t.ActivityLog = append(t.ActivityLog, ActivityEntry{
		Action: ActionStatusChanged,
		User:   actor,
		From:   string(from),
		To:     string(newStatus),
		At:     now,
	})
	t.UpdatedAt = now
	return nil
}

// Accept marks the task as accepted by its assignee. Re-accepting an already
// accepted task is a conflict, never a silent no-op.
func (t *Task) Accept(actor primitive.ObjectID, now time.Time) error {
	if t.IsAccepted {
		return apperrors.NewConflict("task already accepted")
	}
	t.IsAccepted = true
	acceptedAt := now
	t.AcceptedAt = &acceptedAt
	t.ActivityLog = append(t.ActivityLog, ActivityEntry{
		Action: ActionAccepted,
		User:   actor,
		At:     now,
	})
	t.UpdatedAt = now
	return nil
}

// LogTime adds hours to the additive ledger. Corrections go through the
// generic field-update path, never through here.
func (t *Task) LogTime(hours float64, session *TimeSession, actor primitive.ObjectID, now time.Time) error {
	if hours <= 0 {
		return apperrors.NewValidation("hours to add must be a positive number")
	}
	t.ActualHours += hours
	if session != nil {
		t.TimeSessions = append(t.TimeSessions, *session)
	}
	t.ActivityLog = append(t.ActivityLog, ActivityEntry{
		Action: ActionTimeLogged,
		User:   actor,
		At:     now,
	})
	t.UpdatedAt = now
	return nil
}

// ChecklistProgress derives the 0-100 completion percentage of the checklist.
func (t *Task) ChecklistProgress() int {
	if len(t.Checklist) == 0 {
		return 0
	}
	done := 0
	for _, item := range t.Checklist {
		if item.Completed {
			done++
		}
	}
	return int(math.Round(100 * float64(done) / float64(len(t.Checklist))))
}

// TimeEfficiency derives round(100 * estimated / actual), 0 when no time has
// been logged.
func (t *Task) TimeEfficiency() int {
	if t.ActualHours == 0 {
		return 0
	}
	return int(math.Round(100 * t.EstimatedHours / t.ActualHours))
}

// MarshalJSON adds the derived metrics to the serialized task. They are
// computed, never stored, so bson marshalling is unaffected.
func (t Task) MarshalJSON() ([]byte, error) {
	type taskAlias Task
	return json.Marshal(struct {
		taskAlias
		ChecklistProgress int `json:"checklistProgress"`
		TimeEfficiency    int `json:"timeEfficiency"`
	}{
		taskAlias:         taskAlias(t),
		ChecklistProgress: t.ChecklistProgress(),
		TimeEfficiency:    t.TimeEfficiency(),
	})
}
