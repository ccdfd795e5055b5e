package models

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskflow-project/backend/apperrors"
)

// Checklist operation kinds accepted by PATCH /tasks/{id}/checklist.
const (
	ChecklistOpAdd     = "add"
	ChecklistOpToggle  = "toggle"
	ChecklistOpRemove  = "remove"
	ChecklistOpReorder = "reorder"
)

type ChecklistOp struct {
	Op        string `json:"op"`
	ItemID    string `json:"itemId,omitempty"`
	Text      string `json:"text,omitempty"`
	Completed *bool  `json:"completed,omitempty"`
	Position  *int   `json:"position,omitempty"`
}

// ApplyChecklistOps mutates the checklist with per-item operations. Item IDs
// are assigned once at creation and survive reorders. CompletedBy/CompletedAt
// are written only when the completed flag flips false->true and cleared on
// true->false; toggling to the current value leaves the stamps untouched.
func (t *Task) ApplyChecklistOps(ops []ChecklistOp, actor primitive.ObjectID, now time.Time) error {
	for _, op := range ops {
		switch op.Op {
		case ChecklistOpAdd:
			if op.Text == "" {
				return apperrors.NewValidation("checklist item text is required")
			}
			t.Checklist = append(t.Checklist, ChecklistItem{
				ID:        uuid.New().String(),
				Text:      op.Text,
				CreatedBy: actor,
				Order:     len(t.Checklist),
			})

		case ChecklistOpToggle:
			item := t.findChecklistItem(op.ItemID)
			if item == nil {
				return apperrors.NewNotFound("checklist item not found: %s", op.ItemID)
			}
			if op.Completed == nil {
				return apperrors.NewValidation("toggle requires a completed value")
			}
			if *op.Completed == item.Completed {
				break
			}
			item.Completed = *op.Completed
			if item.Completed {
				completedBy := actor
				completedAt := now
				item.CompletedBy = &completedBy
				item.CompletedAt = &completedAt
			} else {
				item.CompletedBy = nil
				item.CompletedAt = nil
			}

		case ChecklistOpRemove:
			idx := t.checklistIndex(op.ItemID)
			if idx < 0 {
				return apperrors.NewNotFound("checklist item not found: %s", op.ItemID)
			}
			t.Checklist = append(t.Checklist[:idx], t.Checklist[idx+1:]...)

		case ChecklistOpReorder:
			idx := t.checklistIndex(op.ItemID)
			if idx < 0 {
				return apperrors.NewNotFound("checklist item not found: %s", op.ItemID)
			}
			if op.Position == nil || *op.Position < 0 || *op.Position >= len(t.Checklist) {
				return apperrors.NewValidation("reorder requires a position within the checklist")
			}
			item := t.Checklist[idx]
			t.Checklist = append(t.Checklist[:idx], t.Checklist[idx+1:]...)
			rest := append([]ChecklistItem{}, t.Checklist[*op.Position:]...)
			t.Checklist = append(t.Checklist[:*op.Position], item)
			t.Checklist = append(t.Checklist, rest...)

		default:
			return apperrors.NewValidation("unknown checklist operation: %s", op.Op)
		}
	}

	t.renumberChecklist()
	t.ActivityLog = append(t.ActivityLog, ActivityEntry{
		Action: ActionChecklistUpdated,
		User:   actor,
		At:     now,
	})
	t.UpdatedAt = now
	return nil
}

func (t *Task) findChecklistItem(id string) *ChecklistItem {
	for i := range t.Checklist {
		if t.Checklist[i].ID == id {
			return &t.Checklist[i]
		}
	}
	return nil
}

func (t *Task) checklistIndex(id string) int {
	for i := range t.Checklist {
		if t.Checklist[i].ID == id {
			return i
		}
	}
	return -1
}

// renumberChecklist reassigns Order from slice position so order values stay
// dense after removes and reorders.
func (t *Task) renumberChecklist() {
	for i := range t.Checklist {
		t.Checklist[i].Order = i
	}
}
