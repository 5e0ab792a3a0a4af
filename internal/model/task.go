package model

import "time"

// Status is derived from CompletedAt; it is never stored.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
)

// Task is a single to-do item owned by a user.
type Task struct {
	ID     string `json:"id" yaml:"id"`
	UserID string `json:"user_id" yaml:"-"`

	// ProjectID is nil for inbox tasks. ProjectTitle is filled in on load.
	ProjectID    *string `json:"project_id,omitempty" yaml:"-"`
	ProjectTitle string  `json:"project,omitempty" yaml:"project,omitempty"`

	// ParentID links a subtask to its parent task.
	ParentID *string `json:"parent_id,omitempty" yaml:"-"`

	Title string  `json:"title" yaml:"title"`
	Body  *string `json:"body,omitempty" yaml:"body,omitempty"`

	DueDate     *time.Time `json:"due_date,omitempty" yaml:"due,omitempty"`
	StartAt     *time.Time `json:"start_at,omitempty" yaml:"start,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed,omitempty"`

	// Recurrence is an opaque rule string owned by the scheduling layer.
	Recurrence *string `json:"recurrence,omitempty" yaml:"recurrence,omitempty"`

	// Position is the per-user insertion order, used as the final sort tiebreak.
	Position int64 `json:"position" yaml:"-"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`

	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Status reports whether the task is active or completed.
func (t Task) Status() Status {
	if t.CompletedAt != nil {
		return StatusCompleted
	}
	return StatusActive
}

// NewTask holds the caller-supplied fields for creating a task.
type NewTask struct {
	Title      string
	Body       *string
	Project    string // project title; created if missing
	ParentID   *string
	DueDate    *time.Time
	StartAt    *time.Time
	Recurrence *string
	Tags       []string
}
