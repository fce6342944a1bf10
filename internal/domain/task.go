package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority levels for tasks
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// NormalizePriority maps arbitrary input onto a valid priority,
// defaulting to medium.
func NormalizePriority(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case PriorityLow:
		return PriorityLow
	case PriorityHigh:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// Task represents a user task. CompletedAt is non-nil exactly when IsDone is
// true; every write path goes through SetDone to keep the two in lockstep.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	IsDone      bool       `json:"is_done"`
	Priority    string     `json:"priority"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// SetDone flips the done flag and keeps the completion timestamp in sync.
func (t *Task) SetDone(done bool, now time.Time) {
	t.IsDone = done
	if done {
		if t.CompletedAt == nil {
			t.CompletedAt = &now
		}
	} else {
		t.CompletedAt = nil
	}
}

// IsOverdue reports whether the task has a deadline in the past and is not done.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Deadline != nil && !t.IsDone && now.After(*t.Deadline)
}

// TaskCreate represents task creation data
type TaskCreate struct {
	Title       string     `json:"title" validate:"required,min=3,max=200"`
	Description *string    `json:"description,omitempty"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
}

// TaskUpdate represents a partial task update
type TaskUpdate struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Description *string    `json:"description,omitempty"`
	IsDone      *bool      `json:"is_done,omitempty"`
	Priority    *string    `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
}

// TaskFilter narrows task listings. Zero value lists everything.
type TaskFilter struct {
	IsDone     *bool
	Priority   *string
	CategoryID *uuid.UUID
	DueAfter   *time.Time
	DueBefore  *time.Time
	Limit      int
}

// Bulk actions over a set of task IDs
const (
	BulkComplete   = "complete"
	BulkUncomplete = "uncomplete"
	BulkDelete     = "delete"
)

// TaskBulkRequest represents a bulk operation on the caller's tasks
type TaskBulkRequest struct {
	TaskIDs []uuid.UUID `json:"task_ids" validate:"required,min=1"`
	Action  string      `json:"action" validate:"required,oneof=complete uncomplete delete"`
}

// ActivityPoint is a per-day creation count for recent-activity stats.
type ActivityPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// TaskStats aggregates a user's tasks.
type TaskStats struct {
	TotalTasks      int             `json:"total_tasks"`
	CompletedTasks  int             `json:"completed_tasks"`
	PendingTasks    int             `json:"pending_tasks"`
	OverdueTasks    int             `json:"overdue_tasks"`
	CompletionRate  float64         `json:"completion_rate"`
	TasksByCategory map[string]int  `json:"tasks_by_category"`
	TasksByPriority map[string]int  `json:"tasks_by_priority"`
	RecentActivity  []ActivityPoint `json:"recent_activity"`
}

// TaskRepository defines the interface for task storage. Every method is
// scoped to a single owner; cross-user access is impossible by construction.
type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	// GetByID returns (nil, nil) when no task with this id belongs to userID.
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Task, error)
	// GetByTitle returns the most recently created task with a
	// case-insensitive exact title match, or (nil, nil).
	GetByTitle(ctx context.Context, userID uuid.UUID, title string) (*Task, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter TaskFilter) ([]Task, error)
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, userID, id uuid.UUID) (bool, error)
	// SetDone updates the done flag and completion timestamp for the given
	// ids, skipping tasks already in the target state. Returns the number of
	// rows changed.
	SetDone(ctx context.Context, userID uuid.UUID, ids []uuid.UUID, done bool, completedAt time.Time) (int64, error)
	DeleteMany(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error)
	// ClearCategory detaches the user's tasks from a category without
	// deleting them. Returns the number of rows changed.
	ClearCategory(ctx context.Context, userID, categoryID uuid.UUID) (int64, error)
	// CountByCategory returns the user's task count per category id.
	CountByCategory(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error)
	Stats(ctx context.Context, userID uuid.UUID, now time.Time) (*TaskStats, error)
}
