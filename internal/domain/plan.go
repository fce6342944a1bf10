package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Per-plan creation caps. Update and delete lists are not capped; they are
// gated by ownership checks instead.
const (
	MaxPlanCategories = 5
	MaxPlanTasks      = 20
)

// FlexID tolerates models emitting ids as either JSON strings or numbers.
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) String() string { return string(f) }

// FlexBool tolerates models emitting booleans as strings or numbers.
type FlexBool bool

func (f *FlexBool) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch string(b) {
	case "null", `""`:
		*f = false
		return nil
	case "true", `"true"`, "1", `"1"`:
		*f = true
		return nil
	case "false", `"false"`, "0", `"0"`:
		*f = false
		return nil
	}
	var v bool
	if err := json.Unmarshal(b, &v); err == nil {
		*f = FlexBool(v)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = n != 0
	return nil
}

// CategoryCreateAction proposes creating (or reusing) a category by name.
type CategoryCreateAction struct {
	Name        string  `json:"name"`
	Color       string  `json:"color,omitempty"`
	Description *string `json:"description,omitempty"`
}

// TaskCreateAction proposes creating a task.
type TaskCreateAction struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Priority    string  `json:"priority,omitempty"`
	Deadline    string  `json:"deadline,omitempty"`
	Category    string  `json:"category,omitempty"`
}

// CategoryUpdateAction proposes updating a category matched by name.
type CategoryUpdateAction struct {
	Name        string  `json:"name"`
	NewName     string  `json:"new_name,omitempty"`
	Color       string  `json:"color,omitempty"`
	Description *string `json:"description,omitempty"`
}

// TaskUpdateAction proposes updating a task matched by id, falling back to
// title. Pointer fields distinguish "not mentioned" from an explicit value.
type TaskUpdateAction struct {
	ID          FlexID    `json:"id,omitempty"`
	Title       string    `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Priority    *string   `json:"priority,omitempty"`
	Deadline    *string   `json:"deadline,omitempty"`
	Category    *string   `json:"category,omitempty"`
	IsDone      *FlexBool `json:"is_done,omitempty"`
}

// CategoryDeleteAction proposes deleting a category by name.
type CategoryDeleteAction struct {
	Name string `json:"name"`
}

// TaskDeleteAction proposes deleting a task matched by id or title.
type TaskDeleteAction struct {
	ID    FlexID `json:"id,omitempty"`
	Title string `json:"title,omitempty"`
}

// ActionPlan is the structured intent inferred from a natural-language
// message. It is never applied without an explicit confirmation; validation
// happens at the executor boundary, so every field here is loosely typed.
type ActionPlan struct {
	Categories       []CategoryCreateAction `json:"categories"`
	Tasks            []TaskCreateAction     `json:"tasks"`
	UpdateCategories []CategoryUpdateAction `json:"update_categories,omitempty"`
	UpdateTasks      []TaskUpdateAction     `json:"update_tasks,omitempty"`
	DeleteCategories []CategoryDeleteAction `json:"delete_categories,omitempty"`
	DeleteTasks      []TaskDeleteAction     `json:"delete_tasks,omitempty"`
}

// EmptyPlan returns a plan with no actions. Categories and Tasks are non-nil
// so the JSON shape always carries both lists.
func EmptyPlan() *ActionPlan {
	return &ActionPlan{
		Categories: []CategoryCreateAction{},
		Tasks:      []TaskCreateAction{},
	}
}

// HasActions reports whether any action list is non-empty.
func (p *ActionPlan) HasActions() bool {
	if p == nil {
		return false
	}
	return len(p.Categories) > 0 || len(p.Tasks) > 0 ||
		len(p.UpdateCategories) > 0 || len(p.UpdateTasks) > 0 ||
		len(p.DeleteCategories) > 0 || len(p.DeleteTasks) > 0
}

// ExecutionSummary reports what a confirmed plan actually changed. Counts
// reflect store mutations only; skipped actions leave no trace.
type ExecutionSummary struct {
	Clauses           []string `json:"clauses"`
	CategoriesCreated int      `json:"categories_created"`
	TasksCreated      int      `json:"tasks_created"`
	CategoriesUpdated int      `json:"categories_updated"`
	TasksUpdated      int      `json:"tasks_updated"`
	CategoriesDeleted int      `json:"categories_deleted"`
	TasksDeleted      int      `json:"tasks_deleted"`
}

// Mutations returns the total number of store mutations recorded.
func (s *ExecutionSummary) Mutations() int {
	return s.CategoriesCreated + s.TasksCreated +
		s.CategoriesUpdated + s.TasksUpdated +
		s.CategoriesDeleted + s.TasksDeleted
}

// AddClause appends a "label: N" clause when the count is positive.
func (s *ExecutionSummary) AddClause(label string, count int) {
	if count > 0 {
		s.Clauses = append(s.Clauses, label+": "+strconv.Itoa(count))
	}
}
