package service

import (
	"context"
	"testing"
	"time"

	"github.com/GulovM/ToDo-Master/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func strPtr(s string) *string { return &s }

func flexBool(b bool) *domain.FlexBool {
	v := domain.FlexBool(b)
	return &v
}

func TestExecutor_CreateCategories(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("creates a new user-owned category", func(t *testing.T) {
		taskRepo := new(MockTaskRepository)
		categoryRepo := new(MockCategoryRepository)
		categoryRepo.On("ListVisible", ctx, userID).Return([]domain.TaskCategory{}, nil)
		categoryRepo.On("Create", ctx, mock.MatchedBy(func(c *domain.TaskCategory) bool {
			return c.Name == "Groceries" && c.OwnedBy(userID) && c.Color == domain.DefaultCategoryColor
		})).Return(nil)

		exec := NewExecutor(taskRepo, categoryRepo, nil)
		summary, err := exec.Apply(ctx, userID, &domain.ActionPlan{
			Categories: []domain.CategoryCreateAction{{Name: "Groceries", Color: "teal"}},
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, summary.CategoriesCreated)
		assert.Contains(t, summary.Clauses, "category: Groceries")
		categoryRepo.AssertExpectations(t)
	})

	t.Run("reuses an existing category case-insensitively", func(t *testing.T) {
		taskRepo := new(MockTaskRepository)
		categoryRepo := new(MockCategoryRepository)
		existing := domain.TaskCategory{ID: uuid.New(), OwnerID: &userID, Name: "Groceries", Color: "#10B981"}
		categoryRepo.On("ListVisible", ctx, userID).Return([]domain.TaskCategory{existing}, nil)

		exec := NewExecutor(taskRepo, categoryRepo, nil)
		summary, err := exec.Apply(ctx, userID, &domain.ActionPlan{
			Categories: []domain.CategoryCreateAction{{Name: "groceries"}},
		})

		assert.NoError(t, err)
		assert.Equal(t, 0, summary.CategoriesCreated)
		assert.Contains(t, summary.Clauses, "category: Groceries")
		categoryRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("updates only the color of an owned duplicate", func(t *testing.T) {
		taskRepo := new(MockTaskRepository)
		categoryRepo := new(MockCategoryRepository)
		existing := domain.TaskCategory{ID: uuid.New(), OwnerID: &userID, Name: "Work", Color: "#10B981"}
		categoryRepo.On("ListVisible", ctx, userID).Return([]domain.TaskCategory{existing}, nil)
		categoryRepo.On("Update", ctx, mock.MatchedBy(func(c *domain.TaskCategory) bool {
			return c.Color == "#FF0000"
		})).Return(nil)

		exec := NewExecutor(taskRepo, categoryRepo, nil)
		summary, err := exec.Apply(ctx, userID, &domain.ActionPlan{
			Categories: []domain.CategoryCreateAction{{Name: "Work", Color: "#FF0000"}},
		})

		assert.NoError(t, err)
		assert.Equal(t, 0, summary.CategoriesCreated)
		assert.Equal(t, 1, summary.CategoriesUpdated)
		categoryRepo.AssertExpectations(t)
	})

	t.Run("never mutates a global category", func(t *testing.T) {
		taskRepo := new(MockTaskRepository)
		categoryRepo := new(MockCategoryRepository)
		global := domain.TaskCategory{ID: uuid.New(), Name: "Work", Color: "#3B82F6"}
		categoryRepo.On("ListVisible", ctx, userID).Return([]domain.TaskCategory{global}, nil)

		exec := NewExecutor(taskRepo, categoryRepo, nil)
		summary, err := exec.Apply(ctx, userID, &domain.ActionPlan{
			Categories: []domain.CategoryCreateAction{{Name: "work", Color: "#FF0000"}},
		})

		assert.NoError(t, err)
		assert.Equal(t, 0, summary.Mutations())
		assert.Contains(t, summary.Clauses, "category: Work")
		categoryRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("skips blank names", func(t *testing.T) {
		taskRepo := new(MockTaskRepository)
		categoryRepo := new(MockCategoryRepository)
		categoryRepo.On("ListVisible", ctx, userID).Return([]domain.TaskCategory{}, nil)

		exec := NewExecutor(taskRepo, categoryRepo, nil)
		summary, err := exec.Apply(ctx, userID, &domain.ActionPlan{
			Categories: []domain.CategoryCreateAction{{Name: "   "}},
		})

		assert.NoError(t, err)
		assert.Equal(t, 0, summary.Mutations())
	})
}

func TestExecutor_CreateTasks(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("creates with normalized priority and resolved category", func(t *testing.T) {
		taskRepo := new(MockTaskRepository)
		categoryRepo := new(MockCategoryRepository)
		category := domain.TaskCategory{ID: uuid.New(), OwnerID: &userID, Name: "Errands", Color: "#10B981"}
		categoryRepo.On("ListVisible", ctx, userID).Return([]domain.TaskCategory{category}, nil)
		taskRepo.On("Create", ctx, mock.MatchedBy(func(task *domain.Task) bool {
			return task.Title == "Buy milk" &&
				task.UserID == userID &&
				task.Priority == domain.PriorityMedium &&
				!task.IsDone &&
				task.CompletedAt == nil &&
				task.CategoryID != nil && *task.CategoryID == category.ID &&
				task.Deadline != nil
		})).Return(nil)

		exec := NewExecutor(taskRepo, categoryRepo, nil)
		summary, err := exec.Apply(ctx, userID, &domain.ActionPlan{
			Tasks: []domain.TaskCreateAction{{
				Title:    "Buy milk",
				Priority: "urgent",
				Category: "errands",
				Deadline: "05.09.2025 18:00",
			}},
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, summary.TasksCreated)
		assert.Contains(t, summary.Clauses, "tasks created: 1")
		taskRepo.AssertExpectations(t)
	})

	t.Run("unresolved category and bad deadline degrade to nil", func(t *testing.T) {
		taskRepo := new(MockTaskRepository)
		categoryRepo := new(MockCategoryRepository)
		categoryRepo.On("ListVisible", ctx, userID).Return([]domain.TaskCategory{}, nil)
		taskRepo.On("Create", ctx, mock.MatchedBy(func(task *domain.Task) bool {
			return task.CategoryID == nil && task.Deadline == nil
		})).Return(nil)

		exec := NewExecutor(taskRepo, categoryRepo, nil)
		summary, err := exec.Apply(ctx, userID, &domain.ActionPlan{
			Tasks: []domain.TaskCreateAction{{Title: "Call dentist", Category: "nope", Deadline: "whenever"}},
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, summary.TasksCreated)
	})

	t.Run("short titles are skipped", func(t *testing.T) {
		taskRepo := new(MockTaskRepository)
		categoryRepo := new(MockCategoryRepository)
		categoryRepo.On("ListVisible", ctx, userID).Return([]domain.TaskCategory{}, nil)

		exec := NewExecutor(taskRepo, categoryRepo, nil)
		summary, err := exec.Apply(ctx, userID, &domain.ActionPlan{
			Tasks: []domain.TaskCreateAction{{Title: "ab"}},
		})

		assert.NoError(t, err)
		assert.Equal(t, 0, summary.TasksCreated)
		taskRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("caps plan creations", func(t *testing.T) {
		taskRepo := new(MockTaskRepository)
		categoryRepo := new(MockCategoryRepository)
		categoryRepo.On("ListVisible", ctx, userID).Return([]domain.TaskCategory{}, nil)
		taskRepo.On("Create", ctx, mock.Anything).Return(nil)

		actions := make([]domain.TaskCreateAction, domain.MaxPlanTasks+5)
		for i := range actions {
			actions[i] = domain.TaskCreateAction{Title: "Task number long enough"}
		}

		exec := NewExecutor(taskRepo, categoryRepo, nil)
		summary, err := exec.Apply(ctx, userID, &domain.ActionPlan{Tasks: actions})

		assert.NoError(t, err)
		assert.Equal(t, domain.MaxPlanTasks, summary.TasksCreated)
	})
}

func TestExecutor_UpdateTasks(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("done flag keeps completion timestamp in lockstep", func(t *testing.T) {
		taskRepo := new(MockTaskRepository)
		categoryRepo := new(MockCategoryRepository)
		categoryRepo.On("ListVisible", ctx, userID).Return([]domain.TaskCategory{}, nil)

		task := &domain.Task{ID: uuid.New(), UserID: userID, Title: "Buy milk", Priority: domain.PriorityMedium}
		taskRepo.On("GetByID", ctx, userID, task.ID).Return(task, nil)
		taskRepo.On("Update", ctx, mock.MatchedBy(func(updated *domain.Task) bool {
			return updated.IsDone && updated.CompletedAt != nil
		})).Return(nil)

		exec := NewExecutor(taskRepo, categoryRepo, nil)
		summary, err := exec.Apply(ctx, userID, &domain.ActionPlan{
			UpdateTasks: []domain.TaskUpdateAction{{ID: domain.FlexID(task.ID.String()), IsDone: flexBool(true)}},
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, summary.TasksUpdated)
		taskRepo.AssertExpectations(t)
	})

	t.Run("falls back to title lookup", func(t *testing.T) {
		taskRepo := new(MockTaskRepository)
		categoryRepo := new(MockCategoryRepository)
		categoryRepo.On("ListVisible", ctx, userID).Return([]domain.TaskCategory{}, nil)

		task := &domain.Task{ID: uuid.New(), UserID: userID, Title: "Buy milk", Priority: domain.PriorityMedium}
		taskRepo.On("GetByTitle", ctx, userID, "buy milk").Return(task, nil)
		taskRepo.On("Update", ctx, mock.MatchedBy(func(updated *domain.Task) bool {
			return updated.Priority == domain.PriorityHigh
		})).Return(nil)

		exec := NewExecutor(taskRepo, categoryRepo, nil)
		summary, err := exec.Apply(ctx, userID, &domain.ActionPlan{
			UpdateTasks: []domain.TaskUpdateAction{{Title: "buy milk", Priority: strPtr("high")}},
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, summary.TasksUpdated)
	})

	t.Run("title-resolved match still renames on a case difference", func(t *testing.T) {
		taskRepo := new(MockTaskRepository)
		categoryRepo := new(MockCategoryRepository)
		categoryRepo.On("ListVisible", ctx, userID).Return([]domain.TaskCategory{}, nil)

		task := &domain.Task{ID: uuid.New(), UserID: userID, Title: "Buy Milk", Priority: domain.PriorityMedium}
		taskRepo.On("GetByTitle", ctx, userID, "buy milk").Return(task, nil)
		taskRepo.On("Update", ctx, mock.MatchedBy(func(updated *domain.Task) bool {
			return updated.Title == "buy milk"
		})).Return(nil)

		exec := NewExecutor(taskRepo, categoryRepo, nil)
		summary, err := exec.Apply(ctx, userID, &domain.ActionPlan{
			UpdateTasks: []domain.TaskUpdateAction{{Title: "buy milk"}},
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, summary.TasksUpdated)
		taskRepo.AssertExpectations(t)
	})

	t.Run("rename by id", func(t *testing.T) {
		taskRepo := new(MockTaskRepository)
		categoryRepo := new(MockCategoryRepository)
		categoryRepo.On("ListVisible", ctx, userID).Return([]domain.TaskCategory{}, nil)

		task := &domain.Task{ID: uuid.New(), UserID: userID, Title: "Buy milk", Priority: domain.PriorityMedium}
		taskRepo.On("GetByID", ctx, userID, task.ID).Return(task, nil)
		taskRepo.On("Update", ctx, mock.MatchedBy(func(updated *domain.Task) bool {
			return updated.Title == "Buy oat milk"
		})).Return(nil)

		exec := NewExecutor(taskRepo, categoryRepo, nil)
		summary, err := exec.Apply(ctx, userID, &domain.ActionPlan{
			UpdateTasks: []domain.TaskUpdateAction{{ID: domain.FlexID(task.ID.String()), Title: "Buy oat milk"}},
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, summary.TasksUpdated)
	})

	t.Run("unparsable deadline is not a clear", func(t *testing.T) {
		taskRepo := new(MockTaskRepository)
		categoryRepo := new(MockCategoryRepository)
		categoryRepo.On("ListVisible", ctx, userID).Return([]domain.TaskCategory{}, nil)

		deadline := time.Date(2025, 9, 5, 9, 0, 0, 0, time.UTC)
		task := &domain.Task{ID: uuid.New(), UserID: userID, Title: "Buy milk", Priority: domain.PriorityMedium, Deadline: &deadline}
		taskRepo.On("GetByID", ctx, userID, task.ID).Return(task, nil)

		exec := NewExecutor(taskRepo, categoryRepo, nil)
		summary, err := exec.Apply(ctx, userID, &domain.ActionPlan{
			UpdateTasks: []domain.TaskUpdateAction{{ID: domain.FlexID(task.ID.String()), Deadline: strPtr("someday")}},
		})

		assert.NoError(t, err)
		assert.Equal(t, 0, summary.TasksUpdated)
		assert.Equal(t, deadline, *task.Deadline)
		taskRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("empty category name clears the category", func(t *testing.T) {
		taskRepo := new(MockTaskRepository)
		categoryRepo := new(MockCategoryRepository)
		categoryRepo.On("ListVisible", ctx, userID).Return([]domain.TaskCategory{}, nil)

		categoryID := uuid.New()
		task := &domain.Task{ID: uuid.New(), UserID: userID, Title: "Buy milk", Priority: domain.PriorityMedium, CategoryID: &categoryID}
		taskRepo.On("GetByID", ctx, userID, task.ID).Return(task, nil)
		taskRepo.On("Update", ctx, mock.MatchedBy(func(updated *domain.Task) bool {
			return updated.CategoryID == nil
		})).Return(nil)

		exec := NewExecutor(taskRepo, categoryRepo, nil)
		summary, err := exec.Apply(ctx, userID, &domain.ActionPlan{
			UpdateTasks: []domain.TaskUpdateAction{{ID: domain.FlexID(task.ID.String()), Category: strPtr("")}},
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, summary.TasksUpdated)
	})

	t.Run("unresolvable target is skipped silently", func(t *testing.T) {
		taskRepo := new(MockTaskRepository)
		categoryRepo := new(MockCategoryRepository)
		categoryRepo.On("ListVisible", ctx, userID).Return([]domain.TaskCategory{}, nil)
		taskRepo.On("GetByTitle", ctx, userID, "ghost").Return(nil, nil)

		exec := NewExecutor(taskRepo, categoryRepo, nil)
		summary, err := exec.Apply(ctx, userID, &domain.ActionPlan{
			UpdateTasks: []domain.TaskUpdateAction{{Title: "ghost", Priority: strPtr("high")}},
		})

		assert.NoError(t, err)
		assert.Equal(t, 0, summary.Mutations())
	})
}

func TestExecutor_DeleteCategories(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("detaches tasks before deleting", func(t *testing.T) {
		taskRepo := new(MockTaskRepository)
		categoryRepo := new(MockCategoryRepository)
		category := domain.TaskCategory{ID: uuid.New(), OwnerID: &userID, Name: "Errands", Color: "#10B981"}
		categoryRepo.On("ListVisible", ctx, userID).Return([]domain.TaskCategory{category}, nil)
		taskRepo.On("ClearCategory", ctx, userID, category.ID).Return(int64(3), nil)
		categoryRepo.On("Delete", ctx, category.ID).Return(nil)

		exec := NewExecutor(taskRepo, categoryRepo, nil)
		summary, err := exec.Apply(ctx, userID, &domain.ActionPlan{
			DeleteCategories: []domain.CategoryDeleteAction{{Name: "errands"}},
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, summary.CategoriesDeleted)
		assert.Contains(t, summary.Clauses, "categories deleted: 1")
		taskRepo.AssertExpectations(t)
		categoryRepo.AssertExpectations(t)
	})

	t.Run("global categories are not deletable", func(t *testing.T) {
		taskRepo := new(MockTaskRepository)
		categoryRepo := new(MockCategoryRepository)
		global := domain.TaskCategory{ID: uuid.New(), Name: "Work", Color: "#3B82F6"}
		categoryRepo.On("ListVisible", ctx, userID).Return([]domain.TaskCategory{global}, nil)

		exec := NewExecutor(taskRepo, categoryRepo, nil)
		summary, err := exec.Apply(ctx, userID, &domain.ActionPlan{
			DeleteCategories: []domain.CategoryDeleteAction{{Name: "Work"}},
		})

		assert.NoError(t, err)
		assert.Equal(t, 0, summary.Mutations())
		categoryRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestExecutor_DeleteTasks(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	taskRepo := new(MockTaskRepository)
	categoryRepo := new(MockCategoryRepository)
	categoryRepo.On("ListVisible", ctx, userID).Return([]domain.TaskCategory{}, nil)

	task := &domain.Task{ID: uuid.New(), UserID: userID, Title: "Old task", Priority: domain.PriorityLow}
	taskRepo.On("GetByTitle", ctx, userID, "old task").Return(task, nil)
	taskRepo.On("Delete", ctx, userID, task.ID).Return(true, nil)

	exec := NewExecutor(taskRepo, categoryRepo, nil)
	summary, err := exec.Apply(ctx, userID, &domain.ActionPlan{
		DeleteTasks: []domain.TaskDeleteAction{{Title: "old task"}},
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, summary.TasksDeleted)
	assert.Contains(t, summary.Clauses, "tasks deleted: 1")
}

func TestExecutor_UpdateCategories(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("rename refused when the new name is taken", func(t *testing.T) {
		taskRepo := new(MockTaskRepository)
		categoryRepo := new(MockCategoryRepository)
		a := domain.TaskCategory{ID: uuid.New(), OwnerID: &userID, Name: "Home", Color: "#10B981"}
		b := domain.TaskCategory{ID: uuid.New(), OwnerID: &userID, Name: "Office", Color: "#F59E0B"}
		categoryRepo.On("ListVisible", ctx, userID).Return([]domain.TaskCategory{a, b}, nil)

		exec := NewExecutor(taskRepo, categoryRepo, nil)
		summary, err := exec.Apply(ctx, userID, &domain.ActionPlan{
			UpdateCategories: []domain.CategoryUpdateAction{{Name: "Home", NewName: "office"}},
		})

		assert.NoError(t, err)
		assert.Equal(t, 0, summary.Mutations())
		categoryRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("no-op updates are not counted", func(t *testing.T) {
		taskRepo := new(MockTaskRepository)
		categoryRepo := new(MockCategoryRepository)
		a := domain.TaskCategory{ID: uuid.New(), OwnerID: &userID, Name: "Home", Color: "#10B981"}
		categoryRepo.On("ListVisible", ctx, userID).Return([]domain.TaskCategory{a}, nil)

		exec := NewExecutor(taskRepo, categoryRepo, nil)
		summary, err := exec.Apply(ctx, userID, &domain.ActionPlan{
			UpdateCategories: []domain.CategoryUpdateAction{{Name: "Home", Color: "#10B981"}},
		})

		assert.NoError(t, err)
		assert.Equal(t, 0, summary.CategoriesUpdated)
	})

	t.Run("description overwrites unconditionally when present", func(t *testing.T) {
		taskRepo := new(MockTaskRepository)
		categoryRepo := new(MockCategoryRepository)
		a := domain.TaskCategory{ID: uuid.New(), OwnerID: &userID, Name: "Home", Color: "#10B981"}
		categoryRepo.On("ListVisible", ctx, userID).Return([]domain.TaskCategory{a}, nil)
		categoryRepo.On("Update", ctx, mock.MatchedBy(func(c *domain.TaskCategory) bool {
			return c.Description != nil && *c.Description == "stuff around the house"
		})).Return(nil)

		exec := NewExecutor(taskRepo, categoryRepo, nil)
		summary, err := exec.Apply(ctx, userID, &domain.ActionPlan{
			UpdateCategories: []domain.CategoryUpdateAction{{Name: "home", Description: strPtr("stuff around the house")}},
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, summary.CategoriesUpdated)
	})
}

func TestExecutor_EmptyPlan(t *testing.T) {
	exec := NewExecutor(new(MockTaskRepository), new(MockCategoryRepository), nil)
	summary, err := exec.Apply(context.Background(), uuid.New(), domain.EmptyPlan())

	assert.NoError(t, err)
	assert.Equal(t, 0, summary.Mutations())
	assert.Empty(t, summary.Clauses)
}
