package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GulovM/ToDo-Master/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Executor applies a confirmed action plan for a single user. Every action
// is best-effort: a lookup miss or validation failure skips that action and
// leaves no trace in the summary, never aborting its siblings.
type Executor struct {
	taskRepo     domain.TaskRepository
	categoryRepo domain.CategoryRepository
	statsCache   StatsCache
}

// NewExecutor creates a new plan executor. statsCache may be nil.
func NewExecutor(taskRepo domain.TaskRepository, categoryRepo domain.CategoryRepository, statsCache StatsCache) *Executor {
	return &Executor{
		taskRepo:     taskRepo,
		categoryRepo: categoryRepo,
		statsCache:   statsCache,
	}
}

// catalog indexes the categories visible to one user by lowercase name,
// preferring a user-owned match over a global one.
type catalog struct {
	userID uuid.UUID
	byName map[string]*domain.TaskCategory
}

func newCatalog(userID uuid.UUID, categories []domain.TaskCategory) *catalog {
	c := &catalog{userID: userID, byName: make(map[string]*domain.TaskCategory, len(categories))}
	for i := range categories {
		c.add(&categories[i])
	}
	return c
}

func (c *catalog) add(category *domain.TaskCategory) {
	key := strings.ToLower(category.Name)
	if existing, ok := c.byName[key]; ok && existing.OwnedBy(c.userID) && !category.OwnedBy(c.userID) {
		return
	}
	c.byName[key] = category
}

func (c *catalog) find(name string) *domain.TaskCategory {
	return c.byName[strings.ToLower(strings.TrimSpace(name))]
}

func (c *catalog) findOwned(name string) *domain.TaskCategory {
	category := c.find(name)
	if category == nil || !category.OwnedBy(c.userID) {
		return nil
	}
	return category
}

func (c *catalog) remove(category *domain.TaskCategory) {
	key := strings.ToLower(category.Name)
	if c.byName[key] == category {
		delete(c.byName, key)
	}
}

// Apply executes the plan's six action lists in a fixed order:
// create-categories, create-tasks, update-categories, update-tasks,
// delete-categories, delete-tasks. Summary counts reflect actual store
// mutations only.
func (e *Executor) Apply(ctx context.Context, userID uuid.UUID, plan *domain.ActionPlan) (*domain.ExecutionSummary, error) {
	summary := &domain.ExecutionSummary{Clauses: []string{}}
	if !plan.HasActions() {
		return summary, nil
	}

	visible, err := e.categoryRepo.ListVisible(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	cat := newCatalog(userID, visible)

	e.createCategories(ctx, userID, plan.Categories, cat, summary)
	e.createTasks(ctx, userID, plan.Tasks, cat, summary)
	e.updateCategories(ctx, userID, plan.UpdateCategories, cat, summary)
	e.updateTasks(ctx, userID, plan.UpdateTasks, cat, summary)
	e.deleteCategories(ctx, userID, plan.DeleteCategories, cat, summary)
	e.deleteTasks(ctx, userID, plan.DeleteTasks, summary)

	summary.AddClause("tasks created", summary.TasksCreated)
	summary.AddClause("categories updated", summary.CategoriesUpdated)
	summary.AddClause("tasks updated", summary.TasksUpdated)
	summary.AddClause("categories deleted", summary.CategoriesDeleted)
	summary.AddClause("tasks deleted", summary.TasksDeleted)

	if summary.Mutations() > 0 && e.statsCache != nil {
		if err := e.statsCache.Invalidate(ctx, userID); err != nil {
			log.Warn().Err(err).Msg("stats cache invalidation failed")
		}
	}

	return summary, nil
}

// createCategories reuses an existing visible category when the name
// matches case-insensitively; the clause never reveals whether the
// category pre-existed.
func (e *Executor) createCategories(ctx context.Context, userID uuid.UUID, actions []domain.CategoryCreateAction, cat *catalog, summary *domain.ExecutionSummary) {
	applied := 0
	for _, action := range actions {
		if applied >= domain.MaxPlanCategories {
			break
		}
		name := strings.TrimSpace(action.Name)
		if name == "" {
			continue
		}

		if existing := cat.find(name); existing != nil {
			if existing.OwnedBy(userID) && domain.ValidHexColor(action.Color) && action.Color != existing.Color {
				existing.Color = action.Color
				if err := e.categoryRepo.Update(ctx, existing); err != nil {
					log.Debug().Err(err).Str("category", name).Msg("category color update skipped")
					continue
				}
				summary.CategoriesUpdated++
			}
			summary.Clauses = append(summary.Clauses, "category: "+existing.Name)
			applied++
			continue
		}

		color := action.Color
		if !domain.ValidHexColor(color) {
			color = domain.DefaultCategoryColor
		}
		owner := userID
		category := &domain.TaskCategory{
			ID:          uuid.New(),
			OwnerID:     &owner,
			Name:        name,
			Color:       color,
			Description: action.Description,
			CreatedAt:   time.Now(),
		}
		if err := e.categoryRepo.Create(ctx, category); err != nil {
			log.Debug().Err(err).Str("category", name).Msg("category create skipped")
			continue
		}
		cat.add(category)
		summary.CategoriesCreated++
		summary.Clauses = append(summary.Clauses, "category: "+name)
		applied++
	}
}

func (e *Executor) createTasks(ctx context.Context, userID uuid.UUID, actions []domain.TaskCreateAction, cat *catalog, summary *domain.ExecutionSummary) {
	applied := 0
	for _, action := range actions {
		if applied >= domain.MaxPlanTasks {
			break
		}
		title := strings.TrimSpace(action.Title)
		if len([]rune(title)) < 3 {
			continue
		}

		var categoryID *uuid.UUID
		if category := cat.find(action.Category); category != nil {
			id := category.ID
			categoryID = &id
		}

		now := time.Now()
		task := &domain.Task{
			ID:          uuid.New(),
			UserID:      userID,
			Title:       title,
			Description: action.Description,
			Priority:    domain.NormalizePriority(action.Priority),
			Deadline:    ParseDeadline(action.Deadline),
			CategoryID:  categoryID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := e.taskRepo.Create(ctx, task); err != nil {
			log.Debug().Err(err).Str("task", title).Msg("task create skipped")
			continue
		}
		summary.TasksCreated++
		applied++
	}
}

func (e *Executor) updateCategories(ctx context.Context, userID uuid.UUID, actions []domain.CategoryUpdateAction, cat *catalog, summary *domain.ExecutionSummary) {
	for _, action := range actions {
		category := cat.findOwned(action.Name)
		if category == nil {
			continue
		}

		changed := false

		newName := strings.TrimSpace(action.NewName)
		if newName != "" && !strings.EqualFold(newName, category.Name) {
			if taken := cat.findOwned(newName); taken == nil {
				cat.remove(category)
				category.Name = newName
				cat.add(category)
				changed = true
			}
		}
		if domain.ValidHexColor(action.Color) && action.Color != category.Color {
			category.Color = action.Color
			changed = true
		}
		if action.Description != nil {
			category.Description = action.Description
			changed = true
		}

		if !changed {
			continue
		}
		if err := e.categoryRepo.Update(ctx, category); err != nil {
			log.Debug().Err(err).Str("category", action.Name).Msg("category update skipped")
			continue
		}
		summary.CategoriesUpdated++
	}
}

func (e *Executor) updateTasks(ctx context.Context, userID uuid.UUID, actions []domain.TaskUpdateAction, cat *catalog, summary *domain.ExecutionSummary) {
	for _, action := range actions {
		task := e.resolveTask(ctx, userID, action.ID, action.Title)
		if task == nil {
			continue
		}

		changed := false
		now := time.Now()

		// Title doubles as the fallback lookup key; since the lookup is
		// case-insensitive, a title-resolved match can still rename on a
		// case difference.
		if title := strings.TrimSpace(action.Title); len([]rune(title)) >= 3 && title != task.Title {
			task.Title = title
			changed = true
		}
		if action.Description != nil {
			if task.Description == nil || *task.Description != *action.Description {
				task.Description = action.Description
				changed = true
			}
		}
		if action.Priority != nil {
			if priority := domain.NormalizePriority(*action.Priority); priority != task.Priority {
				task.Priority = priority
				changed = true
			}
		}
		if action.Deadline != nil {
			// Unparsable input is treated as no change request, never a clear.
			if deadline := ParseDeadline(*action.Deadline); deadline != nil {
				if task.Deadline == nil || !task.Deadline.Equal(*deadline) {
					task.Deadline = deadline
					changed = true
				}
			}
		}
		if action.Category != nil {
			var categoryID *uuid.UUID
			if category := cat.find(*action.Category); category != nil {
				id := category.ID
				categoryID = &id
			}
			// Empty or unresolved name clears the category.
			if !uuidPtrEqual(task.CategoryID, categoryID) {
				task.CategoryID = categoryID
				changed = true
			}
		}
		if action.IsDone != nil && bool(*action.IsDone) != task.IsDone {
			task.SetDone(bool(*action.IsDone), now)
			changed = true
		}

		if !changed {
			continue
		}
		task.UpdatedAt = now
		if err := e.taskRepo.Update(ctx, task); err != nil {
			log.Debug().Err(err).Str("task", task.Title).Msg("task update skipped")
			continue
		}
		summary.TasksUpdated++
	}
}

func (e *Executor) deleteCategories(ctx context.Context, userID uuid.UUID, actions []domain.CategoryDeleteAction, cat *catalog, summary *domain.ExecutionSummary) {
	for _, action := range actions {
		category := cat.findOwned(action.Name)
		if category == nil {
			continue
		}

		if _, err := e.taskRepo.ClearCategory(ctx, userID, category.ID); err != nil {
			log.Debug().Err(err).Str("category", action.Name).Msg("category delete skipped")
			continue
		}
		if err := e.categoryRepo.Delete(ctx, category.ID); err != nil {
			log.Debug().Err(err).Str("category", action.Name).Msg("category delete skipped")
			continue
		}
		cat.remove(category)
		summary.CategoriesDeleted++
	}
}

func (e *Executor) deleteTasks(ctx context.Context, userID uuid.UUID, actions []domain.TaskDeleteAction, summary *domain.ExecutionSummary) {
	for _, action := range actions {
		task := e.resolveTask(ctx, userID, action.ID, action.Title)
		if task == nil {
			continue
		}

		deleted, err := e.taskRepo.Delete(ctx, userID, task.ID)
		if err != nil || !deleted {
			if err != nil {
				log.Debug().Err(err).Str("task", task.Title).Msg("task delete skipped")
			}
			continue
		}
		summary.TasksDeleted++
	}
}

// resolveTask finds the target of an update/delete action: by id when it
// parses and belongs to the user, otherwise the most recent task with a
// case-insensitive exact title match.
func (e *Executor) resolveTask(ctx context.Context, userID uuid.UUID, id domain.FlexID, title string) *domain.Task {
	if raw := strings.TrimSpace(id.String()); raw != "" {
		if taskID, err := uuid.Parse(raw); err == nil {
			task, err := e.taskRepo.GetByID(ctx, userID, taskID)
			if err == nil && task != nil {
				return task
			}
		}
	}

	if title = strings.TrimSpace(title); title != "" {
		task, err := e.taskRepo.GetByTitle(ctx, userID, title)
		if err == nil && task != nil {
			return task
		}
	}
	return nil
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
