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

// StatsCache caches computed task statistics per user.
type StatsCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.TaskStats, error)
	Set(ctx context.Context, userID uuid.UUID, stats *domain.TaskStats) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// TaskService handles task operations
type TaskService struct {
	taskRepo     domain.TaskRepository
	categoryRepo domain.CategoryRepository
	statsCache   StatsCache
}

// NewTaskService creates a new task service. statsCache may be nil.
func NewTaskService(taskRepo domain.TaskRepository, categoryRepo domain.CategoryRepository, statsCache StatsCache) *TaskService {
	return &TaskService{
		taskRepo:     taskRepo,
		categoryRepo: categoryRepo,
		statsCache:   statsCache,
	}
}

// List returns the user's tasks, newest first, narrowed by the filter.
func (s *TaskService) List(ctx context.Context, userID uuid.UUID, filter domain.TaskFilter) ([]domain.Task, error) {
	return s.taskRepo.ListByUser(ctx, userID, filter)
}

// Get returns a single task owned by the user
func (s *TaskService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return nil, domain.ErrNotFound
	}
	return task, nil
}

// Create adds a new task owned by the user
func (s *TaskService) Create(ctx context.Context, userID uuid.UUID, input domain.TaskCreate) (*domain.Task, error) {
	title := strings.TrimSpace(input.Title)

	categoryID, err := s.resolveCategory(ctx, userID, input.CategoryID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	task := &domain.Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: input.Description,
		Priority:    domain.NormalizePriority(input.Priority),
		Deadline:    input.Deadline,
		CategoryID:  categoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.invalidateStats(ctx, userID)
	return task, nil
}

// Update applies a partial update to a task owned by the user
func (s *TaskService) Update(ctx context.Context, userID, id uuid.UUID, input domain.TaskUpdate) (*domain.Task, error) {
	task, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if title := strings.TrimSpace(*input.Title); title != "" {
			task.Title = title
		}
	}
	if input.Description != nil {
		task.Description = input.Description
	}
	if input.Priority != nil {
		task.Priority = domain.NormalizePriority(*input.Priority)
	}
	if input.Deadline != nil {
		task.Deadline = input.Deadline
	}
	if input.CategoryID != nil {
		categoryID, err := s.resolveCategory(ctx, userID, input.CategoryID)
		if err != nil {
			return nil, err
		}
		task.CategoryID = categoryID
	}

	now := time.Now()
	if input.IsDone != nil && *input.IsDone != task.IsDone {
		task.SetDone(*input.IsDone, now)
	}
	task.UpdatedAt = now

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.invalidateStats(ctx, userID)
	return task, nil
}

// SetStatus flips a task's done flag, keeping the completion timestamp in sync
func (s *TaskService) SetStatus(ctx context.Context, userID, id uuid.UUID, done bool) (*domain.Task, error) {
	task, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	task.SetDone(done, now)
	task.UpdatedAt = now

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.invalidateStats(ctx, userID)
	return task, nil
}

// Delete removes a task owned by the user
func (s *TaskService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	deleted, err := s.taskRepo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if !deleted {
		return domain.ErrNotFound
	}

	s.invalidateStats(ctx, userID)
	return nil
}

// Bulk applies a complete/uncomplete/delete action to a set of the user's
// tasks. IDs the user does not own are ignored. Returns the number of
// tasks affected.
func (s *TaskService) Bulk(ctx context.Context, userID uuid.UUID, input domain.TaskBulkRequest) (int64, error) {
	var affected int64
	var err error

	now := time.Now()
	switch input.Action {
	case domain.BulkComplete:
		affected, err = s.taskRepo.SetDone(ctx, userID, input.TaskIDs, true, now)
	case domain.BulkUncomplete:
		affected, err = s.taskRepo.SetDone(ctx, userID, input.TaskIDs, false, now)
	case domain.BulkDelete:
		affected, err = s.taskRepo.DeleteMany(ctx, userID, input.TaskIDs)
	default:
		return 0, fmt.Errorf("unknown bulk action: %s", input.Action)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to apply bulk action: %w", err)
	}

	if affected > 0 {
		s.invalidateStats(ctx, userID)
	}
	return affected, nil
}

// Upcoming returns the user's pending tasks due within the next `days` days.
func (s *TaskService) Upcoming(ctx context.Context, userID uuid.UUID, days int) ([]domain.Task, error) {
	if days <= 0 {
		days = 7
	}
	now := time.Now()
	until := now.AddDate(0, 0, days)
	pending := false

	return s.taskRepo.ListByUser(ctx, userID, domain.TaskFilter{
		IsDone:    &pending,
		DueAfter:  &now,
		DueBefore: &until,
	})
}

// Stats returns the user's task statistics, served from cache when fresh.
func (s *TaskService) Stats(ctx context.Context, userID uuid.UUID) (*domain.TaskStats, error) {
	if s.statsCache != nil {
		cached, err := s.statsCache.Get(ctx, userID)
		if err != nil {
			log.Warn().Err(err).Msg("stats cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	stats, err := s.taskRepo.Stats(ctx, userID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}

	if s.statsCache != nil {
		if err := s.statsCache.Set(ctx, userID, stats); err != nil {
			log.Warn().Err(err).Msg("stats cache write failed")
		}
	}
	return stats, nil
}

// resolveCategory validates that a referenced category is visible to the
// user. Foreign categories surface as not-found.
func (s *TaskService) resolveCategory(ctx context.Context, userID uuid.UUID, id *uuid.UUID) (*uuid.UUID, error) {
	if id == nil {
		return nil, nil
	}
	category, err := s.categoryRepo.GetByID(ctx, *id)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if category == nil || (!category.IsGlobal() && !category.OwnedBy(userID)) {
		return nil, domain.ErrNotFound
	}
	return id, nil
}

func (s *TaskService) invalidateStats(ctx context.Context, userID uuid.UUID) {
	if s.statsCache == nil {
		return
	}
	if err := s.statsCache.Invalidate(ctx, userID); err != nil {
		log.Warn().Err(err).Msg("stats cache invalidation failed")
	}
}
