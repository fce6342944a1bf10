package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GulovM/ToDo-Master/internal/domain"
	"github.com/google/uuid"
)

// CategoryView is a category as presented to its viewer, with the task
// count and mutability resolved for that user.
type CategoryView struct {
	domain.TaskCategory
	TaskCount int  `json:"task_count"`
	IsGlobal  bool `json:"is_global"`
	CanEdit   bool `json:"can_edit"`
}

// CategoryService handles category operations
type CategoryService struct {
	categoryRepo domain.CategoryRepository
	taskRepo     domain.TaskRepository
}

// NewCategoryService creates a new category service
func NewCategoryService(categoryRepo domain.CategoryRepository, taskRepo domain.TaskRepository) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		taskRepo:     taskRepo,
	}
}

// List returns the categories visible to the user: global ones plus their own.
func (s *CategoryService) List(ctx context.Context, userID uuid.UUID) ([]CategoryView, error) {
	categories, err := s.categoryRepo.ListVisible(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	counts, err := s.taskRepo.CountByCategory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	views := make([]CategoryView, 0, len(categories))
	for _, c := range categories {
		views = append(views, CategoryView{
			TaskCategory: c,
			TaskCount:    counts[c.ID],
			IsGlobal:     c.IsGlobal(),
			CanEdit:      c.OwnedBy(userID),
		})
	}
	return views, nil
}

// Create adds a user-owned category. Names are unique case-insensitively
// within the user's visible set.
func (s *CategoryService) Create(ctx context.Context, userID uuid.UUID, input domain.CategoryCreate) (*domain.TaskCategory, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameTaken
	}

	visible, err := s.categoryRepo.ListVisible(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	for i := range visible {
		if strings.EqualFold(visible[i].Name, name) {
			return nil, domain.ErrNameTaken
		}
	}

	color := input.Color
	if !domain.ValidHexColor(color) {
		color = domain.DefaultCategoryColor
	}

	owner := userID
	category := &domain.TaskCategory{
		ID:          uuid.New(),
		OwnerID:     &owner,
		Name:        name,
		Color:       color,
		Description: input.Description,
		CreatedAt:   time.Now(),
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

// Update modifies a user-owned category. Global categories report
// not-allowed; other users' categories report not-found.
func (s *CategoryService) Update(ctx context.Context, userID, id uuid.UUID, input domain.CategoryUpdate) (*domain.TaskCategory, error) {
	category, err := s.getEditable(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name != "" && !strings.EqualFold(name, category.Name) {
			visible, err := s.categoryRepo.ListVisible(ctx, userID)
			if err != nil {
				return nil, fmt.Errorf("failed to list categories: %w", err)
			}
			for i := range visible {
				if visible[i].ID != category.ID && strings.EqualFold(visible[i].Name, name) {
					return nil, domain.ErrNameTaken
				}
			}
			category.Name = name
		}
	}
	if input.Color != nil && domain.ValidHexColor(*input.Color) {
		category.Color = *input.Color
	}
	if input.Description != nil {
		category.Description = input.Description
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return category, nil
}

// Delete removes a user-owned category after detaching the user's tasks
// from it. Task rows themselves are untouched.
func (s *CategoryService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	category, err := s.getEditable(ctx, userID, id)
	if err != nil {
		return err
	}

	if _, err := s.taskRepo.ClearCategory(ctx, userID, category.ID); err != nil {
		return fmt.Errorf("failed to detach tasks: %w", err)
	}
	if err := s.categoryRepo.Delete(ctx, category.ID); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

func (s *CategoryService) getEditable(ctx context.Context, userID, id uuid.UUID) (*domain.TaskCategory, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if category == nil {
		return nil, domain.ErrNotFound
	}
	if category.IsGlobal() {
		// Global categories are public, so not-allowed does not leak anything.
		return nil, domain.ErrNotAllowed
	}
	if !category.OwnedBy(userID) {
		return nil, domain.ErrNotFound
	}
	return category, nil
}
