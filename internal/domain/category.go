package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultCategoryColor is applied when no valid color is supplied.
const DefaultCategoryColor = "#3B82F6"

// TaskCategory groups tasks. A category with a nil owner is global: visible
// to everyone, mutable by no one.
type TaskCategory struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     *uuid.UUID `json:"owner_id,omitempty"`
	Name        string     `json:"name"`
	Color       string     `json:"color"`
	Description *string    `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IsGlobal reports whether the category has no owner.
func (c *TaskCategory) IsGlobal() bool {
	return c.OwnerID == nil
}

// OwnedBy reports whether the category belongs to the given user.
func (c *TaskCategory) OwnedBy(userID uuid.UUID) bool {
	return c.OwnerID != nil && *c.OwnerID == userID
}

// CategoryCreate represents category creation data
type CategoryCreate struct {
	Name        string  `json:"name" validate:"required,max=50"`
	Color       string  `json:"color" validate:"omitempty,hexcolor"`
	Description *string `json:"description,omitempty"`
}

// CategoryUpdate represents a partial category update
type CategoryUpdate struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=50"`
	Color       *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Description *string `json:"description,omitempty"`
}

// ValidHexColor reports whether s looks like a #RGB or #RRGGBB color.
func ValidHexColor(s string) bool {
	if !strings.HasPrefix(s, "#") {
		return false
	}
	return len(s) == 4 || len(s) == 7
}

// CategoryRepository defines the interface for category storage
type CategoryRepository interface {
	Create(ctx context.Context, category *TaskCategory) error
	GetByID(ctx context.Context, id uuid.UUID) (*TaskCategory, error)
	// ListVisible returns the user's own categories plus global ones,
	// ordered by name.
	ListVisible(ctx context.Context, userID uuid.UUID) ([]TaskCategory, error)
	Update(ctx context.Context, category *TaskCategory) error
	Delete(ctx context.Context, id uuid.UUID) error
}
