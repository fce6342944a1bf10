package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/GulovM/ToDo-Master/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CategoryRepository implements domain.CategoryRepository
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *DB) *CategoryRepository {
	return &CategoryRepository{pool: db.Pool}
}

func (r *CategoryRepository) Create(ctx context.Context, category *domain.TaskCategory) error {
	query := `
		INSERT INTO task_categories (id, owner_id, name, color, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		category.ID,
		category.OwnerID,
		category.Name,
		category.Color,
		category.Description,
		category.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskCategory, error) {
	query := `
		SELECT id, owner_id, name, color, description, created_at
		FROM task_categories
		WHERE id = $1
	`
	var c domain.TaskCategory
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.OwnerID,
		&c.Name,
		&c.Color,
		&c.Description,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

func (r *CategoryRepository) ListVisible(ctx context.Context, userID uuid.UUID) ([]domain.TaskCategory, error) {
	query := `
		SELECT id, owner_id, name, color, description, created_at
		FROM task_categories
		WHERE owner_id IS NULL OR owner_id = $1
		ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.TaskCategory
	for rows.Next() {
		var c domain.TaskCategory
		if err := rows.Scan(
			&c.ID,
			&c.OwnerID,
			&c.Name,
			&c.Color,
			&c.Description,
			&c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, nil
}

func (r *CategoryRepository) Update(ctx context.Context, category *domain.TaskCategory) error {
	query := `
		UPDATE task_categories
		SET name = $1, color = $2, description = $3
		WHERE id = $4
	`
	_, err := r.pool.Exec(ctx, query,
		category.Name,
		category.Color,
		category.Description,
		category.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM task_categories WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}
