package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GulovM/ToDo-Master/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, user_id, title, description, is_done, priority, deadline, category_id, created_at, updated_at, completed_at`

// TaskRepository implements domain.TaskRepository
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{pool: db.Pool}
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.pool.Exec(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.IsDone,
		task.Priority,
		task.Deadline,
		task.CategoryID,
		task.CreatedAt,
		task.UpdatedAt,
		task.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`
	return r.scanOne(ctx, query, id, userID)
}

func (r *TaskRepository) GetByTitle(ctx context.Context, userID uuid.UUID, title string) (*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND LOWER(title) = LOWER($2)
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanOne(ctx, query, userID, title)
}

func (r *TaskRepository) scanOne(ctx context.Context, query string, args ...any) (*domain.Task, error) {
	var t domain.Task
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&t.IsDone,
		&t.Priority,
		&t.Deadline,
		&t.CategoryID,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter domain.TaskFilter) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`
	args := []any{userID}

	if filter.IsDone != nil {
		args = append(args, *filter.IsDone)
		query += fmt.Sprintf(" AND is_done = $%d", len(args))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		query += fmt.Sprintf(" AND priority = $%d", len(args))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if filter.DueAfter != nil {
		args = append(args, *filter.DueAfter)
		query += fmt.Sprintf(" AND deadline >= $%d", len(args))
	}
	if filter.DueBefore != nil {
		args = append(args, *filter.DueBefore)
		query += fmt.Sprintf(" AND deadline <= $%d", len(args))
	}

	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Title,
			&t.Description,
			&t.IsDone,
			&t.Priority,
			&t.Deadline,
			&t.CategoryID,
			&t.CreatedAt,
			&t.UpdatedAt,
			&t.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	query := `
		UPDATE tasks
		SET title = $1, description = $2, is_done = $3, priority = $4,
		    deadline = $5, category_id = $6, updated_at = $7, completed_at = $8
		WHERE id = $9 AND user_id = $10
	`
	_, err := r.pool.Exec(ctx, query,
		task.Title,
		task.Description,
		task.IsDone,
		task.Priority,
		task.Deadline,
		task.CategoryID,
		task.UpdatedAt,
		task.CompletedAt,
		task.ID,
		task.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *TaskRepository) SetDone(ctx context.Context, userID uuid.UUID, ids []uuid.UUID, done bool, completedAt time.Time) (int64, error) {
	var query string
	if done {
		query = `
			UPDATE tasks
			SET is_done = TRUE, completed_at = $3, updated_at = $3
			WHERE user_id = $1 AND id = ANY($2) AND is_done = FALSE
		`
	} else {
		query = `
			UPDATE tasks
			SET is_done = FALSE, completed_at = NULL, updated_at = $3
			WHERE user_id = $1 AND id = ANY($2) AND is_done = TRUE
		`
	}
	tag, err := r.pool.Exec(ctx, query, userID, ids, completedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to update task status: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *TaskRepository) DeleteMany(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	query := `DELETE FROM tasks WHERE user_id = $1 AND id = ANY($2)`
	tag, err := r.pool.Exec(ctx, query, userID, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *TaskRepository) ClearCategory(ctx context.Context, userID, categoryID uuid.UUID) (int64, error) {
	query := `
		UPDATE tasks
		SET category_id = NULL, updated_at = NOW()
		WHERE user_id = $1 AND category_id = $2
	`
	tag, err := r.pool.Exec(ctx, query, userID, categoryID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear task category: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *TaskRepository) CountByCategory(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	query := `
		SELECT category_id, COUNT(*)
		FROM tasks
		WHERE user_id = $1 AND category_id IS NOT NULL
		GROUP BY category_id
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by category: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var id uuid.UUID
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		counts[id] = count
	}
	return counts, nil
}

func (r *TaskRepository) Stats(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.TaskStats, error) {
	stats := &domain.TaskStats{
		TasksByCategory: make(map[string]int),
		TasksByPriority: make(map[string]int),
		RecentActivity:  []domain.ActivityPoint{},
	}

	countsQuery := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_done),
		       COUNT(*) FILTER (WHERE NOT is_done AND deadline < $2)
		FROM tasks
		WHERE user_id = $1
	`
	err := r.pool.QueryRow(ctx, countsQuery, userID, now).Scan(
		&stats.TotalTasks,
		&stats.CompletedTasks,
		&stats.OverdueTasks,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	stats.PendingTasks = stats.TotalTasks - stats.CompletedTasks
	if stats.TotalTasks > 0 {
		rate := float64(stats.CompletedTasks) / float64(stats.TotalTasks) * 100
		stats.CompletionRate = float64(int(rate*100+0.5)) / 100
	}

	categoryQuery := `
		SELECT COALESCE(c.name, ''), COUNT(*)
		FROM tasks t
		LEFT JOIN task_categories c ON c.id = t.category_id
		WHERE t.user_id = $1
		GROUP BY c.name
	`
	rows, err := r.pool.Query(ctx, categoryQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by category: %w", err)
	}
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan category stats: %w", err)
		}
		if name == "" {
			name = "No Category"
		}
		stats.TasksByCategory[name] = count
	}
	rows.Close()

	priorityQuery := `
		SELECT priority, COUNT(*)
		FROM tasks
		WHERE user_id = $1
		GROUP BY priority
	`
	rows, err = r.pool.Query(ctx, priorityQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by priority: %w", err)
	}
	for rows.Next() {
		var priority string
		var count int
		if err := rows.Scan(&priority, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan priority stats: %w", err)
		}
		stats.TasksByPriority[priority] = count
	}
	rows.Close()

	activityQuery := `
		SELECT DATE(created_at)::text, COUNT(*)
		FROM tasks
		WHERE user_id = $1 AND created_at >= $2
		GROUP BY DATE(created_at)
		ORDER BY DATE(created_at)
	`
	rows, err = r.pool.Query(ctx, activityQuery, userID, now.AddDate(0, 0, -7))
	if err != nil {
		return nil, fmt.Errorf("failed to query recent activity: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p domain.ActivityPoint
		if err := rows.Scan(&p.Date, &p.Count); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		stats.RecentActivity = append(stats.RecentActivity, p)
	}

	return stats, nil
}
