package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"loose-ends/internal/model"
)

// TaskRepository handles CRUD for tasks. Every statement is scoped by owner.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	task.CreatedAt = task.CreatedAt.UTC()
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// ListForDay returns the user's tasks that are unchecked or were checked at or
// after since, oldest first.
func (r *TaskRepository) ListForDay(ctx context.Context, userID string, since time.Time) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND (checked_at IS NULL OR checked_at >= ?)", userID, since.UTC()).
		Order("created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error
	switch {
	case err == nil:
		return &task, nil
	case err == gorm.ErrRecordNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("find task: %w", err)
	}
}

// Delete removes a task owned by the given user.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID string) error {
	result := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).Delete(&model.Task{})
	if result.Error != nil {
		return fmt.Errorf("delete task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetChecked stamps checked_at, or clears it when checkedAt is nil.
func (r *TaskRepository) SetChecked(ctx context.Context, userID, taskID string, checkedAt *time.Time) error {
	var value any
	if checkedAt != nil {
		value = checkedAt.UTC()
	}
	return r.update(ctx, userID, taskID, "checked_at", value)
}

func (r *TaskRepository) SetPinned(ctx context.Context, userID, taskID string, pinnedAt time.Time) error {
	return r.update(ctx, userID, taskID, "pinned_at", pinnedAt.UTC())
}

func (r *TaskRepository) SetTitle(ctx context.Context, userID, taskID, title string) error {
	return r.update(ctx, userID, taskID, "title", title)
}

// CountChecked counts the user's checked tasks, optionally only those checked
// at or after since.
func (r *TaskRepository) CountChecked(ctx context.Context, userID string, since *time.Time) (int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Task{}).Where("user_id = ? AND checked_at IS NOT NULL", userID)
	if since != nil {
		query = query.Where("checked_at >= ?", since.UTC())
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count checked tasks: %w", err)
	}
	return count, nil
}

func (r *TaskRepository) update(ctx context.Context, userID, taskID, column string, value any) error {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND id = ?", userID, taskID).
		Update(column, value)
	if result.Error != nil {
		return fmt.Errorf("update task %s: %w", column, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
