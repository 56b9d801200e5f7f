package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"habitloop/internal/model"
)

// CompletionRepository handles the append-only completion log.
type CompletionRepository struct {
	db *gorm.DB
}

func NewCompletionRepository(db *gorm.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

func (r *CompletionRepository) Append(ctx context.Context, completion *model.Completion) error {
	if err := r.db.WithContext(ctx).Create(completion).Error; err != nil {
		return fmt.Errorf("append completion: %w", err)
	}
	return nil
}

func (r *CompletionRepository) Exists(ctx context.Context, taskID uint, date time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Completion{}).
		Where("task_id = ? AND date = ?", taskID, date).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check completion: %w", err)
	}
	return count > 0, nil
}

func (r *CompletionRepository) ListByTask(ctx context.Context, taskID uint) ([]model.Completion, error) {
	var completions []model.Completion
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).
		Order("date ASC").
		Find(&completions).Error; err != nil {
		return nil, err
	}
	return completions, nil
}
