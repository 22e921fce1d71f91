package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"perfect-day/internal/model"
)

type MoodRepository struct {
	db *gorm.DB
}

func NewMoodRepository(db *gorm.DB) *MoodRepository {
	return &MoodRepository{db: db}
}

func (r *MoodRepository) Create(ctx context.Context, mood *model.Mood) error {
	if err := r.db.WithContext(ctx).Create(mood).Error; err != nil {
		return fmt.Errorf("create mood: %w", err)
	}
	return nil
}

// List returns moods newest first, optionally limited to one user.
func (r *MoodRepository) List(ctx context.Context, userID string) ([]model.Mood, error) {
	var moods []model.Mood
	q := r.db.WithContext(ctx)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.Order("created_at DESC").Find(&moods).Error; err != nil {
		return nil, fmt.Errorf("list moods: %w", err)
	}
	return moods, nil
}
