package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"perfect-day/internal/model"
)

type JournalRepository struct {
	db *gorm.DB
}

func NewJournalRepository(db *gorm.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

func (r *JournalRepository) Create(ctx context.Context, entry *model.JournalEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("create journal entry: %w", err)
	}
	return nil
}

func (r *JournalRepository) ListByUser(ctx context.Context, userID string) ([]model.JournalEntry, error) {
	var entries []model.JournalEntry
	q := r.db.WithContext(ctx)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	return entries, nil
}

func (r *JournalRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.JournalEntry{})
	if res.Error != nil {
		return fmt.Errorf("delete journal entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete journal entry: %w", gorm.ErrRecordNotFound)
	}
	return nil
}
