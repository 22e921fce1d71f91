package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"perfect-day/internal/model"
)

type RoutineRepository struct {
	db *gorm.DB
}

func NewRoutineRepository(db *gorm.DB) *RoutineRepository {
	return &RoutineRepository{db: db}
}

func (r *RoutineRepository) Create(ctx context.Context, routine *model.Routine) error {
	if err := r.db.WithContext(ctx).Create(routine).Error; err != nil {
		return fmt.Errorf("create routine: %w", err)
	}
	return nil
}

// ListByUser orders by time of day, routines without a time last.
func (r *RoutineRepository) ListByUser(ctx context.Context, userID string) ([]model.Routine, error) {
	var routines []model.Routine
	q := r.db.WithContext(ctx)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.Order("time_of_day IS NULL, time_of_day ASC, created_at ASC").Find(&routines).Error; err != nil {
		return nil, fmt.Errorf("list routines: %w", err)
	}
	return routines, nil
}

func (r *RoutineRepository) FindByID(ctx context.Context, id string) (*model.Routine, error) {
	var routine model.Routine
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&routine).Error; err != nil {
		return nil, fmt.Errorf("find routine: %w", err)
	}
	return &routine, nil
}

func (r *RoutineRepository) Save(ctx context.Context, routine *model.Routine) error {
	if err := r.db.WithContext(ctx).Save(routine).Error; err != nil {
		return fmt.Errorf("save routine: %w", err)
	}
	return nil
}

func (r *RoutineRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Routine{})
	if res.Error != nil {
		return fmt.Errorf("delete routine: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete routine: %w", gorm.ErrRecordNotFound)
	}
	return nil
}
