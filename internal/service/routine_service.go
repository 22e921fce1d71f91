package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"perfect-day/internal/model"
	"perfect-day/internal/repository"
)

type RoutineInput struct {
	Title       string
	Description *string
	Time        *string
	IsActive    *bool
	Frequency   string
	Days        []int
	UserID      string
}

// RoutinePatch mirrors RoutineInput with every field optional.
type RoutinePatch struct {
	Title       *string
	Description *string
	Time        *string
	IsActive    *bool
	Frequency   *string
	Days        []int
}

type RoutineService struct {
	repo  *repository.RoutineRepository
	users *repository.UserRepository
}

func NewRoutineService(repo *repository.RoutineRepository, users *repository.UserRepository) *RoutineService {
	return &RoutineService{repo: repo, users: users}
}

func (s *RoutineService) Create(ctx context.Context, input RoutineInput) (*model.Routine, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return nil, ErrMissingUserID
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrMissingFields
	}

	routine := model.Routine{
		Title:       title,
		Description: emptyToNil(input.Description),
		IsActive:    true,
		UserID:      input.UserID,
	}
	if input.IsActive != nil {
		routine.IsActive = *input.IsActive
	}
	if err := applyTime(&routine, input.Time); err != nil {
		return nil, err
	}
	freq := input.Frequency
	if freq == "" {
		freq = "daily"
	}
	if err := applySchedule(&routine, freq, input.Days); err != nil {
		return nil, err
	}
	if err := checkOwner(ctx, s.users, input.UserID); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, &routine); err != nil {
		return nil, err
	}
	return &routine, nil
}

func (s *RoutineService) List(ctx context.Context, userID string) ([]model.Routine, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *RoutineService) Update(ctx context.Context, id string, patch RoutinePatch) (*model.Routine, error) {
	routine, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, ErrMissingFields
		}
		routine.Title = title
	}
	if patch.Description != nil {
		routine.Description = emptyToNil(patch.Description)
	}
	if patch.Time != nil {
		if err := applyTime(routine, patch.Time); err != nil {
			return nil, err
		}
	}
	if patch.IsActive != nil {
		routine.IsActive = *patch.IsActive
	}
	if patch.Frequency != nil || patch.Days != nil {
		freq := routine.Frequency
		if patch.Frequency != nil {
			freq = *patch.Frequency
		}
		if err := applySchedule(routine, freq, patch.Days); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, routine); err != nil {
		return nil, err
	}
	return routine, nil
}

func (s *RoutineService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// applyTime accepts an empty string to clear the time.
func applyTime(r *model.Routine, raw *string) error {
	v := emptyToNil(raw)
	if v == nil {
		r.Time = nil
		return nil
	}
	t, err := time.Parse("15:04", *v)
	if err != nil {
		return ErrInvalidTime
	}
	formatted := t.Format("15:04")
	r.Time = &formatted
	return nil
}

// applySchedule fills days from the frequency unless explicit days are given.
func applySchedule(r *model.Routine, frequency string, days []int) error {
	defaults, ok := model.FrequencyDays(frequency)
	if !ok {
		return ErrInvalidFrequency
	}
	r.Frequency = frequency
	if days != nil {
		r.Days = model.Weekdays(days).Normalize()
		return nil
	}
	r.Days = defaults
	return nil
}
