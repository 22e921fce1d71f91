package service

import (
	"context"
	"strings"

	"perfect-day/internal/model"
	"perfect-day/internal/repository"
)

type MoodService struct {
	repo  *repository.MoodRepository
	users *repository.UserRepository
}

func NewMoodService(repo *repository.MoodRepository, users *repository.UserRepository) *MoodService {
	return &MoodService{repo: repo, users: users}
}

func (s *MoodService) Record(ctx context.Context, userID string, value int, note *string) (*model.Mood, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUserID
	}
	if !model.ValidMood(value) {
		return nil, ErrInvalidMood
	}
	if err := checkOwner(ctx, s.users, userID); err != nil {
		return nil, err
	}
	mood := model.Mood{UserID: userID, Value: value, Note: emptyToNil(note)}
	if err := s.repo.Create(ctx, &mood); err != nil {
		return nil, err
	}
	return &mood, nil
}

func (s *MoodService) List(ctx context.Context, userID string) ([]model.Mood, error) {
	return s.repo.List(ctx, userID)
}
