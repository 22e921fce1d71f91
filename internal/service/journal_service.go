package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"perfect-day/internal/model"
	"perfect-day/internal/repository"
)

type JournalService struct {
	repo  *repository.JournalRepository
	users *repository.UserRepository
}

func NewJournalService(repo *repository.JournalRepository, users *repository.UserRepository) *JournalService {
	return &JournalService{repo: repo, users: users}
}

func (s *JournalService) Create(ctx context.Context, userID, content string, tags []string) (*model.JournalEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUserID
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrMissingFields
	}
	if err := checkOwner(ctx, s.users, userID); err != nil {
		return nil, err
	}

	var cleaned model.Tags
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			cleaned = append(cleaned, tag)
		}
	}

	entry := model.JournalEntry{UserID: userID, Content: content, Tags: cleaned}
	if err := s.repo.Create(ctx, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns entries newest first whose content or tags contain query.
func (s *JournalService) List(ctx context.Context, userID, query string) ([]model.JournalEntry, error) {
	entries, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return entries, nil
	}
	filtered := entries[:0]
	for _, e := range entries {
		if e.Matches(query) {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

func (s *JournalService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
