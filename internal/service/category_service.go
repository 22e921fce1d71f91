package service

import (
	"context"
	"strings"

	"perfect-day/internal/model"
	"perfect-day/internal/repository"
)

const defaultCategoryColor = "#808080"

// CategoryService provides helpers around categories.
type CategoryService struct {
	repo *repository.CategoryRepository
}

func NewCategoryService(repo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	return s.repo.List(ctx)
}

func (s *CategoryService) Create(ctx context.Context, name, color string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingFields
	}
	color = strings.TrimSpace(color)
	if color == "" {
		color = defaultCategoryColor
	}
	category := model.Category{Name: name, Color: color}
	if err := s.repo.Create(ctx, &category); err != nil {
		return nil, err
	}
	return &category, nil
}
