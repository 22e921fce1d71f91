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

// TaskInput represents data required to create a task.
type TaskInput struct {
	ID          string
	Title       string
	Description *string
	DueDate     *time.Time
	Completed   bool
	Priority    string
	UserID      string
	CategoryID  *string
	RoutineID   *string
}

// TaskPatch is a partial update. A nil field is left unchanged; the Clear flags null a column.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Completed   *bool
	Priority    *string
	CategoryID  *string

	ClearDescription bool
	ClearDueDate     bool
	ClearCategory    bool
}

// TaskService wraps task-related business logic.
type TaskService struct {
	taskRepo     *repository.TaskRepository
	categoryRepo *repository.CategoryRepository
	userRepo     *repository.UserRepository
}

func NewTaskService(taskRepo *repository.TaskRepository, categoryRepo *repository.CategoryRepository, userRepo *repository.UserRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo, categoryRepo: categoryRepo, userRepo: userRepo}
}

func (s *TaskService) CreateTask(ctx context.Context, input TaskInput) (*model.Task, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return nil, ErrMissingUserID
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrMissingFields
	}

	priority := model.PriorityMedium
	if input.Priority != "" {
		p, ok := model.ParsePriority(input.Priority)
		if !ok {
			return nil, ErrInvalidPriority
		}
		priority = p
	}

	if err := checkOwner(ctx, s.userRepo, input.UserID); err != nil {
		return nil, err
	}
	categoryID := emptyToNil(input.CategoryID)
	if err := s.checkCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	task := model.Task{
		ID:          input.ID,
		Title:       title,
		Description: input.Description,
		DueDate:     input.DueDate,
		Completed:   input.Completed,
		Priority:    priority,
		UserID:      input.UserID,
		CategoryID:  categoryID,
		RoutineID:   emptyToNil(input.RoutineID),
	}
	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	return s.GetTask(ctx, task.ID)
}

func (s *TaskService) ListTasks(ctx context.Context, userID string) ([]model.Task, error) {
	return s.taskRepo.ListByUser(ctx, userID)
}

func (s *TaskService) GetTask(ctx context.Context, id string) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return task, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, id string, patch TaskPatch) (*model.Task, error) {
	updates := map[string]interface{}{}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, ErrMissingFields
		}
		updates["title"] = title
	}
	switch {
	case patch.ClearDescription:
		updates["description"] = nil
	case patch.Description != nil:
		updates["description"] = *patch.Description
	}
	switch {
	case patch.ClearDueDate:
		updates["due_date"] = nil
	case patch.DueDate != nil:
		updates["due_date"] = *patch.DueDate
	}
	if patch.Completed != nil {
		updates["completed"] = *patch.Completed
	}
	if patch.Priority != nil {
		p, ok := model.ParsePriority(*patch.Priority)
		if !ok {
			return nil, ErrInvalidPriority
		}
		updates["priority"] = p
	}
	switch {
	case patch.ClearCategory:
		updates["category_id"] = nil
	case patch.CategoryID != nil:
		categoryID := emptyToNil(patch.CategoryID)
		if err := s.checkCategory(ctx, categoryID); err != nil {
			return nil, err
		}
		if categoryID == nil {
			updates["category_id"] = nil
		} else {
			updates["category_id"] = *categoryID
		}
	}

	if len(updates) == 0 {
		return s.GetTask(ctx, id)
	}
	if err := s.taskRepo.Update(ctx, id, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.GetTask(ctx, id)
}

func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	if err := s.taskRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *TaskService) checkCategory(ctx context.Context, id *string) error {
	if id == nil {
		return nil
	}
	ok, err := s.categoryRepo.Exists(ctx, *id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownCategory
	}
	return nil
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
