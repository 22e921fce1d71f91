package api

import (
	"time"

	"gorm.io/gorm"

	"perfect-day/internal/repository"
	"perfect-day/internal/service"
)

// NewServices wires repositories and services over one database.
func NewServices(db *gorm.DB, jwtSecret string, sessionTTL time.Duration) Services {
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	return Services{
		Users:      service.NewUserService(userRepo),
		Sessions:   service.NewSessionService(jwtSecret, sessionTTL),
		Tasks:      service.NewTaskService(taskRepo, categoryRepo, userRepo),
		Categories: service.NewCategoryService(categoryRepo),
		Moods:      service.NewMoodService(repository.NewMoodRepository(db), userRepo),
		Routines:   service.NewRoutineService(repository.NewRoutineRepository(db), userRepo),
		Journal:    service.NewJournalService(repository.NewJournalRepository(db), userRepo),
	}
}
