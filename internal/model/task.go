package model

import (
	"time"

	"gorm.io/gorm"
)

// Task represents a single item in the planner.
type Task struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `gorm:"index" json:"dueDate"`
	Completed   bool       `gorm:"not null" json:"completed"`
	Priority    Priority   `gorm:"size:16;default:'MEDIUM'" json:"priority"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	UserID      string     `gorm:"index;not null;size:36" json:"userId"`
	CategoryID  *string    `gorm:"index;size:36" json:"categoryId"`
	RoutineID   *string    `gorm:"size:36" json:"routineId"`
	Category    *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (t *Task) BeforeCreate(*gorm.DB) error {
	newID(&t.ID)
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	return nil
}
