package model

import (
	"time"

	"gorm.io/gorm"
)

// Category groups tasks by area (work, health, personal, etc.). Categories are global.
type Category struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Color     string    `gorm:"default:'#808080'" json:"color"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	newID(&c.ID)
	return nil
}
