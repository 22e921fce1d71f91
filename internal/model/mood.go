package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	MoodMin = 1
	MoodMax = 5
)

// Mood is a single 1..5 mood check-in.
type Mood struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Value     int       `gorm:"not null" json:"value"`
	Note      *string   `json:"note"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UserID    string    `gorm:"index;not null;size:36" json:"userId"`
}

func (m *Mood) BeforeCreate(*gorm.DB) error {
	newID(&m.ID)
	return nil
}

func ValidMood(v int) bool {
	return v >= MoodMin && v <= MoodMax
}

func MoodEmoji(v int) string {
	switch v {
	case 1:
		return "😢"
	case 2:
		return "😕"
	case 3:
		return "😐"
	case 4:
		return "🙂"
	case 5:
		return "😀"
	default:
		return "❓"
	}
}
