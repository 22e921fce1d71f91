package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
)

// Weekdays is a set of weekday indices, 0 = Sunday. Stored as a JSON array.
type Weekdays []int

func (d Weekdays) Value() (driver.Value, error) {
	if d == nil {
		return "[]", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (d *Weekdays) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*d = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("weekdays: unsupported type %T", src)
	}
	return json.Unmarshal(raw, d)
}

// Normalize drops out-of-range and duplicate entries and sorts the set.
func (d Weekdays) Normalize() Weekdays {
	seen := make(map[int]bool, len(d))
	out := make(Weekdays, 0, len(d))
	for _, day := range d {
		if day < 0 || day > 6 || seen[day] {
			continue
		}
		seen[day] = true
		out = append(out, day)
	}
	sort.Ints(out)
	return out
}

func (d Weekdays) Has(day time.Weekday) bool {
	for _, v := range d {
		if v == int(day) {
			return true
		}
	}
	return false
}

// Routine is a recurring habit scheduled at a time of day on a set of weekdays.
type Routine struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description *string   `json:"description"`
	Time        *string   `gorm:"column:time_of_day;size:5" json:"time"` // HH:MM
	IsActive    bool      `gorm:"not null" json:"isActive"`
	Frequency   string    `gorm:"default:'daily'" json:"frequency"`
	Days        Weekdays  `gorm:"type:text" json:"days"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	UserID      string    `gorm:"index;not null;size:36" json:"userId"`
}

func (r *Routine) BeforeCreate(*gorm.DB) error {
	newID(&r.ID)
	return nil
}

// FrequencyDays maps a frequency label to its default weekday set.
func FrequencyDays(frequency string) (Weekdays, bool) {
	switch frequency {
	case "daily":
		return Weekdays{0, 1, 2, 3, 4, 5, 6}, true
	case "weekdays":
		return Weekdays{1, 2, 3, 4, 5}, true
	case "weekends":
		return Weekdays{0, 6}, true
	case "custom":
		return nil, true
	}
	return nil, false
}
