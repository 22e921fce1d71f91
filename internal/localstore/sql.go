package localstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LocalEntry is one row of local_entries.
type LocalEntry struct {
	Namespace string    `gorm:"primaryKey;size:64"`
	Key       string    `gorm:"primaryKey;size:128"`
	Value     string    `gorm:"type:text;not null"`
	SavedAt   time.Time `gorm:"not null"`
}

func (LocalEntry) TableName() string { return "local_entries" }

// Migrate creates the local_entries table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&LocalEntry{}); err != nil {
		return fmt.Errorf("migrate local entries: %w", err)
	}
	return nil
}

type SQLProvider struct {
	db *gorm.DB
}

func NewSQLProvider(db *gorm.DB) *SQLProvider {
	return &SQLProvider{db: db}
}

func (p *SQLProvider) For(namespace string) Storage {
	return &SQLStorage{db: p.db, namespace: namespace}
}

// SQLStorage keeps entries in a GORM table.
type SQLStorage struct {
	db        *gorm.DB
	namespace string
	now       func() time.Time
}

func (s *SQLStorage) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *SQLStorage) Load(ctx context.Context, key string) (Entry, error) {
	var row LocalEntry
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND key = ?", s.namespace, key).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("load %s: %w", key, err)
	}
	return Entry{Value: []byte(row.Value), SavedAt: row.SavedAt}, nil
}

func (s *SQLStorage) Save(ctx context.Context, key string, value any) error {
	raw, err := encode(value)
	if err != nil {
		return err
	}
	row := LocalEntry{Namespace: s.namespace, Key: key, Value: string(raw), SavedAt: s.clock()}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "saved_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *SQLStorage) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND key IN ?", s.namespace, keys).
		Delete(&LocalEntry{}).Error
	if err != nil {
		return fmt.Errorf("remove %v: %w", keys, err)
	}
	return nil
}
