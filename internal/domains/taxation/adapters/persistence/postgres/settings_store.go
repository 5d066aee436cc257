package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/ports"
)

var _ ports.SettingsStore = (*SettingsStore)(nil)

// SettingsStore persists key/value settings in PostgreSQL.
type SettingsStore struct {
	db *gorm.DB
}

func NewSettingsStore(db *gorm.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

type settingRecord struct {
	Key       string    `gorm:"primaryKey;column:key;size:128"`
	Value     string    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (settingRecord) TableName() string { return "settings" }

func (s *SettingsStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := s.ensureDB(); err != nil {
		return "", false, err
	}
	var record settingRecord
	if err := s.db.WithContext(ctx).First(&record, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return record.Value, true, nil
}

func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	record := settingRecord{Key: key, Value: value}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&record).Error
}

func (s *SettingsStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres settings store not configured")
	}
	return nil
}
