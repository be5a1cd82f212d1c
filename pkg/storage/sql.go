package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashiranjanraj/nexus/pkg/database"
)

// stateEntry is one row of the nexus_state table.
type stateEntry struct {
	Key       string `gorm:"primaryKey;size:128"`
	Value     []byte
	UpdatedAt time.Time
}

func (stateEntry) TableName() string { return "nexus_state" }

// SQL stores values in a single table through gorm.
type SQL struct {
	db *gorm.DB
}

// NewSQL opens driver/dsn and migrates the state table.
func NewSQL(driver, dsn string) (*SQL, error) {
	db, err := database.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage/sql: %w", err)
	}
	if err := db.AutoMigrate(&stateEntry{}); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("storage/sql: migrate: %w", err)
	}
	return &SQL{db: db}, nil
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	var e stateEntry
	err := s.db.WithContext(ctx).Where(&stateEntry{Key: key}).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage/sql: get %s: %w", key, err)
	}
	return e.Value, nil
}

func (s *SQL) Put(ctx context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	e := stateEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&e).Error
	if err != nil {
		return fmt.Errorf("storage/sql: put %s: %w", key, err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Where(&stateEntry{Key: key}).Delete(&stateEntry{}).Error
	if err != nil {
		return fmt.Errorf("storage/sql: delete %s: %w", key, err)
	}
	return nil
}

func (s *SQL) Close() error { return database.Close(s.db) }
