package endpoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type setting struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (setting) TableName() string { return "settings" }

// SQLiteStore keeps the endpoint in a local SQLite file so it survives restarts.
type SQLiteStore struct {
	db     *gorm.DB
	def    string
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	return db, nil
}

func NewSQLiteStore(db *gorm.DB, defaultEndpoint string, log *slog.Logger) (*SQLiteStore, error) {
	if err := db.AutoMigrate(&setting{}); err != nil {
		return nil, fmt.Errorf("migrating settings: %w", err)
	}
	return &SQLiteStore{db: db, def: orDefault(defaultEndpoint), logger: log}, nil
}

func (s *SQLiteStore) Configure(ctx context.Context, url string) error {
	row := setting{Key: Key, Value: url, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("storing endpoint: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Current(ctx context.Context) string {
	var row setting
	err := s.db.WithContext(ctx).Where("key = ?", Key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.def
	}
	if err != nil {
		s.logger.Warn("reading stored endpoint, using default", "error", err, "default", s.def)
		return s.def
	}
	return row.Value
}
