// Package postgres stores session state in a PostgreSQL table through gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/nullvoyager/voyager/pkg/persistence"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Record is one row of the voyager_states table.
type Record struct {
	SessionID string         `gorm:"column:session_id;primaryKey;type:varchar(128)"`
	State     datatypes.JSON `gorm:"column:state;not null"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table name used by gorm.
func (Record) TableName() string {
	return "voyager_states"
}

// Store implements ports.StateStore on top of gorm.
type Store struct {
	db    *gorm.DB
	codec persistence.Codec
}

type Option func(*Store)

// WithCodec sets the codec used to encode records.
// The codec must produce JSON; both the plain and the encrypted codec do.
func WithCodec(c persistence.Codec) Option {
	return func(s *Store) {
		s.codec = c
	}
}

// Open connects to PostgreSQL, configures the pool and migrates the table.
func Open(dsn string, opts ...Option) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return New(db, opts...)
}

// New creates a store from an existing connection and migrates the table.
func New(db *gorm.DB, opts ...Option) (*Store, error) {
	s := &Store{db: db, codec: persistence.JSON}
	for _, opt := range opts {
		opt(s)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("failed to migrate voyager_states: %w", err)
	}
	return s, nil
}

// Save upserts the session row.
func (s *Store) Save(ctx context.Context, sessionID string, state *domain.VoyagerState) error {
	data, err := s.codec.Encode(state)
	if err != nil {
		return err
	}

	rec := Record{SessionID: sessionID, State: datatypes.JSON(data)}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Load retrieves the session row.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.VoyagerState, error) {
	var rec Record
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	return s.codec.Decode(rec.State)
}

// Delete removes the session row.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return s.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&Record{}).Error
}

// List returns the stored session IDs, most recently updated first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&Record{}).Order("updated_at DESC").Pluck("session_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
