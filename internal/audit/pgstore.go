package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrNotFound = errors.New("audit: bundle not found")

type bundleRecord struct {
	ID         string    `gorm:"primaryKey;type:uuid"`
	SessionID  string    `gorm:"index;not null"`
	CreatedAt  time.Time `gorm:"not null"`
	Prompt     string    `gorm:"type:text;not null"`
	Whitelist  string    `gorm:"type:text;not null"`
	Snapshot   string    `gorm:"type:jsonb"`
	Commentary string    `gorm:"type:text;not null"`
	Hash       string    `gorm:"type:char(64);not null"`
}

func (bundleRecord) TableName() string { return "audit_bundles" }

func toRecord(b Bundle) bundleRecord {
	return bundleRecord{
		ID:         b.ID,
		SessionID:  b.SessionID,
		CreatedAt:  b.CreatedAt,
		Prompt:     b.Prompt,
		Whitelist:  b.Whitelist,
		Snapshot:   string(b.Snapshot),
		Commentary: b.Commentary,
		Hash:       b.Hash,
	}
}

func (r bundleRecord) bundle() Bundle {
	return Bundle{
		ID:         r.ID,
		SessionID:  r.SessionID,
		CreatedAt:  r.CreatedAt.UTC(),
		Prompt:     r.Prompt,
		Whitelist:  r.Whitelist,
		Snapshot:   []byte(r.Snapshot),
		Commentary: r.Commentary,
		Hash:       r.Hash,
	}
}

// PostgresStore keeps bundles in the audit_bundles table.
type PostgresStore struct {
	db *gorm.DB
}

// OpenPostgres connects and migrates the schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("audit: open postgres: %w", err)
	}
	s := NewPostgresStore(db)
	if err := s.Migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&bundleRecord{}); err != nil {
		return fmt.Errorf("audit: migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, b Bundle) error {
	rec := toRecord(b)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("audit: insert bundle %s: %w", b.ID, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Bundle, error) {
	var rec bundleRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Bundle{}, ErrNotFound
	}
	if err != nil {
		return Bundle{}, fmt.Errorf("audit: load bundle %s: %w", id, err)
	}
	return rec.bundle(), nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
