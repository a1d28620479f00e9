package storage

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Store is the durable local state: the persisted token pair and the last
// synced snapshot, kept in a sqlite file next to the user's config.
type Store struct {
	db *gorm.DB
}

type credential struct {
	Name      string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}

func (credential) TableName() string { return "credentials" }

type collectionBlob struct {
	Name      string `gorm:"primaryKey"`
	Payload   []byte
	UpdatedAt time.Time
}

func (collectionBlob) TableName() string { return "collection_blobs" }

const (
	credAccessToken  = "access_token"
	credRefreshToken = "refresh_token"
)

func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}

	// goose owns the schema for CLI installs; AutoMigrate covers fresh
	// files so tests and first runs work without a migrate step
	if err := db.AutoMigrate(&credential{}, &collectionBlob{}); err != nil {
		return nil, fmt.Errorf("migrate state database: %w", err)
	}

	return &Store{db: db}, nil
}

// SaveTokens persists the pair in one transaction so a crash can never
// leave a new access token next to a stale refresh token.
func (s *Store) SaveTokens(access, refresh string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for name, value := range map[string]string{
			credAccessToken:  access,
			credRefreshToken: refresh,
		} {
			row := credential{Name: name, Value: value, UpdatedAt: time.Now()}
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
				return fmt.Errorf("save %s: %w", name, err)
			}
		}
		return nil
	})
}

// LoadTokens returns the stored pair; both empty when none exist.
func (s *Store) LoadTokens() (access, refresh string, err error) {
	access, err = s.loadCredential(credAccessToken)
	if err != nil {
		return "", "", err
	}
	refresh, err = s.loadCredential(credRefreshToken)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (s *Store) loadCredential(name string) (string, error) {
	var row credential
	err := s.db.First(&row, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load %s: %w", name, err)
	}
	return row.Value, nil
}

func (s *Store) ClearTokens() error {
	if err := s.db.Where("name IN ?", []string{credAccessToken, credRefreshToken}).Delete(&credential{}).Error; err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}

// SaveCollection stores one serialized collection of the snapshot.
func (s *Store) SaveCollection(name string, payload []byte) error {
	row := collectionBlob{Name: name, Payload: payload, UpdatedAt: time.Now()}
	if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("save collection %s: %w", name, err)
	}
	return nil
}

// LoadCollection returns the stored payload and when it was written; a
// missing collection yields a nil payload, not an error.
func (s *Store) LoadCollection(name string) ([]byte, time.Time, error) {
	var row collectionBlob
	err := s.db.First(&row, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("load collection %s: %w", name, err)
	}
	return row.Payload, row.UpdatedAt, nil
}

func (s *Store) ClearCollections() error {
	if err := s.db.Where("1 = 1").Delete(&collectionBlob{}).Error; err != nil {
		return fmt.Errorf("clear collections: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
