package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"nectopoint-client/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SessionKey is the well-known key the snapshot is stored under.
const SessionKey = "nectopoint.session"

// SessionStore persists the single cached session snapshot. Load returns
// (nil, nil) when nothing is cached.
type SessionStore interface {
	Load() (*models.SessionSnapshot, error)
	Save(snapshot *models.SessionSnapshot) error
	Clear() error
}

type GormSessionStore struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormSessionStore(db *gorm.DB) (*GormSessionStore, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if err := db.AutoMigrate(&models.CachedSession{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate cached_sessions table")
		return nil, err
	}

	return &GormSessionStore{db: db, logger: logger}, nil
}

func (s *GormSessionStore) Load() (*models.SessionSnapshot, error) {
	var row models.CachedSession
	err := s.db.Where("storage_key = ?", SessionKey).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snapshot models.SessionSnapshot
	if err := json.Unmarshal(row.Payload, &snapshot); err != nil {
		s.logger.WithError(err).Warn("Cached session is unreadable")
		return nil, fmt.Errorf("decode cached session: %w", err)
	}
	return &snapshot, nil
}

// Save replaces the cached snapshot. The old row is deleted and the new one
// inserted in a single transaction so no field of the previous snapshot
// survives.
func (s *GormSessionStore) Save(snapshot *models.SessionSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("storage_key = ?", SessionKey).Delete(&models.CachedSession{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.CachedSession{StorageKey: SessionKey, Payload: payload}).Error
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to save session")
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"session_id":      snapshot.ID,
		"collaborator_id": snapshot.CollaboratorID,
	}).Debug("Session cached")
	return nil
}

func (s *GormSessionStore) Clear() error {
	return s.db.Where("storage_key = ?", SessionKey).Delete(&models.CachedSession{}).Error
}
