package repository

import (
	"nectopoint-client/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReadStateRepository tracks which ticket notifications the user has seen.
// Flags never expire; only Clear resets them.
type ReadStateRepository interface {
	IsRead(ticketID int64) (bool, error)
	MarkRead(ticketIDs ...int64) error
	ReadSet(ticketIDs []int64) (map[int64]bool, error)
	Clear() error
}

type GormReadStateRepository struct {
	db *gorm.DB
}

func NewGormReadStateRepository(db *gorm.DB) (ReadStateRepository, error) {
	if err := db.AutoMigrate(&models.NotificationRead{}); err != nil {
		return nil, err
	}
	return &GormReadStateRepository{db: db}, nil
}

func (r *GormReadStateRepository) IsRead(ticketID int64) (bool, error) {
	var count int64
	err := r.db.Model(&models.NotificationRead{}).
		Where("ticket_id = ?", ticketID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormReadStateRepository) MarkRead(ticketIDs ...int64) error {
	if len(ticketIDs) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(ticketIDs))
	rows := make([]models.NotificationRead, 0, len(ticketIDs))
	for _, id := range ticketIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		rows = append(rows, models.NotificationRead{TicketID: id})
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (r *GormReadStateRepository) ReadSet(ticketIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool, len(ticketIDs))
	if len(ticketIDs) == 0 {
		return result, nil
	}

	var rows []models.NotificationRead
	if err := r.db.Where("ticket_id IN ?", ticketIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.TicketID] = true
	}
	return result, nil
}

func (r *GormReadStateRepository) Clear() error {
	return r.db.Where("1 = 1").Delete(&models.NotificationRead{}).Error
}
