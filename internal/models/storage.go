package models

import "time"

// CachedSession is the single-row table holding the serialized snapshot.
type CachedSession struct {
	StorageKey string    `gorm:"primaryKey;size:64"`
	Payload    []byte    `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (CachedSession) TableName() string {
	return "cached_sessions"
}

// NotificationRead marks a ticket notification as read. A missing row
// means unread.
type NotificationRead struct {
	TicketID int64     `gorm:"primaryKey;autoIncrement:false"`
	ReadAt   time.Time `gorm:"autoCreateTime"`
}

func (NotificationRead) TableName() string {
	return "notification_reads"
}
