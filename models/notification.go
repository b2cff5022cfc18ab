package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationType представляет тип уведомления
type NotificationType string

const (
	NotificationTypeInfo    NotificationType = "INFO"
	NotificationTypeReward  NotificationType = "REWARD"
	NotificationTypeWarning NotificationType = "WARNING"
)

// Notification представляет уведомление
type Notification struct {
	gorm.Model
	Title     string           `gorm:"not null;size:100"`
	Content   string           `gorm:"not null;size:1000"`
	Type      NotificationType `gorm:"type:varchar(20);not null;default:'INFO'"`
	IsGlobal  bool             `gorm:"not null;default:false"`
	CreatedBy uint             `gorm:"not null"`
}

// TableName возвращает имя таблицы для модели Notification
func (Notification) TableName() string {
	return "notifications"
}

// UserNotification связывает уведомление с получателем
type UserNotification struct {
	gorm.Model
	UserID         uint         `gorm:"not null;uniqueIndex:idx_user_notification"`
	User           User         `gorm:"foreignKey:UserID"`
	NotificationID uint         `gorm:"not null;uniqueIndex:idx_user_notification"`
	Notification   Notification `gorm:"foreignKey:NotificationID"`
	IsRead         bool         `gorm:"not null;default:false"`
	ReadAt         *time.Time
}

// TableName возвращает имя таблицы для модели UserNotification
func (UserNotification) TableName() string {
	return "user_notifications"
}
