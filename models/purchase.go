package models

import (
	"gorm.io/gorm"
)

// PurchaseStatus представляет статус покупки
type PurchaseStatus string

const (
	PurchaseStatusCompleted PurchaseStatus = "COMPLETED"
)

// Purchase представляет покупку товара в школьном магазине
type Purchase struct {
	gorm.Model
	UserID        uint           `gorm:"not null;index"`
	User          User           `gorm:"foreignKey:UserID"`
	ProductID     uint           `gorm:"not null;index"`
	Product       Product        `gorm:"foreignKey:ProductID"`
	TransactionID uint           `gorm:"not null"`
	Transaction   Transaction    `gorm:"foreignKey:TransactionID"`
	Quantity      int            `gorm:"not null"`
	UnitPrice     float64        `gorm:"type:decimal(20,2);not null"` // Цена на момент покупки
	TotalAmount   float64        `gorm:"type:decimal(20,2);not null"`
	Status        PurchaseStatus `gorm:"type:varchar(20);not null;default:'COMPLETED'"`
}

// TableName возвращает имя таблицы для модели Purchase
func (Purchase) TableName() string {
	return "purchases"
}
