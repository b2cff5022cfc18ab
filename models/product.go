package models

import (
	"gorm.io/gorm"
)

// UnlimitedStock — значение stock_quantity для товаров без учета остатков
const UnlimitedStock = -1

// Product представляет товар школьного магазина
type Product struct {
	gorm.Model
	Title         string  `gorm:"not null;size:100"`
	Description   string  `gorm:"size:500"`
	Price         float64 `gorm:"type:decimal(20,2);not null"`
	StockQuantity int     `gorm:"not null;default:-1"`
	IsActive      bool    `gorm:"not null;default:true"`
}

// TableName возвращает имя таблицы для модели Product
func (Product) TableName() string {
	return "products"
}
