package models

import (
	"time"
)

// AccountType представляет тип счета
type AccountType string

const (
	AccountTypeChecking AccountType = "CHECKING"
	AccountTypeSavings  AccountType = "SAVINGS"
)

type Account struct {
	ID          uint          `gorm:"primaryKey;autoIncrement"`
	Number      string        `gorm:"column:number;unique;not null"`
	AccountType AccountType   `gorm:"column:account_type;type:varchar(20);not null;default:'CHECKING'"`
	Balance     float64       `gorm:"column:balance;type:decimal(20,2);not null;default:0.0"`
	OwnerID     uint          `gorm:"column:owner_id;not null;index"`
	Owner       User          `gorm:"foreignKey:OwnerID;references:ID"`
	Transaction []Transaction `gorm:"foreignKey:FromAccountID"`
	CreatedAt   time.Time     `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time     `gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

func (Account) TableName() string {
	return "accounts"
}
