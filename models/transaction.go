package models

import (
	"time"
)

// TransactionType представляет тип транзакции
type TransactionType string

const (
	TransactionTypeCredit   TransactionType = "CREDIT"
	TransactionTypeDebit    TransactionType = "DEBIT"
	TransactionTypeTransfer TransactionType = "TRANSFER"
	TransactionTypePurchase TransactionType = "PURCHASE"
	TransactionTypeReward   TransactionType = "REWARD"
)

// TransactionStatus представляет статус транзакции
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusReversed  TransactionStatus = "REVERSED"
)

// ReferenceTypePurchase — ссылка на покупку товара; ReferenceID при этом
// указывает на товар, а не на запись Purchase
const ReferenceTypePurchase = "PURCHASE"

type Transaction struct {
	ID            uint              `gorm:"primaryKey;autoIncrement"`
	FromAccountID *uint             `gorm:"column:from_account_id;index"`
	ToAccountID   *uint             `gorm:"column:to_account_id;index"`
	Amount        float64           `gorm:"column:amount;type:decimal(20,2);not null"`
	Type          TransactionType   `gorm:"column:type;type:varchar(20);not null"`
	Status        TransactionStatus `gorm:"column:status;type:varchar(20);not null;default:'COMPLETED'"`
	Description   string            `gorm:"column:description;size:255"`
	Category      string            `gorm:"column:category;size:50"`
	ReferenceID   *uint             `gorm:"column:reference_id"`
	ReferenceType string            `gorm:"column:reference_type;size:30"`
	CreatedBy     uint              `gorm:"column:created_by;not null"`
	ProcessedAt   time.Time         `gorm:"column:processed_at;not null"`
	CreatedAt     time.Time         `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

func (Transaction) TableName() string {
	return "transactions"
}
