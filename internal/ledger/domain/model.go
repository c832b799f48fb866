package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// OrderStatus values follow a monotonic lifecycle: PENDING/SUCCESS may move
// to COMPLETED; COMPLETED is terminal.
const (
	StatusPending   = "PENDING"
	StatusSuccess   = "SUCCESS"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Order is a purchase record. Amount is captured in minor units at purchase
// time and never re-read from the product, so later price edits do not
// rewrite history. TransactionID is the gateway payment id and, once set, the
// external key every reconciliation path looks up by.
type Order struct {
	ID            snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID        snowflake.ID `json:"user_id" gorm:"column:user_id;not null;index"`
	ProductID     snowflake.ID `json:"product_id" gorm:"column:product_id;not null"`
	Amount        int64        `json:"amount" gorm:"not null"`
	Currency      string       `json:"currency" gorm:"type:text;not null;default:'INR'"`
	Status        string       `json:"status" gorm:"type:text;not null;default:'PENDING'"`
	TransactionID *string      `json:"transaction_id" gorm:"column:transaction_id;uniqueIndex:ux_orders_transaction"`
	ReceiptID     string       `json:"receipt_id" gorm:"column:receipt_id;type:text"`
	CreatedAt     time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time    `json:"updated_at" gorm:"not null"`
}

func (Order) TableName() string { return "orders" }

var (
	ErrNotFound       = errors.New("order_not_found")
	ErrDuplicateOrder = errors.New("duplicate_order")
)
