package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
	OutboxStatusSkipped = "SKIPPED"
	OutboxStatusFailed  = "FAILED"
)

// MaxAttempts caps delivery retries before an entry is parked as FAILED.
const MaxAttempts = 5

// ReceiptOutbox is a durable record of a receipt to send. Settlement writes
// here and returns; delivery happens out of band so a mail outage can never
// fail a purchase.
type ReceiptOutbox struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	OrderID   snowflake.ID `gorm:"column:order_id;not null"`
	Recipient string       `gorm:"type:text;not null"`
	Status    string       `gorm:"type:text;not null;default:'PENDING'"`
	Attempts  int          `gorm:"not null;default:0"`
	LastError *string      `gorm:"column:last_error;type:text"`
	CreatedAt time.Time    `gorm:"not null"`
	UpdatedAt time.Time    `gorm:"not null"`
}

func (ReceiptOutbox) TableName() string { return "receipt_outbox" }

type Service interface {
	// EnqueueReceipt records a pending receipt. Errors are for the caller to
	// log and absorb; enqueue failure never fails a settlement.
	EnqueueReceipt(ctx context.Context, orderID snowflake.ID, recipient string) error

	// DispatchPending delivers queued receipts and returns how many entries
	// it attempted.
	DispatchPending(ctx context.Context) (int, error)
}
