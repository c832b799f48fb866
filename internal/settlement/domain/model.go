package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// CheckoutIntent is everything a client needs to open the gateway's
// checkout for a product. Nothing is persisted locally at this point.
type CheckoutIntent struct {
	RemoteOrderID string `json:"remote_order_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	KeyID         string `json:"key_id"`
}

// Confirmation is the proof of payment a client presents after the
// gateway checkout completes.
type Confirmation struct {
	RemoteOrderID string
	PaymentID     string
	Signature     string
}

// PaymentEvent records every webhook delivery. The unique index on
// ProviderEventID makes redelivered events no-ops.
type PaymentEvent struct {
	ID              snowflake.ID   `gorm:"primaryKey"`
	ProviderEventID string         `gorm:"column:provider_event_id;not null;uniqueIndex:ux_payment_events_provider_event"`
	EventType       string         `gorm:"column:event_type;not null"`
	PaymentID       *string        `gorm:"column:payment_id"`
	Payload         datatypes.JSON `gorm:"not null"`
	ReceivedAt      time.Time      `gorm:"column:received_at;not null"`
	ProcessedAt     *time.Time     `gorm:"column:processed_at"`
}

func (PaymentEvent) TableName() string { return "payment_events" }

// UnresolvedPayment is a paid webhook the coordinator could not match to
// any order. Rows here mean money moved without a ledger entry and need
// an operator.
type UnresolvedPayment struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	PaymentID     string       `gorm:"column:payment_id;not null;uniqueIndex:ux_unresolved_payments_payment"`
	RemoteOrderID *string      `gorm:"column:remote_order_id"`
	Amount        *int64       `gorm:"column:amount"`
	Email         *string      `gorm:"column:email"`
	Reason        string       `gorm:"type:text;not null"`
	CreatedAt     time.Time    `gorm:"column:created_at;not null"`
}

func (UnresolvedPayment) TableName() string { return "unresolved_payments" }
