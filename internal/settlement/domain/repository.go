package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists the webhook audit trail. Events stay unprocessed
// until reconciliation finishes, so a redelivery after a crash picks up
// where the interrupted attempt stopped.
type Repository interface {
	InsertEvent(ctx context.Context, db *gorm.DB, event *PaymentEvent) error
	FindEventByProviderID(ctx context.Context, db *gorm.DB, providerEventID string) (*PaymentEvent, error)
	MarkEventProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, processedAt time.Time) error

	InsertUnresolved(ctx context.Context, db *gorm.DB, payment *UnresolvedPayment) error
}
