package repository

import (
	"context"
	"time"

	"github.com/brightstack/coursekart/internal/settlement/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, event *domain.PaymentEvent) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payment_events (id, provider_event_id, event_type, payment_id, payload, received_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.ProviderEventID,
		event.EventType,
		event.PaymentID,
		string(event.Payload),
		event.ReceivedAt,
	).Error
}

func (r *repo) FindEventByProviderID(ctx context.Context, db *gorm.DB, providerEventID string) (*domain.PaymentEvent, error) {
	var item domain.PaymentEvent
	err := db.WithContext(ctx).Raw(
		`SELECT id, provider_event_id, event_type, payment_id, payload, received_at, processed_at
		 FROM payment_events
		 WHERE provider_event_id = ?
		 LIMIT 1`,
		providerEventID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) MarkEventProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, processedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_events SET processed_at = ? WHERE id = ?`,
		processedAt,
		id,
	).Error
}

func (r *repo) InsertUnresolved(ctx context.Context, db *gorm.DB, payment *domain.UnresolvedPayment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO unresolved_payments (id, payment_id, remote_order_id, amount, email, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.PaymentID,
		payment.RemoteOrderID,
		payment.Amount,
		payment.Email,
		payment.Reason,
		payment.CreatedAt,
	).Error
}
