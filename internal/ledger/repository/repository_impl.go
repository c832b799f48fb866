package repository

import (
	"context"

	"github.com/brightstack/coursekart/internal/ledger/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (id, user_id, product_id, amount, currency, status, transaction_id, receipt_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.UserID,
		order.ProductID,
		order.Amount,
		order.Currency,
		order.Status,
		order.TransactionID,
		order.ReceiptID,
		order.CreatedAt,
		order.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var o domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, product_id, amount, currency, status, transaction_id, receipt_id, created_at, updated_at
		 FROM orders WHERE id = ?`,
		id,
	).Scan(&o).Error
	if err != nil {
		return nil, err
	}
	if o.ID == 0 {
		return nil, nil
	}
	return &o, nil
}

func (r *repo) FindByTransactionID(ctx context.Context, db *gorm.DB, transactionID string) (*domain.Order, error) {
	var o domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, product_id, amount, currency, status, transaction_id, receipt_id, created_at, updated_at
		 FROM orders WHERE transaction_id = ?`,
		transactionID,
	).Scan(&o).Error
	if err != nil {
		return nil, err
	}
	if o.ID == 0 {
		return nil, nil
	}
	return &o, nil
}

func (r *repo) FindByUserProductStatus(ctx context.Context, db *gorm.DB, userID, productID snowflake.ID, statuses []string) (*domain.Order, error) {
	var o domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, product_id, amount, currency, status, transaction_id, receipt_id, created_at, updated_at
		 FROM orders WHERE user_id = ? AND product_id = ? AND status IN ? ORDER BY created_at ASC LIMIT 1`,
		userID,
		productID,
		statuses,
	).Scan(&o).Error
	if err != nil {
		return nil, err
	}
	if o.ID == 0 {
		return nil, nil
	}
	return &o, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]domain.Order, error) {
	var items []domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, product_id, amount, currency, status, transaction_id, receipt_id, created_at, updated_at
		 FROM orders WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) MarkCompleted(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	// Guarded so a completed order can never transition out, and re-applying
	// COMPLETED is a no-op.
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status <> ?`,
		domain.StatusCompleted,
		id,
		domain.StatusCompleted,
	).Error
}
