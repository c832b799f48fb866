package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the persistence contract the settlement coordinator relies
// on. The unique index on transaction_id serializes concurrent writers for
// the same payment; callers treat a duplicate-key error as "another request
// got there first" and re-read.
type Repository interface {
	Create(ctx context.Context, db *gorm.DB, order *Order) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	FindByTransactionID(ctx context.Context, db *gorm.DB, transactionID string) (*Order, error)
	FindByUserProductStatus(ctx context.Context, db *gorm.DB, userID, productID snowflake.ID, statuses []string) (*Order, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]Order, error)

	// MarkCompleted transitions an order to COMPLETED. It is idempotent and
	// never moves an order out of COMPLETED.
	MarkCompleted(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
