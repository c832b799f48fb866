package domain

import (
	"context"

	identitydomain "github.com/brightstack/coursekart/internal/identity/domain"
	ledgerdomain "github.com/brightstack/coursekart/internal/ledger/domain"
	"github.com/bwmarrin/snowflake"
)

// Service coordinates the purchase lifecycle between the catalog, the
// payment gateway and the order ledger.
type Service interface {
	// InitiatePurchase mints a gateway order for a paid product. No
	// ledger row is written until payment is proven.
	InitiatePurchase(ctx context.Context, principal identitydomain.Principal, productID snowflake.ID) (*CheckoutIntent, error)

	// ClaimFreeItem settles a zero-price product immediately. Repeat
	// claims for the same product return the existing order.
	ClaimFreeItem(ctx context.Context, principal identitydomain.Principal, productID snowflake.ID) (*ledgerdomain.Order, error)

	// ConfirmPurchase verifies the client-presented payment signature
	// and settles the order. Safe to call more than once per payment.
	ConfirmPurchase(ctx context.Context, principal identitydomain.Principal, productID snowflake.ID, conf Confirmation) (*ledgerdomain.Order, error)

	// ListPurchases returns the caller's orders, newest first.
	ListPurchases(ctx context.Context, principal identitydomain.Principal) ([]ledgerdomain.Order, error)

	// ReconcileWebhookEvent processes a raw gateway webhook delivery.
	// eventID deduplicates redeliveries; when the provider sends none,
	// a digest of the body is used instead.
	ReconcileWebhookEvent(ctx context.Context, rawBody []byte, signature, eventID string) error
}
