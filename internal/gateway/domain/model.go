package domain

import (
	"context"
	"errors"
)

// RemoteOrder is the gateway-side order minted before checkout. It is not
// persisted locally; the notes travel with it so a webhook can reconstruct
// the purchase if the buyer's client never returns.
type RemoteOrder struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
}

// OrderNotes is opaque metadata attached to a remote order.
type OrderNotes struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
}

type CreateOrderRequest struct {
	AmountMinorUnits int64
	Currency         string
	Receipt          string
	Notes            OrderNotes
}

// Client wraps the external payment gateway. Order creation is at-most-once:
// failures surface immediately, no retries.
type Client interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*RemoteOrder, error)
	KeyID() string
}

var (
	ErrGatewayUnavailable = errors.New("gateway_unavailable")
	ErrGatewayRejected    = errors.New("gateway_rejected")
	ErrMissingCredentials = errors.New("gateway_credentials_missing")
)
