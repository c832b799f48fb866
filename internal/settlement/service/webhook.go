package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/brightstack/coursekart/internal/gateway/razorpay"
	ledgerdomain "github.com/brightstack/coursekart/internal/ledger/domain"
	"github.com/brightstack/coursekart/internal/settlement/domain"
	"github.com/brightstack/coursekart/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

const eventOrderPaid = "order.paid"

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string            `json:"id"`
				OrderID string            `json:"order_id"`
				Amount  int64             `json:"amount"`
				Email   string            `json:"email"`
				Notes   map[string]string `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
		Order struct {
			Entity struct {
				ID       string `json:"id"`
				Currency string `json:"currency"`
			} `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

func (s *Service) ReconcileWebhookEvent(ctx context.Context, rawBody []byte, signature, eventID string) error {
	secret := s.cfg.Gateway.WebhookSecret
	if secret == "" {
		return domain.ErrWebhookSecretMissing
	}
	if signature == "" || !razorpay.VerifySignature(secret, rawBody, signature) {
		s.metrics.RecordWebhookEvent("invalid_signature")
		return domain.ErrInvalidSignature
	}

	var event webhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		// Authenticated but unparseable: ack so the provider stops
		// redelivering, keep the evidence in the log.
		s.log.Warn("malformed webhook payload", zap.Error(err))
		s.metrics.RecordWebhookEvent("malformed")
		return nil
	}

	if eventID == "" {
		sum := sha256.Sum256(rawBody)
		eventID = hex.EncodeToString(sum[:])
	}

	paymentID := event.Payload.Payment.Entity.ID
	record := &domain.PaymentEvent{
		ID:              s.genID.Generate(),
		ProviderEventID: eventID,
		EventType:       event.Event,
		Payload:         rawBody,
		ReceivedAt:      time.Now().UTC(),
	}
	if paymentID != "" {
		record.PaymentID = &paymentID
	}
	stored := record
	if err := s.repo.InsertEvent(ctx, s.db, record); err != nil {
		if !db.IsDuplicateKeyErr(err) {
			return err
		}
		stored, err = s.repo.FindEventByProviderID(ctx, s.db, eventID)
		if err != nil {
			return err
		}
		if stored == nil || stored.ProcessedAt != nil {
			s.log.Info("webhook event already processed", zap.String("event_id", eventID))
			s.metrics.RecordWebhookEvent("duplicate")
			return nil
		}
		// Stored but never finished. The redelivery is the retry.
		s.log.Info("resuming interrupted webhook event", zap.String("event_id", eventID))
	}

	outcome := "ignored"
	if event.Event == eventOrderPaid {
		outcome = s.reconcileOrderPaid(ctx, event)
	}
	s.metrics.RecordWebhookEvent(outcome)

	if outcome == "error" {
		// Leave processed_at unset so the next delivery tries again.
		return nil
	}
	return s.repo.MarkEventProcessed(ctx, s.db, stored.ID, time.Now().UTC())
}

// reconcileOrderPaid settles the ledger for a paid payment. Reconciliation
// failures are absorbed: the event is already recorded and the delivery
// must still be acked.
func (s *Service) reconcileOrderPaid(ctx context.Context, event webhookEvent) string {
	payment := event.Payload.Payment.Entity
	if payment.ID == "" {
		s.log.Warn("order.paid event without payment id")
		return "malformed"
	}

	existing, err := s.ledgerRepo.FindByTransactionID(ctx, s.db, payment.ID)
	if err != nil {
		s.log.Error("order lookup failed", zap.String("payment_id", payment.ID), zap.Error(err))
		return "error"
	}

	if existing != nil {
		if existing.Status == ledgerdomain.StatusCompleted {
			s.log.Info("order already completed",
				zap.String("payment_id", payment.ID),
				zap.String("order_id", existing.ID.String()),
			)
			return "noop"
		}
		if err := s.ledgerRepo.MarkCompleted(ctx, s.db, existing.ID); err != nil {
			s.log.Error("order completion failed", zap.String("payment_id", payment.ID), zap.Error(err))
			return "error"
		}
		s.metrics.RecordOrderSettled("webhook")
		return "completed"
	}

	return s.createFromNotes(ctx, event)
}

// createFromNotes covers the gap where the buyer paid but the client never
// called confirm. The notes minted at initiate carry enough to rebuild the
// order; without them the payment goes to the unresolved queue.
func (s *Service) createFromNotes(ctx context.Context, event webhookEvent) string {
	payment := event.Payload.Payment.Entity

	userID, uerr := snowflake.ParseString(payment.Notes["user_id"])
	productID, perr := snowflake.ParseString(payment.Notes["product_id"])
	if uerr != nil || perr != nil {
		s.recordUnresolved(ctx, event, "order not found and notes incomplete")
		return "unresolved"
	}

	product, err := s.catalogRepo.FindByID(ctx, s.db, productID)
	if err != nil || product == nil {
		s.recordUnresolved(ctx, event, "order not found and noted product unknown")
		return "unresolved"
	}

	amount := payment.Amount
	if amount == 0 {
		amount = amountMinorUnits(product.Price)
	}
	currency := event.Payload.Order.Entity.Currency
	if currency == "" {
		currency = product.Currency
	}

	order, err := s.settlePayment(ctx, settleRequest{
		paymentID:     payment.ID,
		remoteOrderID: payment.OrderID,
		userID:        userID,
		productID:     productID,
		amount:        amount,
		currency:      currency,
	})
	if err != nil {
		s.log.Error("webhook settlement failed", zap.String("payment_id", payment.ID), zap.Error(err))
		return "error"
	}

	s.log.Info("order created from webhook",
		zap.String("payment_id", payment.ID),
		zap.String("order_id", order.ID.String()),
	)
	s.metrics.RecordOrderSettled("webhook")

	recipient := payment.Email
	if recipient == "" {
		if user, err := s.identityRepo.FindUserByID(ctx, s.db, userID); err == nil && user != nil {
			recipient = user.Email
		}
	}
	if recipient != "" {
		s.enqueueReceipt(ctx, order.ID, recipient)
	}
	return "created"
}

func (s *Service) recordUnresolved(ctx context.Context, event webhookEvent, reason string) {
	payment := event.Payload.Payment.Entity
	s.log.Warn("payment could not be reconciled",
		zap.String("payment_id", payment.ID),
		zap.String("remote_order_id", payment.OrderID),
		zap.String("reason", reason),
	)
	s.metrics.RecordUnresolvedPayment()

	row := &domain.UnresolvedPayment{
		ID:        s.genID.Generate(),
		PaymentID: payment.ID,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
	if payment.OrderID != "" {
		row.RemoteOrderID = &payment.OrderID
	}
	if payment.Amount != 0 {
		row.Amount = &payment.Amount
	}
	if payment.Email != "" {
		row.Email = &payment.Email
	}

	if err := s.repo.InsertUnresolved(ctx, s.db, row); err != nil && !db.IsDuplicateKeyErr(err) {
		s.log.Error("unresolved payment insert failed", zap.Error(err))
	}
}
