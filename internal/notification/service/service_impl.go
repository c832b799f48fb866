package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	catalogdomain "github.com/brightstack/coursekart/internal/catalog/domain"
	ledgerdomain "github.com/brightstack/coursekart/internal/ledger/domain"
	"github.com/brightstack/coursekart/internal/notification/domain"
	"github.com/brightstack/coursekart/internal/observability/metrics"
	"github.com/brightstack/coursekart/internal/providers/email"
	"github.com/brightstack/coursekart/internal/providers/pdf"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dispatchBatchSize = 20

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Email       email.Provider
	Receipts    *pdf.ReceiptRenderer
	LedgerRepo  ledgerdomain.Repository
	CatalogRepo catalogdomain.Repository
	Metrics     *metrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	email       email.Provider
	receipts    *pdf.ReceiptRenderer
	ledgerRepo  ledgerdomain.Repository
	catalogRepo catalogdomain.Repository
	metrics     *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("notification.service"),
		genID:       p.GenID,
		email:       p.Email,
		receipts:    p.Receipts,
		ledgerRepo:  p.LedgerRepo,
		catalogRepo: p.CatalogRepo,
		metrics:     p.Metrics,
	}
}

func (s *Service) EnqueueReceipt(ctx context.Context, orderID snowflake.ID, recipient string) error {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return fmt.Errorf("receipt recipient is empty")
	}

	now := time.Now().UTC()
	return s.db.WithContext(ctx).Exec(
		`INSERT INTO receipt_outbox (id, order_id, recipient, status, attempts, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 0, ?, ?)`,
		s.genID.Generate(),
		orderID,
		recipient,
		domain.OutboxStatusPending,
		now,
		now,
	).Error
}

func (s *Service) DispatchPending(ctx context.Context) (int, error) {
	var entries []domain.ReceiptOutbox
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, order_id, recipient, status, attempts, last_error, created_at, updated_at
		 FROM receipt_outbox
		 WHERE status = ? AND attempts < ?
		 ORDER BY created_at ASC LIMIT ?`,
		domain.OutboxStatusPending,
		domain.MaxAttempts,
		dispatchBatchSize,
	).Scan(&entries).Error
	if err != nil {
		return 0, err
	}

	for i := range entries {
		s.dispatchOne(ctx, &entries[i])
	}
	return len(entries), nil
}

func (s *Service) dispatchOne(ctx context.Context, entry *domain.ReceiptOutbox) {
	if !s.email.Configured() {
		// No mail provider: receipts are skipped, purchases stay settled.
		s.finish(ctx, entry.ID, domain.OutboxStatusSkipped, nil)
		s.metrics.RecordNotification("skipped")
		return
	}

	if err := s.send(ctx, entry); err != nil {
		s.log.Warn("receipt delivery failed",
			zap.String("outbox_id", entry.ID.String()),
			zap.Int("attempts", entry.Attempts+1),
			zap.Error(err),
		)
		s.metrics.RecordNotification("error")
		s.recordFailure(ctx, entry, err)
		return
	}

	s.finish(ctx, entry.ID, domain.OutboxStatusSent, nil)
	s.metrics.RecordNotification("sent")
}

func (s *Service) send(ctx context.Context, entry *domain.ReceiptOutbox) error {
	order, err := s.ledgerRepo.FindByID(ctx, s.db, entry.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		return fmt.Errorf("order %s not found", entry.OrderID)
	}

	product, err := s.catalogRepo.FindByID(ctx, s.db, order.ProductID)
	if err != nil {
		return err
	}
	title := "your purchase"
	productURL := ""
	if product != nil {
		title = product.Title
		productURL = "/product/" + product.Slug
	}

	amount := formatAmount(order.Amount, order.Currency)
	receiptPDF, err := s.receipts.Render(ctx, pdf.ReceiptData{
		OrderID:      order.ID.String(),
		ProductTitle: title,
		BuyerEmail:   entry.Recipient,
		Amount:       amount,
		DatePaid:     order.UpdatedAt.Format("2 Jan 2006"),
		ProductURL:   productURL,
	})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Receipt for your order %s", order.ID)
	body := fmt.Sprintf(
		"<p>Thanks for your purchase of <b>%s</b>.</p><p>Amount paid: %s</p><p>Your receipt is attached.</p>",
		title, amount,
	)

	return s.email.Send(ctx, []string{entry.Recipient}, subject, body, email.Attachment{
		Filename:    "receipt.pdf",
		ContentType: "application/pdf",
		Data:        receiptPDF,
	})
}

func (s *Service) recordFailure(ctx context.Context, entry *domain.ReceiptOutbox, sendErr error) {
	attempts := entry.Attempts + 1
	status := domain.OutboxStatusPending
	if attempts >= domain.MaxAttempts {
		status = domain.OutboxStatusFailed
	}
	msg := sendErr.Error()

	err := s.db.WithContext(ctx).Exec(
		`UPDATE receipt_outbox SET status = ?, attempts = ?, last_error = ?, updated_at = ? WHERE id = ?`,
		status,
		attempts,
		msg,
		time.Now().UTC(),
		entry.ID,
	).Error
	if err != nil {
		s.log.Error("outbox update failed", zap.Error(err))
	}
}

func (s *Service) finish(ctx context.Context, id snowflake.ID, status string, lastError *string) {
	err := s.db.WithContext(ctx).Exec(
		`UPDATE receipt_outbox SET status = ?, attempts = attempts + 1, last_error = ?, updated_at = ? WHERE id = ?`,
		status,
		lastError,
		time.Now().UTC(),
		id,
	).Error
	if err != nil {
		s.log.Error("outbox update failed", zap.Error(err))
	}
}

func formatAmount(minorUnits int64, currency string) string {
	return fmt.Sprintf("%s %d.%02d", currency, minorUnits/100, minorUnits%100)
}
