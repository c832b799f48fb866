package service

import (
	"context"
	"time"

	catalogdomain "github.com/brightstack/coursekart/internal/catalog/domain"
	"github.com/brightstack/coursekart/internal/config"
	gatewaydomain "github.com/brightstack/coursekart/internal/gateway/domain"
	"github.com/brightstack/coursekart/internal/gateway/razorpay"
	identitydomain "github.com/brightstack/coursekart/internal/identity/domain"
	ledgerdomain "github.com/brightstack/coursekart/internal/ledger/domain"
	notificationdomain "github.com/brightstack/coursekart/internal/notification/domain"
	"github.com/brightstack/coursekart/internal/observability/metrics"
	"github.com/brightstack/coursekart/internal/settlement/domain"
	"github.com/brightstack/coursekart/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Cfg          config.Config
	GenID        *snowflake.Node
	Gateway      gatewaydomain.Client
	Repo         domain.Repository
	LedgerRepo   ledgerdomain.Repository
	CatalogRepo  catalogdomain.Repository
	IdentityRepo identitydomain.Repository
	Notifier     notificationdomain.Service
	Metrics      *metrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	cfg          config.Config
	genID        *snowflake.Node
	gateway      gatewaydomain.Client
	repo         domain.Repository
	ledgerRepo   ledgerdomain.Repository
	catalogRepo  catalogdomain.Repository
	identityRepo identitydomain.Repository
	notifier     notificationdomain.Service
	metrics      *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("settlement.service"),
		cfg:          p.Cfg,
		genID:        p.GenID,
		gateway:      p.Gateway,
		repo:         p.Repo,
		ledgerRepo:   p.LedgerRepo,
		catalogRepo:  p.CatalogRepo,
		identityRepo: p.IdentityRepo,
		notifier:     p.Notifier,
		metrics:      p.Metrics,
	}
}

// amountMinorUnits converts a catalog price to the gateway's minor units.
// Every amount that leaves the catalog goes through here exactly once.
func amountMinorUnits(price int64) int64 {
	return price * 100
}

func (s *Service) InitiatePurchase(ctx context.Context, principal identitydomain.Principal, productID snowflake.ID) (*domain.CheckoutIntent, error) {
	if !principal.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}

	product, err := s.purchasableProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Price == 0 {
		return nil, domain.ErrProductFree
	}

	receipt := ulid.Make().String()
	remote, err := s.gateway.CreateOrder(ctx, gatewaydomain.CreateOrderRequest{
		AmountMinorUnits: amountMinorUnits(product.Price),
		Currency:         product.Currency,
		Receipt:          receipt,
		Notes: gatewaydomain.OrderNotes{
			UserID:    principal.UserID.String(),
			ProductID: product.ID.String(),
		},
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("checkout initiated",
		zap.String("user_id", principal.UserID.String()),
		zap.String("product_id", product.ID.String()),
		zap.String("remote_order_id", remote.ID),
		zap.String("receipt", receipt),
	)

	return &domain.CheckoutIntent{
		RemoteOrderID: remote.ID,
		Amount:        remote.Amount,
		Currency:      remote.Currency,
		KeyID:         s.gateway.KeyID(),
	}, nil
}

func (s *Service) ClaimFreeItem(ctx context.Context, principal identitydomain.Principal, productID snowflake.ID) (*ledgerdomain.Order, error) {
	if !principal.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}

	product, err := s.purchasableProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Price != 0 {
		return nil, domain.ErrProductNotFree
	}

	existing, err := s.ledgerRepo.FindByUserProductStatus(ctx, s.db, principal.UserID, product.ID,
		[]string{ledgerdomain.StatusSuccess, ledgerdomain.StatusCompleted})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	txnID := "free_" + uuid.NewString()
	now := time.Now().UTC()
	order := &ledgerdomain.Order{
		ID:            s.genID.Generate(),
		UserID:        principal.UserID,
		ProductID:     product.ID,
		Amount:        0,
		Currency:      product.Currency,
		Status:        ledgerdomain.StatusSuccess,
		TransactionID: &txnID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.ledgerRepo.Create(ctx, s.db, order); err != nil {
		return nil, err
	}

	s.metrics.RecordOrderSettled("free_claim")
	s.enqueueReceipt(ctx, order.ID, principal.Email)
	return order, nil
}

func (s *Service) ConfirmPurchase(ctx context.Context, principal identitydomain.Principal, productID snowflake.ID, conf domain.Confirmation) (*ledgerdomain.Order, error) {
	if !principal.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if conf.RemoteOrderID == "" || conf.PaymentID == "" || conf.Signature == "" {
		return nil, domain.ErrInvalidConfirmation
	}

	payload := razorpay.CheckoutPayload(conf.RemoteOrderID, conf.PaymentID)
	if !razorpay.VerifySignature(s.cfg.Gateway.KeySecret, payload, conf.Signature) {
		s.log.Warn("checkout signature mismatch",
			zap.String("user_id", principal.UserID.String()),
			zap.String("remote_order_id", conf.RemoteOrderID),
		)
		return nil, domain.ErrInvalidSignature
	}

	product, err := s.catalogRepo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, catalogdomain.ErrNotFound
	}

	order, err := s.settlePayment(ctx, settleRequest{
		paymentID:     conf.PaymentID,
		remoteOrderID: conf.RemoteOrderID,
		userID:        principal.UserID,
		productID:     product.ID,
		amount:        amountMinorUnits(product.Price),
		currency:      product.Currency,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordOrderSettled("confirm")
	s.enqueueReceipt(ctx, order.ID, principal.Email)
	return order, nil
}

func (s *Service) ListPurchases(ctx context.Context, principal identitydomain.Principal) ([]ledgerdomain.Order, error) {
	if !principal.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	return s.ledgerRepo.ListByUser(ctx, s.db, principal.UserID)
}

type settleRequest struct {
	paymentID     string
	remoteOrderID string
	userID        snowflake.ID
	productID     snowflake.ID
	amount        int64
	currency      string
}

// settlePayment upserts the COMPLETED order for a payment id. The unique
// index on transaction_id resolves confirm-vs-webhook races: the loser of
// the insert re-reads the winner's row and completes it.
func (s *Service) settlePayment(ctx context.Context, req settleRequest) (*ledgerdomain.Order, error) {
	existing, err := s.ledgerRepo.FindByTransactionID(ctx, s.db, req.paymentID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		now := time.Now().UTC()
		order := &ledgerdomain.Order{
			ID:            s.genID.Generate(),
			UserID:        req.userID,
			ProductID:     req.productID,
			Amount:        req.amount,
			Currency:      req.currency,
			Status:        ledgerdomain.StatusCompleted,
			TransactionID: &req.paymentID,
			ReceiptID:     req.remoteOrderID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		err = s.ledgerRepo.Create(ctx, s.db, order)
		if err == nil {
			return order, nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return nil, err
		}
		existing, err = s.ledgerRepo.FindByTransactionID(ctx, s.db, req.paymentID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, ledgerdomain.ErrNotFound
		}
	}

	if existing.Status != ledgerdomain.StatusCompleted {
		if err := s.ledgerRepo.MarkCompleted(ctx, s.db, existing.ID); err != nil {
			return nil, err
		}
		existing.Status = ledgerdomain.StatusCompleted
	}
	return existing, nil
}

func (s *Service) purchasableProduct(ctx context.Context, productID snowflake.ID) (*catalogdomain.Product, error) {
	product, err := s.catalogRepo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.Active {
		return nil, catalogdomain.ErrNotFound
	}
	return product, nil
}

func (s *Service) enqueueReceipt(ctx context.Context, orderID snowflake.ID, recipient string) {
	if err := s.notifier.EnqueueReceipt(ctx, orderID, recipient); err != nil {
		s.log.Warn("receipt enqueue failed",
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
	}
}
