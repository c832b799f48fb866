package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	catalogdomain "github.com/brightstack/coursekart/internal/catalog/domain"
	catalogrepo "github.com/brightstack/coursekart/internal/catalog/repository"
	"github.com/brightstack/coursekart/internal/config"
	gatewaydomain "github.com/brightstack/coursekart/internal/gateway/domain"
	"github.com/brightstack/coursekart/internal/gateway/razorpay"
	identitydomain "github.com/brightstack/coursekart/internal/identity/domain"
	identityrepo "github.com/brightstack/coursekart/internal/identity/repository"
	ledgerdomain "github.com/brightstack/coursekart/internal/ledger/domain"
	ledgerrepo "github.com/brightstack/coursekart/internal/ledger/repository"
	"github.com/brightstack/coursekart/internal/settlement/domain"
	settlementrepo "github.com/brightstack/coursekart/internal/settlement/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE users (
			id BIGINT PRIMARY KEY,
			email TEXT NOT NULL,
			name TEXT NOT NULL,
			password_hash TEXT,
			role TEXT NOT NULL DEFAULT 'CUSTOMER',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_users_email ON users(email)`,
		`CREATE TABLE products (
			id BIGINT PRIMARY KEY,
			slug TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			price BIGINT NOT NULL,
			currency TEXT NOT NULL DEFAULT 'INR',
			thumbnail_url TEXT,
			pdf_url TEXT,
			video_url TEXT,
			features TEXT,
			category TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_products_slug ON products(slug)`,
		`CREATE TABLE orders (
			id BIGINT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			product_id BIGINT NOT NULL,
			amount BIGINT NOT NULL,
			currency TEXT NOT NULL DEFAULT 'INR',
			status TEXT NOT NULL DEFAULT 'PENDING',
			transaction_id TEXT,
			receipt_id TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_orders_transaction ON orders(transaction_id)`,
		`CREATE TABLE payment_events (
			id BIGINT PRIMARY KEY,
			provider_event_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			payment_id TEXT,
			payload TEXT NOT NULL,
			received_at TIMESTAMP NOT NULL,
			processed_at TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX ux_payment_events_provider_event ON payment_events(provider_event_id)`,
		`CREATE TABLE unresolved_payments (
			id BIGINT PRIMARY KEY,
			payment_id TEXT NOT NULL,
			remote_order_id TEXT,
			amount BIGINT,
			email TEXT,
			reason TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_unresolved_payments_payment ON unresolved_payments(payment_id)`,
		`CREATE TABLE receipt_outbox (
			id BIGINT PRIMARY KEY,
			order_id BIGINT NOT NULL,
			recipient TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'PENDING',
			attempts INT NOT NULL DEFAULT 0,
			last_error TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range statements {
		require.NoError(t, conn.Exec(stmt).Error)
	}

	return conn
}

type fakeGateway struct {
	lastReq gatewaydomain.CreateOrderRequest
	calls   int
	err     error
}

func (f *fakeGateway) CreateOrder(ctx context.Context, req gatewaydomain.CreateOrderRequest) (*gatewaydomain.RemoteOrder, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &gatewaydomain.RemoteOrder{
		ID:       fmt.Sprintf("order_fake%d", f.calls),
		Amount:   req.AmountMinorUnits,
		Currency: req.Currency,
		Receipt:  req.Receipt,
	}, nil
}

func (f *fakeGateway) KeyID() string { return "rzp_test_key" }

type fakeNotifier struct {
	recipients []string
	orderIDs   []snowflake.ID
}

func (f *fakeNotifier) EnqueueReceipt(ctx context.Context, orderID snowflake.ID, recipient string) error {
	f.orderIDs = append(f.orderIDs, orderID)
	f.recipients = append(f.recipients, recipient)
	return nil
}

func (f *fakeNotifier) DispatchPending(ctx context.Context) (int, error) { return 0, nil }

type testEnv struct {
	db       *gorm.DB
	svc      domain.Service
	gateway  *fakeGateway
	notifier *fakeNotifier
	genID    *snowflake.Node
}

const (
	testKeySecret     = "test_key_secret"
	testWebhookSecret = "test_webhook_secret"
)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn := setupTestDB(t)
	node, err := snowflake.NewNode(10)
	require.NoError(t, err)

	gw := &fakeGateway{}
	notifier := &fakeNotifier{}

	cfg := config.Config{
		Gateway: config.GatewayConfig{
			KeyID:         "rzp_test_key",
			KeySecret:     testKeySecret,
			WebhookSecret: testWebhookSecret,
			Currency:      "INR",
		},
	}

	svc := New(Params{
		DB:           conn,
		Log:          zap.NewNop(),
		Cfg:          cfg,
		GenID:        node,
		Gateway:      gw,
		Repo:         settlementrepo.Provide(),
		LedgerRepo:   ledgerrepo.Provide(),
		CatalogRepo:  catalogrepo.Provide(),
		IdentityRepo: identityrepo.Provide(),
		Notifier:     notifier,
	})

	return &testEnv{db: conn, svc: svc, gateway: gw, notifier: notifier, genID: node}
}

func (e *testEnv) createProduct(t *testing.T, price int64, active bool) *catalogdomain.Product {
	t.Helper()

	now := time.Now().UTC()
	product := &catalogdomain.Product{
		ID:          e.genID.Generate(),
		Slug:        fmt.Sprintf("course-%d", e.genID.Generate()),
		Title:       "Test Course",
		Description: "a course",
		Price:       price,
		Currency:    "INR",
		Category:    "course",
		Active:      active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, catalogrepo.Provide().Create(context.Background(), e.db, product))
	return product
}

func (e *testEnv) createUser(t *testing.T) identitydomain.Principal {
	t.Helper()

	id := e.genID.Generate()
	email := fmt.Sprintf("buyer%d@example.com", id)
	now := time.Now().UTC()
	user := &identitydomain.User{
		ID:        id,
		Email:     email,
		Name:      "Buyer",
		Role:      identitydomain.RoleCustomer,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, identityrepo.Provide().CreateUser(context.Background(), e.db, user))
	return identitydomain.Principal{UserID: id, Email: email, Name: "Buyer", Role: identitydomain.RoleCustomer}
}

func (e *testEnv) orderByTxn(t *testing.T, txnID string) *ledgerdomain.Order {
	t.Helper()
	order, err := ledgerrepo.Provide().FindByTransactionID(context.Background(), e.db, txnID)
	require.NoError(t, err)
	return order
}

func (e *testEnv) countOrders(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Raw(`SELECT COUNT(1) FROM orders`).Scan(&n).Error)
	return n
}

func validSignature(remoteOrderID, paymentID string) string {
	return razorpay.ComputeSignature(testKeySecret, razorpay.CheckoutPayload(remoteOrderID, paymentID))
}

func TestInitiatePurchase(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.createUser(t)
	product := env.createProduct(t, 499, true)

	intent, err := env.svc.InitiatePurchase(context.Background(), buyer, product.ID)
	require.NoError(t, err)

	assert.Equal(t, "order_fake1", intent.RemoteOrderID)
	assert.Equal(t, int64(49900), intent.Amount)
	assert.Equal(t, "INR", intent.Currency)
	assert.Equal(t, "rzp_test_key", intent.KeyID)

	assert.Equal(t, int64(49900), env.gateway.lastReq.AmountMinorUnits)
	assert.Equal(t, buyer.UserID.String(), env.gateway.lastReq.Notes.UserID)
	assert.Equal(t, product.ID.String(), env.gateway.lastReq.Notes.ProductID)
	assert.NotEmpty(t, env.gateway.lastReq.Receipt)

	// Nothing hits the ledger until payment is proven.
	assert.Equal(t, int64(0), env.countOrders(t))
}

func TestInitiatePurchaseUnauthenticated(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, 499, true)

	_, err := env.svc.InitiatePurchase(context.Background(), identitydomain.Principal{}, product.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Zero(t, env.gateway.calls)
}

func TestInitiatePurchaseInactiveProduct(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.createUser(t)
	product := env.createProduct(t, 499, false)

	_, err := env.svc.InitiatePurchase(context.Background(), buyer, product.ID)
	assert.ErrorIs(t, err, catalogdomain.ErrNotFound)
}

func TestInitiatePurchaseFreeProduct(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.createUser(t)
	product := env.createProduct(t, 0, true)

	_, err := env.svc.InitiatePurchase(context.Background(), buyer, product.ID)
	assert.ErrorIs(t, err, domain.ErrProductFree)
}

func TestInitiatePurchaseGatewayDown(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.err = gatewaydomain.ErrGatewayUnavailable
	buyer := env.createUser(t)
	product := env.createProduct(t, 499, true)

	_, err := env.svc.InitiatePurchase(context.Background(), buyer, product.ID)
	assert.ErrorIs(t, err, gatewaydomain.ErrGatewayUnavailable)
	assert.Equal(t, int64(0), env.countOrders(t))
}

func TestClaimFreeItem(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.createUser(t)
	product := env.createProduct(t, 0, true)

	order, err := env.svc.ClaimFreeItem(context.Background(), buyer, product.ID)
	require.NoError(t, err)

	assert.Equal(t, ledgerdomain.StatusSuccess, order.Status)
	assert.Equal(t, int64(0), order.Amount)
	require.NotNil(t, order.TransactionID)
	assert.True(t, strings.HasPrefix(*order.TransactionID, "free_"))
	assert.Equal(t, []string{buyer.Email}, env.notifier.recipients)

	again, err := env.svc.ClaimFreeItem(context.Background(), buyer, product.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, again.ID)
	assert.Equal(t, int64(1), env.countOrders(t))
}

func TestClaimFreeItemPaidProduct(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.createUser(t)
	product := env.createProduct(t, 499, true)

	_, err := env.svc.ClaimFreeItem(context.Background(), buyer, product.ID)
	assert.ErrorIs(t, err, domain.ErrProductNotFree)
	assert.Equal(t, int64(0), env.countOrders(t))
}

func TestConfirmPurchase(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.createUser(t)
	product := env.createProduct(t, 499, true)

	conf := domain.Confirmation{
		RemoteOrderID: "order_remote1",
		PaymentID:     "pay_abc",
		Signature:     validSignature("order_remote1", "pay_abc"),
	}
	order, err := env.svc.ConfirmPurchase(context.Background(), buyer, product.ID, conf)
	require.NoError(t, err)

	assert.Equal(t, ledgerdomain.StatusCompleted, order.Status)
	assert.Equal(t, int64(49900), order.Amount)
	require.NotNil(t, order.TransactionID)
	assert.Equal(t, "pay_abc", *order.TransactionID)
	assert.Equal(t, []string{buyer.Email}, env.notifier.recipients)

	stored := env.orderByTxn(t, "pay_abc")
	require.NotNil(t, stored)
	assert.Equal(t, ledgerdomain.StatusCompleted, stored.Status)
}

func TestConfirmPurchaseInvalidSignature(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.createUser(t)
	product := env.createProduct(t, 499, true)

	conf := domain.Confirmation{
		RemoteOrderID: "order_remote1",
		PaymentID:     "pay_abc",
		Signature:     validSignature("order_remote1", "pay_other"),
	}
	_, err := env.svc.ConfirmPurchase(context.Background(), buyer, product.ID, conf)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	assert.Equal(t, int64(0), env.countOrders(t))
	assert.Empty(t, env.notifier.recipients)
}

func TestConfirmPurchaseMissingFields(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.createUser(t)
	product := env.createProduct(t, 499, true)

	_, err := env.svc.ConfirmPurchase(context.Background(), buyer, product.ID, domain.Confirmation{
		RemoteOrderID: "order_remote1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidConfirmation)
}

func TestConfirmPurchaseIdempotent(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.createUser(t)
	product := env.createProduct(t, 499, true)

	conf := domain.Confirmation{
		RemoteOrderID: "order_remote1",
		PaymentID:     "pay_abc",
		Signature:     validSignature("order_remote1", "pay_abc"),
	}
	first, err := env.svc.ConfirmPurchase(context.Background(), buyer, product.ID, conf)
	require.NoError(t, err)
	second, err := env.svc.ConfirmPurchase(context.Background(), buyer, product.ID, conf)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(1), env.countOrders(t))
}

func TestConfirmPurchaseCompletesExistingOrder(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.createUser(t)
	product := env.createProduct(t, 499, true)

	txn := "pay_abc"
	now := time.Now().UTC()
	existing := &ledgerdomain.Order{
		ID:            env.genID.Generate(),
		UserID:        buyer.UserID,
		ProductID:     product.ID,
		Amount:        49900,
		Currency:      "INR",
		Status:        ledgerdomain.StatusSuccess,
		TransactionID: &txn,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, ledgerrepo.Provide().Create(context.Background(), env.db, existing))

	conf := domain.Confirmation{
		RemoteOrderID: "order_remote1",
		PaymentID:     txn,
		Signature:     validSignature("order_remote1", txn),
	}
	order, err := env.svc.ConfirmPurchase(context.Background(), buyer, product.ID, conf)
	require.NoError(t, err)

	assert.Equal(t, existing.ID, order.ID)
	assert.Equal(t, ledgerdomain.StatusCompleted, order.Status)
	assert.Equal(t, int64(1), env.countOrders(t))
}

func TestListPurchases(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.createUser(t)
	other := env.createUser(t)
	product := env.createProduct(t, 0, true)

	_, err := env.svc.ClaimFreeItem(context.Background(), buyer, product.ID)
	require.NoError(t, err)

	orders, err := env.svc.ListPurchases(context.Background(), buyer)
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	orders, err = env.svc.ListPurchases(context.Background(), other)
	require.NoError(t, err)
	assert.Empty(t, orders)

	_, err = env.svc.ListPurchases(context.Background(), identitydomain.Principal{})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}
