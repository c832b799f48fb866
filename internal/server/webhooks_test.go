package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brightstack/coursekart/internal/config"
	identitydomain "github.com/brightstack/coursekart/internal/identity/domain"
	"github.com/brightstack/coursekart/internal/identity/session"
	ledgerdomain "github.com/brightstack/coursekart/internal/ledger/domain"
	settlementdomain "github.com/brightstack/coursekart/internal/settlement/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSettlementService struct {
	rawBody   []byte
	signature string
	eventID   string
	calls     int
	err       error
}

func (f *fakeSettlementService) InitiatePurchase(ctx context.Context, principal identitydomain.Principal, productID snowflake.ID) (*settlementdomain.CheckoutIntent, error) {
	return &settlementdomain.CheckoutIntent{RemoteOrderID: "order_fake", Amount: 49900, Currency: "INR", KeyID: "rzp_test"}, nil
}

func (f *fakeSettlementService) ClaimFreeItem(ctx context.Context, principal identitydomain.Principal, productID snowflake.ID) (*ledgerdomain.Order, error) {
	return &ledgerdomain.Order{ID: snowflake.ID(1), Status: ledgerdomain.StatusSuccess}, nil
}

func (f *fakeSettlementService) ConfirmPurchase(ctx context.Context, principal identitydomain.Principal, productID snowflake.ID, conf settlementdomain.Confirmation) (*ledgerdomain.Order, error) {
	return &ledgerdomain.Order{ID: snowflake.ID(1), Status: ledgerdomain.StatusCompleted}, nil
}

func (f *fakeSettlementService) ListPurchases(ctx context.Context, principal identitydomain.Principal) ([]ledgerdomain.Order, error) {
	return nil, nil
}

func (f *fakeSettlementService) ReconcileWebhookEvent(ctx context.Context, rawBody []byte, signature, eventID string) error {
	f.calls++
	f.rawBody = rawBody
	f.signature = signature
	f.eventID = eventID
	return f.err
}

type fakeIdentityService struct{}

func (f *fakeIdentityService) SignUp(ctx context.Context, req identitydomain.SignUpRequest) (*identitydomain.Principal, error) {
	return &identitydomain.Principal{}, nil
}

func (f *fakeIdentityService) Login(ctx context.Context, req identitydomain.LoginRequest) (*identitydomain.LoginResult, error) {
	return &identitydomain.LoginResult{}, nil
}

func (f *fakeIdentityService) Logout(ctx context.Context, token string) error { return nil }

func (f *fakeIdentityService) Authenticate(ctx context.Context, token string) (*identitydomain.Principal, error) {
	return nil, identitydomain.ErrSessionNotFound
}

func newTestServer(t *testing.T, settlementSvc settlementdomain.Service) *Server {
	t.Helper()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandlingMiddleware())

	srv := &Server{
		engine:        r,
		log:           zap.NewNop(),
		sessions:      session.NewManager(config.Config{}),
		identitySvc:   &fakeIdentityService{},
		settlementSvc: settlementSvc,
	}
	srv.registerWebhookRoutes()
	srv.registerAPIRoutes()
	return srv
}

func postWebhook(srv *Server, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment-gateway", bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)
	return w
}

func TestPaymentWebhookPassesRawBody(t *testing.T) {
	fake := &fakeSettlementService{}
	srv := newTestServer(t, fake)

	// Whitespace matters: the signature covers these exact bytes.
	body := []byte("{\"event\": \"order.paid\" }\n")
	w := postWebhook(srv, body, map[string]string{
		"X-Razorpay-Signature": "sig123",
		"X-Razorpay-Event-Id":  "evt456",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, fake.calls)
	assert.Equal(t, body, fake.rawBody)
	assert.Equal(t, "sig123", fake.signature)
	assert.Equal(t, "evt456", fake.eventID)
}

func TestPaymentWebhookMissingSignature(t *testing.T) {
	fake := &fakeSettlementService{}
	srv := newTestServer(t, fake)

	w := postWebhook(srv, []byte(`{}`), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, fake.calls)
}

func TestPaymentWebhookInvalidSignature(t *testing.T) {
	fake := &fakeSettlementService{err: settlementdomain.ErrInvalidSignature}
	srv := newTestServer(t, fake)

	w := postWebhook(srv, []byte(`{}`), map[string]string{"X-Razorpay-Signature": "bad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentWebhookSecretUnconfigured(t *testing.T) {
	fake := &fakeSettlementService{err: settlementdomain.ErrWebhookSecretMissing}
	srv := newTestServer(t, fake)

	w := postWebhook(srv, []byte(`{}`), map[string]string{"X-Razorpay-Signature": "sig"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestOrdersRequireAuth(t *testing.T) {
	srv := newTestServer(t, &fakeSettlementService{})

	req := httptest.NewRequest(http.MethodPost, "/api/orders/initiate", bytes.NewReader([]byte(`{"product_id":"1"}`)))
	w := httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
