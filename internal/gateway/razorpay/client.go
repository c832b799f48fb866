package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/brightstack/coursekart/internal/config"
	"github.com/brightstack/coursekart/internal/gateway/domain"
	"github.com/brightstack/coursekart/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg     config.Config
	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

// Client talks to the gateway's REST API with basic auth credentials.
type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
	log        *zap.Logger
	metrics    *metrics.Metrics
}

func New(p Params) domain.Client {
	timeout := time.Duration(p.Cfg.Gateway.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(p.Cfg.Gateway.BaseURL, "/"),
		keyID:      p.Cfg.Gateway.KeyID,
		keySecret:  p.Cfg.Gateway.KeySecret,
		httpClient: &http.Client{Timeout: timeout},
		log:        p.Log.Named("gateway.razorpay"),
		metrics:    p.Metrics,
	}
}

func (c *Client) KeyID() string { return c.keyID }

type createOrderBody struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    domain.OrderNotes `json:"notes"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

func (c *Client) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.RemoteOrder, error) {
	if c.keyID == "" || c.keySecret == "" {
		return nil, domain.ErrMissingCredentials
	}

	body, err := json.Marshal(createOrderBody{
		Amount:   req.AmountMinorUnits,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(c.keyID, c.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.RecordGatewayRequest("error")
		c.log.Warn("gateway order creation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		c.metrics.RecordGatewayRequest("error")
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.metrics.RecordGatewayRequest("error")
		return nil, fmt.Errorf("%w: status %d", domain.ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		c.metrics.RecordGatewayRequest("rejected")
		c.log.Warn("gateway rejected order",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw),
		)
		return nil, fmt.Errorf("%w: status %d", domain.ErrGatewayRejected, resp.StatusCode)
	}

	var parsed orderResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		c.metrics.RecordGatewayRequest("error")
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	if strings.TrimSpace(parsed.ID) == "" {
		c.metrics.RecordGatewayRequest("error")
		return nil, fmt.Errorf("%w: empty order id", domain.ErrGatewayUnavailable)
	}

	c.metrics.RecordGatewayRequest("ok")
	return &domain.RemoteOrder{
		ID:       parsed.ID,
		Amount:   parsed.Amount,
		Currency: parsed.Currency,
		Receipt:  parsed.Receipt,
	}, nil
}
