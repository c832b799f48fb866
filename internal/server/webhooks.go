package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	settlementdomain "github.com/brightstack/coursekart/internal/settlement/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	webhookSignatureHeader = "X-Razorpay-Signature"
	webhookEventIDHeader   = "X-Razorpay-Event-Id"

	maxWebhookBodyBytes = 1 << 20
)

// PaymentWebhook receives gateway callbacks. The signature covers the raw
// body, so the body is read before any parsing. Reconciliation outcomes
// never turn into non-2xx responses; only authentication and configuration
// problems do, so the provider retries exactly when a retry can help.
func (s *Server) PaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	signature := strings.TrimSpace(c.GetHeader(webhookSignatureHeader))
	if signature == "" {
		AbortWithError(c, newValidationError("signature", "missing_signature", "signature header is required"))
		return
	}
	eventID := strings.TrimSpace(c.GetHeader(webhookEventIDHeader))

	err = s.settlementSvc.ReconcileWebhookEvent(c.Request.Context(), body, signature, eventID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"received": true})
	case errors.Is(err, settlementdomain.ErrInvalidSignature):
		AbortWithError(c, err)
	case errors.Is(err, settlementdomain.ErrWebhookSecretMissing):
		s.log.Error("webhook secret is not configured")
		AbortWithError(c, ErrInternal)
	default:
		s.log.Error("webhook processing failed", zap.Error(err))
		AbortWithError(c, ErrInternal)
	}
}
