package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// ComputeSignature returns the hex HMAC-SHA256 of payload under secret. The
// gateway signs checkout confirmations over "<order_id>|<payment_id>" and
// webhook deliveries over the raw request body.
func ComputeSignature(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares an expected signature in constant time.
func VerifySignature(secret string, payload []byte, signature string) bool {
	expected := ComputeSignature(secret, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// CheckoutPayload builds the signed payload for a checkout confirmation.
func CheckoutPayload(remoteOrderID, paymentID string) []byte {
	return []byte(remoteOrderID + "|" + paymentID)
}
