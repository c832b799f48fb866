package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSignature(t *testing.T) {
	secret := "test_key_secret"
	payload := CheckoutPayload("order_abc123", "pay_xyz789")

	mac := hmac.New(sha256.New, []byte(secret))
	_, err := mac.Write(payload)
	require.NoError(t, err)
	expected := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, expected, ComputeSignature(secret, payload))
}

func TestCheckoutPayload(t *testing.T) {
	assert.Equal(t, []byte("order_abc|pay_def"), CheckoutPayload("order_abc", "pay_def"))
}

func TestVerifySignature(t *testing.T) {
	secret := "whsec_1234"
	body := []byte(`{"event":"order.paid"}`)
	sig := ComputeSignature(secret, body)

	assert.True(t, VerifySignature(secret, body, sig))
	assert.False(t, VerifySignature(secret, body, sig+"00"))
	assert.False(t, VerifySignature(secret, []byte(`{"event":"order.paid" }`), sig))
	assert.False(t, VerifySignature("other_secret", body, sig))
	assert.False(t, VerifySignature(secret, body, ""))
}
