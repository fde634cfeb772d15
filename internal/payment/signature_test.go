package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyPaymentSignature(t *testing.T) {
	secret := "test_key_secret"
	sig := sign(secret, []byte("order_abc|pay_xyz"))

	assert.True(t, VerifyPaymentSignature(secret, "order_abc", "pay_xyz", sig))
	assert.False(t, VerifyPaymentSignature(secret, "order_abc", "pay_other", sig))
	assert.False(t, VerifyPaymentSignature("wrong_secret", "order_abc", "pay_xyz", sig))
	assert.False(t, VerifyPaymentSignature(secret, "order_abc", "pay_xyz", ""))
}

func TestVerifyWebhookSignature(t *testing.T) {
	secret := "webhook_secret"
	body := []byte(`{"event":"payment.captured"}`)
	sig := sign(secret, body)

	assert.True(t, VerifyWebhookSignature(secret, body, sig))
	assert.False(t, VerifyWebhookSignature(secret, []byte(`{"event":"tampered"}`), sig))
	assert.False(t, VerifyWebhookSignature("other", body, sig))
}
