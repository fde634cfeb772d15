package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPaymentSignature checks the checkout callback signature, computed
// over "orderID|paymentID" with the key secret.
func VerifyPaymentSignature(keySecret, orderID, paymentID, signature string) bool {
	expected := sign(keySecret, []byte(orderID+"|"+paymentID))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature checks the gateway webhook signature, computed over
// the raw request body with the webhook secret.
func VerifyWebhookSignature(webhookSecret string, body []byte, signature string) bool {
	expected := sign(webhookSecret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
