package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GatewayClient creates orders with the payment gateway. Swapped for a fake
// in tests.
type GatewayClient interface {
	CreateOrder(ctx context.Context, amountCents int64, receipt string) (orderID string, err error)
}

const razorpayBaseURL = "https://api.razorpay.com/v1"

type razorpayClient struct {
	keyID     string
	keySecret string
	client    *http.Client
}

func NewRazorpayClient(keyID, keySecret string) GatewayClient {
	return &razorpayClient{
		keyID:     keyID,
		keySecret: keySecret,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (r *razorpayClient) CreateOrder(ctx context.Context, amountCents int64, receipt string) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"amount":   amountCents,
		"currency": "INR",
		"receipt":  receipt,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, razorpayBaseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(r.keyID, r.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway order create: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gateway order create: status %d: %s", resp.StatusCode, body)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("gateway order create: empty order id")
	}

	return out.ID, nil
}
