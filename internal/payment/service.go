package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/logger"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

type Service interface {
	CreateOrder(ctx context.Context, userID int, amountCents int64) (*Order, error)
	VerifyAndCredit(ctx context.Context, userID int, req VerifyRequest) (*Order, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) error
}

type service struct {
	repo          Repository
	gateway       GatewayClient
	keySecret     string
	webhookSecret string

	// credits coalesces the webhook and checkout callback racing to credit
	// the same order.
	credits singleflight.Group
}

func NewService(repo Repository, gateway GatewayClient, keySecret, webhookSecret string) Service {
	return &service{
		repo:          repo,
		gateway:       gateway,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
	}
}

func (s *service) CreateOrder(ctx context.Context, userID int, amountCents int64) (*Order, error) {
	receipt := uuid.NewString()

	orderID, err := s.gateway.CreateOrder(ctx, amountCents, receipt)
	if err != nil {
		return nil, err
	}

	order, err := s.repo.InsertOrder(ctx, orderID, userID, amountCents, receipt)
	if err != nil {
		return nil, err
	}

	logger.Info("Payment order created", "order_id", orderID, "user_id", userID, "amount_cents", amountCents)

	return order, nil
}

func (s *service) ensureCredit(ctx context.Context, orderID string) (*Order, error) {
	v, err, _ := s.credits.Do(orderID, func() (interface{}, error) {
		return s.repo.CreditOrder(ctx, orderID)
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyProcessed) {
			metrics.PaymentCreditsTotal.WithLabelValues("duplicate").Inc()
		} else {
			metrics.PaymentCreditsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	order := v.(*Order)
	metrics.PaymentCreditsTotal.WithLabelValues("ok").Inc()
	logger.Info("Wallet credited for payment", "order_id", order.OrderID, "user_id", order.UserID, "amount_cents", order.AmountCents)

	return order, nil
}

func (s *service) VerifyAndCredit(ctx context.Context, userID int, req VerifyRequest) (*Order, error) {
	if !VerifyPaymentSignature(s.keySecret, req.OrderID, req.PaymentID, req.Signature) {
		logger.Warn("Payment signature mismatch", "order_id", req.OrderID, "user_id", userID)
		return nil, ErrSignatureMismatch
	}

	order, err := s.repo.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderOwnership
	}

	return s.ensureCredit(ctx, req.OrderID)
}

type webhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook credits the wallet for payment.captured events. Duplicate
// deliveries are normal gateway behavior and are not errors.
func (s *service) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !VerifyWebhookSignature(s.webhookSecret, body, signature) {
		return ErrSignatureMismatch
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("webhook payload: %w", err)
	}

	if payload.Event != "payment.captured" {
		logger.Debug("Ignoring webhook event", "event", payload.Event)
		return nil
	}

	orderID := payload.Payload.Payment.Entity.OrderID
	if orderID == "" {
		return fmt.Errorf("webhook payload: missing order id")
	}

	_, err := s.ensureCredit(ctx, orderID)
	if err != nil && !errors.Is(err, ErrAlreadyProcessed) {
		return err
	}

	return nil
}
