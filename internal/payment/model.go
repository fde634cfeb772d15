package payment

import (
	"errors"
	"time"
)

var (
	ErrOrderNotFound     = errors.New("payment order not found")
	ErrOrderOwnership    = errors.New("order belongs to another user")
	ErrSignatureMismatch = errors.New("payment signature mismatch")
	ErrAlreadyProcessed  = errors.New("payment already processed")
)

// Order statuses.
const (
	OrderCreated  = "created"
	OrderCaptured = "captured"
)

type Order struct {
	OrderID     string    `db:"order_id" json:"order_id"`
	UserID      int       `db:"user_id" json:"user_id"`
	AmountCents int64     `db:"amount_cents" json:"amount_cents"`
	Status      string    `db:"status" json:"status"`
	Receipt     string    `db:"receipt" json:"receipt"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type CreateOrderRequest struct {
	AmountCents int64 `json:"amount_cents" binding:"required,gt=0"`
}

type VerifyRequest struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
}
