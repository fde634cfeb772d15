package payment

import "context"

type Repository interface {
	InsertOrder(ctx context.Context, orderID string, userID int, amountCents int64, receipt string) (*Order, error)
	GetOrder(ctx context.Context, orderID string) (*Order, error)

	// CreditOrder marks the order captured and credits the main balance, at
	// most once per order. A second call returns ErrAlreadyProcessed.
	CreditOrder(ctx context.Context, orderID string) (*Order, error)
}
