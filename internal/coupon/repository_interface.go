package coupon

import "context"

type Repository interface {
	Create(ctx context.Context, req CreateRequest) (*Coupon, error)
	Get(ctx context.Context, code string) (*Coupon, error)
	List(ctx context.Context) ([]Coupon, error)
	SetEnabled(ctx context.Context, code string, enabled bool) error

	// RedeemForWallet runs a wallet-context redemption and the resulting
	// bonus credit in one transaction.
	RedeemForWallet(ctx context.Context, userID int, code string) (*Resolution, error)
}
