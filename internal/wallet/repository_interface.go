package wallet

import "context"

type Repository interface {
	GetBalances(ctx context.Context, userID int) (*Balances, error)
	Adjust(ctx context.Context, p AdjustParams) (*Entry, error)
	GetEntries(ctx context.Context, userID int, limit, offset int) ([]Entry, error)
	HasEntry(ctx context.Context, entryType, source, reference string) (bool, error)

	RequestWithdrawal(ctx context.Context, userID int, amountCents int64) (*Withdrawal, error)
	ReviewWithdrawal(ctx context.Context, id int64, newStatus string) (*Withdrawal, error)
	GetUserWithdrawals(ctx context.Context, userID int) ([]Withdrawal, error)
	ListWithdrawals(ctx context.Context, status string, limit, offset int) ([]Withdrawal, error)
}
