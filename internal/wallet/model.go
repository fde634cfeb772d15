package wallet

import "time"

// BalanceKind selects which of the two wallet balances an adjustment targets.
type BalanceKind string

const (
	KindMain  BalanceKind = "main"
	KindBonus BalanceKind = "bonus"
)

// Ledger entry types. Every balance change carries exactly one of these.
const (
	EntryDeposit     = "deposit"
	EntryFee         = "entry_fee"
	EntryWinning     = "winning"
	EntryWithdrawal  = "withdrawal"
	EntryAdminCredit = "admin_credit"
	EntryAdminDebit  = "admin_debit"
	EntryRazorpay    = "razorpay"
)

// Entry sources used for at-most-once existence checks.
const (
	SourceTournamentCancelRefund = "tournament_cancel_refund"
	SourceWithdrawalRejectRefund = "withdrawal_reject_refund"
	SourcePrizePayout            = "prize_payout"
	SourceCouponBonus            = "coupon_bonus"
	SourceTournamentJoin         = "tournament_join"
	SourceGatewayTopup           = "gateway_topup"
	SourceAdminPanel             = "admin_panel"
)

// Entry is one immutable ledger record. after = before + signed amount on the
// adjusted balance; the other balance's snapshot is carried unchanged.
type Entry struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int       `db:"user_id" json:"user_id"`
	Type        string    `db:"type" json:"type"`
	AmountCents int64     `db:"amount_cents" json:"amount_cents"`
	MainBefore  int64     `db:"main_before" json:"main_before"`
	MainAfter   int64     `db:"main_after" json:"main_after"`
	BonusBefore int64     `db:"bonus_before" json:"bonus_before"`
	BonusAfter  int64     `db:"bonus_after" json:"bonus_after"`
	Source      string    `db:"source" json:"source"`
	Reference   string    `db:"reference" json:"reference"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Balances is a point-in-time read of both wallet balances.
type Balances struct {
	MainCents  int64 `db:"main_balance_cents" json:"main_cents"`
	BonusCents int64 `db:"bonus_balance_cents" json:"bonus_cents"`
}

// Snapshot is the before/after picture a conditional update returns.
type Snapshot struct {
	MainBefore  int64 `db:"main_before"`
	BonusBefore int64 `db:"bonus_before"`
	MainAfter   int64 `db:"main_after"`
	BonusAfter  int64 `db:"bonus_after"`
}

type AdjustParams struct {
	UserID      int
	AmountCents int64
	Kind        BalanceKind
	Type        string
	Source      string
	Reference   string
}

// Withdrawal statuses.
const (
	WithdrawalPending  = "pending"
	WithdrawalApproved = "approved"
	WithdrawalRejected = "rejected"
	WithdrawalPaid     = "paid"
)

type Withdrawal struct {
	ID          int64      `db:"id" json:"id"`
	UserID      int        `db:"user_id" json:"user_id"`
	AmountCents int64      `db:"amount_cents" json:"amount_cents"`
	FeeCents    int64      `db:"fee_cents" json:"fee_cents"`
	NetCents    int64      `db:"net_cents" json:"net_cents"`
	Status      string     `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	ReviewedAt  *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
}

type WithdrawRequest struct {
	AmountCents int64 `json:"amount_cents" binding:"required,gt=0"`
}

type AdminAdjustRequest struct {
	UserID      int    `json:"user_id" binding:"required"`
	AmountCents int64  `json:"amount_cents" binding:"required,gt=0"`
	Kind        string `json:"kind" binding:"required,oneof=main bonus"`
	Reason      string `json:"reason"`
}

// FeeForLifetimeSpend returns the platform withdrawal fee in cents for a
// requested amount, tiered by the user's lifetime entry-fee spend.
func FeeForLifetimeSpend(lifetimeCents, amountCents int64) int64 {
	switch {
	case lifetimeCents >= 100000:
		return amountCents * 2 / 100
	case lifetimeCents >= 25000:
		return amountCents * 5 / 100
	default:
		return amountCents * 10 / 100
	}
}
