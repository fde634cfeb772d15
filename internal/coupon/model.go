package coupon

import (
	"errors"
	"time"
)

// Coupon types.
const (
	TypeBonusCredit  = "bonus_credit"
	TypeFlatDiscount = "flat_discount"
	TypeFreeEntry    = "free_entry"
)

// Redemption contexts. bonus_credit coupons apply to wallet top-ups;
// flat_discount and free_entry apply to tournament joins.
const (
	ContextWallet = "wallet"
	ContextJoin   = "join"
)

var (
	ErrInvalidCoupon          = errors.New("coupon is invalid or disabled")
	ErrCouponExpired          = errors.New("coupon has expired")
	ErrCouponLimitReached     = errors.New("coupon usage limit reached")
	ErrCouponUserLimitReached = errors.New("coupon already used the maximum number of times")
	ErrCouponNotApplicable    = errors.New("coupon is not applicable in this context")
	ErrCouponMinEntryNotMet   = errors.New("entry fee is below the coupon minimum")
	ErrCouponFraudBlocked     = errors.New("coupon redemption blocked by risk check")
)

type Coupon struct {
	Code             string     `db:"code" json:"code"`
	Type             string     `db:"type" json:"type"`
	ValueCents       int64      `db:"value_cents" json:"value_cents"`
	Enabled          bool       `db:"enabled" json:"enabled"`
	GlobalLimit      *int       `db:"global_limit" json:"global_limit,omitempty"`
	PerUserLimit     int        `db:"per_user_limit" json:"per_user_limit"`
	UsedCount        int        `db:"used_count" json:"used_count"`
	MinEntryFeeCents *int64     `db:"min_entry_fee_cents" json:"min_entry_fee_cents,omitempty"`
	ExpiresAt        *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	FraudCheck       bool       `db:"fraud_check" json:"fraud_check"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

// Resolution is the outcome of a successful redemption. Exactly one of
// DiscountCents (join context) or BonusCents (wallet context) is non-zero,
// except for a zero-value coupon.
type Resolution struct {
	Code          string `json:"code"`
	Type          string `json:"type"`
	DiscountCents int64  `json:"discount_cents"`
	BonusCents    int64  `json:"bonus_cents"`
}

type CreateRequest struct {
	Code             string     `json:"code" binding:"required,min=3,max=50"`
	Type             string     `json:"type" binding:"required,oneof=bonus_credit flat_discount free_entry"`
	ValueCents       int64      `json:"value_cents" binding:"gte=0"`
	GlobalLimit      *int       `json:"global_limit"`
	PerUserLimit     int        `json:"per_user_limit" binding:"gte=1"`
	MinEntryFeeCents *int64     `json:"min_entry_fee_cents"`
	ExpiresAt        *time.Time `json:"expires_at"`
	FraudCheck       bool       `json:"fraud_check"`
}

type RedeemRequest struct {
	Code string `json:"code" binding:"required"`
}
