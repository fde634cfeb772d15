package coupon

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// RiskChecker is the external fraud-scoring hook consulted for coupons with
// fraud_check set. Allow returns false to block the redemption.
type RiskChecker interface {
	Allow(ctx context.Context, userID int, code string) (bool, error)
}

// AllowAll is the default RiskChecker; it blocks nothing.
type AllowAll struct{}

func (AllowAll) Allow(ctx context.Context, userID int, code string) (bool, error) {
	return true, nil
}

// Normalize maps user-supplied codes onto their stored form.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// RedeemTx validates and redeems one coupon inside the caller's transaction.
// Both usage counters are advanced with conditional single-statement writes,
// so concurrent redemptions of the last remaining use resolve at the store:
// one caller wins, the rest observe a limit error. On any error the caller's
// rollback undoes the counters.
func RedeemTx(ctx context.Context, q sqlx.ExtContext, userID int, code, redeemCtx string, entryFeeCents int64, risk RiskChecker) (*Resolution, error) {
	code = Normalize(code)

	var cp Coupon
	err := sqlx.GetContext(ctx, q, &cp, `
		SELECT code, type, value_cents, enabled, global_limit, per_user_limit,
		       used_count, min_entry_fee_cents, expires_at, fraud_check, created_at
		FROM coupons
		WHERE code = $1
	`, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCoupon
		}
		return nil, err
	}

	if !cp.Enabled {
		return nil, ErrInvalidCoupon
	}
	if cp.ExpiresAt != nil && cp.ExpiresAt.Before(time.Now()) {
		return nil, ErrCouponExpired
	}

	switch redeemCtx {
	case ContextWallet:
		if cp.Type != TypeBonusCredit {
			return nil, ErrCouponNotApplicable
		}
	case ContextJoin:
		if cp.Type != TypeFlatDiscount && cp.Type != TypeFreeEntry {
			return nil, ErrCouponNotApplicable
		}
	default:
		return nil, ErrCouponNotApplicable
	}

	if redeemCtx == ContextJoin && cp.MinEntryFeeCents != nil && entryFeeCents < *cp.MinEntryFeeCents {
		return nil, ErrCouponMinEntryNotMet
	}

	if cp.FraudCheck {
		if risk == nil {
			risk = AllowAll{}
		}
		allowed, err := risk.Allow(ctx, userID, code)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, ErrCouponFraudBlocked
		}
	}

	// Global counter: the limit lives in the WHERE clause.
	result, err := q.ExecContext(ctx, `
		UPDATE coupons
		SET used_count = used_count + 1
		WHERE code = $1 AND (global_limit IS NULL OR used_count < global_limit)
	`, code)
	if err != nil {
		return nil, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, ErrCouponLimitReached
	}

	// Per-user counter: conditional insert, same idea.
	result, err = q.ExecContext(ctx, `
		INSERT INTO coupon_redemptions (code, user_id, context)
		SELECT $1, $2, $3
		WHERE (SELECT COUNT(*) FROM coupon_redemptions WHERE code = $1 AND user_id = $2) < $4
	`, code, userID, redeemCtx, cp.PerUserLimit)
	if err != nil {
		return nil, err
	}
	rowsAffected, err = result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, ErrCouponUserLimitReached
	}

	res := &Resolution{Code: code, Type: cp.Type}
	switch cp.Type {
	case TypeBonusCredit:
		res.BonusCents = cp.ValueCents
	case TypeFlatDiscount:
		res.DiscountCents = cp.ValueCents
		if res.DiscountCents > entryFeeCents {
			res.DiscountCents = entryFeeCents
		}
	case TypeFreeEntry:
		res.DiscountCents = entryFeeCents
	}

	return res, nil
}
