package coupon

import (
	"context"
	"database/sql"
	"errors"

	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/wallet"

	"github.com/jmoiron/sqlx"
)

type repository struct {
	db   *sqlx.DB
	risk RiskChecker
}

func NewRepository(db *sqlx.DB, risk RiskChecker) Repository {
	if risk == nil {
		risk = AllowAll{}
	}
	return &repository{db: db, risk: risk}
}

const couponColumns = `code, type, value_cents, enabled, global_limit, per_user_limit,
	used_count, min_entry_fee_cents, expires_at, fraud_check, created_at`

func (r *repository) Create(ctx context.Context, req CreateRequest) (*Coupon, error) {
	var cp Coupon
	err := r.db.GetContext(ctx, &cp, `
		INSERT INTO coupons
			(code, type, value_cents, global_limit, per_user_limit, min_entry_fee_cents, expires_at, fraud_check)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+couponColumns,
		Normalize(req.Code), req.Type, req.ValueCents, req.GlobalLimit,
		req.PerUserLimit, req.MinEntryFeeCents, req.ExpiresAt, req.FraudCheck,
	)
	if err != nil {
		return nil, err
	}

	return &cp, nil
}

func (r *repository) Get(ctx context.Context, code string) (*Coupon, error) {
	var cp Coupon
	err := r.db.GetContext(ctx, &cp,
		`SELECT `+couponColumns+` FROM coupons WHERE code = $1`,
		Normalize(code),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCoupon
		}
		return nil, err
	}

	return &cp, nil
}

func (r *repository) List(ctx context.Context) ([]Coupon, error) {
	var coupons []Coupon
	err := r.db.SelectContext(ctx, &coupons,
		`SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}

	return coupons, nil
}

func (r *repository) SetEnabled(ctx context.Context, code string, enabled bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE coupons SET enabled = $1 WHERE code = $2`,
		enabled, Normalize(code),
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrInvalidCoupon
	}

	return nil
}

func (r *repository) RedeemForWallet(ctx context.Context, userID int, code string) (*Resolution, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := RedeemTx(ctx, tx, userID, code, ContextWallet, 0, r.risk)
	if err != nil {
		return nil, err
	}

	if res.BonusCents > 0 {
		snap, err := wallet.AdjustTx(ctx, tx, userID, res.BonusCents, wallet.KindBonus)
		if err != nil {
			return nil, err
		}
		if err := wallet.AppendEntryTx(ctx, tx, userID, wallet.EntryDeposit, res.BonusCents, snap, wallet.SourceCouponBonus, res.Code); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return res, nil
}
