package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	ErrAccountBanned         = errors.New("account is banned")
	ErrWithdrawalNotAllowed  = errors.New("email and phone must be verified before withdrawing")
	ErrWithdrawalLocked      = errors.New("withdrawals are locked for this account")
	ErrWithdrawalNotFound    = errors.New("withdrawal not found")
	ErrWithdrawalNotPending  = errors.New("withdrawal already reviewed")
	ErrWithdrawalNotApproved = errors.New("withdrawal must be approved before being paid")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetBalances(ctx context.Context, userID int) (*Balances, error) {
	var b Balances
	err := r.db.GetContext(ctx, &b,
		`SELECT main_balance_cents, bonus_balance_cents FROM users WHERE id = $1`,
		userID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Adjust applies one balance change and appends its ledger entry in a single
// transaction. Standalone counterpart of the Tx helpers used by composed
// flows.
func (r *repository) Adjust(ctx context.Context, p AdjustParams) (*Entry, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	snap, err := AdjustTx(ctx, tx, p.UserID, p.AmountCents, p.Kind)
	if err != nil {
		return nil, err
	}

	if err := AppendEntryTx(ctx, tx, p.UserID, p.Type, p.AmountCents, snap, p.Source, p.Reference); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &Entry{
		UserID:      p.UserID,
		Type:        p.Type,
		AmountCents: p.AmountCents,
		MainBefore:  snap.MainBefore,
		MainAfter:   snap.MainAfter,
		BonusBefore: snap.BonusBefore,
		BonusAfter:  snap.BonusAfter,
		Source:      p.Source,
		Reference:   p.Reference,
		CreatedAt:   time.Now(),
	}, nil
}

func (r *repository) GetEntries(ctx context.Context, userID int, limit, offset int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	var entries []Entry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, user_id, type, amount_cents, main_before, main_after,
		       bonus_before, bonus_after, source, reference, created_at
		FROM wallet_entries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *repository) HasEntry(ctx context.Context, entryType, source, reference string) (bool, error) {
	return HasEntryTx(ctx, r.db, entryType, source, reference)
}

// RequestWithdrawal debits the main balance and records the pending
// withdrawal atomically. Eligibility is checked on a row locked FOR UPDATE so
// concurrent requests cannot both pass the lock-until gate.
func (r *repository) RequestWithdrawal(ctx context.Context, userID int, amountCents int64) (*Withdrawal, error) {
	if amountCents <= 0 {
		return nil, fmt.Errorf("withdrawal amount must be positive")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var u struct {
		Banned              bool       `db:"banned"`
		EmailVerified       bool       `db:"email_verified"`
		PhoneVerified       bool       `db:"phone_verified"`
		WithdrawalLockUntil *time.Time `db:"withdrawal_lock_until"`
		LifetimeCents       int64      `db:"lifetime_entry_fee_cents"`
	}
	err = tx.GetContext(ctx, &u, `
		SELECT banned, email_verified, phone_verified, withdrawal_lock_until, lifetime_entry_fee_cents
		FROM users WHERE id = $1 FOR UPDATE
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if u.Banned {
		return nil, ErrAccountBanned
	}
	if !u.EmailVerified || !u.PhoneVerified {
		return nil, ErrWithdrawalNotAllowed
	}
	if u.WithdrawalLockUntil != nil && u.WithdrawalLockUntil.After(time.Now()) {
		return nil, ErrWithdrawalLocked
	}

	feeCents := FeeForLifetimeSpend(u.LifetimeCents, amountCents)
	netCents := amountCents - feeCents

	snap, err := AdjustTx(ctx, tx, userID, -amountCents, KindMain)
	if err != nil {
		return nil, err
	}

	var w Withdrawal
	err = tx.GetContext(ctx, &w, `
		INSERT INTO withdrawals (user_id, amount_cents, fee_cents, net_cents, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING id, user_id, amount_cents, fee_cents, net_cents, status, created_at, reviewed_at
	`, userID, amountCents, feeCents, netCents)
	if err != nil {
		return nil, err
	}

	ref := strconv.FormatInt(w.ID, 10)
	if err := AppendEntryTx(ctx, tx, userID, EntryWithdrawal, -amountCents, snap, "withdrawal_request", ref); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &w, nil
}

// ReviewWithdrawal moves a withdrawal out of its current status with a
// status-conditional update; rejection restores the debited amount exactly
// once, guarded by a ledger existence check.
func (r *repository) ReviewWithdrawal(ctx context.Context, id int64, newStatus string) (*Withdrawal, error) {
	var expected string
	switch newStatus {
	case WithdrawalApproved, WithdrawalRejected:
		expected = WithdrawalPending
	case WithdrawalPaid:
		expected = WithdrawalApproved
	default:
		return nil, fmt.Errorf("invalid withdrawal status %q", newStatus)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var w Withdrawal
	err = tx.GetContext(ctx, &w, `
		UPDATE withdrawals
		SET status = $1, reviewed_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING id, user_id, amount_cents, fee_cents, net_cents, status, created_at, reviewed_at
	`, newStatus, id, expected)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if err := tx.GetContext(ctx, &exists,
				`SELECT EXISTS(SELECT 1 FROM withdrawals WHERE id = $1)`, id); err != nil {
				return nil, err
			}
			if !exists {
				return nil, ErrWithdrawalNotFound
			}
			if newStatus == WithdrawalPaid {
				return nil, ErrWithdrawalNotApproved
			}
			return nil, ErrWithdrawalNotPending
		}
		return nil, err
	}

	if newStatus == WithdrawalRejected {
		ref := strconv.FormatInt(w.ID, 10)
		refunded, err := HasEntryTx(ctx, tx, EntryAdminCredit, SourceWithdrawalRejectRefund, ref)
		if err != nil {
			return nil, err
		}
		if !refunded {
			snap, err := AdjustTx(ctx, tx, w.UserID, w.AmountCents, KindMain)
			if err != nil {
				return nil, err
			}
			if err := AppendEntryTx(ctx, tx, w.UserID, EntryAdminCredit, w.AmountCents, snap, SourceWithdrawalRejectRefund, ref); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &w, nil
}

func (r *repository) GetUserWithdrawals(ctx context.Context, userID int) ([]Withdrawal, error) {
	var ws []Withdrawal
	err := r.db.SelectContext(ctx, &ws, `
		SELECT id, user_id, amount_cents, fee_cents, net_cents, status, created_at, reviewed_at
		FROM withdrawals
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return ws, nil
}

func (r *repository) ListWithdrawals(ctx context.Context, status string, limit, offset int) ([]Withdrawal, error) {
	if limit <= 0 {
		limit = 50
	}

	var ws []Withdrawal
	err := r.db.SelectContext(ctx, &ws, `
		SELECT id, user_id, amount_cents, fee_cents, net_cents, status, created_at, reviewed_at
		FROM withdrawals
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, err
	}
	return ws, nil
}
