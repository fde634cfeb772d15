package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInvalidBalanceKind  = errors.New("invalid balance kind")
)

// The helpers in this file take sqlx.ExtContext so composed flows (tournament
// join, prize payouts, refunds, payment credits) can run ledger writes inside
// their own transaction. The guard and the mutation are always one statement;
// callers never read-then-write balances.

func balanceColumn(kind BalanceKind) (string, error) {
	switch kind {
	case KindMain:
		return "main_balance_cents", nil
	case KindBonus:
		return "bonus_balance_cents", nil
	default:
		return "", ErrInvalidBalanceKind
	}
}

// AdjustTx applies a signed delta to one balance. The non-negative guard is
// evaluated in the UPDATE's WHERE clause; zero rows means the debit would have
// gone negative (or the account does not exist for credits).
func AdjustTx(ctx context.Context, q sqlx.ExtContext, userID int, amountCents int64, kind BalanceKind) (*Snapshot, error) {
	column, err := balanceColumn(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		WITH prev AS (
			SELECT main_balance_cents, bonus_balance_cents
			FROM users WHERE id = $1 FOR UPDATE
		)
		UPDATE users u
		SET %[1]s = prev.%[1]s + $2, updated_at = NOW()
		FROM prev
		WHERE u.id = $1 AND prev.%[1]s + $2 >= 0
		RETURNING prev.main_balance_cents AS main_before,
		          prev.bonus_balance_cents AS bonus_before,
		          u.main_balance_cents AS main_after,
		          u.bonus_balance_cents AS bonus_after
	`, column)

	var snap Snapshot
	err = sqlx.GetContext(ctx, q, &snap, query, userID, amountCents)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if amountCents >= 0 {
				return nil, ErrAccountNotFound
			}
			return nil, ErrInsufficientBalance
		}
		return nil, err
	}

	return &snap, nil
}

// DebitFeeTx takes an entry fee from the bonus balance first and the
// remainder from the main balance, atomically. The combined-funds guard sits
// in the WHERE clause so concurrent debits cannot overdraw either balance.
func DebitFeeTx(ctx context.Context, q sqlx.ExtContext, userID int, feeCents int64) (*Snapshot, error) {
	if feeCents <= 0 {
		return nil, fmt.Errorf("fee must be positive, got %d", feeCents)
	}

	query := `
		WITH prev AS (
			SELECT main_balance_cents, bonus_balance_cents
			FROM users WHERE id = $1 FOR UPDATE
		)
		UPDATE users u
		SET bonus_balance_cents = prev.bonus_balance_cents - LEAST(prev.bonus_balance_cents, $2),
		    main_balance_cents = prev.main_balance_cents - ($2 - LEAST(prev.bonus_balance_cents, $2)),
		    updated_at = NOW()
		FROM prev
		WHERE u.id = $1 AND prev.main_balance_cents + prev.bonus_balance_cents >= $2
		RETURNING prev.main_balance_cents AS main_before,
		          prev.bonus_balance_cents AS bonus_before,
		          u.main_balance_cents AS main_after,
		          u.bonus_balance_cents AS bonus_after
	`

	var snap Snapshot
	err := sqlx.GetContext(ctx, q, &snap, query, userID, feeCents)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInsufficientBalance
		}
		return nil, err
	}

	return &snap, nil
}

// AppendEntryTx writes one immutable ledger row in the caller's transaction.
func AppendEntryTx(ctx context.Context, q sqlx.ExtContext, userID int, entryType string, amountCents int64, snap *Snapshot, source, reference string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO wallet_entries
			(user_id, type, amount_cents, main_before, main_after, bonus_before, bonus_after, source, reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, userID, entryType, amountCents, snap.MainBefore, snap.MainAfter, snap.BonusBefore, snap.BonusAfter, source, reference)
	return err
}

// HasEntryTx reports whether a ledger entry with the given type, source and
// reference already exists. Backs every at-most-once decision (payment
// credits, cancellation refunds, withdrawal reject refunds).
func HasEntryTx(ctx context.Context, q sqlx.ExtContext, entryType, source, reference string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, q, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM wallet_entries
			WHERE type = $1 AND source = $2 AND reference = $3
		)
	`, entryType, source, reference)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// HasUserEntryTx is HasEntryTx scoped to one account.
func HasUserEntryTx(ctx context.Context, q sqlx.ExtContext, userID int, entryType, source, reference string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, q, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM wallet_entries
			WHERE user_id = $1 AND type = $2 AND source = $3 AND reference = $4
		)
	`, userID, entryType, source, reference)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// AddLifetimeSpendTx bumps the loyalty counter that withdrawal fees tier on.
func AddLifetimeSpendTx(ctx context.Context, q sqlx.ExtContext, userID int, amountCents int64) error {
	_, err := q.ExecContext(ctx, `
		UPDATE users
		SET lifetime_entry_fee_cents = lifetime_entry_fee_cents + $1, updated_at = NOW()
		WHERE id = $2
	`, amountCents, userID)
	return err
}
