package payment

import (
	"context"
	"database/sql"
	"errors"

	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/wallet"

	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `order_id, user_id, amount_cents, status, receipt, created_at, updated_at`

func (r *repository) InsertOrder(ctx context.Context, orderID string, userID int, amountCents int64, receipt string) (*Order, error) {
	var order Order
	err := r.db.GetContext(ctx, &order, `
		INSERT INTO payment_orders (order_id, user_id, amount_cents, receipt)
		VALUES ($1, $2, $3, $4)
		RETURNING `+orderColumns,
		orderID, userID, amountCents, receipt)
	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *repository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	err := r.db.GetContext(ctx, &order,
		`SELECT `+orderColumns+` FROM payment_orders WHERE order_id = $1`, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	return &order, nil
}

// CreditOrder checks the ledger for an existing credit, then takes the
// created -> captured transition conditionally. Either guard failing means
// the order was already processed.
func (r *repository) CreditOrder(ctx context.Context, orderID string) (*Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var order Order
	err = tx.GetContext(ctx, &order,
		`SELECT `+orderColumns+` FROM payment_orders WHERE order_id = $1 FOR UPDATE`, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	credited, err := wallet.HasEntryTx(ctx, tx, wallet.EntryRazorpay, wallet.SourceGatewayTopup, orderID)
	if err != nil {
		return nil, err
	}
	if credited {
		return nil, ErrAlreadyProcessed
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE payment_orders SET status = 'captured', updated_at = NOW()
		WHERE order_id = $1 AND status = 'created'
	`, orderID)
	if err != nil {
		return nil, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, ErrAlreadyProcessed
	}

	snap, err := wallet.AdjustTx(ctx, tx, order.UserID, order.AmountCents, wallet.KindMain)
	if err != nil {
		return nil, err
	}
	err = wallet.AppendEntryTx(ctx, tx, order.UserID, wallet.EntryRazorpay, order.AmountCents,
		snap, wallet.SourceGatewayTopup, orderID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	order.Status = OrderCaptured
	return &order, nil
}
