package user

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrUserNotFound = errors.New("user not found")

const userColumns = `id, name, email, phone, password_hash, role,
	main_balance_cents, bonus_balance_cents, banned,
	email_verified, phone_verified, withdrawal_lock_until,
	lifetime_entry_fee_cents, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, name, email, passwordHash, role string) (*User, error) {
	query := `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	var u User
	err := r.db.GetContext(ctx, &u, query, name, email, passwordHash, role)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

func (r *repository) FindByID(ctx context.Context, id int) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u User
	err := r.db.GetContext(ctx, &u, query, id)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var u User
	err := r.db.GetContext(ctx, &u, query, email)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, email)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *repository) SetBanned(ctx context.Context, id int, banned bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET banned = $1, updated_at = NOW() WHERE id = $2`,
		banned, id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *repository) SetVerified(ctx context.Context, id int, emailVerified, phoneVerified bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET email_verified = $1, phone_verified = $2, updated_at = NOW() WHERE id = $3`,
		emailVerified, phoneVerified, id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}
