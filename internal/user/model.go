package user

import "time"

// User is a player account. Balances live directly on the row and are only
// ever mutated through the wallet package's conditional updates.
type User struct {
	ID                    int        `db:"id" json:"id"`
	Name                  string     `db:"name" json:"name"`
	Email                 string     `db:"email" json:"email"`
	Phone                 string     `db:"phone" json:"phone"`
	PasswordHash          string     `db:"password_hash" json:"-"`
	Role                  string     `db:"role" json:"role"`
	MainBalanceCents      int64      `db:"main_balance_cents" json:"main_balance_cents"`
	BonusBalanceCents     int64      `db:"bonus_balance_cents" json:"bonus_balance_cents"`
	Banned                bool       `db:"banned" json:"banned"`
	EmailVerified         bool       `db:"email_verified" json:"email_verified"`
	PhoneVerified         bool       `db:"phone_verified" json:"phone_verified"`
	WithdrawalLockUntil   *time.Time `db:"withdrawal_lock_until" json:"withdrawal_lock_until,omitempty"`
	LifetimeEntryFeeCents int64      `db:"lifetime_entry_fee_cents" json:"lifetime_entry_fee_cents"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required" validate:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email" validate:"required,email"`
	Password string `json:"password" binding:"required,min=8" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}
