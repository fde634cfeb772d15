package tournament

import (
	"errors"
	"time"
)

var (
	ErrTournamentNotFound      = errors.New("tournament not found")
	ErrTournamentClosed        = errors.New("tournament not open for registration")
	ErrTournamentFull          = errors.New("tournament full")
	ErrAlreadyRegistered       = errors.New("already registered")
	ErrNotRegistered           = errors.New("not registered")
	ErrInvalidTransition       = errors.New("invalid status transition")
	ErrResultsAlreadyDeclared  = errors.New("results already declared")
	ErrDuplicateResultPosition = errors.New("duplicate result position")
	ErrUserBanned              = errors.New("user banned")
)

type Tournament struct {
	ID             string    `db:"id" json:"id"`
	Title          string    `db:"title" json:"title"`
	Game           string    `db:"game" json:"game"`
	Description    string    `db:"description" json:"description"`
	Status         Status    `db:"status" json:"status"`
	EntryFeeCents  int64     `db:"entry_fee_cents" json:"entry_fee_cents"`
	PrizePoolCents int64     `db:"prize_pool_cents" json:"prize_pool_cents"`
	MaxSlots       int       `db:"max_slots" json:"max_slots"`
	FilledSlots    int       `db:"filled_slots" json:"filled_slots"`
	StartTime      time.Time `db:"start_time" json:"start_time"`
	RoomID         string    `db:"room_id" json:"room_id,omitempty"`
	RoomPassword   string    `db:"room_password" json:"room_password,omitempty"`
	CreatedBy      int       `db:"created_by" json:"created_by"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// PrizeRow is one position of the configured prize distribution.
type PrizeRow struct {
	TournamentID string `db:"tournament_id" json:"-"`
	Position     int    `db:"position" json:"position"`
	PrizeCents   int64  `db:"prize_cents" json:"prize_cents"`
}

type Registration struct {
	ID           int64     `db:"id" json:"id"`
	TournamentID string    `db:"tournament_id" json:"tournament_id"`
	UserID       int       `db:"user_id" json:"user_id"`
	TeamID       *string   `db:"team_id" json:"team_id,omitempty"`
	InGameName   string    `db:"in_game_name" json:"in_game_name"`
	CouponCode   string    `db:"coupon_code" json:"coupon_code,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Result struct {
	ID           int64     `db:"id" json:"id"`
	TournamentID string    `db:"tournament_id" json:"tournament_id"`
	UserID       int       `db:"user_id" json:"user_id"`
	Position     int       `db:"position" json:"position"`
	Kills        int       `db:"kills" json:"kills"`
	PrizeCents   int64     `db:"prize_cents" json:"prize_cents"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type CreateRequest struct {
	Title          string     `json:"title" binding:"required,min=3,max=120"`
	Game           string     `json:"game" binding:"required"`
	Description    string     `json:"description"`
	Status         string     `json:"status" binding:"omitempty,oneof=upcoming hot"`
	EntryFeeCents  int64      `json:"entry_fee_cents" binding:"gte=0"`
	PrizePoolCents int64      `json:"prize_pool_cents" binding:"gte=0"`
	MaxSlots       int        `json:"max_slots" binding:"required,gt=0"`
	StartTime      time.Time  `json:"start_time" binding:"required"`
	Prizes         []PrizeReq `json:"prizes" binding:"omitempty,dive"`
}

type PrizeReq struct {
	Position    int   `json:"position" binding:"required,gt=0"`
	AmountCents int64 `json:"amount_cents" binding:"required,gt=0"`
}

type JoinRequest struct {
	InGameName string  `json:"in_game_name" binding:"required,min=2,max=64"`
	TeamID     *string `json:"team_id"`
	CouponCode string  `json:"coupon_code"`
}

type RoomRequest struct {
	RoomID       string `json:"room_id" binding:"required"`
	RoomPassword string `json:"room_password" binding:"required"`
}

// ResultRow is one declared placement. PrizeCents overrides the configured
// distribution for that position when set.
type ResultRow struct {
	UserID     int    `json:"user_id" binding:"required"`
	Position   int    `json:"position" binding:"required,gt=0"`
	Kills      int    `json:"kills" binding:"gte=0"`
	PrizeCents *int64 `json:"prize_cents" binding:"omitempty,gte=0"`
}

type DeclareRequest struct {
	Results []ResultRow `json:"results" binding:"required,min=1,dive"`
}

type JoinOutcome struct {
	Tournament     *Tournament
	Registration   *Registration
	FeePaidCents   int64
	DiscountCents  int64
	WentLive       bool
	ParticipantIDs []int
}

type DeclareOutcome struct {
	Tournament         *Tournament
	EffectivePoolCents int64
	PaidOutCents       int64
	Results            []Result
	ParticipantIDs     []int
}

type LiveOutcome struct {
	Tournament     *Tournament
	ParticipantIDs []int
}

type CancelOutcome struct {
	Tournament     *Tournament
	ParticipantIDs []int
	RefundedCount  int
	RefundCents    int64
}
