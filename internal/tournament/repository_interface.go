package tournament

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, req CreateRequest, createdBy int) (*Tournament, error)
	Get(ctx context.Context, id string) (*Tournament, error)
	List(ctx context.Context, status Status) ([]Tournament, error)
	GetPrizes(ctx context.Context, id string) ([]PrizeRow, error)
	GetRegistrations(ctx context.Context, id string) ([]Registration, error)
	GetResults(ctx context.Context, id string) ([]Result, error)
	IsRegistered(ctx context.Context, id string, userID int) (bool, error)
	SetRoom(ctx context.Context, id, roomID, roomPassword string) (*Tournament, error)

	// Join runs the fee debit, optional coupon redemption, registration insert
	// and conditional slot increment as one transaction.
	Join(ctx context.Context, tournamentID string, userID int, req JoinRequest) (*JoinOutcome, error)

	// DeclareResults pays the placement prizes, scaled to the fill ratio, and
	// moves the tournament from live to completed, all in one transaction.
	DeclareResults(ctx context.Context, tournamentID string, rows []ResultRow) (*DeclareOutcome, error)

	// Cancel transitions to cancelled and refunds each registrant's entry fee,
	// guarded so re-running it never double-refunds.
	Cancel(ctx context.Context, tournamentID string) (*CancelOutcome, error)

	// GoLive performs the open -> live transition for one tournament.
	GoLive(ctx context.Context, tournamentID string) (*LiveOutcome, error)

	// PromoteStarted flips every open tournament whose start time has passed
	// to live and returns them with their participant lists.
	PromoteStarted(ctx context.Context, now time.Time) ([]LiveOutcome, error)
}
