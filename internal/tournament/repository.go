package tournament

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/coupon"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/wallet"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type repository struct {
	db   *sqlx.DB
	risk coupon.RiskChecker
}

func NewRepository(db *sqlx.DB, risk coupon.RiskChecker) Repository {
	if risk == nil {
		risk = coupon.AllowAll{}
	}
	return &repository{db: db, risk: risk}
}

const tournamentColumns = `id, title, game, description, status, entry_fee_cents, prize_pool_cents,
	max_slots, filled_slots, start_time, room_id, room_password, created_by, created_at, updated_at`

func (r *repository) Create(ctx context.Context, req CreateRequest, createdBy int) (*Tournament, error) {
	status := StatusUpcoming
	if req.Status != "" {
		status = Status(req.Status)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var t Tournament
	err = tx.GetContext(ctx, &t, `
		INSERT INTO tournaments
			(id, title, game, description, status, entry_fee_cents, prize_pool_cents, max_slots, start_time, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+tournamentColumns,
		uuid.NewString(), req.Title, req.Game, req.Description, status,
		req.EntryFeeCents, req.PrizePoolCents, req.MaxSlots, req.StartTime, createdBy,
	)
	if err != nil {
		return nil, err
	}

	for _, p := range req.Prizes {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO tournament_prizes (tournament_id, position, prize_cents)
			VALUES ($1, $2, $3)
		`, t.ID, p.Position, p.AmountCents)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &t, nil
}

func (r *repository) Get(ctx context.Context, id string) (*Tournament, error) {
	var t Tournament
	err := r.db.GetContext(ctx, &t,
		`SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	return &t, nil
}

func (r *repository) List(ctx context.Context, status Status) ([]Tournament, error) {
	var (
		tournaments []Tournament
		err         error
	)
	if status == "" {
		err = r.db.SelectContext(ctx, &tournaments,
			`SELECT `+tournamentColumns+` FROM tournaments ORDER BY start_time DESC LIMIT 200`)
	} else {
		err = r.db.SelectContext(ctx, &tournaments,
			`SELECT `+tournamentColumns+` FROM tournaments WHERE status = $1 ORDER BY start_time ASC LIMIT 200`,
			status)
	}
	if err != nil {
		return nil, err
	}

	return tournaments, nil
}

func (r *repository) GetPrizes(ctx context.Context, id string) ([]PrizeRow, error) {
	var prizes []PrizeRow
	err := r.db.SelectContext(ctx, &prizes, `
		SELECT tournament_id, position, prize_cents
		FROM tournament_prizes WHERE tournament_id = $1
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, err
	}

	return prizes, nil
}

func (r *repository) GetRegistrations(ctx context.Context, id string) ([]Registration, error) {
	var regs []Registration
	err := r.db.SelectContext(ctx, &regs, `
		SELECT id, tournament_id, user_id, team_id, in_game_name, coupon_code, created_at
		FROM registrations WHERE tournament_id = $1
		ORDER BY created_at ASC
	`, id)
	if err != nil {
		return nil, err
	}

	return regs, nil
}

func (r *repository) GetResults(ctx context.Context, id string) ([]Result, error) {
	var results []Result
	err := r.db.SelectContext(ctx, &results, `
		SELECT id, tournament_id, user_id, position, kills, prize_cents, created_at
		FROM tournament_results WHERE tournament_id = $1
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, err
	}

	return results, nil
}

func (r *repository) IsRegistered(ctx context.Context, id string, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM registrations WHERE tournament_id = $1 AND user_id = $2)
	`, id, userID)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *repository) SetRoom(ctx context.Context, id, roomID, roomPassword string) (*Tournament, error) {
	var t Tournament
	err := r.db.GetContext(ctx, &t, `
		UPDATE tournaments
		SET room_id = $1, room_password = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING `+tournamentColumns,
		roomID, roomPassword, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	return &t, nil
}

// Join is the registration transaction. Every guard that matters under
// concurrency (slot capacity, balance, coupon limits, duplicate registration)
// is enforced by the store inside this one transaction, so two racing joins
// for the last slot can both pass the preliminary reads and still only one
// commits.
func (r *repository) Join(ctx context.Context, tournamentID string, userID int, req JoinRequest) (*JoinOutcome, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var t Tournament
	err = tx.GetContext(ctx, &t,
		`SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1`, tournamentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if !t.Status.Open() {
		return nil, ErrTournamentClosed
	}

	var banned bool
	err = tx.GetContext(ctx, &banned, `SELECT banned FROM users WHERE id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wallet.ErrAccountNotFound
		}
		return nil, err
	}
	if banned {
		return nil, ErrUserBanned
	}

	outcome := &JoinOutcome{FeePaidCents: t.EntryFeeCents}

	couponCode := ""
	// A coupon on a free tournament would burn a redemption for nothing.
	if req.CouponCode != "" && t.EntryFeeCents > 0 {
		res, err := coupon.RedeemTx(ctx, tx, userID, req.CouponCode, coupon.ContextJoin, t.EntryFeeCents, r.risk)
		if err != nil {
			return nil, err
		}
		couponCode = res.Code
		outcome.DiscountCents = res.DiscountCents
		outcome.FeePaidCents = t.EntryFeeCents - res.DiscountCents
	}

	if outcome.FeePaidCents > 0 {
		snap, err := wallet.DebitFeeTx(ctx, tx, userID, outcome.FeePaidCents)
		if err != nil {
			return nil, err
		}
		err = wallet.AppendEntryTx(ctx, tx, userID, wallet.EntryFee, -outcome.FeePaidCents,
			snap, wallet.SourceTournamentJoin, t.ID)
		if err != nil {
			return nil, err
		}
		if err := wallet.AddLifetimeSpendTx(ctx, tx, userID, outcome.FeePaidCents); err != nil {
			return nil, err
		}
	}

	var reg Registration
	err = tx.GetContext(ctx, &reg, `
		INSERT INTO registrations (tournament_id, user_id, team_id, in_game_name, coupon_code)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, tournament_id, user_id, team_id, in_game_name, coupon_code, created_at
	`, t.ID, userID, req.TeamID, req.InGameName, couponCode)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrAlreadyRegistered
		}
		return nil, err
	}
	outcome.Registration = &reg

	// Slot capacity and openness re-checked by the store; a full or closed
	// tournament yields zero rows and the whole join rolls back.
	var filled, maxSlots int
	err = tx.QueryRowxContext(ctx, `
		UPDATE tournaments
		SET filled_slots = filled_slots + 1, updated_at = NOW()
		WHERE id = $1 AND filled_slots < max_slots AND status IN ('upcoming', 'hot')
		RETURNING filled_slots, max_slots
	`, t.ID).Scan(&filled, &maxSlots)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentFull
		}
		return nil, err
	}

	if filled == maxSlots {
		_, err = tx.ExecContext(ctx, `
			UPDATE tournaments SET status = 'live', updated_at = NOW()
			WHERE id = $1 AND status IN ('upcoming', 'hot')
		`, t.ID)
		if err != nil {
			return nil, err
		}
		outcome.WentLive = true

		outcome.ParticipantIDs, err = participantIDsTx(ctx, tx, t.ID)
		if err != nil {
			return nil, err
		}
	}

	err = tx.GetContext(ctx, &t,
		`SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1`, t.ID)
	if err != nil {
		return nil, err
	}
	outcome.Tournament = &t

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return outcome, nil
}

// DeclareResults pays placements in position order against a pool scaled to
// the fill ratio. Declared prizes are paid as requested, capped only by what
// is left of the effective pool; once it runs out, later placements get
// whatever remains, then zero.
func (r *repository) DeclareResults(ctx context.Context, tournamentID string, rows []ResultRow) (*DeclareOutcome, error) {
	positions := make(map[int]bool, len(rows))
	users := make(map[int]bool, len(rows))
	for _, row := range rows {
		if positions[row.Position] || users[row.UserID] {
			return nil, ErrDuplicateResultPosition
		}
		positions[row.Position] = true
		users[row.UserID] = true
	}

	sorted := make([]ResultRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var t Tournament
	err = tx.GetContext(ctx, &t,
		`SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1 FOR UPDATE`, tournamentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if t.Status == StatusCompleted {
		return nil, ErrResultsAlreadyDeclared
	}
	if !CanTransition(t.Status, StatusCompleted) {
		return nil, ErrInvalidTransition
	}

	var existing int
	err = tx.GetContext(ctx, &existing,
		`SELECT COUNT(*) FROM tournament_results WHERE tournament_id = $1`, t.ID)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrResultsAlreadyDeclared
	}

	var prizeRows []PrizeRow
	err = tx.SelectContext(ctx, &prizeRows, `
		SELECT tournament_id, position, prize_cents
		FROM tournament_prizes WHERE tournament_id = $1
	`, t.ID)
	if err != nil {
		return nil, err
	}
	prizeByPosition := make(map[int]int64, len(prizeRows))
	for _, p := range prizeRows {
		prizeByPosition[p.Position] = p.PrizeCents
	}

	outcome := &DeclareOutcome{
		EffectivePoolCents: scaledAmount(t.PrizePoolCents, t.FilledSlots, t.MaxSlots),
	}
	remaining := outcome.EffectivePoolCents

	for _, row := range sorted {
		requested := prizeByPosition[row.Position]
		if row.PrizeCents != nil {
			requested = *row.PrizeCents
		}

		payout := requested
		if payout > remaining {
			payout = remaining
		}
		remaining -= payout

		var res Result
		err = tx.GetContext(ctx, &res, `
			INSERT INTO tournament_results (tournament_id, user_id, position, kills, prize_cents)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, tournament_id, user_id, position, kills, prize_cents, created_at
		`, t.ID, row.UserID, row.Position, row.Kills, payout)
		if err != nil {
			return nil, err
		}
		outcome.Results = append(outcome.Results, res)

		if payout > 0 {
			snap, err := wallet.AdjustTx(ctx, tx, row.UserID, payout, wallet.KindMain)
			if err != nil {
				return nil, err
			}
			err = wallet.AppendEntryTx(ctx, tx, row.UserID, wallet.EntryWinning, payout,
				snap, wallet.SourcePrizePayout, t.ID)
			if err != nil {
				return nil, err
			}
			outcome.PaidOutCents += payout
		}
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE tournaments SET status = 'completed', updated_at = NOW()
		WHERE id = $1 AND status = 'live'
	`, t.ID)
	if err != nil {
		return nil, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, ErrInvalidTransition
	}

	outcome.ParticipantIDs, err = participantIDsTx(ctx, tx, t.ID)
	if err != nil {
		return nil, err
	}

	err = tx.GetContext(ctx, &t,
		`SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1`, t.ID)
	if err != nil {
		return nil, err
	}
	outcome.Tournament = &t

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return outcome, nil
}

// Cancel refunds the full entry fee to every registrant's main balance. Each
// refund is guarded by a ledger existence check on (user, admin_credit,
// tournament_cancel_refund, tournament id), so a retried cancellation skips
// users already made whole.
func (r *repository) Cancel(ctx context.Context, tournamentID string) (*CancelOutcome, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var t Tournament
	err = tx.GetContext(ctx, &t,
		`SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1 FOR UPDATE`, tournamentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if !CanTransition(t.Status, StatusCancelled) {
		return nil, ErrInvalidTransition
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE tournaments SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status IN ('upcoming', 'hot', 'live')
	`, t.ID)
	if err != nil {
		return nil, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, ErrInvalidTransition
	}

	participants, err := participantIDsTx(ctx, tx, t.ID)
	if err != nil {
		return nil, err
	}

	outcome := &CancelOutcome{
		ParticipantIDs: participants,
		RefundCents:    t.EntryFeeCents,
	}

	if t.EntryFeeCents > 0 {
		for _, userID := range participants {
			refunded, err := wallet.HasUserEntryTx(ctx, tx, userID,
				wallet.EntryAdminCredit, wallet.SourceTournamentCancelRefund, t.ID)
			if err != nil {
				return nil, err
			}
			if refunded {
				continue
			}

			snap, err := wallet.AdjustTx(ctx, tx, userID, t.EntryFeeCents, wallet.KindMain)
			if err != nil {
				return nil, err
			}
			err = wallet.AppendEntryTx(ctx, tx, userID, wallet.EntryAdminCredit, t.EntryFeeCents,
				snap, wallet.SourceTournamentCancelRefund, t.ID)
			if err != nil {
				return nil, err
			}
			outcome.RefundedCount++
		}
	}

	err = tx.GetContext(ctx, &t,
		`SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1`, t.ID)
	if err != nil {
		return nil, err
	}
	outcome.Tournament = &t

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return outcome, nil
}

func (r *repository) GoLive(ctx context.Context, tournamentID string) (*LiveOutcome, error) {
	var t Tournament
	err := r.db.GetContext(ctx, &t, `
		UPDATE tournaments SET status = 'live', updated_at = NOW()
		WHERE id = $1 AND status IN ('upcoming', 'hot')
		RETURNING `+tournamentColumns,
		tournamentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := r.Get(ctx, tournamentID); getErr != nil {
				return nil, getErr
			}
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	participants, err := participantIDsTx(ctx, r.db, t.ID)
	if err != nil {
		return nil, err
	}

	return &LiveOutcome{Tournament: &t, ParticipantIDs: participants}, nil
}

func (r *repository) PromoteStarted(ctx context.Context, now time.Time) ([]LiveOutcome, error) {
	var promoted []Tournament
	err := r.db.SelectContext(ctx, &promoted, `
		UPDATE tournaments SET status = 'live', updated_at = NOW()
		WHERE status IN ('upcoming', 'hot') AND start_time <= $1
		RETURNING `+tournamentColumns,
		now)
	if err != nil {
		return nil, err
	}

	outcomes := make([]LiveOutcome, 0, len(promoted))
	for i := range promoted {
		participants, err := participantIDsTx(ctx, r.db, promoted[i].ID)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, LiveOutcome{
			Tournament:     &promoted[i],
			ParticipantIDs: participants,
		})
	}

	return outcomes, nil
}

func participantIDsTx(ctx context.Context, q sqlx.QueryerContext, tournamentID string) ([]int, error) {
	var ids []int
	err := sqlx.SelectContext(ctx, q, &ids, `
		SELECT user_id FROM registrations WHERE tournament_id = $1 ORDER BY id ASC
	`, tournamentID)
	if err != nil {
		return nil, err
	}
	return ids, nil
}
