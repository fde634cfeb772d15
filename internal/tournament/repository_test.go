package tournament

import (
	"context"
	"testing"
	"time"

	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/wallet"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(sqlx.NewDb(db, "sqlmock"), nil), mock
}

var tournamentCols = []string{
	"id", "title", "game", "description", "status", "entry_fee_cents", "prize_pool_cents",
	"max_slots", "filled_slots", "start_time", "room_id", "room_password",
	"created_by", "created_at", "updated_at",
}

func tournamentRow(id string, status Status, feeCents, poolCents int64, filled, maxSlots int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(tournamentCols).
		AddRow(id, "Friday Night Clash", "bgmi", "", string(status), feeCents, poolCents,
			maxSlots, filled, now.Add(time.Hour), "", "", 1, now, now)
}

func registrationRow(id int64, tournamentID string, userID int, name string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "tournament_id", "user_id", "team_id", "in_game_name", "coupon_code", "created_at"}).
		AddRow(id, tournamentID, userID, nil, name, "", time.Now())
}

func snapshotRows(mainBefore, bonusBefore, mainAfter, bonusAfter int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"main_before", "bonus_before", "main_after", "bonus_after"}).
		AddRow(mainBefore, bonusBefore, mainAfter, bonusAfter)
}

func participantRows(ids ...int) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"user_id"})
	for _, id := range ids {
		rows.AddRow(id)
	}
	return rows
}

func TestJoinLastSlotGoesLive(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, title, game").WithArgs("t1").
		WillReturnRows(tournamentRow("t1", StatusUpcoming, 5000, 40000, 9, 10))
	mock.ExpectQuery("SELECT banned FROM users").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"banned"}).AddRow(false))
	mock.ExpectQuery("WITH prev AS").WithArgs(1, int64(5000)).
		WillReturnRows(snapshotRows(6000, 2000, 3000, 0))
	mock.ExpectExec("INSERT INTO wallet_entries").
		WithArgs(1, wallet.EntryFee, int64(-5000), int64(6000), int64(3000), int64(2000), int64(0), wallet.SourceTournamentJoin, "t1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE users").WithArgs(int64(5000), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO registrations").
		WithArgs("t1", 1, nil, "slayer", "").
		WillReturnRows(registrationRow(100, "t1", 1, "slayer"))
	mock.ExpectQuery("UPDATE tournaments").WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"filled_slots", "max_slots"}).AddRow(10, 10))
	mock.ExpectExec("UPDATE tournaments SET status = 'live'").WithArgs("t1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT user_id FROM registrations").WithArgs("t1").
		WillReturnRows(participantRows(1, 2))
	mock.ExpectQuery("SELECT id, title, game").WithArgs("t1").
		WillReturnRows(tournamentRow("t1", StatusLive, 5000, 40000, 10, 10))
	mock.ExpectCommit()

	outcome, err := repo.Join(ctx, "t1", 1, JoinRequest{InGameName: "slayer"})
	require.NoError(t, err)
	require.Equal(t, int64(5000), outcome.FeePaidCents)
	require.True(t, outcome.WentLive)
	require.Equal(t, StatusLive, outcome.Tournament.Status)
	require.Equal(t, []int{1, 2}, outcome.ParticipantIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinFullTournamentRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	// Free tournament: no debit, but the slot increment still loses.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, title, game").WithArgs("t1").
		WillReturnRows(tournamentRow("t1", StatusUpcoming, 0, 0, 10, 10))
	mock.ExpectQuery("SELECT banned FROM users").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"banned"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO registrations").
		WithArgs("t1", 1, nil, "slayer", "").
		WillReturnRows(registrationRow(100, "t1", 1, "slayer"))
	mock.ExpectQuery("UPDATE tournaments").WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"filled_slots", "max_slots"}))
	mock.ExpectRollback()

	_, err := repo.Join(ctx, "t1", 1, JoinRequest{InGameName: "slayer"})
	require.ErrorIs(t, err, ErrTournamentFull)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinFreeTournamentIgnoresCoupon(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	// Zero entry fee: the supplied coupon must not be redeemed, so no
	// coupon statements run and the registration stores an empty code.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, title, game").WithArgs("t1").
		WillReturnRows(tournamentRow("t1", StatusUpcoming, 0, 0, 4, 10))
	mock.ExpectQuery("SELECT banned FROM users").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"banned"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO registrations").
		WithArgs("t1", 1, nil, "slayer", "").
		WillReturnRows(registrationRow(100, "t1", 1, "slayer"))
	mock.ExpectQuery("UPDATE tournaments").WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"filled_slots", "max_slots"}).AddRow(5, 10))
	mock.ExpectQuery("SELECT id, title, game").WithArgs("t1").
		WillReturnRows(tournamentRow("t1", StatusUpcoming, 0, 0, 5, 10))
	mock.ExpectCommit()

	outcome, err := repo.Join(ctx, "t1", 1, JoinRequest{InGameName: "slayer", CouponCode: "WELCOME50"})
	require.NoError(t, err)
	require.Zero(t, outcome.FeePaidCents)
	require.Zero(t, outcome.DiscountCents)
	require.Empty(t, outcome.Registration.CouponCode)
	require.False(t, outcome.WentLive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinClosedTournament(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, title, game").WithArgs("t1").
		WillReturnRows(tournamentRow("t1", StatusLive, 5000, 40000, 10, 10))
	mock.ExpectRollback()

	_, err := repo.Join(ctx, "t1", 1, JoinRequest{InGameName: "slayer"})
	require.ErrorIs(t, err, ErrTournamentClosed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinDuplicateRegistration(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, title, game").WithArgs("t1").
		WillReturnRows(tournamentRow("t1", StatusUpcoming, 0, 0, 4, 10))
	mock.ExpectQuery("SELECT banned FROM users").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"banned"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO registrations").
		WithArgs("t1", 1, nil, "slayer", "").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := repo.Join(ctx, "t1", 1, JoinRequest{InGameName: "slayer"})
	require.ErrorIs(t, err, ErrAlreadyRegistered)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinBannedUser(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, title, game").WithArgs("t1").
		WillReturnRows(tournamentRow("t1", StatusUpcoming, 0, 0, 4, 10))
	mock.ExpectQuery("SELECT banned FROM users").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"banned"}).AddRow(true))
	mock.ExpectRollback()

	_, err := repo.Join(ctx, "t1", 1, JoinRequest{InGameName: "slayer"})
	require.ErrorIs(t, err, ErrUserBanned)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeclareResultsScalesToFillRatio(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	// Pool 1000 at 5/10 fill: effective pool 500; declared prizes fit and
	// are paid in full, not scaled.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, title, game").WithArgs("t1").
		WillReturnRows(tournamentRow("t1", StatusLive, 100, 1000, 5, 10))
	mock.ExpectQuery("SELECT COUNT").WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT tournament_id, position, prize_cents").WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"tournament_id", "position", "prize_cents"}).
			AddRow("t1", 1, 250).
			AddRow("t1", 2, 150))

	resultCols := []string{"id", "tournament_id", "user_id", "position", "kills", "prize_cents", "created_at"}
	mock.ExpectQuery("INSERT INTO tournament_results").
		WithArgs("t1", 11, 1, 9, int64(250)).
		WillReturnRows(sqlmock.NewRows(resultCols).AddRow(1, "t1", 11, 1, 9, 250, time.Now()))
	mock.ExpectQuery("WITH prev AS").WithArgs(11, int64(250)).
		WillReturnRows(snapshotRows(0, 0, 250, 0))
	mock.ExpectExec("INSERT INTO wallet_entries").
		WithArgs(11, wallet.EntryWinning, int64(250), int64(0), int64(250), int64(0), int64(0), wallet.SourcePrizePayout, "t1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectQuery("INSERT INTO tournament_results").
		WithArgs("t1", 12, 2, 4, int64(150)).
		WillReturnRows(sqlmock.NewRows(resultCols).AddRow(2, "t1", 12, 2, 4, 150, time.Now()))
	mock.ExpectQuery("WITH prev AS").WithArgs(12, int64(150)).
		WillReturnRows(snapshotRows(50, 0, 200, 0))
	mock.ExpectExec("INSERT INTO wallet_entries").
		WithArgs(12, wallet.EntryWinning, int64(150), int64(50), int64(200), int64(0), int64(0), wallet.SourcePrizePayout, "t1").
		WillReturnResult(sqlmock.NewResult(2, 1))

	mock.ExpectExec("UPDATE tournaments SET status = 'completed'").WithArgs("t1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT user_id FROM registrations").WithArgs("t1").
		WillReturnRows(participantRows(11, 12, 13))
	mock.ExpectQuery("SELECT id, title, game").WithArgs("t1").
		WillReturnRows(tournamentRow("t1", StatusCompleted, 100, 1000, 5, 10))
	mock.ExpectCommit()

	// Rows arrive unsorted; payouts must run in position order.
	rows := []ResultRow{
		{UserID: 12, Position: 2, Kills: 4},
		{UserID: 11, Position: 1, Kills: 9},
	}

	outcome, err := repo.DeclareResults(ctx, "t1", rows)
	require.NoError(t, err)
	require.Equal(t, int64(500), outcome.EffectivePoolCents)
	require.Equal(t, int64(400), outcome.PaidOutCents)
	require.Len(t, outcome.Results, 2)
	require.Equal(t, int64(250), outcome.Results[0].PrizeCents)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeclareResultsCapsDeclaredPrizeAtScaledPool(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	// Pool 10000 at 50/100 fill: effective pool 5000. A declared first
	// prize of 6000 is capped to 5000, not halved; the pool is exhausted
	// and the runner-up gets zero with no wallet movement.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, title, game").WithArgs("t1").
		WillReturnRows(tournamentRow("t1", StatusLive, 100, 10000, 50, 100))
	mock.ExpectQuery("SELECT COUNT").WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT tournament_id, position, prize_cents").WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"tournament_id", "position", "prize_cents"}).
			AddRow("t1", 1, 6000).
			AddRow("t1", 2, 2000))

	resultCols := []string{"id", "tournament_id", "user_id", "position", "kills", "prize_cents", "created_at"}
	mock.ExpectQuery("INSERT INTO tournament_results").
		WithArgs("t1", 21, 1, 12, int64(5000)).
		WillReturnRows(sqlmock.NewRows(resultCols).AddRow(1, "t1", 21, 1, 12, 5000, time.Now()))
	mock.ExpectQuery("WITH prev AS").WithArgs(21, int64(5000)).
		WillReturnRows(snapshotRows(0, 0, 5000, 0))
	mock.ExpectExec("INSERT INTO wallet_entries").
		WithArgs(21, wallet.EntryWinning, int64(5000), int64(0), int64(5000), int64(0), int64(0), wallet.SourcePrizePayout, "t1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectQuery("INSERT INTO tournament_results").
		WithArgs("t1", 22, 2, 7, int64(0)).
		WillReturnRows(sqlmock.NewRows(resultCols).AddRow(2, "t1", 22, 2, 7, 0, time.Now()))

	mock.ExpectExec("UPDATE tournaments SET status = 'completed'").WithArgs("t1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT user_id FROM registrations").WithArgs("t1").
		WillReturnRows(participantRows(21, 22))
	mock.ExpectQuery("SELECT id, title, game").WithArgs("t1").
		WillReturnRows(tournamentRow("t1", StatusCompleted, 100, 10000, 50, 100))
	mock.ExpectCommit()

	rows := []ResultRow{
		{UserID: 21, Position: 1, Kills: 12},
		{UserID: 22, Position: 2, Kills: 7},
	}

	outcome, err := repo.DeclareResults(ctx, "t1", rows)
	require.NoError(t, err)
	require.Equal(t, int64(5000), outcome.EffectivePoolCents)
	require.Equal(t, int64(5000), outcome.PaidOutCents)
	require.Len(t, outcome.Results, 2)
	require.Equal(t, int64(5000), outcome.Results[0].PrizeCents)
	require.Equal(t, int64(0), outcome.Results[1].PrizeCents)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeclareResultsAlreadyDeclared(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, title, game").WithArgs("t1").
		WillReturnRows(tournamentRow("t1", StatusCompleted, 100, 1000, 5, 10))
	mock.ExpectRollback()

	_, err := repo.DeclareResults(ctx, "t1", []ResultRow{{UserID: 1, Position: 1}})
	require.ErrorIs(t, err, ErrResultsAlreadyDeclared)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeclareResultsRejectsDuplicatePositions(t *testing.T) {
	repo, _ := newMockRepo(t)

	_, err := repo.DeclareResults(context.Background(), "t1", []ResultRow{
		{UserID: 1, Position: 1},
		{UserID: 2, Position: 1},
	})
	require.ErrorIs(t, err, ErrDuplicateResultPosition)
}

func TestCancelRefundsOnce(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, title, game").WithArgs("t1").
		WillReturnRows(tournamentRow("t1", StatusLive, 10000, 50000, 2, 10))
	mock.ExpectExec("UPDATE tournaments SET status = 'cancelled'").WithArgs("t1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT user_id FROM registrations").WithArgs("t1").
		WillReturnRows(participantRows(1, 2))

	// User 1 was refunded by a previous, partially-failed cancellation run.
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(1, wallet.EntryAdminCredit, wallet.SourceTournamentCancelRefund, "t1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(2, wallet.EntryAdminCredit, wallet.SourceTournamentCancelRefund, "t1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("WITH prev AS").WithArgs(2, int64(10000)).
		WillReturnRows(snapshotRows(0, 0, 10000, 0))
	mock.ExpectExec("INSERT INTO wallet_entries").
		WithArgs(2, wallet.EntryAdminCredit, int64(10000), int64(0), int64(10000), int64(0), int64(0), wallet.SourceTournamentCancelRefund, "t1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectQuery("SELECT id, title, game").WithArgs("t1").
		WillReturnRows(tournamentRow("t1", StatusCancelled, 10000, 50000, 2, 10))
	mock.ExpectCommit()

	outcome, err := repo.Cancel(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, 1, outcome.RefundedCount)
	require.Equal(t, []int{1, 2}, outcome.ParticipantIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelTerminalTournament(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, title, game").WithArgs("t1").
		WillReturnRows(tournamentRow("t1", StatusCompleted, 10000, 50000, 10, 10))
	mock.ExpectRollback()

	_, err := repo.Cancel(ctx, "t1")
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGoLiveConflict(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectQuery("UPDATE tournaments SET status = 'live'").WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(tournamentCols))
	mock.ExpectQuery("SELECT id, title, game").WithArgs("t1").
		WillReturnRows(tournamentRow("t1", StatusCompleted, 0, 0, 10, 10))

	_, err := repo.GoLive(ctx, "t1")
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.NoError(t, mock.ExpectationsWereMet())
}
