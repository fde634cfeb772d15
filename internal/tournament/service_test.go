package tournament

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepo struct{ mock.Mock }

func (m *MockRepo) Create(ctx context.Context, req CreateRequest, createdBy int) (*Tournament, error) {
	args := m.Called(ctx, req, createdBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tournament), args.Error(1)
}

func (m *MockRepo) Get(ctx context.Context, id string) (*Tournament, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tournament), args.Error(1)
}

func (m *MockRepo) List(ctx context.Context, status Status) ([]Tournament, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Tournament), args.Error(1)
}

func (m *MockRepo) GetPrizes(ctx context.Context, id string) ([]PrizeRow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]PrizeRow), args.Error(1)
}

func (m *MockRepo) GetRegistrations(ctx context.Context, id string) ([]Registration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Registration), args.Error(1)
}

func (m *MockRepo) GetResults(ctx context.Context, id string) ([]Result, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Result), args.Error(1)
}

func (m *MockRepo) IsRegistered(ctx context.Context, id string, userID int) (bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepo) SetRoom(ctx context.Context, id, roomID, roomPassword string) (*Tournament, error) {
	args := m.Called(ctx, id, roomID, roomPassword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tournament), args.Error(1)
}

func (m *MockRepo) Join(ctx context.Context, tournamentID string, userID int, req JoinRequest) (*JoinOutcome, error) {
	args := m.Called(ctx, tournamentID, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*JoinOutcome), args.Error(1)
}

func (m *MockRepo) DeclareResults(ctx context.Context, tournamentID string, rows []ResultRow) (*DeclareOutcome, error) {
	args := m.Called(ctx, tournamentID, rows)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DeclareOutcome), args.Error(1)
}

func (m *MockRepo) Cancel(ctx context.Context, tournamentID string) (*CancelOutcome, error) {
	args := m.Called(ctx, tournamentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CancelOutcome), args.Error(1)
}

func (m *MockRepo) GoLive(ctx context.Context, tournamentID string) (*LiveOutcome, error) {
	args := m.Called(ctx, tournamentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LiveOutcome), args.Error(1)
}

func (m *MockRepo) PromoteStarted(ctx context.Context, now time.Time) ([]LiveOutcome, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]LiveOutcome), args.Error(1)
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []int
}

func (n *recordingNotifier) Notify(ctx context.Context, userID int, notifType, title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, userID)
	return nil
}

func liveTournament(id string, status Status) *Tournament {
	return &Tournament{ID: id, Title: "Friday Night Clash", Status: status, MaxSlots: 10, FilledSlots: 10}
}

func TestServiceJoinNotifiesAndPublishes(t *testing.T) {
	repo := new(MockRepo)
	notifier := &recordingNotifier{}
	bus := NewBus()
	svc := NewService(repo, notifier, bus)

	events, cancel := bus.Subscribe()
	defer cancel()

	outcome := &JoinOutcome{
		Tournament:     liveTournament("t1", StatusLive),
		FeePaidCents:   5000,
		WentLive:       true,
		ParticipantIDs: []int{1, 2, 3},
	}
	repo.On("Join", mock.Anything, "t1", 1, mock.Anything).Return(outcome, nil)

	got, err := svc.Join(context.Background(), "t1", 1, JoinRequest{InGameName: "slayer"})
	require.NoError(t, err)
	require.True(t, got.WentLive)

	// One join confirmation plus one go-live notification per participant.
	assert.Len(t, notifier.calls, 4)

	select {
	case ev := <-events:
		assert.Equal(t, "t1", ev.TournamentID)
		assert.Equal(t, StatusLive, ev.Status)
	default:
		t.Fatal("expected a lifecycle event")
	}
	repo.AssertExpectations(t)
}

func TestServiceJoinErrorPassesThrough(t *testing.T) {
	repo := new(MockRepo)
	svc := NewService(repo, nil, nil)

	repo.On("Join", mock.Anything, "t1", 1, mock.Anything).Return(nil, ErrTournamentFull)

	_, err := svc.Join(context.Background(), "t1", 1, JoinRequest{InGameName: "slayer"})
	require.ErrorIs(t, err, ErrTournamentFull)
}

func TestServiceCancelNotifiesEveryParticipant(t *testing.T) {
	repo := new(MockRepo)
	notifier := &recordingNotifier{}
	svc := NewService(repo, notifier, NewBus())

	outcome := &CancelOutcome{
		Tournament:     liveTournament("t1", StatusCancelled),
		ParticipantIDs: []int{5, 6},
		RefundedCount:  2,
		RefundCents:    10000,
	}
	repo.On("Cancel", mock.Anything, "t1").Return(outcome, nil)

	_, err := svc.Cancel(context.Background(), "t1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{5, 6}, notifier.calls)
}

func TestServiceDeclareResultsSplitsWinnerNotifications(t *testing.T) {
	repo := new(MockRepo)
	notifier := &recordingNotifier{}
	svc := NewService(repo, notifier, NewBus())

	outcome := &DeclareOutcome{
		Tournament:         liveTournament("t1", StatusCompleted),
		EffectivePoolCents: 500,
		PaidOutCents:       500,
		Results: []Result{
			{UserID: 11, Position: 1, PrizeCents: 300},
			{UserID: 12, Position: 2, PrizeCents: 200},
		},
		ParticipantIDs: []int{11, 12, 13},
	}
	repo.On("DeclareResults", mock.Anything, "t1", mock.Anything).Return(outcome, nil)

	_, err := svc.DeclareResults(context.Background(), "t1", []ResultRow{{UserID: 11, Position: 1}})
	require.NoError(t, err)
	assert.Len(t, notifier.calls, 3)
}

func TestServiceGetHidesRoomFromOutsiders(t *testing.T) {
	repo := new(MockRepo)
	svc := NewService(repo, nil, nil)

	withRoom := func() *Tournament {
		tt := liveTournament("t1", StatusLive)
		tt.RoomID = "room-9"
		tt.RoomPassword = "hunter2"
		return tt
	}

	repo.On("Get", mock.Anything, "t1").Return(withRoom(), nil).Once()
	repo.On("IsRegistered", mock.Anything, "t1", 7).Return(false, nil).Once()

	got, err := svc.Get(context.Background(), "t1", 7, false)
	require.NoError(t, err)
	assert.Empty(t, got.RoomID)
	assert.Empty(t, got.RoomPassword)

	repo.On("Get", mock.Anything, "t1").Return(withRoom(), nil).Once()
	repo.On("IsRegistered", mock.Anything, "t1", 8).Return(true, nil).Once()

	got, err = svc.Get(context.Background(), "t1", 8, false)
	require.NoError(t, err)
	assert.Equal(t, "room-9", got.RoomID)

	repo.On("Get", mock.Anything, "t1").Return(withRoom(), nil).Once()

	got, err = svc.Get(context.Background(), "t1", 0, true)
	require.NoError(t, err)
	assert.Equal(t, "room-9", got.RoomID)
}

func TestServicePromoteStarted(t *testing.T) {
	repo := new(MockRepo)
	notifier := &recordingNotifier{}
	svc := NewService(repo, notifier, NewBus())

	now := time.Now()
	repo.On("PromoteStarted", mock.Anything, now).Return([]LiveOutcome{
		{Tournament: liveTournament("t1", StatusLive), ParticipantIDs: []int{1}},
		{Tournament: liveTournament("t2", StatusLive), ParticipantIDs: []int{2, 3}},
	}, nil)

	promoted, err := svc.PromoteStarted(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 2, promoted)
	assert.Len(t, notifier.calls, 3)
}
