package tournament

import (
	"context"
	"fmt"
	"time"

	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/logger"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/metrics"
)

// Notifier delivers user-facing notifications. Delivery is best-effort;
// lifecycle outcomes never roll back because a notification failed.
type Notifier interface {
	Notify(ctx context.Context, userID int, notifType, title, message string) error
}

type Service interface {
	Create(ctx context.Context, req CreateRequest, createdBy int) (*Tournament, error)
	Get(ctx context.Context, id string, viewerID int, staff bool) (*Tournament, error)
	List(ctx context.Context, status Status) ([]Tournament, error)
	GetPrizes(ctx context.Context, id string) ([]PrizeRow, error)
	GetRegistrations(ctx context.Context, id string) ([]Registration, error)
	GetResults(ctx context.Context, id string) ([]Result, error)

	Join(ctx context.Context, tournamentID string, userID int, req JoinRequest) (*JoinOutcome, error)
	DeclareResults(ctx context.Context, tournamentID string, rows []ResultRow) (*DeclareOutcome, error)
	Cancel(ctx context.Context, tournamentID string) (*CancelOutcome, error)
	GoLive(ctx context.Context, tournamentID string) (*LiveOutcome, error)
	PublishRoom(ctx context.Context, tournamentID string, req RoomRequest) (*Tournament, error)

	PromoteStarted(ctx context.Context, now time.Time) (int, error)
}

type service struct {
	repo     Repository
	notifier Notifier
	bus      *Bus
}

func NewService(repo Repository, notifier Notifier, bus *Bus) Service {
	return &service{repo: repo, notifier: notifier, bus: bus}
}

func (s *service) notify(ctx context.Context, userID int, notifType, title, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, notifType, title, message); err != nil {
		logger.Warn("Failed to queue notification", "user_id", userID, "type", notifType, "error", err)
	}
}

func (s *service) publish(t *Tournament, roomPublished bool) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(Event{
		TournamentID:  t.ID,
		Status:        t.Status,
		FilledSlots:   t.FilledSlots,
		MaxSlots:      t.MaxSlots,
		StartTime:     t.StartTime,
		RoomPublished: roomPublished,
	})
}

func (s *service) Create(ctx context.Context, req CreateRequest, createdBy int) (*Tournament, error) {
	t, err := s.repo.Create(ctx, req, createdBy)
	if err != nil {
		return nil, err
	}

	logger.Info("Tournament created", "tournament_id", t.ID, "title", t.Title, "created_by", createdBy)
	s.publish(t, false)

	return t, nil
}

// Get hides room credentials from everyone except staff and registered
// participants of a live tournament.
func (s *service) Get(ctx context.Context, id string, viewerID int, staff bool) (*Tournament, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !staff && t.RoomID != "" {
		visible := false
		if t.Status == StatusLive && viewerID > 0 {
			visible, err = s.repo.IsRegistered(ctx, id, viewerID)
			if err != nil {
				return nil, err
			}
		}
		if !visible {
			t.RoomID = ""
			t.RoomPassword = ""
		}
	}

	return t, nil
}

func (s *service) List(ctx context.Context, status Status) ([]Tournament, error) {
	tournaments, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, err
	}

	// Listings never expose room credentials.
	for i := range tournaments {
		tournaments[i].RoomID = ""
		tournaments[i].RoomPassword = ""
	}

	return tournaments, nil
}

func (s *service) GetPrizes(ctx context.Context, id string) ([]PrizeRow, error) {
	return s.repo.GetPrizes(ctx, id)
}

func (s *service) GetRegistrations(ctx context.Context, id string) ([]Registration, error) {
	return s.repo.GetRegistrations(ctx, id)
}

func (s *service) GetResults(ctx context.Context, id string) ([]Result, error) {
	return s.repo.GetResults(ctx, id)
}

func (s *service) Join(ctx context.Context, tournamentID string, userID int, req JoinRequest) (*JoinOutcome, error) {
	outcome, err := s.repo.Join(ctx, tournamentID, userID, req)
	if err != nil {
		metrics.TournamentJoinsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.TournamentJoinsTotal.WithLabelValues("ok").Inc()
	logger.Info("User joined tournament",
		"tournament_id", tournamentID, "user_id", userID,
		"fee_paid_cents", outcome.FeePaidCents, "went_live", outcome.WentLive)

	s.notify(ctx, userID, "tournament_joined", "Registration confirmed",
		fmt.Sprintf("You are registered for %s.", outcome.Tournament.Title))

	if outcome.WentLive {
		metrics.TournamentTransitionsTotal.WithLabelValues(string(StatusLive)).Inc()
		for _, pid := range outcome.ParticipantIDs {
			s.notify(ctx, pid, "tournament_live", "Match starting",
				fmt.Sprintf("%s is full and is now live.", outcome.Tournament.Title))
		}
	}

	s.publish(outcome.Tournament, false)

	return outcome, nil
}

func (s *service) DeclareResults(ctx context.Context, tournamentID string, rows []ResultRow) (*DeclareOutcome, error) {
	outcome, err := s.repo.DeclareResults(ctx, tournamentID, rows)
	if err != nil {
		return nil, err
	}

	metrics.TournamentTransitionsTotal.WithLabelValues(string(StatusCompleted)).Inc()
	logger.Info("Tournament results declared",
		"tournament_id", tournamentID,
		"effective_pool_cents", outcome.EffectivePoolCents,
		"paid_out_cents", outcome.PaidOutCents)

	winners := make(map[int]int64, len(outcome.Results))
	for _, res := range outcome.Results {
		winners[res.UserID] = res.PrizeCents
	}
	for _, pid := range outcome.ParticipantIDs {
		if prize, ok := winners[pid]; ok && prize > 0 {
			s.notify(ctx, pid, "tournament_won", "You placed in the prizes",
				fmt.Sprintf("You won %d in %s. Winnings are in your wallet.", prize, outcome.Tournament.Title))
			continue
		}
		s.notify(ctx, pid, "tournament_completed", "Results declared",
			fmt.Sprintf("Results for %s are live.", outcome.Tournament.Title))
	}

	s.publish(outcome.Tournament, false)

	return outcome, nil
}

func (s *service) Cancel(ctx context.Context, tournamentID string) (*CancelOutcome, error) {
	outcome, err := s.repo.Cancel(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	metrics.TournamentTransitionsTotal.WithLabelValues(string(StatusCancelled)).Inc()
	logger.Info("Tournament cancelled",
		"tournament_id", tournamentID,
		"participants", len(outcome.ParticipantIDs),
		"refunded", outcome.RefundedCount)

	for _, pid := range outcome.ParticipantIDs {
		s.notify(ctx, pid, "tournament_cancelled", "Tournament cancelled",
			fmt.Sprintf("%s was cancelled. Your entry fee has been refunded.", outcome.Tournament.Title))
	}

	s.publish(outcome.Tournament, false)

	return outcome, nil
}

func (s *service) GoLive(ctx context.Context, tournamentID string) (*LiveOutcome, error) {
	outcome, err := s.repo.GoLive(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	metrics.TournamentTransitionsTotal.WithLabelValues(string(StatusLive)).Inc()
	logger.Info("Tournament went live", "tournament_id", tournamentID)

	for _, pid := range outcome.ParticipantIDs {
		s.notify(ctx, pid, "tournament_live", "Match starting",
			fmt.Sprintf("%s is now live.", outcome.Tournament.Title))
	}

	s.publish(outcome.Tournament, false)

	return outcome, nil
}

func (s *service) PublishRoom(ctx context.Context, tournamentID string, req RoomRequest) (*Tournament, error) {
	t, err := s.repo.SetRoom(ctx, tournamentID, req.RoomID, req.RoomPassword)
	if err != nil {
		return nil, err
	}

	logger.Info("Room details published", "tournament_id", tournamentID)

	participants, err := s.repo.GetRegistrations(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	for _, reg := range participants {
		s.notify(ctx, reg.UserID, "room_published", "Room details available",
			fmt.Sprintf("Room details for %s are available in the app.", t.Title))
	}

	s.publish(t, true)

	return t, nil
}

// PromoteStarted is the lifecycle tick body. It returns how many tournaments
// went live.
func (s *service) PromoteStarted(ctx context.Context, now time.Time) (int, error) {
	outcomes, err := s.repo.PromoteStarted(ctx, now)
	if err != nil {
		return 0, err
	}

	for _, outcome := range outcomes {
		metrics.TournamentTransitionsTotal.WithLabelValues(string(StatusLive)).Inc()
		logger.Info("Tournament auto-started", "tournament_id", outcome.Tournament.ID)

		for _, pid := range outcome.ParticipantIDs {
			s.notify(ctx, pid, "tournament_live", "Match starting",
				fmt.Sprintf("%s is now live.", outcome.Tournament.Title))
		}
		s.publish(outcome.Tournament, false)
	}

	return len(outcomes), nil
}
