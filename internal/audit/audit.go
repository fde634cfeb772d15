package audit

import (
	"context"
	"time"

	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/logger"

	"github.com/jmoiron/sqlx"
)

// Recorder appends admin-audit events for operational dashboards. Recording is
// best-effort: a failed append is logged and never fails the admin action.
type Recorder interface {
	Record(ctx context.Context, actorID int, entity, action, targetID string)
}

type Event struct {
	ID        int64     `db:"id" json:"id"`
	ActorID   int       `db:"actor_id" json:"actor_id"`
	Entity    string    `db:"entity" json:"entity"`
	Action    string    `db:"action" json:"action"`
	TargetID  string    `db:"target_id" json:"target_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Store extends Recorder with read access for the admin panel.
type Store interface {
	Recorder
	List(ctx context.Context, limit, offset int) ([]Event, error)
}

type recorder struct {
	db *sqlx.DB
}

func NewRecorder(db *sqlx.DB) Store {
	return &recorder{db: db}
}

func (r *recorder) Record(ctx context.Context, actorID int, entity, action, targetID string) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_events (actor_id, entity, action, target_id) VALUES ($1, $2, $3, $4)`,
		actorID, entity, action, targetID,
	)
	if err != nil {
		logger.Error("failed to record audit event",
			"actor_id", actorID,
			"entity", entity,
			"action", action,
			"target_id", targetID,
			"error", err,
		)
	}
}

func (r *recorder) List(ctx context.Context, limit, offset int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	var events []Event
	err := r.db.SelectContext(ctx, &events, `
		SELECT id, actor_id, entity, action, target_id, created_at
		FROM audit_events
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}

	return events, nil
}
