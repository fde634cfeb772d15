package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrNotificationNotFound = errors.New("notification not found")

type Notification struct {
	ID        string    `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Type      string    `db:"type" json:"type"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Repository interface {
	Insert(ctx context.Context, userID int, notifType, title, message string) error
	ListForUser(ctx context.Context, userID, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, id string, userID int) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, userID int, notifType, title, message string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), userID, notifType, title, message)
	return err
}

func (r *repository) ListForUser(ctx context.Context, userID, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var notifications []Notification
	err := r.db.SelectContext(ctx, &notifications, `
		SELECT id, user_id, type, title, message, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}

	return notifications, nil
}

func (r *repository) MarkRead(ctx context.Context, id string, userID int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotificationNotFound
	}

	return nil
}
