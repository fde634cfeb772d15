package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/logger"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey       = "notifications"
	failedQueueKey = "notifications:failed"
)

type Job struct {
	UserID  int       `json:"user_id"`
	Type    string    `json:"type"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

// Service queues notifications in redis and drains them into the store with
// a background worker. Producers never block on the database.
type Service struct {
	redis *redis.Client
	repo  Repository
}

func New(redisAddr string, repo Repository) *Service {
	return &Service{
		redis: redis.NewClient(&redis.Options{
			Addr: redisAddr,
		}),
		repo: repo,
	}
}

// NewWithClient is used by tests to inject a mock redis client.
func NewWithClient(client *redis.Client, repo Repository) *Service {
	return &Service{redis: client, repo: repo}
}

func (s *Service) Notify(ctx context.Context, userID int, notifType, title, message string) error {
	job := Job{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
		Tries:   0,
		Created: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		logger.Errorf("Failed to marshal notification job: %v", err)
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, data).Err(); err != nil {
		logger.Errorf("Failed to queue notification for user %d: %v", userID, err)
		return err
	}

	metrics.NotificationsQueuedTotal.Inc()
	return nil
}

func (s *Service) Start(ctx context.Context) {
	logger.Info("Notification worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Notification worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad notification data: %v", err)
		return
	}

	job.Tries++
	if err := s.repo.Insert(ctx, job.UserID, job.Type, job.Title, job.Message); err != nil {
		logger.Errorf("Failed to store notification for user %d: %v", job.UserID, err)

		if job.Tries < 3 {
			time.Sleep(5 * time.Second)
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, data)
		} else {
			logger.Errorf("Notification for user %d failed after 3 attempts", job.UserID)
			s.saveFailed(job, err)
		}
		return
	}
}

func (s *Service) saveFailed(job Job, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedQueueKey, data)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}
