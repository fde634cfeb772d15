package tournament

import (
	"context"
	"time"

	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/logger"

	"github.com/go-co-op/gocron/v2"
)

// Ticker periodically promotes open tournaments whose start time has passed.
// The job runs in singleton mode so a slow tick never overlaps the next one.
type Ticker struct {
	scheduler gocron.Scheduler
	service   Service
	interval  time.Duration
}

func NewTicker(service Service, interval time.Duration) (*Ticker, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	t := &Ticker{scheduler: scheduler, service: service, interval: interval}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(t.tick),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	return t, nil
}

func (t *Ticker) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), t.interval)
	defer cancel()

	promoted, err := t.service.PromoteStarted(ctx, time.Now())
	if err != nil {
		logger.Error("Lifecycle tick failed", "error", err)
		return
	}
	if promoted > 0 {
		logger.Info("Lifecycle tick promoted tournaments", "count", promoted)
	}
}

func (t *Ticker) Start() {
	t.scheduler.Start()
	logger.Info("Tournament lifecycle ticker started", "interval", t.interval.String())
}

func (t *Ticker) Stop() error {
	return t.scheduler.Shutdown()
}
