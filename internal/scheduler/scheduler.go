package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/evanhutnik/trailweather/internal/trailweather"
)

// Refresher is satisfied by *trailweather.Service.
type Refresher interface {
	RefreshRoute(ctx context.Context) (*trailweather.RouteResult, error)
}

// Scheduler periodically refetches the weather for the configured route.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Refresher
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.SugaredLogger
}

func New(service Refresher, interval time.Duration, logger *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		interval:  interval,
		timeout:   10 * time.Minute,
		logger:    logger,
	}
}

// Start runs the first refresh immediately. Overlapping runs are skipped.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("scheduler: no refresh interval configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.refresh)
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	res, err := s.service.RefreshRoute(ctx)
	if err != nil {
		s.logger.Errorw("scheduler: route refresh failed", "error", err)
		return
	}
	s.logger.Infow("scheduler: route refreshed",
		"run", res.RunID, "records", len(res.Records), "failed", res.Failed, "took", time.Since(start))
}

func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
