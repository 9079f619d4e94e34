package jobs

import (
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Scheduler enqueues the cron-driven reminder task.
type Scheduler interface {
	RegisterTasks(reminderCron string) error
	Run()
	Shutdown()
}

type scheduler struct {
	inner *asynq.Scheduler
	log   *slog.Logger
}

// NewScheduler constructs a Scheduler. Cron expressions are evaluated in
// server-local time, the same clock the daily-completion gate uses.
func NewScheduler(redisOpt asynq.RedisConnOpt, log *slog.Logger) Scheduler {
	if log == nil {
		log = slog.Default()
	}

	return &scheduler{
		inner: asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
			Location: time.Local,
		}),
		log: log,
	}
}

func (s *scheduler) RegisterTasks(reminderCron string) error {
	if _, err := s.inner.Register(reminderCron, NewDailyReminderTask()); err != nil {
		return err
	}

	s.log.Info("jobs: daily reminder scheduled", slog.String("cron", reminderCron))
	return nil
}

func (s *scheduler) Run() {
	go func() {
		if err := s.inner.Run(); err != nil {
			s.log.Error("jobs: scheduler stopped", slog.Any("error", err))
		}
	}()
}

func (s *scheduler) Shutdown() {
	s.log.Info("jobs: scheduler shutting down")
	s.inner.Shutdown()
}
