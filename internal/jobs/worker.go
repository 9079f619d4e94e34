package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// workerConcurrency is deliberately small. Reminder fan-out walks the whole
// registry sheet and the store tolerates few concurrent readers.
const workerConcurrency = 4

// Worker consumes scheduled tasks from Redis.
type Worker interface {
	RegisterHandler(taskType string, handler asynq.Handler)
	Run() error
	Shutdown()
}

type worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *slog.Logger
}

var _ Worker = (*worker)(nil)

// NewWorker constructs a Worker backed by an asynq.Server.
func NewWorker(redisOpt asynq.RedisConnOpt, queues map[string]int, log *slog.Logger) Worker {
	if log == nil {
		log = slog.Default()
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Queues:      queues,
		Concurrency: workerConcurrency,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.ErrorContext(ctx, "jobs: task failed",
				slog.String("type", task.Type()), slog.Any("error", err))
		}),
	})

	return &worker{
		server: server,
		mux:    asynq.NewServeMux(),
		log:    log,
	}
}

func (w *worker) RegisterHandler(taskType string, handler asynq.Handler) {
	w.mux.Handle(taskType, handler)
}

// Run blocks processing tasks until Shutdown is called.
func (w *worker) Run() error {
	w.log.Info("jobs: worker starting", slog.Int("concurrency", workerConcurrency))
	return w.server.Run(w.mux)
}

// Shutdown waits for in-flight tasks before stopping.
func (w *worker) Shutdown() {
	w.log.Info("jobs: worker shutting down")
	w.server.Shutdown()
}
