package job

import (
	"fmt"

	"github.com/hibiken/asynq"
)

// Worker runs an asynq.Server against the solve queue with a fixed
// concurrency, one goroutine per concurrent solve.
type Worker struct {
	server *asynq.Server
}

// NewWorker builds a Worker connected to redisAddr, processing up to
// concurrency solves at once.
func NewWorker(redisAddr string, concurrency int) *Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{Concurrency: concurrency},
	)
	return &Worker{server: server}
}

// Run starts processing tasks registered on handlers until the process
// receives a shutdown signal or Shutdown is called; it blocks the calling
// goroutine.
func (w *Worker) Run(handlers *Handlers) error {
	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	if err := w.server.Run(mux); err != nil {
		return fmt.Errorf("job: worker run: %w", err)
	}
	return nil
}

// Shutdown stops the worker gracefully, waiting for in-flight solves to
// finish.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}
