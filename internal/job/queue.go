// Package job offloads a solve onto a worker pool through
// github.com/hibiken/asynq, the same client/server pair the teacher
// uses for its own background imports, so a caller enqueues a solve
// request and returns immediately instead of blocking a request
// goroutine on a potentially multi-minute CP solve.
package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TypeSolve names the asynq task type a SolveQueue enqueues and a
// Handlers registers against.
const TypeSolve = "schedule:solve"

// SolvePayload is the JSON body of a schedule:solve task: enough to
// reload the planning instance from the repositories rather than
// serializing the aggregates themselves onto the queue.
type SolvePayload struct {
	JobIDs        []uuid.UUID `json:"job_ids"`
	HorizonStart  time.Time   `json:"horizon_start"`
	HorizonDays   int         `json:"horizon_days"`
	PrimaryWeight float64     `json:"primary_weight"`
	SinglePhase   bool        `json:"single_phase"`
}

// SolveQueue enqueues solve requests onto Redis for a worker pool to
// pick up.
type SolveQueue struct {
	client *asynq.Client
}

// NewSolveQueue connects a SolveQueue to the Redis instance at
// redisAddr, pinging it once so a misconfigured address fails fast at
// startup rather than on the first enqueue.
func NewSolveQueue(redisAddr string) (*SolveQueue, error) {
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})

	if err := client.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("job: connect to redis: %w", err)
	}

	return &SolveQueue{client: client}, nil
}

// EnqueueSolve enqueues one solve request with a retry budget and a
// per-attempt deadline generous enough for a multi-minute CP solve.
func (q *SolveQueue) EnqueueSolve(ctx context.Context, payload SolvePayload) (*asynq.TaskInfo, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("job: marshal solve payload: %w", err)
	}

	task := asynq.NewTask(TypeSolve, body)

	info, err := q.client.EnqueueContext(ctx, task, asynq.MaxRetry(1), asynq.Timeout(6*time.Minute))
	if err != nil {
		return nil, fmt.Errorf("job: enqueue solve: %w", err)
	}

	return info, nil
}

// Close releases the queue's Redis connection.
func (q *SolveQueue) Close() error {
	return q.client.Close()
}

// TaskInfo retrieves an enqueued or in-flight task's status from the
// default queue.
func (q *SolveQueue) TaskInfo(ctx context.Context, redisAddr, taskID string) (*asynq.TaskInfo, error) {
	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: redisAddr})
	defer inspector.Close()

	return inspector.GetTaskInfo(ctx, "default", taskID)
}
