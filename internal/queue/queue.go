package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ImportTask is one unit of work handed from the API to the import workers:
// the job to run and the decoded CSV text to run it on.
type ImportTask struct {
	JobID   int64  `json:"job_id"`
	Content string `json:"content"`
}

// Queue is a durable FIFO task queue.
type Queue interface {
	// Enqueue appends a task for the workers.
	Enqueue(ctx context.Context, task ImportTask) error

	// Dequeue blocks until a task is available or the context is cancelled.
	Dequeue(ctx context.Context) (*ImportTask, error)
}

type redisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue creates a queue backed by a Redis list under the given key.
func NewRedisQueue(client *redis.Client, key string) Queue {
	return &redisQueue{client: client, key: key}
}

func (q *redisQueue) Enqueue(ctx context.Context, task ImportTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode import task: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue import task for job %d: %w", task.JobID, err)
	}
	return nil
}

func (q *redisQueue) Dequeue(ctx context.Context) (*ImportTask, error) {
	// LPUSH + BRPOP gives FIFO order. A zero timeout blocks until either a
	// task arrives or the context is cancelled.
	//
	// BRPOP removes the element before this process handles it: a crash
	// between the pop and the PENDING claim drops the delivery, leaving the
	// job PENDING until an operator re-enqueues it. Multi-instance
	// deployments that need crash-safe handoff should move tasks through a
	// per-worker claim list (BLMOVE) instead.
	result, err := q.client.BRPop(ctx, 0, q.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue import task: %w", err)
	}
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply of length %d", len(result))
	}

	var task ImportTask
	if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
		return nil, fmt.Errorf("failed to decode import task payload: %w", err)
	}
	return &task, nil
}
