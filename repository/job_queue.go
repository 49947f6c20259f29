package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pos-service/models"
	awspkg "pos-service/pkg/aws"
)

const (
	bulkImportQueueKey = "bulk_import:queue"
	jobMetaTTL         = 24 * time.Hour
)

func jobKey(id string) string {
	return fmt.Sprintf("bulk_import:job:%s", id)
}

// RedisJobQueue pushes job ids onto a Redis list and keeps job metadata under
// bulk_import:job:<id>.
type RedisJobQueue struct {
	client *redis.Client
	wait   time.Duration
}

func NewRedisJobQueue(client *redis.Client, wait time.Duration) *RedisJobQueue {
	if wait <= 0 {
		wait = 5 * time.Second
	}
	return &RedisJobQueue{client: client, wait: wait}
}

func (q *RedisJobQueue) Push(ctx context.Context, job models.ImportJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.Set(ctx, jobKey(job.ID), data, jobMetaTTL).Err(); err != nil {
		return fmt.Errorf("save job metadata: %w", err)
	}
	if err := q.client.RPush(ctx, bulkImportQueueKey, job.ID).Err(); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	return nil
}

func (q *RedisJobQueue) Pop(ctx context.Context) (*models.ImportJob, func(context.Context) error, error) {
	res, err := q.client.BLPop(ctx, q.wait, bulkImportQueueKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil, ErrQueueEmpty
	}
	if err != nil {
		return nil, nil, err
	}
	if len(res) < 2 {
		return nil, nil, ErrQueueEmpty
	}
	jobID := res[1]

	data, err := q.client.Get(ctx, jobKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil, fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load job metadata: %w", err)
	}

	var job models.ImportJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, nil, fmt.Errorf("decode job: %w", err)
	}
	ack := func(ctx context.Context) error {
		return q.client.Del(ctx, jobKey(jobID)).Err()
	}
	return &job, ack, nil
}

// SQSJobQueue carries import jobs as JSON message bodies.
type SQSJobQueue struct {
	queue *awspkg.SQSQueue
}

func NewSQSJobQueue(queue *awspkg.SQSQueue) *SQSJobQueue {
	return &SQSJobQueue{queue: queue}
}

func (q *SQSJobQueue) Push(ctx context.Context, job models.ImportJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	return q.queue.SendMessage(ctx, string(data))
}

func (q *SQSJobQueue) Pop(ctx context.Context) (*models.ImportJob, func(context.Context) error, error) {
	msg, err := q.queue.Receive(ctx)
	if err != nil {
		return nil, nil, err
	}
	if msg == nil {
		return nil, nil, ErrQueueEmpty
	}

	ack := func(ctx context.Context) error {
		return q.queue.Delete(ctx, msg.ReceiptHandle)
	}
	var job models.ImportJob
	if err := json.Unmarshal([]byte(msg.Body), &job); err != nil {
		// A body that never decodes would be redelivered forever.
		_ = ack(ctx)
		return nil, nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, ack, nil
}
