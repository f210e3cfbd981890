package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrTimeout = errors.New("queue timeout")

type TriggerType string

const (
	// TriggerCollect asks the scheduler to run a collection for the tenant
	// right away, outside its regular interval.
	TriggerCollect TriggerType = "collect"
	// TriggerReschedule tells the scheduler the tenant's cron settings
	// changed and its timer must be re-armed (or cancelled).
	TriggerReschedule TriggerType = "reschedule"
)

type TriggerJob struct {
	ID        string      `json:"id"`
	Type      TriggerType `json:"type"`
	TenantID  string      `json:"tenant_id"`
	CreatedAt time.Time   `json:"created_at"`
}

// RedisQueue carries control messages from the API process to the scheduler
// process.
type RedisQueue struct {
	client    *redis.Client
	queueName string
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{
		client:    client,
		queueName: "collection_triggers",
	}
}

func (q *RedisQueue) Push(ctx context.Context, job *TriggerJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger: %w", err)
	}

	err = q.client.ZAdd(ctx, q.queueName, redis.Z{
		Score:  float64(job.CreatedAt.Unix()),
		Member: data,
	}).Err()

	if err != nil {
		return fmt.Errorf("failed to push trigger: %w", err)
	}

	return nil
}

func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (*TriggerJob, error) {
	result, err := q.client.BZPopMin(ctx, timeout, q.queueName).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("failed to pop trigger: %w", err)
	}

	var job TriggerJob
	if err := json.Unmarshal([]byte(result.Member.(string)), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trigger: %w", err)
	}

	return &job, nil
}

func (q *RedisQueue) Length(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, q.queueName).Result()
}
