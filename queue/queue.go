package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/aicrew/types"
)

const (
	// DefaultKey is the redis list carrying task payloads.
	DefaultKey = "aicrew:tasks"
	// popTimeout bounds each blocking pop so the loop can observe
	// context cancellation.
	popTimeout = 2 * time.Second
)

// Handler processes one delivered task. A retryable error puts the task
// back on the queue; any other error drops it after logging.
type Handler func(ctx context.Context, task types.Task) error

// Publisher pushes tasks onto the queue.
type Publisher struct {
	client *redis.Client
	key    string
}

// NewPublisher creates a publisher on an existing redis client.
func NewPublisher(client *redis.Client, key string) *Publisher {
	if key == "" {
		key = DefaultKey
	}
	return &Publisher{client: client, key: key}
}

// Publish enqueues one task as JSON.
func (p *Publisher) Publish(ctx context.Context, task types.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return types.NewError(types.ErrInvalidTask, "queue: encode task").WithCause(err)
	}
	if err := p.client.LPush(ctx, p.key, data).Err(); err != nil {
		return types.NewError(types.ErrTimeout, "queue: publish failed").
			WithCause(err).WithRetryable(true)
	}
	return nil
}

// Consumer pops tasks off the queue and hands them to a Handler.
type Consumer struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// NewConsumer creates a consumer on an existing redis client.
func NewConsumer(client *redis.Client, key string, logger *zap.Logger) *Consumer {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{
		client: client,
		key:    key,
		logger: logger.With(zap.String("component", "task_consumer"), zap.String("queue", key)),
	}
}

// Run consumes until the context is cancelled. Undecodable payloads are
// dropped with a log line; transport errors back off briefly and retry.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	c.logger.Info("consumer started")
	for {
		if err := ctx.Err(); err != nil {
			c.logger.Info("consumer stopped")
			return err
		}

		vals, err := c.client.BRPop(ctx, popTimeout, c.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				c.logger.Info("consumer stopped")
				return ctx.Err()
			}
			c.logger.Warn("pop failed, backing off", zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		// BRPop returns [key, value].
		if len(vals) != 2 {
			continue
		}
		c.dispatch(ctx, vals[1], handle)
	}
}

func (c *Consumer) dispatch(ctx context.Context, payload string, handle Handler) {
	var task types.Task
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		c.logger.Error("dropping undecodable payload", zap.Error(err))
		return
	}
	if task.ID == "" {
		c.logger.Error("dropping payload without task id")
		return
	}

	if err := handle(ctx, task); err != nil {
		if types.IsRetryable(err) {
			c.logger.Warn("handler failed, requeueing task",
				zap.String("task_id", task.ID), zap.Error(err))
			if pushErr := c.client.LPush(ctx, c.key, payload).Err(); pushErr != nil {
				c.logger.Error("requeue failed",
					zap.String("task_id", task.ID), zap.Error(pushErr))
			}
			return
		}
		c.logger.Error("handler failed, dropping task",
			zap.String("task_id", task.ID), zap.Error(err))
	}
}

// Len reports the number of queued payloads.
func (c *Consumer) Len(ctx context.Context) (int64, error) {
	return c.client.LLen(ctx, c.key).Result()
}
