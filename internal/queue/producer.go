package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"launchpad/internal/tasks"
)

type Appender interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Producer appends tasks to the worker stream.
type Producer struct {
	client Appender
	stream string
}

func NewProducer(client Appender, stream string) *Producer {
	return &Producer{client: client, stream: stream}
}

func (p *Producer) Enqueue(ctx context.Context, task tasks.Task) (string, error) {
	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: task.Values(),
	}).Result()
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", task.Type, err)
	}
	return id, nil
}
