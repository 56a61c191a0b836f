package mock

import (
	"context"

	"taxonomy/scraper/internal/domain/task"
	"taxonomy/scraper/internal/queue"
)

var _ queue.Queue = (*Queue)(nil)

type Queue struct {
	AddTaskFn   func(ctx context.Context, t task.Task) (string, error)
	GetTaskFn   func(ctx context.Context, consumer, stream string) (*queue.Message, error)
	AckTaskFn   func(ctx context.Context, msg *queue.Message) error
	AutoClaimFn func(ctx context.Context, consumer, stream string) ([]*queue.Message, error)
	BacklogFn   func(ctx context.Context, stream string) (int64, error)
}

func (q *Queue) AddTask(ctx context.Context, t task.Task) (string, error) {
	if q.AddTaskFn == nil {
		return "0-0", nil
	}
	return q.AddTaskFn(ctx, t)
}

func (q *Queue) GetTask(ctx context.Context, consumer, stream string) (*queue.Message, error) {
	if q.GetTaskFn == nil {
		return nil, nil
	}
	return q.GetTaskFn(ctx, consumer, stream)
}

func (q *Queue) AckTask(ctx context.Context, msg *queue.Message) error {
	if q.AckTaskFn == nil {
		return nil
	}
	return q.AckTaskFn(ctx, msg)
}

func (q *Queue) AutoClaim(ctx context.Context, consumer, stream string) ([]*queue.Message, error) {
	if q.AutoClaimFn == nil {
		return nil, nil
	}
	return q.AutoClaimFn(ctx, consumer, stream)
}

func (q *Queue) Backlog(ctx context.Context, stream string) (int64, error) {
	if q.BacklogFn == nil {
		return 0, nil
	}
	return q.BacklogFn(ctx, stream)
}
