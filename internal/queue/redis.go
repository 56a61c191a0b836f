package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taxonomy/scraper/internal/config"
	"taxonomy/scraper/internal/domain/task"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const streamPrefix = "taxonomy:stream:"

// StreamName is the stream a task type is published to.
func StreamName(taskType string) string {
	return streamPrefix + taskType
}

// Message is one delivered task.
type Message struct {
	ID       string
	Stream   string
	TaskType string
	Data     []byte
}

type Queue interface {
	AddTask(ctx context.Context, t task.Task) (string, error) // Returns message ID
	GetTask(ctx context.Context, consumer, stream string) (*Message, error)
	AckTask(ctx context.Context, msg *Message) error
	AutoClaim(ctx context.Context, consumer, stream string) ([]*Message, error)
	Backlog(ctx context.Context, stream string) (int64, error)
}

type RedisQueue struct {
	redisClient *redis.Client
	groupName   string
	minIdleTime time.Duration
	block       time.Duration
}

// NewRedisQueue creates the task streams and their consumer group.
func NewRedisQueue(ctx context.Context, redisClient *redis.Client, cfg config.RedisConfig) (*RedisQueue, error) {
	q := &RedisQueue{
		redisClient: redisClient,
		groupName:   cfg.ConsumerGroup,
		minIdleTime: cfg.MinIdleTime,
		block:       5 * time.Second,
	}

	if err := q.ensureStreams(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure streams exist: %w", err)
	}

	return q, nil
}

func (q *RedisQueue) AddTask(ctx context.Context, t task.Task) (string, error) {
	stream := StreamName(t.TaskType())

	value, err := t.TaskValue()
	if err != nil {
		return "", fmt.Errorf("failed to serialize task: %w", err)
	}

	id, err := q.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"task_type": t.TaskType(),
			"task_data": string(value),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to add task to Redis stream %s: %w", stream, err)
	}

	log.Debugf("Added %s to %s as %s", t.TaskType(), stream, id)
	return id, nil
}

// GetTask blocks briefly for the next undelivered message. It returns nil when
// there is none.
func (q *RedisQueue) GetTask(ctx context.Context, consumer, stream string) (*Message, error) {
	result, err := q.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.groupName,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    1,
		Block:    q.block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read from Redis stream %s: %w", stream, err)
	}

	if len(result) == 0 || len(result[0].Messages) == 0 {
		return nil, nil
	}

	return toMessage(stream, result[0].Messages[0])
}

func (q *RedisQueue) AckTask(ctx context.Context, msg *Message) error {
	if err := q.redisClient.XAck(ctx, msg.Stream, q.groupName, msg.ID).Err(); err != nil {
		return fmt.Errorf("failed to ack %s on %s: %w", msg.ID, msg.Stream, err)
	}
	return nil
}

// AutoClaim takes over one message another consumer left pending for longer
// than the configured idle time.
func (q *RedisQueue) AutoClaim(ctx context.Context, consumer, stream string) ([]*Message, error) {
	claimed, _, err := q.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream,
		Group:    q.groupName,
		Consumer: consumer,
		MinIdle:  q.minIdleTime,
		Start:    "0-0",
		Count:    1,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to claim messages from Redis stream %s: %w", stream, err)
	}

	messages := make([]*Message, 0, len(claimed))
	for _, m := range claimed {
		msg, err := toMessage(stream, m)
		if err != nil {
			log.Warnf("⚠️ Dropping malformed message %s from %s: %v", m.ID, stream, err)
			q.redisClient.XAck(ctx, stream, q.groupName, m.ID)
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Backlog is the number of entries in stream.
func (q *RedisQueue) Backlog(ctx context.Context, stream string) (int64, error) {
	n, err := q.redisClient.XLen(ctx, stream).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read length of %s: %w", stream, err)
	}
	return n, nil
}

func (q *RedisQueue) ensureStreams(ctx context.Context) error {
	for _, taskType := range task.Types {
		stream := StreamName(taskType)

		err := q.redisClient.XGroupCreateMkStream(ctx, stream, q.groupName, "0").Err()
		if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
			return fmt.Errorf("failed to create consumer group for %s: %w", stream, err)
		}

		log.Infof("✅ Stream %s and consumer group %s ready", stream, q.groupName)
	}
	return nil
}

func toMessage(stream string, m redis.XMessage) (*Message, error) {
	taskType, ok := m.Values["task_type"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid task type in message %s", m.ID)
	}

	data, ok := m.Values["task_data"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid task data in message %s", m.ID)
	}

	return &Message{
		ID:       m.ID,
		Stream:   stream,
		TaskType: taskType,
		Data:     []byte(data),
	}, nil
}
