package state

import (
	"context"
	"fmt"
	"sync"

	"taxonomy/scraper/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RunKey identifies one run of a site under a version tag.
type RunKey struct {
	Site    string
	Version string
}

func (k RunKey) String() string {
	return k.Site + ":" + k.Version
}

// Tracker records the status of every category of a run.
type Tracker interface {
	SetStatus(ctx context.Context, run RunKey, category domain.Category, status domain.CategoryStatus) error
	Statuses(ctx context.Context, run RunKey) (map[string]domain.CategoryStatus, error)
}

type redisTracker struct {
	redisClient *redis.Client
	keyPrefix   string
}

func NewRedisTracker(redisClient *redis.Client) Tracker {
	return &redisTracker{
		redisClient: redisClient,
		keyPrefix:   "taxonomy:progress:",
	}
}

func (t *redisTracker) SetStatus(ctx context.Context, run RunKey, category domain.Category, status domain.CategoryStatus) error {
	key := t.keyPrefix + run.String()
	err := t.redisClient.HSet(ctx, key, category.Key(), status.String()).Err()
	if err != nil {
		return fmt.Errorf("failed to set status of %s for run %s: %w", category.Name, run, err)
	}
	return nil
}

func (t *redisTracker) Statuses(ctx context.Context, run RunKey) (map[string]domain.CategoryStatus, error) {
	key := t.keyPrefix + run.String()
	values, err := t.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return map[string]domain.CategoryStatus{}, nil // No progress saved yet
		}
		return nil, fmt.Errorf("failed to get statuses for run %s: %w", run, err)
	}

	statuses := make(map[string]domain.CategoryStatus, len(values))
	for category, status := range values {
		statuses[category] = domain.CategoryStatus(status)
	}
	return statuses, nil
}

type memoryTracker struct {
	mu   sync.Mutex
	runs map[RunKey]map[string]domain.CategoryStatus
}

// NewMemoryTracker keeps statuses in process, for runs without redis.
func NewMemoryTracker() Tracker {
	return &memoryTracker{runs: make(map[RunKey]map[string]domain.CategoryStatus)}
}

func (t *memoryTracker) SetStatus(_ context.Context, run RunKey, category domain.Category, status domain.CategoryStatus) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	statuses, ok := t.runs[run]
	if !ok {
		statuses = make(map[string]domain.CategoryStatus)
		t.runs[run] = statuses
	}
	statuses[category.Key()] = status
	return nil
}

func (t *memoryTracker) Statuses(_ context.Context, run RunKey) (map[string]domain.CategoryStatus, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]domain.CategoryStatus, len(t.runs[run]))
	for k, v := range t.runs[run] {
		out[k] = v
	}
	return out, nil
}
