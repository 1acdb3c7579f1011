package cache

import (
	"context"
	"fmt"
	"time"

	"survai/internal/model"

	"github.com/redis/go-redis/v9"
)

// JobLock guards against two in-flight jobs for the same survey and operation
type JobLock interface {
	// Acquire returns false if another job holds the lock
	Acquire(ctx context.Context, surveyID string, op model.Operation, jobID string, ttl time.Duration) (bool, error)
	// Release drops the lock only if jobID still owns it
	Release(ctx context.Context, surveyID string, op model.Operation, jobID string) error
	Holder(ctx context.Context, surveyID string, op model.Operation) (string, error)
}

// compare-and-delete so an expired lock re-acquired by another job survives
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type jobLock struct {
	client *redis.Client
}

// NewJobLock creates a Redis SET NX job lock
func NewJobLock(client *redis.Client) JobLock {
	return &jobLock{client: client}
}

func (l *jobLock) key(surveyID string, op model.Operation) string {
	return fmt.Sprintf("job_lock:%s:%s", op, surveyID)
}

func (l *jobLock) Acquire(ctx context.Context, surveyID string, op model.Operation, jobID string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, l.key(surveyID, op), jobID, ttl).Result()
}

func (l *jobLock) Release(ctx context.Context, surveyID string, op model.Operation, jobID string) error {
	return releaseScript.Run(ctx, l.client, []string{l.key(surveyID, op)}, jobID).Err()
}

func (l *jobLock) Holder(ctx context.Context, surveyID string, op model.Operation) (string, error) {
	id, err := l.client.Get(ctx, l.key(surveyID, op)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return id, err
}
