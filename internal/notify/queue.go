// README: Redis-list notification queue. Enqueue failures are the caller's to
// log; they never roll back the transition that produced the event.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type Queue struct {
	redis *redis.Client
	key   string
}

func NewQueue(redis *redis.Client, key string) *Queue {
	return &Queue{redis: redis, key: key}
}

func (q *Queue) Enqueue(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return q.redis.LPush(ctx, q.key, data).Err()
}

// Dequeue blocks up to timeout waiting for the next event. Returns ok=false on
// timeout.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (Event, bool, error) {
	res, err := q.redis.BRPop(ctx, timeout, q.key).Result()
	if err == redis.Nil {
		return Event{}, false, nil
	}
	if err != nil {
		return Event{}, false, err
	}
	var e Event
	if err := json.Unmarshal([]byte(res[1]), &e); err != nil {
		return Event{}, false, err
	}
	return e, true, nil
}
