package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

const defaultQueueKey = "notify:intents"

// RedisQueue pushes intents onto a Redis list consumed by the delivery
// workers (BRPOP from the other end). Pushes go through a circuit breaker so
// a Redis outage fails fast instead of stalling lifecycle requests.
type RedisQueue struct {
	client  *redis.Client
	key     string
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
}

func NewRedisQueue(client *redis.Client, key string, log *logrus.Logger) *RedisQueue {
	if key == "" {
		key = defaultQueueKey
	}
	return &RedisQueue{
		client:  client,
		key:     key,
		breaker: NewBreaker("notify-queue", log),
		timeout: 2 * time.Second,
	}
}

// NewBreaker returns the breaker settings used for the delivery boundary.
func NewBreaker(name string, log *logrus.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if log != nil {
				log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).
					Warn("circuit breaker state changed")
			}
		},
	})
}

func (q *RedisQueue) Dispatch(ctx context.Context, in Intent) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal intent: %w", err)
	}

	_, err = q.breaker.Execute(func() (interface{}, error) {
		pctx, cancel := context.WithTimeout(ctx, q.timeout)
		defer cancel()
		return nil, q.client.LPush(pctx, q.key, data).Err()
	})
	if err != nil {
		return fmt.Errorf("push intent %s: %w", in.Event, err)
	}
	return nil
}

// Pending returns the number of intents waiting in the queue.
func (q *RedisQueue) Pending(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
