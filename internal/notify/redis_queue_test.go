package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	require.NoError(t, client.Ping(context.Background()).Err())

	return client, mr
}

func TestRedisQueue_Dispatch(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	q := NewRedisQueue(client, "test:intents", logrus.New())
	ctx := context.Background()

	in := NewIntent(EventSellerSelected, "seller-1", "proj-1", map[string]string{"bid_id": "bid-1"})
	require.NoError(t, q.Dispatch(ctx, in))

	n, err := q.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	raw, err := client.RPop(ctx, "test:intents").Result()
	require.NoError(t, err)

	var got Intent
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, in.ID, got.ID)
	assert.Equal(t, EventSellerSelected, got.Event)
	assert.Equal(t, "seller-1", got.RecipientID)
	assert.Equal(t, "bid-1", got.Data["bid_id"])
}

func TestRedisQueue_DefaultKey(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	q := NewRedisQueue(client, "", nil)
	require.NoError(t, q.Dispatch(context.Background(), NewIntent(EventBidReceived, "buyer-1", "proj-1", nil)))

	items, err := mr.List(defaultQueueKey)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRedisQueue_BreakerOpensAfterFailures(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer client.Close()

	q := NewRedisQueue(client, "test:intents", nil)
	mr.Close()

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		err := q.Dispatch(ctx, NewIntent(EventProjectCompleted, "buyer-1", "proj-1", nil))
		require.Error(t, err)
	}

	err := q.Dispatch(ctx, NewIntent(EventProjectCompleted, "buyer-1", "proj-1", nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
}

type recordingDispatcher struct {
	mu   sync.Mutex
	got  []Intent
	fail map[string]bool
}

func (r *recordingDispatcher) Dispatch(_ context.Context, in Intent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[in.RecipientID] {
		return errors.New("boom")
	}
	r.got = append(r.got, in)
	return nil
}

func TestDispatchAll(t *testing.T) {
	d := &recordingDispatcher{fail: map[string]bool{"bad": true}}

	err := DispatchAll(context.Background(), d,
		NewIntent(EventDeadlineReminder, "buyer-1", "p1", nil),
		NewIntent(EventDeadlineReminder, "", "p1", nil),
		NewIntent(EventDeadlineReminder, "bad", "p1", nil),
	)
	require.Error(t, err)
	assert.Len(t, d.got, 1)
	assert.Equal(t, "buyer-1", d.got[0].RecipientID)
}
