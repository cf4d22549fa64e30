package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/marketplace-backend/internal/marketplace/repository"
)

func TestScheduler_RunsSweep(t *testing.T) {
	store := repository.NewMemoryStore()
	n := &recordingNotifier{}
	newProject(t, store, "buyer-1", time.Now().Add(time.Hour))

	s := NewSweeper(store, n, 48*time.Hour, time.UTC, quietLogger())
	sched := NewScheduler(s, "@every 50ms", time.UTC, quietLogger())
	require.NoError(t, sched.Start())

	assert.Eventually(t, func() bool { return len(n.recipients()) == 1 }, 2*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sched.Stop(ctx)

	// later ticks found the project already stamped for today
	assert.Len(t, n.recipients(), 1)
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := NewSweeper(repository.NewMemoryStore(), &recordingNotifier{}, time.Hour, time.UTC, quietLogger())
	err := NewScheduler(s, "not a schedule", time.UTC, quietLogger()).Start()
	assert.Error(t, err)
}
