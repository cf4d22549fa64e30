package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/marketplace-backend/internal/marketplace/domain"
)

func TestMemoryStore_CreateDeliverableGuardsStatus(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	p := &domain.Project{OwnerID: "buyer-1", Title: "Logo", Budget: 10, Deadline: time.Now().Add(time.Hour)}
	require.NoError(t, m.CreateProject(ctx, p))

	err := m.CreateDeliverable(ctx, &domain.Deliverable{ProjectID: p.ID, ArtifactURL: "s3://early.zip"})
	assert.True(t, errors.Is(err, domain.ErrConflict), "pending project")

	b := &domain.Bid{ProjectID: p.ID, SellerID: "seller-1", Amount: 5, DurationDays: 1}
	require.NoError(t, m.CreateBid(ctx, b))
	_, err = m.SwapStatus(ctx, p.ID, domain.StatusPending, domain.StatusInProgress, b.ID)
	require.NoError(t, err)
	require.NoError(t, m.CreateDeliverable(ctx, &domain.Deliverable{ProjectID: p.ID, ArtifactURL: "s3://v1.zip"}))

	_, err = m.SwapStatus(ctx, p.ID, domain.StatusInProgress, domain.StatusCompleted, "")
	require.NoError(t, err)
	err = m.CreateDeliverable(ctx, &domain.Deliverable{ProjectID: p.ID, ArtifactURL: "s3://late.zip"})
	assert.True(t, errors.Is(err, domain.ErrConflict), "completed project")

	list, err := m.ListDeliverables(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	err = m.CreateDeliverable(ctx, &domain.Deliverable{ProjectID: "missing", ArtifactURL: "s3://x"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
