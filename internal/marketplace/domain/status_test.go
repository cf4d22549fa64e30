package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	cases := []struct {
		from    Status
		ev      Event
		want    Status
		errKind Kind
	}{
		{StatusPending, EventSelectSeller, StatusInProgress, ""},
		{StatusInProgress, EventSelectSeller, "", KindConflict},
		{StatusPending, EventComplete, "", KindConflict},
		{StatusInProgress, EventComplete, StatusCompleted, ""},
		{StatusInReview, EventComplete, StatusCompleted, ""},
		{StatusChangesRequested, EventComplete, "", KindConflict},
		{StatusInProgress, EventUploadDeliverable, StatusInProgress, ""},
		{StatusChangesRequested, EventUploadDeliverable, StatusChangesRequested, ""},
		{StatusPending, EventUploadDeliverable, "", KindConflict},
		{StatusCompleted, EventSelectSeller, "", KindConflict},
		{StatusCompleted, EventComplete, "", KindConflict},
		{StatusCompleted, EventUploadDeliverable, "", KindConflict},
		{StatusPending, Event("archive"), "", KindValidation},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s/%s", tc.from, tc.ev), func(t *testing.T) {
			got, err := Transition(tc.from, tc.ev)
			if tc.errKind != "" {
				require.Error(t, err)
				assert.Equal(t, tc.errKind, KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusChangesRequested.Valid())
	assert.False(t, Status("ARCHIVED").Valid())
	assert.True(t, StatusCompleted.Terminal())
	assert.False(t, StatusInReview.Terminal())
}

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("select: %w", Conflictf("already selected"))
	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "select: already selected", err.Error())

	cause := errors.New("redis down")
	td := TransientDelivery(cause)
	assert.True(t, errors.Is(td, ErrTransientDelivery))
	assert.True(t, errors.Is(td, cause))
	assert.Equal(t, Kind(""), KindOf(cause))
}

func TestHasSelection(t *testing.T) {
	p := &Project{}
	assert.False(t, p.HasSelection())
	empty := ""
	p.SelectedBidID = &empty
	assert.False(t, p.HasSelection())
	id := "bid-1"
	p.SelectedBidID = &id
	assert.True(t, p.HasSelection())
}
