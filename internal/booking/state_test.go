package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/shareit-backend/internal/pkg/apperror"
)

func TestParseState(t *testing.T) {
	for raw, want := range map[string]State{
		"":         StateAll,
		"all":      StateAll,
		"Past":     StatePast,
		"CURRENT":  StateCurrent,
		" future ": StateFuture,
		"waiting":  StateWaiting,
		"REJECTED": StateRejected,
	} {
		got, err := ParseState(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseState("UNSUPPORTED_STATUS")
	assert.ErrorIs(t, err, ErrUnknownState)
	assert.True(t, apperror.IsInvalidRequest(err))
	assert.EqualError(t, err, "unknown state: UNSUPPORTED_STATUS")
}

func TestTimeBucketsDoNotOverlap(t *testing.T) {
	at := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	offsets := []time.Duration{-3 * time.Hour, -time.Hour, 0, time.Hour, 3 * time.Hour}

	for _, s := range offsets {
		for _, e := range offsets {
			if e <= s {
				continue
			}
			b := &Booking{Start: at.Add(s), End: at.Add(e), Status: StatusApproved}
			hits := 0
			for _, st := range []State{StatePast, StateCurrent, StateFuture} {
				if st.Matches(b, at, AsBooker) {
					hits++
				}
			}
			assert.LessOrEqual(t, hits, 1, "start %v end %v", s, e)
		}
	}
}

func TestOwnerPastNeedsApproval(t *testing.T) {
	at := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	b := &Booking{Start: at.Add(-2 * time.Hour), End: at.Add(-time.Hour), Status: StatusWaiting}

	assert.True(t, StatePast.Matches(b, at, AsBooker))
	assert.False(t, StatePast.Matches(b, at, AsOwner))

	b.Status = StatusApproved
	assert.True(t, StatePast.Matches(b, at, AsOwner))
}

func TestSelectBucketOrdersByStartDescending(t *testing.T) {
	at := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	list := []*Booking{
		{ID: "a", Start: at.Add(time.Hour), End: at.Add(2 * time.Hour)},
		{ID: "c", Start: at.Add(3 * time.Hour), End: at.Add(4 * time.Hour)},
		{ID: "b", Start: at.Add(time.Hour), End: at.Add(5 * time.Hour)},
	}

	got := selectBucket(list, StateAll, at, AsBooker)
	assert.Equal(t, []string{"c", "b", "a"}, ids(got))
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusWaiting.CanTransitionTo(StatusApproved))
	assert.True(t, StatusWaiting.CanTransitionTo(StatusRejected))
	assert.False(t, StatusWaiting.CanTransitionTo(StatusWaiting))
	assert.False(t, StatusApproved.CanTransitionTo(StatusRejected))
	assert.False(t, StatusRejected.CanTransitionTo(StatusApproved))
}
