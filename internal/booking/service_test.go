package booking

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"

	"github.com/nekogravitycat/shareit-backend/internal/events"
	"github.com/nekogravitycat/shareit-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/shareit-backend/internal/pkg/clock"
)

var now = time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store *memStore
	clock *clock.Fixed
	pub   *recordingPublisher
	svc   Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newMemStore()
	store.addUser("owner", "Olga")
	store.addUser("booker", "Boris")
	store.addUser("stranger", "Sam")
	store.addItem(ItemRef{ID: "drill", OwnerID: "owner", Name: "Drill", Available: true})
	store.addItem(ItemRef{ID: "saw", OwnerID: "owner", Name: "Saw", Available: false})

	clk := clock.NewFixed(now)
	pub := &recordingPublisher{}
	return &fixture{
		store: store,
		clock: clk,
		pub:   pub,
		svc:   NewService(store, store, store, clk, pub, zap.NewNop()),
	}
}

func (f *fixture) create(t *testing.T, start, end time.Time) *Booking {
	t.Helper()
	b, err := f.svc.Create(context.Background(), CreateRequest{
		ItemID: "drill", BookerID: "booker", Start: start, End: end,
	})
	require.NoError(t, err)
	return b
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		b, err := f.svc.Create(ctx, CreateRequest{
			ItemID: "drill", BookerID: "booker", Start: now.Add(time.Hour), End: now.Add(2 * time.Hour),
		})
		require.NoError(t, err)

		assert.NotEmpty(t, b.ID)
		assert.Equal(t, StatusWaiting, b.Status)
		assert.Equal(t, "owner", b.ItemOwnerID)
		assert.Equal(t, "Drill", b.ItemName)
		assert.Equal(t, "Boris", b.BookerName)

		stored, err := f.store.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusWaiting, stored.Status)
		assert.Equal(t, []string{events.TypeBookingCreated}, f.pub.types())
	})

	t.Run("Start Exactly Now Is Accepted", func(t *testing.T) {
		f := newFixture(t)
		b := f.create(t, now, now.Add(time.Hour))
		assert.Equal(t, StatusWaiting, b.Status)
	})

	tests := []struct {
		name    string
		req     CreateRequest
		wantErr error
	}{
		{
			name:    "Unknown Booker Checked Before Item",
			req:     CreateRequest{ItemID: "nope", BookerID: "ghost", Start: now.Add(time.Hour), End: now.Add(2 * time.Hour)},
			wantErr: ErrUserNotFound,
		},
		{
			name:    "Unknown Item",
			req:     CreateRequest{ItemID: "nope", BookerID: "booker", Start: now.Add(time.Hour), End: now.Add(2 * time.Hour)},
			wantErr: ErrItemNotFound,
		},
		{
			name:    "Unavailable Item Checked Before Ownership",
			req:     CreateRequest{ItemID: "saw", BookerID: "owner", Start: now.Add(time.Hour), End: now.Add(2 * time.Hour)},
			wantErr: ErrItemUnavailable,
		},
		{
			name:    "Owner Books Own Item",
			req:     CreateRequest{ItemID: "drill", BookerID: "owner", Start: now.Add(time.Hour), End: now.Add(2 * time.Hour)},
			wantErr: ErrOwnItem,
		},
		{
			name:    "Ownership Checked Before Time Range",
			req:     CreateRequest{ItemID: "drill", BookerID: "owner", Start: now.Add(-2 * time.Hour), End: now.Add(-3 * time.Hour)},
			wantErr: ErrOwnItem,
		},
		{
			name:    "Start Equals End",
			req:     CreateRequest{ItemID: "drill", BookerID: "booker", Start: now.Add(time.Hour), End: now.Add(time.Hour)},
			wantErr: ErrInvalidTimeRange,
		},
		{
			name:    "Start After End",
			req:     CreateRequest{ItemID: "drill", BookerID: "booker", Start: now.Add(2 * time.Hour), End: now.Add(time.Hour)},
			wantErr: ErrInvalidTimeRange,
		},
		{
			name:    "Range Checked Before Past Start",
			req:     CreateRequest{ItemID: "drill", BookerID: "booker", Start: now.Add(-time.Hour), End: now.Add(-2 * time.Hour)},
			wantErr: ErrInvalidTimeRange,
		},
		{
			name:    "Start In The Past",
			req:     CreateRequest{ItemID: "drill", BookerID: "booker", Start: now.Add(-time.Second), End: now.Add(time.Hour)},
			wantErr: ErrStartTimePast,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			b, err := f.svc.Create(ctx, tt.req)
			assert.Nil(t, b)
			assert.ErrorIs(t, err, tt.wantErr)

			all, _ := f.store.ListByBooker(ctx, tt.req.BookerID)
			assert.Empty(t, all, "failed create must not persist")
			assert.Empty(t, f.pub.types())
		})
	}

	t.Run("Error Kinds", func(t *testing.T) {
		assert.True(t, apperror.IsNotFound(ErrUserNotFound))
		assert.True(t, apperror.IsNotFound(ErrItemNotFound))
		assert.True(t, apperror.IsNotFound(ErrOwnItem))
		assert.True(t, apperror.IsInvalidRequest(ErrItemUnavailable))
		assert.True(t, apperror.IsInvalidRequest(ErrInvalidTimeRange))
		assert.True(t, apperror.IsInvalidRequest(ErrStartTimePast))
	})

	t.Run("Overlapping Bookings Are Allowed", func(t *testing.T) {
		f := newFixture(t)
		f.create(t, now.Add(time.Hour), now.Add(3*time.Hour))
		f.create(t, now.Add(2*time.Hour), now.Add(4*time.Hour))
	})
}

func TestApprove(t *testing.T) {
	ctx := context.Background()

	t.Run("Approve And Reject", func(t *testing.T) {
		f := newFixture(t)
		b1 := f.create(t, now.Add(time.Hour), now.Add(2*time.Hour))
		b2 := f.create(t, now.Add(3*time.Hour), now.Add(4*time.Hour))

		got, err := f.svc.Approve(ctx, "owner", b1.ID, true)
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, got.Status)

		got, err = f.svc.Approve(ctx, "owner", b2.ID, false)
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, got.Status)

		assert.Equal(t, []string{
			events.TypeBookingCreated, events.TypeBookingCreated,
			events.TypeBookingApproved, events.TypeBookingRejected,
		}, f.pub.types())
	})

	t.Run("Unknown Booking", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Approve(ctx, "owner", "missing", true)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Only Owner Decides", func(t *testing.T) {
		f := newFixture(t)
		b := f.create(t, now.Add(time.Hour), now.Add(2*time.Hour))

		for _, actor := range []string{"booker", "stranger"} {
			_, err := f.svc.Approve(ctx, actor, b.ID, true)
			assert.ErrorIs(t, err, ErrNotOwner)
		}

		stored, _ := f.store.GetByID(ctx, b.ID)
		assert.Equal(t, StatusWaiting, stored.Status)
	})

	t.Run("Second Decision Fails", func(t *testing.T) {
		f := newFixture(t)
		b := f.create(t, now.Add(time.Hour), now.Add(2*time.Hour))

		_, err := f.svc.Approve(ctx, "owner", b.ID, false)
		require.NoError(t, err)

		_, err = f.svc.Approve(ctx, "owner", b.ID, true)
		assert.ErrorIs(t, err, ErrAlreadyProcessed)

		stored, _ := f.store.GetByID(ctx, b.ID)
		assert.Equal(t, StatusRejected, stored.Status)
	})

	t.Run("Concurrent Decisions Settle Once", func(t *testing.T) {
		f := newFixture(t)
		b := f.create(t, now.Add(time.Hour), now.Add(2*time.Hour))

		const workers = 16
		var wins, lost atomic.Int32
		var wg sync.WaitGroup
		for i := range workers {
			wg.Add(1)
			go func(approve bool) {
				defer wg.Done()
				_, err := f.svc.Approve(ctx, "owner", b.ID, approve)
				switch {
				case err == nil:
					wins.Add(1)
				case assert.ErrorIs(t, err, ErrAlreadyProcessed):
					lost.Add(1)
				}
			}(i%2 == 0)
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
		assert.Equal(t, int32(workers-1), lost.Load())
	})

	t.Run("Publish Failure Does Not Fail Decision", func(t *testing.T) {
		f := newFixture(t)
		b := f.create(t, now.Add(time.Hour), now.Add(2*time.Hour))
		f.pub.err = errBrokerDown

		got, err := f.svc.Approve(ctx, "owner", b.ID, true)
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, got.Status)
	})
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.create(t, now.Add(time.Hour), now.Add(2*time.Hour))

	for _, viewer := range []string{"booker", "owner"} {
		got, err := f.svc.Get(ctx, viewer, b.ID)
		require.NoError(t, err, viewer)
		assert.Equal(t, b.ID, got.ID)
	}

	_, err := f.svc.Get(ctx, "stranger", b.ID)
	assert.ErrorIs(t, err, ErrNoAccess)
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.svc.Get(ctx, "booker", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

// seedTimeline stores one booking per bucket for booker on the owner's drill.
func seedTimeline(f *fixture) map[string]*Booking {
	h := time.Hour
	return map[string]*Booking{
		"pastApproved": f.store.seed(Booking{ID: "p1", ItemID: "drill", BookerID: "booker", Start: now.Add(-5 * h), End: now.Add(-4 * h), Status: StatusApproved}),
		"pastRejected": f.store.seed(Booking{ID: "p2", ItemID: "drill", BookerID: "booker", Start: now.Add(-3 * h), End: now.Add(-2 * h), Status: StatusRejected}),
		"endsNow":      f.store.seed(Booking{ID: "e1", ItemID: "drill", BookerID: "booker", Start: now.Add(-h), End: now, Status: StatusApproved}),
		"current":      f.store.seed(Booking{ID: "c1", ItemID: "drill", BookerID: "booker", Start: now, End: now.Add(h), Status: StatusApproved}),
		"future":       f.store.seed(Booking{ID: "f1", ItemID: "drill", BookerID: "booker", Start: now.Add(2 * h), End: now.Add(3 * h), Status: StatusWaiting}),
	}
}

func ids(list []*Booking) []string {
	out := make([]string, len(list))
	for i, b := range list {
		out[i] = b.ID
	}
	return out
}

func TestListForBooker(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedTimeline(f)

	tests := []struct {
		state State
		want  []string
	}{
		{StateAll, []string{"f1", "c1", "e1", "p2", "p1"}},
		{StatePast, []string{"p2", "p1"}},
		{StateCurrent, []string{"c1"}},
		{StateFuture, []string{"f1"}},
		{StateWaiting, []string{"f1"}},
		{StateRejected, []string{"p2"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			got, err := f.svc.ListForBooker(ctx, "booker", tt.state)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	t.Run("No Bookings", func(t *testing.T) {
		got, err := f.svc.ListForBooker(ctx, "stranger", StateAll)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Unknown User", func(t *testing.T) {
		_, err := f.svc.ListForBooker(ctx, "ghost", StateAll)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestListForOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedTimeline(f)

	t.Run("Past Requires Approval", func(t *testing.T) {
		got, err := f.svc.ListForOwner(ctx, "owner", StatePast)
		require.NoError(t, err)
		assert.Equal(t, []string{"p1"}, ids(got))
	})

	t.Run("All", func(t *testing.T) {
		got, err := f.svc.ListForOwner(ctx, "owner", StateAll)
		require.NoError(t, err)
		assert.Equal(t, []string{"f1", "c1", "e1", "p2", "p1"}, ids(got))
	})

	t.Run("Booker Owns Nothing", func(t *testing.T) {
		got, err := f.svc.ListForOwner(ctx, "booker", StateAll)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Unknown User", func(t *testing.T) {
		_, err := f.svc.ListForOwner(ctx, "ghost", StateFuture)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("Buckets Follow The Clock", func(t *testing.T) {
		f.clock.Advance(10 * time.Hour)
		defer f.clock.Set(now)

		got, err := f.svc.ListForOwner(ctx, "owner", StateFuture)
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = f.svc.ListForOwner(ctx, "owner", StatePast)
		require.NoError(t, err)
		assert.Equal(t, []string{"c1", "e1", "p1"}, ids(got))
	})
}

func TestNearestBookings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedTimeline(f)
	f.store.seed(Booking{ID: "f2", ItemID: "drill", BookerID: "booker", Start: now.Add(5 * time.Hour), End: now.Add(6 * time.Hour), Status: StatusApproved})

	t.Run("Owner Sees Neighbours", func(t *testing.T) {
		n, err := f.svc.NearestBookings(ctx, "drill", true)
		require.NoError(t, err)
		require.NotNil(t, n.Last)
		require.NotNil(t, n.Next)
		assert.Equal(t, "p1", n.Last.ID)
		assert.Equal(t, "f2", n.Next.ID)
	})

	t.Run("Others See Nothing", func(t *testing.T) {
		n, err := f.svc.NearestBookings(ctx, "drill", false)
		require.NoError(t, err)
		assert.Nil(t, n.Last)
		assert.Nil(t, n.Next)
	})

	t.Run("Batched", func(t *testing.T) {
		m, err := f.svc.NearestForItems(ctx, []string{"drill", "saw"})
		require.NoError(t, err)
		require.Contains(t, m, "saw")
		assert.Nil(t, m["saw"].Last)
		assert.Equal(t, "p1", m["drill"].Last.ID)
		assert.Equal(t, "f2", m["drill"].Next.ID)
	})
}

func TestHasFinishedBooking(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedTimeline(f)

	ok, err := f.svc.HasFinishedBooking(ctx, "booker", "drill")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.HasFinishedBooking(ctx, "stranger", "drill")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOperationsAreTraced(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	f := newFixture(t)
	b := f.create(t, now.Add(time.Hour), now.Add(2*time.Hour))
	_, err := f.svc.Get(context.Background(), "stranger", b.ID)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "booking.Create", spans[0].Name())
	assert.Equal(t, "booking.Get", spans[1].Name())
	assert.NotEmpty(t, spans[1].Events(), "failed span records the error")
}
