package booking

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/nekogravitycat/shareit-backend/internal/events"
	"github.com/nekogravitycat/shareit-backend/internal/pkg/clock"
)

// UserDirectory answers whether a user id is known.
type UserDirectory interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// ItemCatalog resolves an item id. found is false for unknown ids.
type ItemCatalog interface {
	Lookup(ctx context.Context, id string) (ref ItemRef, found bool, err error)
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	Approve(ctx context.Context, actorID, bookingID string, approve bool) (*Booking, error)
	Get(ctx context.Context, viewerID, bookingID string) (*Booking, error)
	ListForBooker(ctx context.Context, bookerID string, state State) ([]*Booking, error)
	ListForOwner(ctx context.Context, ownerID string, state State) ([]*Booking, error)

	// NearestBookings returns the last and next approved bookings of an item.
	// Viewers other than the owner always get an empty result.
	NearestBookings(ctx context.Context, itemID string, viewerIsOwner bool) (Nearest, error)
	// NearestForItems is the batched form of NearestBookings for an owner's items.
	NearestForItems(ctx context.Context, itemIDs []string) (map[string]Nearest, error)
	// HasFinishedBooking reports whether userID has an approved booking of itemID that already ended.
	HasFinishedBooking(ctx context.Context, userID, itemID string) (bool, error)
}

type service struct {
	repo   Repository
	users  UserDirectory
	items  ItemCatalog
	clock  clock.Clock
	events events.Publisher
	log    *zap.Logger
	tracer trace.Tracer
}

func NewService(repo Repository, users UserDirectory, items ItemCatalog, clk clock.Clock, pub events.Publisher, log *zap.Logger) Service {
	return &service{
		repo:   repo,
		users:  users,
		items:  items,
		clock:  clk,
		events: pub,
		log:    log.Named("booking"),
		tracer: otel.Tracer("github.com/nekogravitycat/shareit-backend/internal/booking"),
	}
}

func (s *service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "booking."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *service) Create(ctx context.Context, req CreateRequest) (b *Booking, err error) {
	ctx, span := s.startSpan(ctx, "Create",
		attribute.String("item.id", req.ItemID),
		attribute.String("booker.id", req.BookerID),
	)
	defer func() { endSpan(span, err) }()

	ok, err := s.users.Exists(ctx, req.BookerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUserNotFound
	}

	item, found, err := s.items.Lookup(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrItemNotFound
	}
	if !item.Available {
		return nil, ErrItemUnavailable
	}
	if item.OwnerID == req.BookerID {
		return nil, ErrOwnItem
	}

	if !req.Start.Before(req.End) {
		return nil, ErrInvalidTimeRange
	}
	now := s.clock.Now()
	if req.Start.Before(now) {
		return nil, ErrStartTimePast
	}

	b = &Booking{
		ItemID:      req.ItemID,
		ItemName:    item.Name,
		ItemOwnerID: item.OwnerID,
		BookerID:    req.BookerID,
		Start:       req.Start.UTC(),
		End:         req.End.UTC(),
		Status:      StatusWaiting,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	s.log.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("item_id", b.ItemID),
		zap.String("booker_id", b.BookerID),
	)
	s.publish(ctx, events.TypeBookingCreated, b)
	return b, nil
}

func (s *service) Approve(ctx context.Context, actorID, bookingID string, approve bool) (b *Booking, err error) {
	ctx, span := s.startSpan(ctx, "Approve",
		attribute.String("booking.id", bookingID),
		attribute.Bool("booking.approve", approve),
	)
	defer func() { endSpan(span, err) }()

	b, err = s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.ItemOwnerID != actorID {
		return nil, ErrNotOwner
	}

	next := StatusRejected
	if approve {
		next = StatusApproved
	}
	if !b.Status.CanTransitionTo(next) {
		return nil, ErrAlreadyProcessed
	}

	// The conditional write settles races between concurrent decisions.
	updatedAt, err := s.repo.UpdateStatus(ctx, b.ID, b.Status, next)
	if err != nil {
		return nil, err
	}
	b.Status = next
	b.UpdatedAt = updatedAt

	s.log.Info("booking processed",
		zap.String("booking_id", b.ID),
		zap.String("status", string(next)),
	)
	eventType := events.TypeBookingRejected
	if approve {
		eventType = events.TypeBookingApproved
	}
	s.publish(ctx, eventType, b)
	return b, nil
}

func (s *service) Get(ctx context.Context, viewerID, bookingID string) (b *Booking, err error) {
	ctx, span := s.startSpan(ctx, "Get", attribute.String("booking.id", bookingID))
	defer func() { endSpan(span, err) }()

	b, err = s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if viewerID != b.BookerID && viewerID != b.ItemOwnerID {
		return nil, ErrNoAccess
	}
	return b, nil
}

func (s *service) ListForBooker(ctx context.Context, bookerID string, state State) (list []*Booking, err error) {
	ctx, span := s.startSpan(ctx, "ListForBooker", attribute.String("state", string(state)))
	defer func() { endSpan(span, err) }()

	if err := s.requireUser(ctx, bookerID); err != nil {
		return nil, err
	}
	all, err := s.repo.ListByBooker(ctx, bookerID)
	if err != nil {
		return nil, err
	}
	return selectBucket(all, state, s.clock.Now(), AsBooker), nil
}

func (s *service) ListForOwner(ctx context.Context, ownerID string, state State) (list []*Booking, err error) {
	ctx, span := s.startSpan(ctx, "ListForOwner", attribute.String("state", string(state)))
	defer func() { endSpan(span, err) }()

	if err := s.requireUser(ctx, ownerID); err != nil {
		return nil, err
	}
	all, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return selectBucket(all, state, s.clock.Now(), AsOwner), nil
}

func (s *service) NearestBookings(ctx context.Context, itemID string, viewerIsOwner bool) (n Nearest, err error) {
	if !viewerIsOwner {
		return Nearest{}, nil
	}

	ctx, span := s.startSpan(ctx, "NearestBookings", attribute.String("item.id", itemID))
	defer func() { endSpan(span, err) }()

	approved, err := s.repo.ListByItems(ctx, []string{itemID}, StatusApproved)
	if err != nil {
		return Nearest{}, err
	}
	return FindNearest(approved, s.clock.Now()), nil
}

func (s *service) NearestForItems(ctx context.Context, itemIDs []string) (m map[string]Nearest, err error) {
	ctx, span := s.startSpan(ctx, "NearestForItems", attribute.Int("items", len(itemIDs)))
	defer func() { endSpan(span, err) }()

	approved, err := s.repo.ListByItems(ctx, itemIDs, StatusApproved)
	if err != nil {
		return nil, err
	}
	return FindNearestByItem(itemIDs, approved, s.clock.Now()), nil
}

func (s *service) HasFinishedBooking(ctx context.Context, userID, itemID string) (bool, error) {
	return s.repo.HasFinished(ctx, userID, itemID, StatusApproved, s.clock.Now())
}

func (s *service) requireUser(ctx context.Context, id string) error {
	ok, err := s.users.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	return nil
}

type bookingPayload struct {
	BookingID string    `json:"booking_id"`
	ItemID    string    `json:"item_id"`
	OwnerID   string    `json:"owner_id"`
	BookerID  string    `json:"booker_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Status    Status    `json:"status"`
}

// publish is best effort: the booking is already committed, so failures are only logged.
func (s *service) publish(ctx context.Context, eventType string, b *Booking) {
	e, err := events.New(eventType, b.ID, s.clock.Now(), bookingPayload{
		BookingID: b.ID,
		ItemID:    b.ItemID,
		OwnerID:   b.ItemOwnerID,
		BookerID:  b.BookerID,
		Start:     b.Start,
		End:       b.End,
		Status:    b.Status,
	})
	if err == nil {
		err = s.events.Publish(ctx, e)
	}
	if err != nil {
		s.log.Warn("failed to publish booking event",
			zap.String("event_type", eventType),
			zap.String("booking_id", b.ID),
			zap.Error(err),
		)
	}
}
