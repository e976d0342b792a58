package item

import (
	"context"
	"io"
	"mime/multipart"
	"strings"

	"go.uber.org/zap"

	"github.com/nekogravitycat/shareit-backend/internal/booking"
	"github.com/nekogravitycat/shareit-backend/internal/pkg/storage"
)

type UserDirectory interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type RequestDirectory interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// BookingHistory is the part of the booking engine the catalog reads.
type BookingHistory interface {
	NearestBookings(ctx context.Context, itemID string, viewerIsOwner bool) (booking.Nearest, error)
	NearestForItems(ctx context.Context, itemIDs []string) (map[string]booking.Nearest, error)
	HasFinishedBooking(ctx context.Context, userID, itemID string) (bool, error)
}

type CreateRequest struct {
	Name        string
	Description string
	Available   *bool
	RequestID   *string
}

// UpdateRequest holds optional changes. Nil or blank fields are left untouched.
type UpdateRequest struct {
	Name        *string
	Description *string
	Available   *bool
}

type Service interface {
	Create(ctx context.Context, ownerID string, req CreateRequest) (*Item, error)
	Update(ctx context.Context, ownerID, itemID string, req UpdateRequest) (*Item, error)
	Get(ctx context.Context, viewerID, itemID string) (*Details, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Details, error)
	Search(ctx context.Context, text string) ([]*Item, error)
	AddComment(ctx context.Context, authorID, itemID, text string) (*Comment, error)

	SetPhoto(ctx context.Context, ownerID, itemID string, header *multipart.FileHeader) (*Item, error)
	OpenPhoto(ctx context.Context, itemID string) (io.ReadCloser, string, error)
	OpenThumbnail(ctx context.Context, itemID string) (io.ReadCloser, error)
}

type service struct {
	repo     Repository
	users    UserDirectory
	requests RequestDirectory
	bookings BookingHistory
	storage  storage.Storage
	imgProc  *storage.ImageProcessor
	log      *zap.Logger
}

func NewService(
	repo Repository,
	users UserDirectory,
	requests RequestDirectory,
	bookings BookingHistory,
	store storage.Storage,
	log *zap.Logger,
) Service {
	return &service{
		repo:     repo,
		users:    users,
		requests: requests,
		bookings: bookings,
		storage:  store,
		imgProc:  storage.NewImageProcessor(thumbnailSize, thumbnailSize),
		log:      log.Named("item"),
	}
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

func (s *service) Create(ctx context.Context, ownerID string, req CreateRequest) (*Item, error) {
	if err := s.requireUser(ctx, ownerID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, ErrDescriptionRequired
	}
	if req.Available == nil {
		return nil, ErrAvailableRequired
	}

	if req.RequestID != nil {
		ok, err := s.requests.Exists(ctx, *req.RequestID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrRequestNotFound
		}
	}

	it := &Item{
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		Available:   *req.Available,
		RequestID:   req.RequestID,
	}
	if err := s.repo.Create(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *service) Update(ctx context.Context, ownerID, itemID string, req UpdateRequest) (*Item, error) {
	it, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if it.OwnerID != ownerID {
		return nil, ErrNotOwner
	}

	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != "" {
			it.Name = name
		}
	}
	if req.Description != nil {
		if d := strings.TrimSpace(*req.Description); d != "" {
			it.Description = d
		}
	}
	if req.Available != nil {
		it.Available = *req.Available
	}

	if err := s.repo.Update(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *service) Get(ctx context.Context, viewerID, itemID string) (*Details, error) {
	it, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	nearest, err := s.bookings.NearestBookings(ctx, it.ID, viewerID == it.OwnerID)
	if err != nil {
		return nil, err
	}

	comments, err := s.repo.ListComments(ctx, []string{it.ID})
	if err != nil {
		return nil, err
	}

	return &Details{
		Item:        it,
		LastBooking: nearest.Last,
		NextBooking: nearest.Next,
		Comments:    comments,
	}, nil
}

func (s *service) ListByOwner(ctx context.Context, ownerID string) ([]*Details, error) {
	if err := s.requireUser(ctx, ownerID); err != nil {
		return nil, err
	}

	items, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []*Details{}, nil
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}

	nearest, err := s.bookings.NearestForItems(ctx, ids)
	if err != nil {
		return nil, err
	}

	comments, err := s.repo.ListComments(ctx, ids)
	if err != nil {
		return nil, err
	}
	byItem := make(map[string][]*Comment, len(items))
	for _, c := range comments {
		byItem[c.ItemID] = append(byItem[c.ItemID], c)
	}

	out := make([]*Details, len(items))
	for i, it := range items {
		n := nearest[it.ID]
		out[i] = &Details{
			Item:        it,
			LastBooking: n.Last,
			NextBooking: n.Next,
			Comments:    byItem[it.ID],
		}
	}
	return out, nil
}

func (s *service) Search(ctx context.Context, text string) ([]*Item, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []*Item{}, nil
	}
	return s.repo.Search(ctx, text)
}

func (s *service) AddComment(ctx context.Context, authorID, itemID, text string) (*Comment, error) {
	if err := s.requireUser(ctx, authorID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, itemID); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrCommentRequired
	}

	rented, err := s.bookings.HasFinishedBooking(ctx, authorID, itemID)
	if err != nil {
		return nil, err
	}
	if !rented {
		return nil, ErrNotRented
	}

	c := &Comment{ItemID: itemID, AuthorID: authorID, Text: text}
	if err := s.repo.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
