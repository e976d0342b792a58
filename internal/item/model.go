package item

import (
	"time"

	"github.com/nekogravitycat/shareit-backend/internal/booking"
	"github.com/nekogravitycat/shareit-backend/internal/pkg/apperror"
)

var (
	ErrNotFound            = apperror.NotFound("item not found")
	ErrNotOwner            = apperror.NotFound("user is not the item owner")
	ErrUserNotFound        = apperror.NotFound("user not found")
	ErrRequestNotFound     = apperror.NotFound("item request not found")
	ErrNameRequired        = apperror.InvalidRequest("name is required")
	ErrDescriptionRequired = apperror.InvalidRequest("description is required")
	ErrAvailableRequired   = apperror.InvalidRequest("available is required")
	ErrCommentRequired     = apperror.InvalidRequest("comment text is required")
	ErrNotRented           = apperror.InvalidRequest("user has not rented this item")
	ErrNoPhoto             = apperror.NotFound("item has no photo")
	ErrInvalidPhoto        = apperror.InvalidRequest("photo must be a jpeg, png or gif image")
	ErrPhotoTooLarge       = apperror.InvalidRequest("photo is too large")
)

// Item is a thing an owner offers for lending.
type Item struct {
	ID            string
	OwnerID       string
	Name          string
	Description   string
	Available     bool
	RequestID     *string // request this item was listed in answer to
	PhotoPath     *string
	ThumbnailPath *string
	PhotoType     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Ref adapts the item to what the booking engine consumes.
func (i *Item) Ref() booking.ItemRef {
	return booking.ItemRef{
		ID:        i.ID,
		OwnerID:   i.OwnerID,
		Name:      i.Name,
		Available: i.Available,
	}
}

type Comment struct {
	ID         string
	ItemID     string
	AuthorID   string
	AuthorName string
	Text       string
	CreatedAt  time.Time
}

// Details is an item with its booking annotation and comments.
// LastBooking and NextBooking are only filled for the owner.
type Details struct {
	Item        *Item
	LastBooking *booking.Booking
	NextBooking *booking.Booking
	Comments    []*Comment
}
