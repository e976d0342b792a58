package booking

import (
	"time"

	"github.com/nekogravitycat/shareit-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.NotFound("booking not found")
	ErrUserNotFound     = apperror.NotFound("user not found")
	ErrItemNotFound     = apperror.NotFound("item not found")
	ErrItemUnavailable  = apperror.InvalidRequest("item not available")
	ErrOwnItem          = apperror.NotFound("owner cannot book own item")
	ErrInvalidTimeRange = apperror.InvalidRequest("start must precede end")
	ErrStartTimePast    = apperror.InvalidRequest("start in the past")
	ErrNotOwner         = apperror.InvalidRequest("not owner")
	ErrAlreadyProcessed = apperror.InvalidRequest("already processed")
	ErrNoAccess         = apperror.NotFound("no access")
	ErrUnknownState     = apperror.InvalidRequest("unknown state")
)

type Status string

const (
	StatusWaiting  Status = "WAITING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

var validTransitions = map[Status][]Status{
	StatusWaiting: {StatusApproved, StatusRejected},
}

// CanTransitionTo reports whether a booking in status s may move to next.
// Only WAITING bookings move, and only once.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Booking is a request by a booker to hold an item over [Start, End).
// ItemName, ItemOwnerID and BookerName are read-side joins, not stored on the booking.
type Booking struct {
	ID          string
	ItemID      string
	ItemName    string
	ItemOwnerID string
	BookerID    string
	BookerName  string
	Start       time.Time
	End         time.Time
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ItemRef is the slice of an item the booking engine needs.
type ItemRef struct {
	ID        string
	OwnerID   string
	Name      string
	Available bool
}

type CreateRequest struct {
	ItemID   string
	BookerID string
	Start    time.Time
	End      time.Time
}

// Nearest holds the neighbouring approved bookings of an item relative to now.
// Either field may be nil.
type Nearest struct {
	Last *Booking
	Next *Booking
}
