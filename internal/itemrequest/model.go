package itemrequest

import (
	"time"

	"github.com/nekogravitycat/shareit-backend/internal/pkg/apperror"
)

var (
	ErrNotFound            = apperror.NotFound("item request not found")
	ErrUserNotFound        = apperror.NotFound("user not found")
	ErrDescriptionRequired = apperror.InvalidRequest("description is required")
)

// ItemRequest is a wish posted by a user who needs something nobody lists yet.
type ItemRequest struct {
	ID          string
	Description string
	RequestorID string
	CreatedAt   time.Time
	Items       []ItemBrief // items listed in answer
}

type ItemBrief struct {
	ID          string
	Name        string
	Description string
	Available   bool
	OwnerID     string
	RequestID   string
}
