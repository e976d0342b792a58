package user

import (
	"time"

	"github.com/nekogravitycat/shareit-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.NotFound("user not found")
	ErrEmailAlreadyUsed = apperror.Conflict("email already used")
	ErrEmailRequired    = apperror.InvalidRequest("email is required")
	ErrNameRequired     = apperror.InvalidRequest("name is required")
)

// User represents a user in the system.
type User struct {
	ID        string // UUID
	Name      string
	Email     string
	CreatedAt time.Time
}
