package http

import (
	"time"

	bookingHttp "github.com/nekogravitycat/shareit-backend/internal/booking/http"
	"github.com/nekogravitycat/shareit-backend/internal/item"
	"github.com/nekogravitycat/shareit-backend/internal/pkg/response"
)

type ItemResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Available   bool      `json:"available"`
	RequestID   *string   `json:"request_id"`
	HasPhoto    bool      `json:"has_photo"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewItemResponse(it *item.Item) ItemResponse {
	return ItemResponse{
		ID:          it.ID,
		OwnerID:     it.OwnerID,
		Name:        it.Name,
		Description: it.Description,
		Available:   it.Available,
		RequestID:   it.RequestID,
		HasPhoto:    it.PhotoPath != nil,
		CreatedAt:   it.CreatedAt,
		UpdatedAt:   it.UpdatedAt,
	}
}

type CommentResponse struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created"`
}

func NewCommentResponse(c *item.Comment) CommentResponse {
	return CommentResponse{
		ID:         c.ID,
		Text:       c.Text,
		AuthorName: c.AuthorName,
		CreatedAt:  c.CreatedAt,
	}
}

// ItemDetailsResponse embeds the item with its booking annotation and comments.
type ItemDetailsResponse struct {
	ItemResponse
	LastBooking *bookingHttp.BookingBrief `json:"last_booking"`
	NextBooking *bookingHttp.BookingBrief `json:"next_booking"`
	Comments    []CommentResponse         `json:"comments"`
}

func NewItemDetailsResponse(d *item.Details) ItemDetailsResponse {
	return ItemDetailsResponse{
		ItemResponse: NewItemResponse(d.Item),
		LastBooking:  bookingHttp.NewBookingBrief(d.LastBooking),
		NextBooking:  bookingHttp.NewBookingBrief(d.NextBooking),
		Comments:     response.List(d.Comments, NewCommentResponse),
	}
}

type CreateItemRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description" binding:"required"`
	Available   *bool   `json:"available" binding:"required"`
	RequestID   *string `json:"request_id" binding:"omitempty,uuid"`
}

type UpdateItemRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
}

type SearchItemsRequest struct {
	Text string `form:"text"`
}

type CreateCommentRequest struct {
	Text string `json:"text" binding:"required"`
}
