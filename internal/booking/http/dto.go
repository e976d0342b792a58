package http

import (
	"time"

	"github.com/nekogravitycat/shareit-backend/internal/booking"
	userHttp "github.com/nekogravitycat/shareit-backend/internal/user/http"
)

// ItemTag is a brief representation of the booked item.
type ItemTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type BookingResponse struct {
	ID        string           `json:"id"`
	Item      ItemTag          `json:"item"`
	Booker    userHttp.UserTag `json:"booker"`
	Start     time.Time        `json:"start"`
	End       time.Time        `json:"end"`
	Status    string           `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:        b.ID,
		Item:      ItemTag{ID: b.ItemID, Name: b.ItemName},
		Booker:    userHttp.UserTag{ID: b.BookerID, Name: b.BookerName},
		Start:     b.Start,
		End:       b.End,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// BookingBrief is the compact form used when a booking annotates an item.
type BookingBrief struct {
	ID       string    `json:"id"`
	BookerID string    `json:"booker_id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// NewBookingBrief returns nil for a nil booking.
func NewBookingBrief(b *booking.Booking) *BookingBrief {
	if b == nil {
		return nil
	}
	return &BookingBrief{
		ID:       b.ID,
		BookerID: b.BookerID,
		Start:    b.Start,
		End:      b.End,
	}
}

type CreateBookingRequest struct {
	ItemID string    `json:"item_id" binding:"required,uuid"`
	Start  time.Time `json:"start" binding:"required"`
	End    time.Time `json:"end" binding:"required"`
}

// ApproveBookingRequest is bound from the query string.
type ApproveBookingRequest struct {
	Approved *bool `form:"approved" binding:"required"`
}

type ListBookingsRequest struct {
	State string `form:"state"`
}
