package http

import (
	"time"

	"github.com/nekogravitycat/shareit-backend/internal/itemrequest"
	"github.com/nekogravitycat/shareit-backend/internal/pkg/response"
)

type ItemBriefResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	OwnerID     string `json:"owner_id"`
	RequestID   string `json:"request_id"`
}

func NewItemBriefResponse(b itemrequest.ItemBrief) ItemBriefResponse {
	return ItemBriefResponse(b)
}

type ItemRequestResponse struct {
	ID          string              `json:"id"`
	Description string              `json:"description"`
	RequestorID string              `json:"requestor_id"`
	CreatedAt   time.Time           `json:"created"`
	Items       []ItemBriefResponse `json:"items"`
}

func NewItemRequestResponse(r *itemrequest.ItemRequest) ItemRequestResponse {
	return ItemRequestResponse{
		ID:          r.ID,
		Description: r.Description,
		RequestorID: r.RequestorID,
		CreatedAt:   r.CreatedAt,
		Items:       response.List(r.Items, NewItemBriefResponse),
	}
}

type CreateItemRequestRequest struct {
	Description string `json:"description" binding:"required"`
}
