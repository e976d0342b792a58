package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/shareit-backend/internal/auth"
	"github.com/nekogravitycat/shareit-backend/internal/booking"
	"github.com/nekogravitycat/shareit-backend/internal/pkg/idempotency"
	"github.com/nekogravitycat/shareit-backend/internal/pkg/request"
	"github.com/nekogravitycat/shareit-backend/internal/pkg/response"
)

// IdempotencyHeader lets clients retry booking creation safely.
const IdempotencyHeader = "Idempotency-Key"

type Handler struct {
	service booking.Service
	idem    idempotency.Store
	idemTTL time.Duration
	log     *zap.Logger
}

// NewHandler builds the booking handler. idem may be nil, which disables idempotent creation.
func NewHandler(service booking.Service, idem idempotency.Store, idemTTL time.Duration, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		idem:    idem,
		idemTTL: idemTTL,
		log:     log.Named("booking.http"),
	}
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	ctx := c.Request.Context()
	userID := auth.GetUserID(c)
	fp := body.fingerprint()

	idemKey := ""
	if key := c.GetHeader(IdempotencyHeader); key != "" && h.idem != nil {
		idemKey = "booking:create:" + userID + ":" + key
		won, err := h.idem.Claim(ctx, idemKey, idemRecord{Fingerprint: fp}.encode(), h.idemTTL)
		switch {
		case err != nil:
			// Store unavailable: serve the request without replay protection.
			h.log.Warn("idempotency claim failed", zap.Error(err))
			idemKey = ""
		case !won:
			h.replay(c, userID, idemKey, fp)
			return
		}
	}

	b, err := h.service.Create(ctx, booking.CreateRequest{
		ItemID:   body.ItemID,
		BookerID: userID,
		Start:    body.Start,
		End:      body.End,
	})
	if err != nil {
		if idemKey != "" {
			if err := h.idem.Delete(ctx, idemKey); err != nil {
				h.log.Warn("failed to release idempotency key", zap.Error(err))
			}
		}
		response.Error(c, err)
		return
	}

	if idemKey != "" {
		record := idemRecord{Fingerprint: fp, BookingID: b.ID}
		if err := h.idem.Set(ctx, idemKey, record.encode(), h.idemTTL); err != nil {
			h.log.Warn("failed to store idempotency key", zap.String("booking_id", b.ID), zap.Error(err))
		}
	}

	c.JSON(http.StatusCreated, NewBookingResponse(b))
}

// replay answers a request whose idempotency key is already taken.
func (h *Handler) replay(c *gin.Context, userID, idemKey, fp string) {
	ctx := c.Request.Context()

	raw, ok, err := h.idem.Get(ctx, idemKey)
	if err != nil {
		h.log.Warn("idempotency lookup failed", zap.Error(err))
		response.Error(c, ErrIdempotencyInProgress)
		return
	}
	if !ok {
		// The first attempt failed and released the key.
		response.Error(c, ErrIdempotencyInProgress)
		return
	}

	record, err := decodeIdemRecord(raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	if record.Fingerprint != fp {
		response.Error(c, ErrIdempotencyMismatch)
		return
	}
	if record.BookingID == "" {
		response.Error(c, ErrIdempotencyInProgress)
		return
	}

	b, err := h.service.Get(ctx, userID, record.BookingID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Approve(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var query ApproveBookingRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	b, err := h.service.Approve(c.Request.Context(), auth.GetUserID(c), uri.ID, *query.Approved)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	b, err := h.service.Get(c.Request.Context(), auth.GetUserID(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) ListMine(c *gin.Context) {
	h.list(c, h.service.ListForBooker)
}

func (h *Handler) ListOwned(c *gin.Context) {
	h.list(c, h.service.ListForOwner)
}

type listFunc func(ctx context.Context, userID string, state booking.State) ([]*booking.Booking, error)

func (h *Handler) list(c *gin.Context, fn listFunc) {
	var query ListBookingsRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	state, err := booking.ParseState(query.State)
	if err != nil {
		response.Error(c, err)
		return
	}

	bookings, err := fn(c.Request.Context(), auth.GetUserID(c), state)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.List(bookings, NewBookingResponse))
}
