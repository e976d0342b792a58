package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/shareit-backend/internal/auth"
	"github.com/nekogravitycat/shareit-backend/internal/item"
	"github.com/nekogravitycat/shareit-backend/internal/pkg/request"
	"github.com/nekogravitycat/shareit-backend/internal/pkg/response"
)

// PhotoField is the multipart form field carrying an item photo.
const PhotoField = "photo"

type Handler struct {
	service item.Service
	log     *zap.Logger
}

func NewHandler(service item.Service, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.Named("item.http"),
	}
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateItemRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	it, err := h.service.Create(c.Request.Context(), auth.GetUserID(c), item.CreateRequest{
		Name:        body.Name,
		Description: body.Description,
		Available:   body.Available,
		RequestID:   body.RequestID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewItemResponse(it))
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var body UpdateItemRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	it, err := h.service.Update(c.Request.Context(), auth.GetUserID(c), uri.ID, item.UpdateRequest{
		Name:        body.Name,
		Description: body.Description,
		Available:   body.Available,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewItemResponse(it))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	d, err := h.service.Get(c.Request.Context(), auth.GetUserID(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewItemDetailsResponse(d))
}

func (h *Handler) ListMine(c *gin.Context) {
	details, err := h.service.ListByOwner(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.List(details, NewItemDetailsResponse))
}

func (h *Handler) Search(c *gin.Context) {
	var query SearchItemsRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	items, err := h.service.Search(c.Request.Context(), query.Text)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.List(items, NewItemResponse))
}

func (h *Handler) AddComment(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var body CreateCommentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	comment, err := h.service.AddComment(c.Request.Context(), auth.GetUserID(c), uri.ID, body.Text)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewCommentResponse(comment))
}

func (h *Handler) UploadPhoto(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, item.MaxPhotoBytes+1<<20)
	header, err := c.FormFile(PhotoField)
	if err != nil {
		response.BadRequest(c, "photo file is required", err)
		return
	}

	it, err := h.service.SetPhoto(c.Request.Context(), auth.GetUserID(c), uri.ID, header)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewItemResponse(it))
}

func (h *Handler) ServePhoto(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	stream, contentType, err := h.service.OpenPhoto(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer stream.Close()

	h.stream(c, uri.ID, contentType, stream)
}

func (h *Handler) ServeThumbnail(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	stream, err := h.service.OpenThumbnail(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer stream.Close()

	// Thumbnails are always JPEG
	h.stream(c, uri.ID, "image/jpeg", stream)
}

func (h *Handler) stream(c *gin.Context, itemID, contentType string, r io.Reader) {
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", "inline")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, r); err != nil {
		// Response already started
		h.log.Warn("failed to stream photo", zap.String("item_id", itemID), zap.Error(err))
	}
}
