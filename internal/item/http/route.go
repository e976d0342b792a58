package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, userMiddleware gin.HandlerFunc) {
	group := g.Group("/items")

	// Photos are public
	group.GET("/:id/photo", h.ServePhoto)
	group.GET("/:id/photo/thumbnail", h.ServeThumbnail)

	authed := group.Group("")
	authed.Use(userMiddleware)
	{
		authed.POST("", h.Create)
		authed.GET("", h.ListMine)
		authed.GET("/search", h.Search)
		authed.GET("/:id", h.Get)
		authed.PATCH("/:id", h.Update)
		authed.PUT("/:id/photo", h.UploadPhoto)
		authed.POST("/:id/comment", h.AddComment)
	}
}
