package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserHeader carries the caller's user id. Authentication happens upstream.
const UserHeader = "X-Sharer-User-Id"

// UserIDRequired rejects requests without a well-formed caller id and stores it in the context.
func UserIDRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(UserHeader))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "missing " + UserHeader + " header",
			})
			return
		}

		id, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "invalid " + UserHeader + " header",
			})
			return
		}

		c.Set(userIDKey, id.String())
		c.Next()
	}
}
