package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/revreport/backend/internal/infrastructure/logger"
)

// RequestID attaches a unique request id to every request. An incoming
// X-Request-ID header is trusted so ids survive proxy hops; otherwise a
// fresh UUID is generated. The id is mirrored into the response header and
// the request context for SQL trace correlation.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		ctx, _ := logger.WithRequestID(c.Request.Context(), logger.FromContext(c.Request.Context()), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
