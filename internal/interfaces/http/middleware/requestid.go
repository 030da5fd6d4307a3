package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader is the header the correlation id travels in
const RequestIDHeader = "X-Request-ID"

// RequestID attaches a correlation id to each request. An id supplied
// by the caller is kept; otherwise a fresh one is generated. The id is
// stored in the gin context and echoed in the response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)
		c.Next()
	}
}

// GetRequestID returns the correlation id stored on the context
func GetRequestID(c *gin.Context) string {
	return c.GetString("request_id")
}
