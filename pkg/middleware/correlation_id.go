package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/engraving-commerce/pkg/logger"
)

const (
	// CorrelationIDHeader carries the correlation id in and out
	CorrelationIDHeader = "X-Correlation-ID"
	// RequestIDHeader is accepted from proxies that only set a request id
	RequestIDHeader = "X-Request-ID"

	maxCorrelationIDLen = 128
)

// CorrelationID propagates the caller's correlation id, or mints one, into
// the request context so every log line for the request carries it.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := inboundCorrelationID(c)
		if id == "" {
			id = uuid.NewString()
		}

		c.Request = c.Request.WithContext(logger.ContextWithCorrelationID(c.Request.Context(), id))
		c.Header(CorrelationIDHeader, id)
		c.Next()
	}
}

func inboundCorrelationID(c *gin.Context) string {
	for _, h := range []string{CorrelationIDHeader, RequestIDHeader} {
		if id := c.GetHeader(h); isSafeID(id) {
			return id
		}
	}
	return ""
}

// isSafeID accepts short printable ASCII ids that cannot forge log fields
func isSafeID(id string) bool {
	if id == "" || len(id) > maxCorrelationIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
