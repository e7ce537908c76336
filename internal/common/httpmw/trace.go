// Package httpmw carries shared gin middleware.
package httpmw

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/FlowerRealm/oi-code-extension-sub002/pkg/utils/contextkey"
)

const (
	requestIDHeader = "X-Request-Id"

	requestIDContextKey = "request_id"
)

// RequestContextMiddleware ensures every request carries a request id,
// in both the context (for log correlation) and the response header.
func RequestContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDContextKey, requestID)
		ctx := context.WithValue(c.Request.Context(), contextkey.RequestID, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(requestIDHeader, requestID)

		c.Next()
	}
}
