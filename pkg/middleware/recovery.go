package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/engraving-commerce/pkg/common"
	"github.com/richxcame/engraving-commerce/pkg/logger"
	"go.uber.org/zap"
)

// Recovery answers a panicking handler with the standard 500 envelope. It
// sits outside the Sentry middleware, which reports and re-panics.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && err == http.ErrAbortHandler {
				panic(rec)
			}

			logger.WithContext(c.Request.Context()).Error("handler panicked",
				zap.Any("panic", rec),
				zap.String("route", c.FullPath()),
				zap.ByteString("stack", debug.Stack()),
			)
			if !c.Writer.Written() {
				common.ErrorResponse(c, http.StatusInternalServerError, "internal server error")
			}
			c.Abort()
		}()

		c.Next()
	}
}
