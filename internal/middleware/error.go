package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/records-api/pkg/httputil"
)

// ErrorHandler renders the last error a handler recorded with c.Error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		traceID := c.GetString(ContextRequestID)
		lastErr := c.Errors.Last().Err
		status, _ := httputil.StatusOf(lastErr)

		for _, e := range c.Errors {
			event := log.Warn()
			if status >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.
				Err(e.Err).
				Str("request_id", traceID).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Str("client_ip", c.ClientIP()).
				Msg("Request error")
		}

		if c.Writer.Written() {
			return
		}

		// Bodies cut off by SizeLimit surface through the binder.
		var tooLarge *http.MaxBytesError
		if errors.As(lastErr, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, httputil.Error{
				Code:    http.StatusRequestEntityTooLarge,
				Message: fmt.Sprintf("Request size exceeds limit: body size exceeds %d bytes", tooLarge.Limit),
				TraceID: traceID,
			})
			return
		}

		httputil.RespondWithError(c, lastErr)
	}
}
