package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/records-api/pkg/httputil"
)

// SizeLimitConfig represents size limit configuration
type SizeLimitConfig struct {
	MaxBodySize   int64 // in bytes
	MaxUploadSize int64 // in bytes
	MaxHeaderSize int   // in bytes
	// Route suffixes (matched against the route template) that get
	// MaxUploadSize instead of MaxBodySize.
	UploadRoutes []string
}

func DefaultSizeLimitConfig() SizeLimitConfig {
	return SizeLimitConfig{
		MaxBodySize:   1 << 20,  // 1MB
		MaxUploadSize: 10 << 20, // 10MB
		MaxHeaderSize: 1 << 14,  // 16KB
	}
}

func (c SizeLimitConfig) limitFor(route string) int64 {
	for _, suffix := range c.UploadRoutes {
		if route != "" && strings.HasSuffix(route, suffix) {
			return c.MaxUploadSize
		}
	}
	return c.MaxBodySize
}

func tooLarge(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, httputil.Error{
		Code:    http.StatusRequestEntityTooLarge,
		Message: msg,
		TraceID: c.GetString(ContextRequestID),
	})
}

// SizeLimit middleware limits request sizes
func SizeLimit(config SizeLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := config.limitFor(c.FullPath())

		// Check content length
		if c.Request.ContentLength > limit {
			tooLarge(c, fmt.Sprintf("Request size exceeds limit: body size exceeds %d bytes", limit))
			return
		}

		// Check header size
		headerSize := 0
		for name, values := range c.Request.Header {
			headerSize += len(name)
			for _, value := range values {
				headerSize += len(value)
			}
		}

		if config.MaxHeaderSize > 0 && headerSize > config.MaxHeaderSize {
			tooLarge(c, fmt.Sprintf("Request size exceeds limit: header size exceeds %d bytes", config.MaxHeaderSize))
			return
		}

		// Chunked bodies have no length up front.
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}

		c.Next()
	}
}
