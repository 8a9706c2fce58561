package httputil

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jwalitptl/records-api/pkg/errors"
)

// ContextRequestID is the gin context key holding the request id.
const ContextRequestID = "request_id"

// Error is the body of every error response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

// RespondWithSuccess sends data as the bare 200 body.
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// RespondWithMessage sends {"message": msg}.
func RespondWithMessage(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// StatusOf returns the HTTP status and the client-safe message for err.
// Unclassified errors never leak their text.
func StatusOf(err error) (int, string) {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		status := appErr.StatusCode()
		if status == http.StatusInternalServerError {
			return status, "Internal server error"
		}
		return status, appErr.Message
	}
	return http.StatusInternalServerError, "Internal server error"
}

// RespondWithError sends the error body for err and aborts the chain.
func RespondWithError(c *gin.Context, err error) {
	status, message := StatusOf(err)

	c.AbortWithStatusJSON(status, Error{
		Code:    status,
		Message: message,
		TraceID: c.GetString(ContextRequestID),
	})
}
