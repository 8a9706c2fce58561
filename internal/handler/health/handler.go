package health

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/records-api/internal/handler"
)

// Handler serves liveness. It never touches the store.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health", h.LivenessCheck)
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, handler.HealthResponse{Status: "ok"})
}
