package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	playground "github.com/go-playground/validator/v10"

	"github.com/jwalitptl/records-api/internal/handler/health"
	"github.com/jwalitptl/records-api/internal/handler/note"
	"github.com/jwalitptl/records-api/internal/handler/prometheus"
	"github.com/jwalitptl/records-api/internal/middleware"
	"github.com/jwalitptl/records-api/pkg/validator"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type RouterConfig struct {
	Mode       string
	CORSConfig middleware.CORSConfig
	// Nil disables rate limiting.
	RateLimit   *middleware.RateLimiterConfig
	SizeLimit   middleware.SizeLimitConfig
	MetricsPath string
}

type Router struct {
	engine   *gin.Engine
	config   RouterConfig
	health   *health.Handler
	metrics  *prometheus.Handler
	handlers []Handler
}

// NewRouter builds the engine and its middleware chain. metrics may be nil.
func NewRouter(config RouterConfig, metrics *prometheus.Handler, handlers ...Handler) (*Router, error) {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	if v, ok := binding.Validator.Engine().(*playground.Validate); ok {
		if err := validator.Register(v); err != nil {
			return nil, fmt.Errorf("failed to register validators: %w", err)
		}
	}

	if len(config.SizeLimit.UploadRoutes) == 0 {
		config.SizeLimit.UploadRoutes = []string{note.UploadRoute}
	}

	engine := gin.New()
	r := &Router{
		engine:   engine,
		config:   config,
		health:   health.NewHandler(),
		metrics:  metrics,
		handlers: handlers,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
	)
	if metrics != nil {
		engine.Use(metrics.Middleware())
	}
	engine.Use(middleware.CORS(config.CORSConfig))
	if config.RateLimit != nil {
		engine.Use(middleware.NewRateLimiter(*config.RateLimit).RateLimit())
	}
	engine.Use(
		middleware.ErrorHandler(),
		middleware.SizeLimit(config.SizeLimit),
	)

	return r, nil
}

func (r *Router) Setup() {
	r.health.RegisterRoutes(r.engine)

	if r.metrics != nil {
		path := r.config.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.engine.GET(path, r.metrics.Handler())
	}

	api := r.engine.Group("/api/v1")
	for _, h := range r.handlers {
		h.RegisterRoutes(api)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
