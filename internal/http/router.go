package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/eventforge/internal/http/handlers"
	httpMW "github.com/yungbote/eventforge/internal/http/middleware"
	"github.com/yungbote/eventforge/internal/observability"
	"github.com/yungbote/eventforge/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	CORSOrigins    []string
	TracingEnabled bool
	ServiceName    string
	Metrics        *observability.Metrics

	EventHandler  *httpH.EventHandler
	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Events
		if cfg.EventHandler != nil {
			api.GET("/events/next", cfg.EventHandler.Next)
			api.POST("/events/creative", cfg.EventHandler.Creative)
			api.POST("/events/:id/usage", cfg.EventHandler.RecordUsage)
		}
	}

	return r
}
