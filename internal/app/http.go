package app

import (
	"context"

	"github.com/yungbote/eventforge/internal/http"
	httpH "github.com/yungbote/eventforge/internal/http/handlers"
	"github.com/yungbote/eventforge/internal/observability"
	"github.com/yungbote/eventforge/internal/pkg/logger"
)

type Handlers struct {
	Health *httpH.HealthHandler
	Event  *httpH.EventHandler
}

func wireHandlers(log *logger.Logger, services Services, ping func(ctx context.Context) error) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(ping),
		Event:  httpH.NewEventHandler(log, services.Events),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics, otelCfg observability.OtelConfig) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:            log,
		CORSOrigins:    cfg.CORSOrigins,
		TracingEnabled: otelCfg.Enabled,
		ServiceName:    otelCfg.ServiceName,
		Metrics:        metrics,
		HealthHandler:  handlers.Health,
		EventHandler:   handlers.Event,
	})
}
