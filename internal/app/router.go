package app

import (
	apphttp "github.com/yungbote/schoolbridge-backend/internal/http"
	"github.com/yungbote/schoolbridge-backend/internal/observability"
	"github.com/yungbote/schoolbridge-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *apphttp.Server {
	log.Info("Wiring router...")
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		ServiceName:    serviceName,
		CORSOrigins:    cfg.CORSOrigins,
		AuthMiddleware: middleware.Auth,
		MasteryHandler: handlers.Mastery,
		HealthHandler:  handlers.Health,
	})
}
